// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package truststore holds the immutable set of trusted root certificates,
// keyed by the SHA-256 fingerprint of each root's subject name.
//
// A Store is built once at startup and never mutated, so it can be shared by
// any number of concurrent resolutions without locking.
package truststore

import (
	"crypto/x509"
	"errors"
	"fmt"
	"os"

	x509certs "github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/internal/x509/certs"
)

// ErrEmpty is returned when a bundle yields no root certificates.
var ErrEmpty = errors.New("truststore: bundle contains no certificates")

// Store maps subject fingerprints to trusted roots.
type Store struct {
	roots map[x509certs.Fingerprint]*x509.Certificate
}

// New builds a Store from roots. When two roots share a subject name the
// later one wins.
func New(roots []*x509.Certificate) *Store {
	m := make(map[x509certs.Fingerprint]*x509.Certificate, len(roots))
	for _, r := range roots {
		m[x509certs.SubjectFingerprint(r)] = r
	}
	return &Store{roots: m}
}

// Parse builds a Store from a PEM, DER or PKCS7 root bundle.
func Parse(data []byte) (*Store, error) {
	roots, err := x509certs.New().DecodeMultiple(data)
	if err != nil {
		if errors.Is(err, x509certs.ErrNoCertificates) {
			return nil, ErrEmpty
		}
		return nil, fmt.Errorf("truststore: %w", err)
	}
	return New(roots), nil
}

// Load reads and parses the root bundle at path.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("truststore: read %s: %w", path, err)
	}
	return Parse(data)
}

// Lookup returns the root whose subject fingerprint is fp.
func (s *Store) Lookup(fp x509certs.Fingerprint) (*x509.Certificate, bool) {
	if s == nil {
		return nil, false
	}
	cert, ok := s.roots[fp]
	return cert, ok
}

// IssuerOf returns the trusted root named as the issuer of cert.
func (s *Store) IssuerOf(cert *x509.Certificate) (*x509.Certificate, bool) {
	return s.Lookup(x509certs.IssuerFingerprint(cert))
}

// Contains reports whether cert itself is one of the trusted roots.
func (s *Store) Contains(cert *x509.Certificate) bool {
	root, ok := s.Lookup(x509certs.SubjectFingerprint(cert))
	return ok && root.Equal(cert)
}

// Len returns the number of distinct subjects in the store.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.roots)
}
