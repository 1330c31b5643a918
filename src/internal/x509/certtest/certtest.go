// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package certtest builds throwaway certificate hierarchies for tests: roots,
// intermediates and leaves with selectable key algorithms, TLS key pairs for
// in-process servers, and degenerate PKCS7 bundles.
package certtest

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/smallstep/pkcs7"
)

// Algorithm selects the key type of a generated certificate.
type Algorithm int

const (
	ECDSAP256 Algorithm = iota
	ECDSAP384
	ECDSAP521
	RSA2048
	Ed25519
)

var serial atomic.Int64

// Template describes a certificate to issue.
type Template struct {
	Subject   pkix.Name
	Algorithm Algorithm
	IsCA      bool
	DNSNames  []string
	// IssuingCertificateURL populates the AIA caIssuers extension.
	IssuingCertificateURL []string
}

// Authority is a generated certificate together with its private key.
type Authority struct {
	Cert *x509.Certificate
	Key  crypto.Signer
}

// PEM returns the certificate in PEM form.
func (a *Authority) PEM() []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: a.Cert.Raw})
}

// NewRoot creates a self-signed CA.
func NewRoot(tb testing.TB, subject pkix.Name, alg Algorithm) *Authority {
	tb.Helper()
	return issue(tb, Template{Subject: subject, Algorithm: alg, IsCA: true}, nil)
}

// Issue signs a new certificate described by tmpl with a's key.
func (a *Authority) Issue(tb testing.TB, tmpl Template) *Authority {
	tb.Helper()
	return issue(tb, tmpl, a)
}

// TLSCertificate returns a key pair presenting a followed by chain, for use
// with httptest.Server.TLS or tls.Listen.
func (a *Authority) TLSCertificate(chain ...*Authority) tls.Certificate {
	out := tls.Certificate{
		Certificate: [][]byte{a.Cert.Raw},
		PrivateKey:  a.Key,
		Leaf:        a.Cert,
	}
	for _, c := range chain {
		out.Certificate = append(out.Certificate, c.Cert.Raw)
	}
	return out
}

func issue(tb testing.TB, tmpl Template, parent *Authority) *Authority {
	tb.Helper()

	key := newKey(tb, tmpl.Algorithm)
	now := time.Now()

	cert := &x509.Certificate{
		SerialNumber:          big.NewInt(serial.Add(1)),
		Subject:               tmpl.Subject,
		NotBefore:             now.Add(-time.Hour),
		NotAfter:              now.Add(24 * time.Hour),
		BasicConstraintsValid: true,
		IsCA:                  tmpl.IsCA,
		DNSNames:              tmpl.DNSNames,
		IssuingCertificateURL: tmpl.IssuingCertificateURL,
	}
	if tmpl.IsCA {
		cert.KeyUsage = x509.KeyUsageCertSign | x509.KeyUsageCRLSign | x509.KeyUsageDigitalSignature
	} else {
		cert.KeyUsage = x509.KeyUsageDigitalSignature
		cert.ExtKeyUsage = []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth}
		cert.IPAddresses = []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback}
	}

	issuerCert, issuerKey := cert, key
	if parent != nil {
		issuerCert, issuerKey = parent.Cert, parent.Key
	}

	der, err := x509.CreateCertificate(rand.Reader, cert, issuerCert, key.Public(), issuerKey)
	if err != nil {
		tb.Fatalf("certtest: create certificate: %v", err)
	}
	parsed, err := x509.ParseCertificate(der)
	if err != nil {
		tb.Fatalf("certtest: parse certificate: %v", err)
	}

	return &Authority{Cert: parsed, Key: key}
}

func newKey(tb testing.TB, alg Algorithm) crypto.Signer {
	tb.Helper()

	var (
		key crypto.Signer
		err error
	)
	switch alg {
	case ECDSAP384:
		key, err = ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	case ECDSAP521:
		key, err = ecdsa.GenerateKey(elliptic.P521(), rand.Reader)
	case RSA2048:
		key, err = rsa.GenerateKey(rand.Reader, 2048)
	case Ed25519:
		_, key, err = ed25519.GenerateKey(rand.Reader)
	default:
		key, err = ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	}
	if err != nil {
		tb.Fatalf("certtest: generate key: %v", err)
	}
	return key
}

// PKCS7 wraps certs in a certificate-only PKCS7 signed-data bundle, the
// format of .p7b/.p7c files.
func PKCS7(tb testing.TB, certs ...*x509.Certificate) []byte {
	tb.Helper()

	var raw []byte
	for _, c := range certs {
		raw = append(raw, c.Raw...)
	}

	out, err := pkcs7.DegenerateCertificate(raw)
	if err != nil {
		tb.Fatalf("certtest: degenerate PKCS7: %v", err)
	}
	return out
}
