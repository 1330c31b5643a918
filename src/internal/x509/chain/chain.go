// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/internal/helper/gc"
	x509certs "github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/internal/x509/certs"
)

// MaxAIADepth bounds how many issuer downloads a single anchor lookup may make.
const MaxAIADepth = 10

// maxIssuerSize caps an AIA download. Real issuer certificates are a few KiB.
const maxIssuerSize = 1 << 20

var (
	// ErrAnchorNotFound indicates that no certificate in the chain, including
	// issuers downloaded through AIA, is issued by or equal to a trusted root.
	ErrAnchorNotFound = errors.New("x509chain: no trust anchor found for chain")

	// ErrIssuerDownload indicates that an AIA endpoint answered with a non-200 status.
	ErrIssuerDownload = errors.New("x509chain: issuer download failed")
)

// AnchorStore is the read-only view of the trust store the chain needs.
type AnchorStore interface {
	IssuerOf(cert *x509.Certificate) (*x509.Certificate, bool)
	Contains(cert *x509.Certificate) bool
}

// HTTPConfig holds HTTP client configuration for AIA downloads
type HTTPConfig struct {
	Timeout   time.Duration // HTTP request timeout
	Version   string        // Application version for User-Agent
	UserAgent string        // Custom User-Agent string, if empty will be constructed from Version

	mu     sync.Mutex
	client *http.Client
}

// NewHTTPConfig creates a new HTTP configuration with a default timeout of
// 10 seconds and the provided application version.
func NewHTTPConfig(version string) *HTTPConfig {
	return &HTTPConfig{
		Timeout: 10 * time.Second,
		Version: version,
	}
}

// GetUserAgent returns the User-Agent string, constructing it if not set.
func (c *HTTPConfig) GetUserAgent() string {
	if c.UserAgent != "" {
		return c.UserAgent
	}
	return fmt.Sprintf("TLS-Trust-Anchor-Resolver/%s (+https://github.com/H0llyW00dzZ/tls-trust-anchor-resolver)", c.Version)
}

// Client returns an HTTP client configured with the current timeout.
//
// Thread Safety: Safe for concurrent use.
func (c *HTTPConfig) Client() *http.Client {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		c.client = &http.Client{Timeout: c.Timeout}
		return c.client
	}

	if c.client.Timeout != c.Timeout {
		c.client.Timeout = c.Timeout
	}

	return c.client
}

// Chain holds the certificates presented by a server, leaf first, plus any
// issuers downloaded while searching for a trust anchor.
//
// [X.509]: https://grokipedia.com/page/X.509
type Chain struct {
	mu    sync.RWMutex
	Certs []*x509.Certificate
	*x509certs.Certificate
	HTTPConfig *HTTPConfig // HTTP client configuration
}

// New creates a new Chain starting at the leaf certificate.
func New(cert *x509.Certificate, version string) *Chain {
	return &Chain{
		Certs:       []*x509.Certificate{cert},
		Certificate: x509certs.New(),
		HTTPConfig:  NewHTTPConfig(version),
	}
}

// Leaf returns the end-entity certificate.
func (ch *Chain) Leaf() *x509.Certificate {
	ch.mu.RLock()
	defer ch.mu.RUnlock()
	return ch.Certs[0]
}

// Top returns the last certificate in the chain.
func (ch *Chain) Top() *x509.Certificate {
	ch.mu.RLock()
	defer ch.mu.RUnlock()
	return ch.Certs[len(ch.Certs)-1]
}

// Len returns the number of certificates currently in the chain.
func (ch *Chain) Len() int {
	ch.mu.RLock()
	defer ch.mu.RUnlock()
	return len(ch.Certs)
}

// IsSelfSigned checks if a certificate is self-signed by verifying its
// signature against itself.
func (ch *Chain) IsSelfSigned(cert *x509.Certificate) bool {
	return cert.CheckSignatureFrom(cert) == nil
}

// ResolveAnchor finds the trust anchor for the chain in store.
//
// Certificates already in the chain are checked from the top down: a
// certificate that is itself a trusted root is returned as is, otherwise the
// root named as its issuer is returned. When nothing matches, issuers are
// downloaded through the AIA caIssuers URL of the top certificate, at most
// [MaxAIADepth] times, checking the store after each download.
//
// No signatures are verified; the store is trusted to name the anchor.
func (ch *Chain) ResolveAnchor(ctx context.Context, store AnchorStore) (*x509.Certificate, error) {
	if anchor := ch.anchorIn(store); anchor != nil {
		return anchor, nil
	}

	for range MaxAIADepth {
		top := ch.Top()
		if len(top.IssuingCertificateURL) == 0 || ch.IsSelfSigned(top) {
			break
		}

		issuer, err := ch.FetchIssuer(ctx, top.IssuingCertificateURL[0])
		if err != nil {
			return nil, err
		}

		ch.mu.Lock()
		ch.Certs = append(ch.Certs, issuer)
		ch.mu.Unlock()

		if store.Contains(issuer) {
			return issuer, nil
		}
		if root, ok := store.IssuerOf(issuer); ok {
			return root, nil
		}
	}

	return nil, ErrAnchorNotFound
}

func (ch *Chain) anchorIn(store AnchorStore) *x509.Certificate {
	ch.mu.RLock()
	defer ch.mu.RUnlock()

	for i := len(ch.Certs) - 1; i >= 0; i-- {
		cert := ch.Certs[i]
		if store.Contains(cert) {
			return cert
		}
		if root, ok := store.IssuerOf(cert); ok {
			return root
		}
	}
	return nil
}

// FetchIssuer downloads and decodes the certificate at an AIA caIssuers URL.
// DER, PEM and PKCS7 responses are accepted.
func (ch *Chain) FetchIssuer(ctx context.Context, url string) (*x509.Certificate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	// Set the User-Agent header with version information and GitHub link
	req.Header.Set("User-Agent", ch.HTTPConfig.GetUserAgent())

	resp, err := ch.HTTPConfig.Client().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned status %d", ErrIssuerDownload, url, resp.StatusCode)
	}

	buf := gc.Default.Get()
	defer func() {
		buf.Reset()
		gc.Default.Put(buf)
	}()

	if _, err := buf.ReadFrom(io.LimitReader(resp.Body, maxIssuerSize)); err != nil {
		return nil, err
	}

	// Parsed certificates alias their input, so decode a private copy.
	return ch.Certificate.Decode(gc.Copy(buf))
}
