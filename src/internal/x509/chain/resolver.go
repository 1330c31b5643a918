// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"context"
	"crypto/x509"
	"time"

	x509certs "github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/internal/x509/certs"
)

// DefaultPort is the TLS port dialed when none is configured.
const DefaultPort = 443

// Record is the certificate selected for a domain.
type Record struct {
	// Label is the display name of Cert, see [x509certs.Label].
	Label string
	Cert  *x509.Certificate
	// PEM is Cert in PEM form.
	PEM []byte
}

// AnchorResolver fetches the certificate a server presents, or the trust
// anchor that ultimately issued it.
//
// An AnchorResolver is immutable after construction and safe for concurrent use.
type AnchorResolver struct {
	port    int
	store   AnchorStore
	timeout time.Duration
	version string
	codec   *x509certs.Certificate
}

// NewAnchorResolver binds the dial port, the trust store, the per-call
// timeout and the version reported in the AIA User-Agent. A zero port
// selects [DefaultPort]; a zero timeout leaves the caller's deadline in charge.
func NewAnchorResolver(store AnchorStore, port int, timeout time.Duration, version string) *AnchorResolver {
	if port <= 0 {
		port = DefaultPort
	}
	return &AnchorResolver{
		port:    port,
		store:   store,
		timeout: timeout,
		version: version,
		codec:   x509certs.New(),
	}
}

// Resolve connects to domain and returns its leaf certificate, or with
// wantRoot its trust anchor. Failures are [*ResolveError] values.
func (r *AnchorResolver) Resolve(ctx context.Context, domain string, wantRoot bool) (*Record, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	chain, err := FetchRemoteChain(ctx, domain, r.port, r.version)
	if err != nil {
		return nil, err
	}

	if !wantRoot {
		return r.record(chain.Leaf()), nil
	}

	anchor, err := chain.ResolveAnchor(ctx, r.store)
	if err != nil {
		return nil, &ResolveError{Kind: KindChain, Domain: domain, Err: err}
	}

	return r.record(anchor), nil
}

func (r *AnchorResolver) record(cert *x509.Certificate) *Record {
	return &Record{
		Label: x509certs.Label(cert),
		Cert:  cert,
		PEM:   r.codec.EncodePEM(cert),
	}
}
