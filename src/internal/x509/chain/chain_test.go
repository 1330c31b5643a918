// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain_test

import (
	"context"
	"crypto/x509"
	"crypto/x509/pkix"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/internal/x509/certtest"
	x509chain "github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/internal/x509/chain"
	"github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/internal/x509/truststore"
)

var version = "1.3.3.7-testing"

// hierarchy is root -> intermediate -> leaf.
type hierarchy struct {
	root  *certtest.Authority
	inter *certtest.Authority
	leaf  *certtest.Authority
}

func newHierarchy(t *testing.T, leafAIA ...string) hierarchy {
	t.Helper()
	root := certtest.NewRoot(t, pkix.Name{CommonName: "Chain Test Root"}, certtest.ECDSAP256)
	inter := root.Issue(t, certtest.Template{Subject: pkix.Name{CommonName: "Chain Test Intermediate"}, IsCA: true})
	leaf := inter.Issue(t, certtest.Template{
		Subject:               pkix.Name{CommonName: "leaf.test"},
		DNSNames:              []string{"leaf.test"},
		IssuingCertificateURL: leafAIA,
	})
	return hierarchy{root: root, inter: inter, leaf: leaf}
}

func TestChainOperations(t *testing.T) {
	h := newHierarchy(t)

	tests := []struct {
		name     string
		testFunc func(t *testing.T, ch *x509chain.Chain)
	}{
		{
			name: "Leaf and Top",
			testFunc: func(t *testing.T, ch *x509chain.Chain) {
				assert.True(t, ch.Leaf().Equal(h.leaf.Cert))
				assert.True(t, ch.Top().Equal(h.inter.Cert))
				assert.Equal(t, 2, ch.Len())
			},
		},
		{
			name: "IsSelfSigned",
			testFunc: func(t *testing.T, ch *x509chain.Chain) {
				assert.True(t, ch.IsSelfSigned(h.root.Cert))
				assert.False(t, ch.IsSelfSigned(h.inter.Cert))
				assert.False(t, ch.IsSelfSigned(h.leaf.Cert))
			},
		},
		{
			name: "ResolveAnchor via issuer of top certificate",
			testFunc: func(t *testing.T, ch *x509chain.Chain) {
				store := truststore.New([]*x509.Certificate{h.root.Cert})
				anchor, err := ch.ResolveAnchor(context.Background(), store)
				require.NoError(t, err)
				assert.True(t, anchor.Equal(h.root.Cert))
			},
		},
		{
			name: "ResolveAnchor without AIA and unknown root",
			testFunc: func(t *testing.T, ch *x509chain.Chain) {
				_, err := ch.ResolveAnchor(context.Background(), truststore.New(nil))
				assert.ErrorIs(t, err, x509chain.ErrAnchorNotFound)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := x509chain.New(h.leaf.Cert, version)
			ch.Certs = append(ch.Certs, h.inter.Cert)
			tt.testFunc(t, ch)
		})
	}
}

func TestChain_ResolveAnchorPresentedRoot(t *testing.T) {
	h := newHierarchy(t)
	ch := x509chain.New(h.leaf.Cert, version)
	ch.Certs = append(ch.Certs, h.inter.Cert, h.root.Cert)

	anchor, err := ch.ResolveAnchor(context.Background(), truststore.New([]*x509.Certificate{h.root.Cert}))
	require.NoError(t, err)
	assert.True(t, anchor.Equal(h.root.Cert))
}

func TestChain_ResolveAnchorViaAIA(t *testing.T) {
	var interDER atomic.Value
	var hits atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.True(t, strings.HasPrefix(r.Header.Get("User-Agent"), "TLS-Trust-Anchor-Resolver/"+version))
		w.Header().Set("Content-Type", "application/pkix-cert")
		w.Write(interDER.Load().([]byte))
	}))
	defer srv.Close()

	h := newHierarchy(t, srv.URL+"/inter.crt")
	interDER.Store(h.inter.Cert.Raw)

	ch := x509chain.New(h.leaf.Cert, version)
	anchor, err := ch.ResolveAnchor(context.Background(), truststore.New([]*x509.Certificate{h.root.Cert}))
	require.NoError(t, err)

	assert.True(t, anchor.Equal(h.root.Cert))
	assert.Equal(t, 2, ch.Len(), "downloaded intermediate should be appended")
	assert.Equal(t, int32(1), hits.Load())
}

func TestChain_ResolveAnchorAIAStatusError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	h := newHierarchy(t, srv.URL+"/missing.crt")
	ch := x509chain.New(h.leaf.Cert, version)

	_, err := ch.ResolveAnchor(context.Background(), truststore.New(nil))
	assert.ErrorIs(t, err, x509chain.ErrIssuerDownload)
}

func TestChain_ResolveAnchorAIABounded(t *testing.T) {
	var loopDER atomic.Value
	var hits atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write(loopDER.Load().([]byte))
	}))
	defer srv.Close()

	// An intermediate that names itself as its own AIA issuer location.
	untrusted := certtest.NewRoot(t, pkix.Name{CommonName: "Untrusted Root"}, certtest.ECDSAP256)
	loop := untrusted.Issue(t, certtest.Template{
		Subject:               pkix.Name{CommonName: "Looping Intermediate"},
		IsCA:                  true,
		IssuingCertificateURL: []string{srv.URL + "/loop.crt"},
	})
	loopDER.Store(loop.Cert.Raw)

	ch := x509chain.New(loop.Cert, version)
	_, err := ch.ResolveAnchor(context.Background(), truststore.New(nil))

	assert.ErrorIs(t, err, x509chain.ErrAnchorNotFound)
	assert.Equal(t, int32(x509chain.MaxAIADepth), hits.Load())
}

func TestChain_FetchIssuerFormats(t *testing.T) {
	h := newHierarchy(t)

	tests := []struct {
		name string
		body []byte
	}{
		{name: "DER", body: h.inter.Cert.Raw},
		{name: "PEM", body: h.inter.PEM()},
		{name: "PKCS7", body: certtest.PKCS7(t, h.inter.Cert)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write(tt.body)
			}))
			defer srv.Close()

			ch := x509chain.New(h.leaf.Cert, version)
			cert, err := ch.FetchIssuer(context.Background(), srv.URL)
			require.NoError(t, err)
			assert.True(t, cert.Equal(h.inter.Cert))
		})
	}
}

func TestChain_ContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	h := newHierarchy(t, srv.URL+"/slow.crt")
	ch := x509chain.New(h.leaf.Cert, version)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := ch.ResolveAnchor(ctx, truststore.New(nil))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHTTPConfig(t *testing.T) {
	cfg := x509chain.NewHTTPConfig(version)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Contains(t, cfg.GetUserAgent(), version)

	cfg.UserAgent = "custom/1.0"
	assert.Equal(t, "custom/1.0", cfg.GetUserAgent())

	client := cfg.Client()
	assert.Same(t, client, cfg.Client(), "client should be reused")

	cfg.Timeout = time.Second
	assert.Equal(t, time.Second, cfg.Client().Timeout)
}
