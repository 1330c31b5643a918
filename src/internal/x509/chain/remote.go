// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"context"
	"crypto/tls"
	"net"
	"strconv"
)

// FetchRemoteChain establishes a TLS connection to hostname:port and
// constructs a chain from the certificates presented during the handshake.
// The hostname is sent as SNI. Verification is disabled: only the presented
// chain is collected.
//
// Dial failures are reported as [KindNetwork] and handshake failures as
// [KindHandshake], both wrapped in a [ResolveError]. The context bounds the
// dial and the handshake.
func FetchRemoteChain(ctx context.Context, hostname string, port int, version string) (*Chain, error) {
	var dialer net.Dialer

	raw, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(hostname, strconv.Itoa(port)))
	if err != nil {
		return nil, &ResolveError{Kind: KindNetwork, Domain: hostname, Err: err}
	}

	conn := tls.Client(raw, &tls.Config{
		ServerName: hostname,
		// We just want the cert chain, not to verify
		InsecureSkipVerify: true,
	})
	defer conn.Close()

	if err := conn.HandshakeContext(ctx); err != nil {
		return nil, &ResolveError{Kind: KindHandshake, Domain: hostname, Err: err}
	}

	peerCerts := conn.ConnectionState().PeerCertificates
	if len(peerCerts) == 0 {
		return nil, &ResolveError{Kind: KindHandshake, Domain: hostname, Err: ErrNoPeerCertificates}
	}

	chain := New(peerCerts[0], version)
	chain.Certs = append(chain.Certs, peerCerts[1:]...)

	return chain, nil
}
