// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"errors"
	"fmt"
)

// Kind classifies where a resolution failed.
type Kind string

const (
	// KindNetwork covers DNS lookup and TCP connect failures.
	KindNetwork Kind = "network"
	// KindHandshake covers TLS handshake failures, including servers that
	// present no certificates.
	KindHandshake Kind = "handshake"
	// KindChain covers failures to locate a trust anchor for the presented chain.
	KindChain Kind = "chain"
)

// ErrNoPeerCertificates indicates that the handshake completed without the
// server presenting a certificate.
var ErrNoPeerCertificates = errors.New("x509chain: no certificates received from server")

// ResolveError is returned by [AnchorResolver.Resolve] and [FetchRemoteChain].
type ResolveError struct {
	Kind   Kind
	Domain string
	Err    error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("x509chain: %s failure for %s: %v", e.Kind, e.Domain, e.Err)
}

func (e *ResolveError) Unwrap() error { return e.Err }

// KindOf returns the failure kind carried by err, or "" if err is not a
// [ResolveError].
func KindOf(err error) Kind {
	var re *ResolveError
	if errors.As(err, &re) {
		return re.Kind
	}
	return ""
}
