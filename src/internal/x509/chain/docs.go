// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package x509chain resolves the certificate material a TLS server presents.
// It provides capabilities to:
//   - Fetch the presented chain from a TLS endpoint using SNI, without verification.
//   - Locate the trust anchor of that chain in an immutable trust store.
//   - Extend incomplete chains by downloading issuers via AIA URLs.
//
// Failures are reported as [ResolveError] values whose [Kind] tells network,
// handshake and chain problems apart.
//
// [X.509]: https://grokipedia.com/page/X.509
package x509chain
