// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package x509certs provides encoding, decoding and naming helpers for [X.509] certificates.
// It reads [PEM], DER and [PKCS7] inputs (root bundles, AIA downloads), writes PEM,
// derives display labels, and computes the subject and issuer fingerprints the
// trust store is keyed by.
//
// [X.509]: https://grokipedia.com/page/X.509
// [PKCS7]: https://grokipedia.com/page/PKCS_7
// [PEM]: https://grokipedia.com/page/PEM#privacy-enhanced-mail
package x509certs
