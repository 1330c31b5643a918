// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package header renders trust anchors as a C header declaring a
// [BearSSL] br_x509_trust_anchor array, ready to be compiled into firmware
// that validates TLS servers without a filesystem trust store.
//
// The generated header has the shape:
//
//	#ifndef CERTIFICATES
//	#define CERTIFICATES
//	...
//	#define TAs_NUM 1
//
//	static const unsigned char TAs_0_DN[] = { ... };
//	static const unsigned char TAs_0_EC_Q[] = { ... };
//
//	static const br_x509_trust_anchor TAs[] = { ... };
//	...
//	#endif
//
// RSA and NIST P-256/P-384/P-521 ECDSA keys are supported.
//
// [BearSSL]: https://bearssl.org/
package header
