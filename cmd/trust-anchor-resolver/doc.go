// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// trust-anchor-resolver vets domains against Google Safe Browsing, resolves
// their TLS certificates or trust anchors, and generates BearSSL trust anchor
// headers.
//
// # Installation
//
// Install with Go 1.25.5 or later:
//
//	go install github.com/H0llyW00dzZ/tls-trust-anchor-resolver/cmd/trust-anchor-resolver@latest
//
// # Usage
//
//	trust-anchor-resolver [-c CONFIG] COMMAND [FLAGS] [DOMAIN...]
//
// # Commands
//
//	resolve DOMAIN...   Print leaf certificates (or trust anchors with --root)
//	header DOMAIN...    Generate a BearSSL trust anchor header
//	serve               Serve /cert, /root, /header and /metrics over HTTP
//	mcp                 Serve the same operations as MCP tools over stdio
//
// # Configuration
//
// The Safe Browsing API key is read from the configuration file, from
// GOOGLE_API_KEY (or google_api_key), or from AWS Secrets Manager when
// safeBrowsing.apiKeySecretId is set. The trust store defaults to the system
// CA bundle and can be overridden with TRUST_ANCHOR_TRUST_STORE.
//
// # Examples
//
// Resolve trust anchors as JSON:
//
//	trust-anchor-resolver resolve --root --json example.com example.org
//
// Write a header for an embedded client:
//
//	trust-anchor-resolver header --array-name MY_TAs -o trust_anchors.h example.com
//
// Serve the HTTP API:
//
//	GOOGLE_API_KEY=... trust-anchor-resolver serve --addr :8080
package main
