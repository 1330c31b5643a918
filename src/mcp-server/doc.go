// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package mcpserver exposes the resolver operations as [MCP] tools:
//
//	get_certificates          leaf certificates for a list of domains
//	get_root_certificates     trust anchors for a list of domains
//	get_trust_anchor_header   BearSSL trust-anchor header for a list of domains
//
// Every tool takes a comma-separated "domains" argument and returns the same
// JSON document as the HTTP API. A batch that cannot be classified yields a
// tool error carrying only the generic failure message.
//
// The server is assembled with [ServerBuilder] and served over stdio by [Serve].
//
// [MCP]: https://modelcontextprotocol.io/docs/getting-started/intro
package mcpserver
