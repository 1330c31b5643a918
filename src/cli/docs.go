// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package cli provides the command-line interface for the TLS trust anchor resolver.
// It implements a Cobra-based CLI with four commands:
//
//   - resolve: vet a batch of domains and print their leaf certificates or
//     trust anchors as a markdown table or JSON result document
//   - header: generate a BearSSL trust anchor header for a batch of domains
//   - serve: expose the operations over HTTP, with Prometheus metrics
//   - mcp: expose the operations as MCP tools over stdio
//
// Every command loads its configuration through the config package and wires
// its dependencies through bootstrap.
package cli
