// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mark3labs/mcp-go/server"

	"github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/api"
	"github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/logger"
)

// Instructions describes the tools to MCP clients.
func Instructions() string {
	var sb strings.Builder
	sb.WriteString("Resolve TLS certificates and trust anchors for domain names.\n\n")
	sb.WriteString("Domains are checked for hostname syntax and against Google Safe Browsing before any connection is made.\n")
	sb.WriteString("Rejected domains are listed under invalid_domains. If Safe Browsing cannot be reached the whole request fails.\n\n")
	fmt.Fprintf(&sb, "- %s: leaf certificate of each domain\n", ToolCertificates)
	fmt.Fprintf(&sb, "- %s: trust anchor of each domain\n", ToolRootCertificates)
	fmt.Fprintf(&sb, "- %s: BearSSL header with the distinct trust anchors\n", ToolHeader)
	return sb.String()
}

// Serve runs the resolver tools over stdio on in and out until ctx is
// cancelled. Cancellation is a clean shutdown.
func Serve(ctx context.Context, svc *api.Service, version string, log logger.Logger, in io.Reader, out io.Writer) error {
	s, err := NewServerBuilder().
		WithVersion(version).
		WithService(svc).
		WithInstructions(Instructions()).
		WithDefaultTools().
		Build()
	if err != nil {
		return fmt.Errorf("failed to build MCP server: %w", err)
	}

	log.Printf("%s MCP server %s started", ServerName, version)

	err = server.NewStdioServer(s).Listen(ctx, in, out)
	if err != nil && errors.Is(err, context.Canceled) {
		log.Printf("MCP server stopped")
		return nil
	}
	return err
}
