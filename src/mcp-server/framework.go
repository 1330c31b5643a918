// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/api"
)

// ServerName is the name announced to MCP clients.
const ServerName = "TLS Trust Anchor Resolver"

// ErrNoService is returned by [ServerBuilder.Build] when the default tools
// are requested without a service to back them.
var ErrNoService = errors.New("mcpserver: default tools require a service")

// ToolHandler defines the signature for tool handlers that matches [MCP] server expectations.
//
// [MCP]: https://modelcontextprotocol.io/docs/getting-started/intro
type ToolHandler = func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// ToolDefinition pairs an MCP tool definition with its handler.
type ToolDefinition struct {
	Tool    mcp.Tool
	Handler ToolHandler
}

// ServerDependencies holds everything needed to create the MCP server.
type ServerDependencies struct {
	Version      string
	Service      *api.Service
	Instructions string
	Tools        []ToolDefinition

	defaultTools bool
}

// ServerBuilder assembles an [server.MCPServer].
//
// Example usage:
//
//	s, err := mcpserver.NewServerBuilder().
//		WithVersion(version).
//		WithService(svc).
//		WithDefaultTools().
//		Build()
type ServerBuilder struct{ deps ServerDependencies }

// NewServerBuilder returns an empty builder.
func NewServerBuilder() *ServerBuilder { return &ServerBuilder{} }

// WithVersion sets the version announced to clients.
func (b *ServerBuilder) WithVersion(version string) *ServerBuilder {
	b.deps.Version = version
	return b
}

// WithService sets the service backing the default tools.
func (b *ServerBuilder) WithService(svc *api.Service) *ServerBuilder {
	b.deps.Service = svc
	return b
}

// WithInstructions sets the instructions returned on initialize.
func (b *ServerBuilder) WithInstructions(instructions string) *ServerBuilder {
	b.deps.Instructions = instructions
	return b
}

// WithTools adds custom tools.
func (b *ServerBuilder) WithTools(tools ...ToolDefinition) *ServerBuilder {
	b.deps.Tools = append(b.deps.Tools, tools...)
	return b
}

// WithDefaultTools registers the three resolver tools at build time.
func (b *ServerBuilder) WithDefaultTools() *ServerBuilder {
	b.deps.defaultTools = true
	return b
}

// Build creates the server.
func (b *ServerBuilder) Build() (*server.MCPServer, error) {
	tools := b.deps.Tools
	if b.deps.defaultTools {
		if b.deps.Service == nil {
			return nil, ErrNoService
		}
		tools = append(createTools(b.deps.Service), tools...)
	}

	opts := []server.ServerOption{server.WithToolCapabilities(true)}
	if b.deps.Instructions != "" {
		opts = append(opts, server.WithInstructions(b.deps.Instructions))
	}

	s := server.NewMCPServer(ServerName, b.deps.Version, opts...)
	for _, tool := range tools {
		s.AddTool(tool.Tool, tool.Handler)
	}
	return s, nil
}
