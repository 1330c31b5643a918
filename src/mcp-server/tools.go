// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/api"
	"github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/internal/x509/header"
)

// Tool names.
const (
	ToolCertificates     = "get_certificates"
	ToolRootCertificates = "get_root_certificates"
	ToolHeader           = "get_trust_anchor_header"
)

const domainsDescription = "Comma-separated list of domain names, e.g. example.com,example.org"

// createTools returns the resolver tools backed by svc.
func createTools(svc *api.Service) []ToolDefinition {
	return []ToolDefinition{
		{
			Tool: mcp.NewTool(ToolCertificates,
				mcp.WithDescription("Vet domains against Google Safe Browsing and return the leaf certificate each one presents"),
				mcp.WithString("domains", mcp.Required(), mcp.Description(domainsDescription)),
			),
			Handler: operationHandler(svc, api.OpCertificates),
		},
		{
			Tool: mcp.NewTool(ToolRootCertificates,
				mcp.WithDescription("Vet domains against Google Safe Browsing and return the trust anchor that issued each one's certificate"),
				mcp.WithString("domains", mcp.Required(), mcp.Description(domainsDescription)),
			),
			Handler: operationHandler(svc, api.OpRootCertificates),
		},
		{
			Tool: mcp.NewTool(ToolHeader,
				mcp.WithDescription("Vet domains and generate a BearSSL C header holding the trust anchors they need"),
				mcp.WithString("domains", mcp.Required(), mcp.Description(domainsDescription)),
				mcp.WithString("array_name",
					mcp.Description("Name of the trust anchor array (default: "+header.DefaultArrayName+")"),
				),
				mcp.WithString("length_name",
					mcp.Description("Name of the anchor count macro (default: "+header.DefaultLengthName+")"),
				),
				mcp.WithString("guard_name",
					mcp.Description("Include guard macro (default: "+header.DefaultGuardName+")"),
				),
			),
			Handler: operationHandler(svc, api.OpHeader),
		},
	}
}

// operationHandler adapts a service operation to a tool handler.
func operationHandler(svc *api.Service, op api.Operation) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := request.RequireString("domains")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("domains parameter required: %v", err)), nil
		}

		resp := svc.Handle(ctx, op, api.Request{
			Domains: splitDomains(raw),
			Params: api.Params{
				ArrayName:  request.GetString("array_name", ""),
				LengthName: request.GetString("length_name", ""),
				GuardName:  request.GetString("guard_name", ""),
			},
		})
		if resp.Status != http.StatusOK {
			return mcp.NewToolResultError(api.GenericErrorMessage), nil
		}
		return mcp.NewToolResultText(string(resp.Body)), nil
	}
}

// splitDomains parses a comma-separated list. Blank entries are dropped;
// the result is never nil.
func splitDomains(raw string) []string {
	domains := []string{}
	for d := range strings.SplitSeq(raw, ",") {
		if d = strings.TrimSpace(d); d != "" {
			domains = append(domains, d)
		}
	}
	return domains
}
