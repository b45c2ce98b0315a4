// Package mcpserver implements an MCP (Model Context Protocol) server
// that exposes schematools capabilities as MCP tools over stdio.
package mcpserver

import (
	"context"
	"regexp"

	"github.com/erraggy/schematools"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `schematools MCP server — resolves and validates JSON Schema documents.

Tools:
- resolve: dereference a schema into its flat URI index; reports every addressable subschema URI and fails on duplicate-URI collisions.
- validate: validate an instance value (JSON or YAML) against a schema.

Schemas can be provided as a file path or inline content. The base URI defaults to the schema file's location (file://...) and can be overridden per call with base_uri; inline schemas without an $id should always set base_uri.`

// Run starts the MCP server over stdio and blocks until the client
// disconnects or the context is cancelled.
func Run(ctx context.Context) error {
	server := mcp.NewServer(
		&mcp.Implementation{Name: "schematools", Version: schematools.Version()},
		&mcp.ServerOptions{
			Instructions: serverInstructions,
		},
	)
	registerAllTools(server)
	return server.Run(ctx, &mcp.StdioTransport{})
}

func registerAllTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "validate",
		Description: "Validate an instance value against a JSON Schema. The schema is dereferenced first; the result reports validity and, on failure, the instance location and schema keyword that rejected the value.",
	}, handleValidate)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "resolve",
		Description: "Dereference a JSON Schema into its flat URI index. Returns every addressable subschema URI ($id, anchors, and JSON-pointer locations). Fails when two distinct subschemas claim the same canonical URI.",
	}, handleResolve)
}

// sanitizeError strips absolute filesystem paths from error messages
// to prevent leaking internal directory structure to MCP clients.
var pathPattern = regexp.MustCompile(`(?:/(?:home|tmp|var|Users|etc|opt|usr|private|root|mnt|srv|run|snap|nix)[a-zA-Z0-9._/-]*)`)

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return pathPattern.ReplaceAllString(err.Error(), "<path>")
}

// errResult creates an MCP error result from an error.
func errResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: sanitizeError(err)}},
	}
}
