package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/erraggy/schematools/jsonschema"
)

type resolveInput struct {
	Schema  schemaInput `json:"schema"             jsonschema:"The schema to dereference"`
	BaseURI string      `json:"base_uri,omitempty" jsonschema:"Base URI for schema resolution (defaults to the schema file location)"`
}

type resolveOutput struct {
	BaseURI string   `json:"base_uri"`
	Count   int      `json:"count"`
	URIs    []string `json:"uris"`
}

func handleResolve(_ context.Context, _ *mcp.CallToolRequest, input resolveInput) (*mcp.CallToolResult, resolveOutput, error) {
	schema, base, err := input.Schema.resolve(input.BaseURI)
	if err != nil {
		return errResult(err), resolveOutput{}, nil
	}

	repo, err := jsonschema.NewRepository(jsonschema.WithBaseURI(base))
	if err != nil {
		return errResult(err), resolveOutput{}, nil
	}
	if err := repo.Dereference(schema); err != nil {
		return errResult(err), resolveOutput{}, nil
	}

	uris := repo.URIs()
	return nil, resolveOutput{BaseURI: base, Count: len(uris), URIs: uris}, nil
}
