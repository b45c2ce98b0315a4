package mcpserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/erraggy/schematools/jsonschema"
	"github.com/erraggy/schematools/schemaerrors"
)

type validateInput struct {
	Schema  schemaInput `json:"schema"             jsonschema:"The schema to validate against"`
	Value   string      `json:"value"              jsonschema:"The instance value to validate, as JSON or YAML text"`
	BaseURI string      `json:"base_uri,omitempty" jsonschema:"Base URI for schema resolution (defaults to the schema file location)"`
}

type validateOutput struct {
	Valid    bool   `json:"valid"`
	Location string `json:"location,omitempty"`
	Keyword  string `json:"keyword,omitempty"`
	Message  string `json:"message,omitempty"`
}

func handleValidate(ctx context.Context, _ *mcp.CallToolRequest, input validateInput) (*mcp.CallToolResult, validateOutput, error) {
	schema, base, err := input.Schema.resolve(input.BaseURI)
	if err != nil {
		return errResult(err), validateOutput{}, nil
	}

	value, err := jsonschema.ParseValue([]byte(input.Value))
	if err != nil {
		return errResult(fmt.Errorf("parsing value: %w", err)), validateOutput{}, nil
	}

	repo, err := jsonschema.NewRepository(
		jsonschema.WithBaseURI(base),
		jsonschema.WithLoader(jsonschema.NewHTTPLoader(nil)),
	)
	if err != nil {
		return errResult(err), validateOutput{}, nil
	}
	if err := repo.Dereference(schema); err != nil {
		return errResult(err), validateOutput{}, nil
	}
	v, err := repo.Validator(schema)
	if err != nil {
		return errResult(err), validateOutput{}, nil
	}

	err = v.Validate(ctx, jsonschema.NewValidatorContext(), value)
	if err == nil {
		return nil, validateOutput{Valid: true}, nil
	}

	var vErr *schemaerrors.ValidationError
	if errors.As(err, &vErr) {
		return nil, validateOutput{
			Valid:    false,
			Location: vErr.InstanceLocation,
			Keyword:  vErr.Keyword,
			Message:  vErr.Message,
		}, nil
	}
	return errResult(err), validateOutput{}, nil
}
