// Package schematools provides a JSON Schema repository and structural
// validation engine for tree-shaped (JSON-like) documents.
//
// The library is built around two tightly coupled pieces:
//
//   - jsonschema: a reference resolver that walks a schema document once,
//     assigns a canonical absolute URI to every addressable subschema and
//     builds a flat, URI-addressed index; and a validator with a dual
//     sync/async execution model, where validation runs entirely on the
//     caller's goroutine when every keyword can complete synchronously
//     and falls back to concurrent composition when it cannot (for
//     example when a $ref target must be fetched remotely).
//   - schemaerrors: structured error types distinguishing resolution
//     failures, data-dependent validation failures, and contract
//     violations such as requesting synchronous validation from a tree
//     that requires asynchronous execution.
//
// # Quick Start
//
// Dereference a schema and validate a value:
//
//	import "github.com/erraggy/schematools/jsonschema"
//
//	schema, err := jsonschema.ParseSchema([]byte(`{
//	    "$id": "https://example.com/person",
//	    "type": "object",
//	    "required": ["name"],
//	    "properties": {"name": {"type": "string"}}
//	}`))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	repo, err := jsonschema.NewRepository(
//	    jsonschema.WithBaseURI("https://example.com/person"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := repo.Dereference(schema); err != nil {
//	    log.Fatal(err)
//	}
//
//	v, err := repo.Validator(schema)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = v.ValidateSync(jsonschema.NewValidatorContext(), map[string]any{"name": "Ada"})
//
// Trees that contain asynchronous work (remote schema loading) report
// IsSync() == false; use Validate with a context instead:
//
//	err = v.Validate(ctx, jsonschema.NewValidatorContext(), value)
//
// # CLI
//
// The schematools command exposes validate and resolve subcommands plus
// an MCP server over stdio:
//
//	schematools validate person.json data.yaml
//	schematools resolve --base https://example.com/person person.json
//	schematools mcp
package schematools
