// Package jsonschema resolves JSON Schema documents into a flat,
// URI-addressed index and validates values against them.
//
// Resolution is a single depth-first pass over a schema tree: every
// addressable subschema is assigned its canonical URI (derived from the
// nearest enclosing $id and its JSON-pointer path below it), anchors
// and aliasing identifiers register extra entries, and every $ref and
// $recursiveRef is rewritten to its absolute form. Two different nodes
// claiming the same URI is a hard error; revisiting the same node
// through a second reference path is not.
//
// Validation is built on a small Validator interface with two modes.
// When every schema involved is available locally the whole tree is
// sync-capable and ValidateSync runs on the caller's goroutine with
// fail-fast semantics. References to schemas that must be fetched
// through a SchemaLoader make the affected subtree async-only: Validate
// runs such subtrees concurrently, lets every started branch run to
// completion, and reports the first error observed.
//
// Repository is the entry point tying both together:
//
//	repo, err := jsonschema.NewRepository(jsonschema.WithBaseURI("https://example.com/schemas"))
//	if err != nil { ... }
//	schema, err := jsonschema.ParseSchema(data)
//	if err != nil { ... }
//	if err := repo.Dereference(schema); err != nil { ... }
//	v, err := repo.Validator(schema)
//	if err != nil { ... }
//	if v.IsSync() {
//		err = v.ValidateSync(jsonschema.NewValidatorContext(), value)
//	} else {
//		err = v.Validate(ctx, jsonschema.NewValidatorContext(), value)
//	}
package jsonschema
