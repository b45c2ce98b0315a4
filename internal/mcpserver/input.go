package mcpserver

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/erraggy/schematools/jsonschema"
)

// maxInlineSize caps inline schema and instance content.
const maxInlineSize = 4 << 20

// inlineBaseURI anchors inline schemas that carry no $id when the call
// does not supply a base_uri.
const inlineBaseURI = "urn:schematools:inline"

// schemaInput represents the two ways a schema can be provided to a
// tool. Exactly one of File or Content must be set.
type schemaInput struct {
	File    string `json:"file,omitempty"    jsonschema:"Path to a schema file on disk"`
	Content string `json:"content,omitempty" jsonschema:"Inline schema content (JSON or YAML)"`
}

// resolve parses the schema from whichever input was provided and
// returns it with the base URI to dereference it under. An explicit
// baseURI wins; otherwise file inputs use their file:// location and
// inline content uses a fixed urn base.
func (s schemaInput) resolve(baseURI string) (*jsonschema.Schema, string, error) {
	if (s.File == "") == (s.Content == "") {
		return nil, "", fmt.Errorf("exactly one of file or content must be provided")
	}

	var data []byte
	base := baseURI
	switch {
	case s.File != "":
		absPath, err := filepath.Abs(s.File)
		if err != nil {
			return nil, "", fmt.Errorf("resolving schema path: %w", err)
		}
		data, err = os.ReadFile(absPath)
		if err != nil {
			return nil, "", fmt.Errorf("reading schema: %w", err)
		}
		if base == "" {
			base = (&url.URL{Scheme: "file", Path: filepath.ToSlash(absPath)}).String()
		}
	default:
		if len(s.Content) > maxInlineSize {
			return nil, "", fmt.Errorf("inline content size %d bytes exceeds maximum %d bytes; use file input instead", len(s.Content), maxInlineSize)
		}
		data = []byte(s.Content)
		if base == "" {
			base = inlineBaseURI
		}
	}

	schema, err := jsonschema.ParseSchema(data)
	if err != nil {
		return nil, "", err
	}
	return schema, base, nil
}
