package mcpserver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSchema(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schema.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestSchemaInputRequiresExactlyOneSource(t *testing.T) {
	_, _, err := schemaInput{}.resolve("")
	require.Error(t, err)

	_, _, err = schemaInput{File: "x.json", Content: "{}"}.resolve("")
	require.Error(t, err)
}

func TestSchemaInputDefaultsBaseToFileLocation(t *testing.T) {
	path := writeSchema(t, `{"type": "object"}`)
	_, base, err := schemaInput{File: path}.resolve("")
	require.NoError(t, err)
	assert.Contains(t, base, "file://")
	assert.Contains(t, base, "schema.json")
}

func TestHandleValidate(t *testing.T) {
	input := validateInput{
		Schema: schemaInput{Content: `{
			"type": "object",
			"required": ["name"],
			"properties": {"name": {"type": "string"}}
		}`},
		Value: `{"name": "ada"}`,
	}
	result, output, err := handleValidate(context.Background(), nil, input)
	require.NoError(t, err)
	require.Nil(t, result)
	assert.True(t, output.Valid)

	input.Value = `{"name": 7}`
	result, output, err = handleValidate(context.Background(), nil, input)
	require.NoError(t, err)
	require.Nil(t, result)
	assert.False(t, output.Valid)
	assert.Equal(t, "/name", output.Location)
	assert.Equal(t, "type", output.Keyword)
}

func TestHandleValidateBadInputs(t *testing.T) {
	result, _, err := handleValidate(context.Background(), nil, validateInput{
		Schema: schemaInput{Content: `{unclosed`},
		Value:  `{}`,
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.IsError)

	result, _, err = handleValidate(context.Background(), nil, validateInput{
		Schema: schemaInput{Content: `{"type": "object"}`},
		Value:  `{not valid`,
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.IsError)
}

func TestHandleResolve(t *testing.T) {
	path := writeSchema(t, `{
		"$id": "https://ex/root",
		"$defs": {"name": {"$anchor": "name", "type": "string"}}
	}`)
	result, output, err := handleResolve(context.Background(), nil, resolveInput{
		Schema: schemaInput{File: path},
	})
	require.NoError(t, err)
	require.Nil(t, result)

	assert.Equal(t, len(output.URIs), output.Count)
	assert.Contains(t, output.URIs, "https://ex/root")
	assert.Contains(t, output.URIs, "https://ex/root#name")
	assert.Contains(t, output.URIs, "https://ex/root#/$defs/name")
}

func TestHandleResolveCollision(t *testing.T) {
	result, _, err := handleResolve(context.Background(), nil, resolveInput{
		Schema: schemaInput{Content: `{
			"$defs": {
				"a": {"$anchor": "dup"},
				"b": {"$anchor": "dup"}
			}
		}`},
		BaseURI: "https://ex/s",
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.IsError)
}

func TestSanitizeError(t *testing.T) {
	err := errors.New("open /home/someone/secret/schema.json: no such file")
	assert.NotContains(t, sanitizeError(err), "/home/someone")
}
