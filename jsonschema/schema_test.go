package jsonschema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erraggy/schematools/schemaerrors"
)

func TestParseSchemaPreservesKeyOrder(t *testing.T) {
	s := mustParse(t, `{"zebra": 1, "apple": 2, "mango": 3}`)
	assert.Equal(t, []string{"zebra", "apple", "mango"}, s.Keys())
	assert.Equal(t, 3, s.Len())
}

func TestParseSchemaYAML(t *testing.T) {
	s := mustParse(t, `
type: object
properties:
  name:
    type: string
required:
  - name
`)
	typ, ok := s.GetString("type")
	require.True(t, ok)
	assert.Equal(t, "object", typ)

	props, ok := s.Get("properties")
	require.True(t, ok)
	nested, ok := props.(*Schema)
	require.True(t, ok, "nested mappings decode as schema nodes")
	assert.True(t, nested.Has("name"))
}

func TestParseSchemaBoolean(t *testing.T) {
	s := mustParse(t, `true`)
	assert.True(t, s.IsBoolean())
	assert.True(t, s.BoolValue())

	s = mustParse(t, `false`)
	assert.True(t, s.IsBoolean())
	assert.False(t, s.BoolValue())
}

func TestParseSchemaRejectsScalars(t *testing.T) {
	_, err := ParseSchema([]byte(`42`))
	require.ErrorIs(t, err, schemaerrors.ErrParse)

	_, err = ParseSchema([]byte(`[1, 2]`))
	require.ErrorIs(t, err, schemaerrors.ErrParse)

	_, err = ParseSchema([]byte(`{unclosed`))
	require.ErrorIs(t, err, schemaerrors.ErrParse)
}

func TestSchemaOf(t *testing.T) {
	s, err := SchemaOf(map[string]any{
		"type":       "object",
		"properties": map[string]any{"a": map[string]any{"type": "string"}},
	})
	require.NoError(t, err)

	props, ok := s.Get("properties")
	require.True(t, ok)
	_, ok = props.(*Schema)
	assert.True(t, ok, "SchemaOf output is shaped like ParseSchema output")

	_, err = SchemaOf("not a schema")
	assert.ErrorIs(t, err, schemaerrors.ErrParse)
}

func TestSchemaEqual(t *testing.T) {
	parsed := mustParse(t, `{"type": "integer", "maximum": 10}`)
	built, err := SchemaOf(map[string]any{"maximum": 10.0, "type": "integer"})
	require.NoError(t, err)

	// Key order is irrelevant; numbers compare across representations.
	assert.True(t, parsed.Equal(built))

	other := mustParse(t, `{"type": "integer", "maximum": 11}`)
	assert.False(t, parsed.Equal(other))

	assert.True(t, BooleanSchema(true).Equal(BooleanSchema(true)))
	assert.False(t, BooleanSchema(true).Equal(BooleanSchema(false)))
	assert.False(t, BooleanSchema(true).Equal(parsed))
}

func TestSchemaString(t *testing.T) {
	assert.Equal(t, "schema(true)", BooleanSchema(true).String())

	s := mustParse(t, `{"type": "object"}`)
	assert.Equal(t, "schema(1 keywords)", s.String())

	repo := mustRepo(t, "https://ex/s")
	require.NoError(t, repo.Dereference(s))
	assert.Equal(t, "schema(https://ex/s)", s.String())
}
