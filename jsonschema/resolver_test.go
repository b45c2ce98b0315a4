package jsonschema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erraggy/schematools/schemaerrors"
)

func mustRepo(t *testing.T, baseURI string) *Repository {
	t.Helper()
	repo, err := NewRepository(WithBaseURI(baseURI))
	require.NoError(t, err)
	return repo
}

func mustParse(t *testing.T, src string) *Schema {
	t.Helper()
	s, err := ParseSchema([]byte(src))
	require.NoError(t, err)
	return s
}

func TestDereferenceEndToEnd(t *testing.T) {
	repo := mustRepo(t, "https://ex/a")
	schema := mustParse(t, `{
		"$id": "https://ex/a",
		"allOf": [
			{"$id": "#b", "type": "object"},
			{"type": "object"}
		]
	}`)
	require.NoError(t, repo.Dereference(schema))

	uris := repo.URIs()
	assert.Contains(t, uris, "https://ex/a")
	assert.Contains(t, uris, "https://ex/a#b")
	assert.Contains(t, uris, "https://ex/a#/allOf/1")

	root, ok := repo.Lookup("https://ex/a")
	require.True(t, ok)
	assert.Same(t, schema, root)

	byFragment, ok := repo.Lookup("https://ex/a#b")
	require.True(t, ok)
	byPointer, ok := repo.Lookup("https://ex/a#/allOf/0")
	require.True(t, ok)
	assert.Same(t, byPointer, byFragment)
}

func TestDereferenceAssignsCanonicalURIs(t *testing.T) {
	repo := mustRepo(t, "https://ex/s")
	schema := mustParse(t, `{
		"type": "object",
		"properties": {
			"name": {"type": "string"},
			"tags": {"type": "array", "items": {"type": "string"}}
		}
	}`)
	require.NoError(t, repo.Dereference(schema))

	assert.Equal(t, "https://ex/s", schema.AbsoluteURI())

	name, ok := repo.Lookup("https://ex/s#/properties/name")
	require.True(t, ok)
	assert.Equal(t, "https://ex/s#/properties/name", name.AbsoluteURI())

	_, ok = repo.Lookup("https://ex/s#/properties/tags/items")
	assert.True(t, ok)
}

func TestDereferenceIdempotent(t *testing.T) {
	repo := mustRepo(t, "https://ex/s")
	schema := mustParse(t, `{
		"$anchor": "root",
		"properties": {"a": {"type": "string"}}
	}`)
	require.NoError(t, repo.Dereference(schema))
	before := repo.URIs()

	// Revisiting the same nodes at the same URIs is benign.
	require.NoError(t, repo.Dereference(schema))
	assert.Equal(t, before, repo.URIs())
	assert.Equal(t, "https://ex/s", schema.AbsoluteURI())
}

func TestDereferenceDuplicateURICollision(t *testing.T) {
	repo := mustRepo(t, "https://ex/s")
	schema := mustParse(t, `{
		"$defs": {
			"x": {"$anchor": "dup", "type": "string"},
			"y": {"$anchor": "dup", "type": "number"}
		}
	}`)
	err := repo.Dereference(schema)
	require.Error(t, err)
	assert.ErrorIs(t, err, schemaerrors.ErrResolution)
	assert.ErrorIs(t, err, schemaerrors.ErrDuplicateURI)

	var resErr *schemaerrors.ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, "https://ex/s#dup", resErr.URI)
	assert.Contains(t, err.Error(), `duplicate schema URI "https://ex/s#dup"`)
}

func TestDereferenceDistinctRootsCollide(t *testing.T) {
	repo := mustRepo(t, "https://ex/s")
	require.NoError(t, repo.Dereference(mustParse(t, `{"type": "object"}`)))

	err := repo.Dereference(mustParse(t, `{"type": "string"}`))
	assert.ErrorIs(t, err, schemaerrors.ErrDuplicateURI)
}

func TestDereferenceBaseScopingInArrays(t *testing.T) {
	// An identifier on an array element never changes the base URI for
	// siblings or descendants.
	repo := mustRepo(t, "https://ex/root")
	schema := mustParse(t, `{
		"allOf": [
			{
				"$id": "https://other/x",
				"properties": {"p": {"type": "string"}}
			},
			{"type": "object"}
		]
	}`)
	require.NoError(t, repo.Dereference(schema))

	uris := repo.URIs()
	assert.Contains(t, uris, "https://ex/root#/allOf/0/properties/p")
	assert.Contains(t, uris, "https://ex/root#/allOf/1")
	for _, uri := range uris {
		assert.NotContains(t, uri, "https://other/x")
	}
}

func TestDereferenceFragmentNormalization(t *testing.T) {
	// An identifier with a bare "#" fragment and one without resolve to
	// the same base URI.
	for _, id := range []string{"https://ex/s", "https://ex/s#"} {
		repo := mustRepo(t, "https://fallback/unused")
		schema := mustParse(t, `{"$id": "`+id+`", "type": "object"}`)
		require.NoError(t, repo.Dereference(schema))
		assert.Equal(t, "https://ex/s", schema.AbsoluteURI(), "id %q", id)
		_, ok := repo.Lookup("https://ex/s")
		assert.True(t, ok, "id %q", id)
	}
}

func TestDereferenceNestedIdentifierAlias(t *testing.T) {
	// An identifier declared below the current base registers the node
	// and its descendants under the new URI and under the old one.
	repo := mustRepo(t, "https://ex/root")
	schema := mustParse(t, `{
		"$defs": {
			"sub": {
				"$id": "https://ex/sub",
				"properties": {"p": {"type": "integer"}}
			}
		}
	}`)
	require.NoError(t, repo.Dereference(schema))

	uris := repo.URIs()
	assert.Contains(t, uris, "https://ex/sub")
	assert.Contains(t, uris, "https://ex/sub#/properties/p")
	assert.Contains(t, uris, "https://ex/root#/$defs/sub")

	sub, ok := repo.Lookup("https://ex/sub")
	require.True(t, ok)
	aliased, ok := repo.Lookup("https://ex/root#/$defs/sub")
	require.True(t, ok)
	assert.Same(t, sub, aliased)
	// The alias pass runs first, so the new URI wins the annotation.
	assert.Equal(t, "https://ex/sub", sub.AbsoluteURI())
}

func TestDereferenceRefAnnotations(t *testing.T) {
	repo := mustRepo(t, "https://ex/s")
	schema := mustParse(t, `{
		"properties": {
			"a": {"$ref": "#/$defs/x"},
			"b": {"$ref": "https://elsewhere/y"},
			"c": {"$recursiveRef": "#"}
		},
		"$defs": {"x": {"type": "string"}}
	}`)
	require.NoError(t, repo.Dereference(schema))

	a, _ := repo.Lookup("https://ex/s#/properties/a")
	require.NotNil(t, a)
	assert.Equal(t, "https://ex/s#/$defs/x", a.AbsoluteRef())

	b, _ := repo.Lookup("https://ex/s#/properties/b")
	require.NotNil(t, b)
	assert.Equal(t, "https://elsewhere/y", b.AbsoluteRef())

	c, _ := repo.Lookup("https://ex/s#/properties/c")
	require.NotNil(t, c)
	assert.Equal(t, "https://ex/s", c.AbsoluteRecursiveRef())
}

func TestDereferenceAnchor(t *testing.T) {
	repo := mustRepo(t, "https://ex/s")
	schema := mustParse(t, `{
		"$defs": {"item": {"$anchor": "item", "type": "string"}}
	}`)
	require.NoError(t, repo.Dereference(schema))

	byAnchor, ok := repo.Lookup("https://ex/s#item")
	require.True(t, ok)
	byPointer, ok := repo.Lookup("https://ex/s#/$defs/item")
	require.True(t, ok)
	assert.Same(t, byPointer, byAnchor)
}

func TestDereferenceBooleanSubschemas(t *testing.T) {
	repo := mustRepo(t, "https://ex/s")
	schema := mustParse(t, `{
		"properties": {"a": true},
		"additionalProperties": false
	}`)
	require.NoError(t, repo.Dereference(schema))

	a, ok := repo.Lookup("https://ex/s#/properties/a")
	require.True(t, ok)
	assert.True(t, a.IsBoolean())
	assert.True(t, a.BoolValue())

	ap, ok := repo.Lookup("https://ex/s#/additionalProperties")
	require.True(t, ok)
	assert.True(t, ap.IsBoolean())
	assert.False(t, ap.BoolValue())

	// Revisits of boolean schemas compare by value, not identity.
	require.NoError(t, repo.Dereference(schema))
}

func TestDereferenceWithBase(t *testing.T) {
	repo := mustRepo(t, "https://ex/default")
	schema := mustParse(t, `{"type": "object"}`)
	require.NoError(t, repo.DereferenceWithBase("https://ex/explicit", schema))
	assert.Equal(t, "https://ex/explicit", schema.AbsoluteURI())

	err := repo.DereferenceWithBase("not-absolute", mustParse(t, `{}`))
	assert.ErrorIs(t, err, schemaerrors.ErrResolution)
}

func TestDereferenceMalformedIdentifier(t *testing.T) {
	repo := mustRepo(t, "https://ex/s")
	err := repo.Dereference(mustParse(t, `{"$id": "https://ex/%zz"}`))
	assert.ErrorIs(t, err, schemaerrors.ErrResolution)
}

func TestDereferenceAnnotationsSetOnce(t *testing.T) {
	schema := mustParse(t, `{"$ref": "other"}`)

	repo := mustRepo(t, "https://ex/one")
	require.NoError(t, repo.Dereference(schema))
	assert.Equal(t, "https://ex/other", schema.AbsoluteRef())

	// Re-resolving through a different repository must not rewrite the
	// annotations already present.
	other := mustRepo(t, "https://ex/two")
	require.NoError(t, other.Dereference(schema))
	assert.Equal(t, "https://ex/other", schema.AbsoluteRef())
	assert.Equal(t, "https://ex/one", schema.AbsoluteURI())
}
