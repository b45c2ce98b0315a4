package jsonschema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erraggy/schematools/schemaerrors"
)

func TestNewRepositoryRequiresBaseURI(t *testing.T) {
	_, err := NewRepository()
	require.ErrorIs(t, err, schemaerrors.ErrConfig)

	_, err = NewRepository(WithBaseURI(""))
	require.ErrorIs(t, err, schemaerrors.ErrConfig)

	_, err = NewRepository(WithBaseURI("relative/path"))
	require.ErrorIs(t, err, schemaerrors.ErrConfig)
}

func TestNewRepositoryRejectsNilLogger(t *testing.T) {
	_, err := NewRepository(WithBaseURI("https://ex/s"), WithLogger(nil))
	assert.ErrorIs(t, err, schemaerrors.ErrConfig)
}

func TestRepositoryURIsSorted(t *testing.T) {
	repo := mustRepo(t, "https://ex/s")
	require.NoError(t, repo.Dereference(mustParse(t, `{
		"properties": {"b": {"type": "string"}, "a": {"type": "string"}}
	}`)))

	uris := repo.URIs()
	require.NotEmpty(t, uris)
	assert.IsNonDecreasing(t, uris)
}

func TestValidatorSnapshotIsolation(t *testing.T) {
	repo := mustRepo(t, "https://ex/main")
	schema := mustParse(t, `{"$ref": "https://ex/types#/$defs/flag"}`)
	require.NoError(t, repo.Dereference(schema))

	// Built before the target document exists: the reference stays
	// unresolved for this validator.
	early, err := repo.Validator(schema)
	require.NoError(t, err)

	require.NoError(t, repo.DereferenceWithBase("https://ex/types", mustParse(t, `{
		"$defs": {"flag": {"type": "boolean"}}
	}`)))

	late, err := repo.Validator(schema)
	require.NoError(t, err)

	assert.Error(t, early.ValidateSync(NewValidatorContext(), true))
	assert.NoError(t, late.ValidateSync(NewValidatorContext(), true))
	assert.Error(t, late.ValidateSync(NewValidatorContext(), "not a bool"))
}

func TestValidatorWithBaseURIOverride(t *testing.T) {
	repo := mustRepo(t, "https://ex/default")
	schema := mustParse(t, `{"type": "integer"}`)

	v, err := repo.Validator(schema, WithValidatorBaseURI("https://ex/override"))
	require.NoError(t, err)
	assert.NoError(t, v.ValidateSync(NewValidatorContext(), 1))
	assert.Equal(t, "https://ex/override", schema.AbsoluteURI())

	_, err = repo.Validator(schema, WithValidatorBaseURI("not absolute"))
	assert.ErrorIs(t, err, schemaerrors.ErrConfig)
}

func TestValidatorDoesNotMutateIndex(t *testing.T) {
	repo := mustRepo(t, "https://ex/s")
	schema := mustParse(t, `{"properties": {"a": {"type": "string"}}}`)

	_, err := repo.Validator(schema)
	require.NoError(t, err)

	// The schema was dereferenced into the snapshot only.
	assert.Empty(t, repo.URIs())
	_, ok := repo.Lookup("https://ex/s")
	assert.False(t, ok)
}

func TestValidatorPropagatesCollision(t *testing.T) {
	repo := mustRepo(t, "https://ex/s")
	require.NoError(t, repo.Dereference(mustParse(t, `{"type": "object"}`)))

	_, err := repo.Validator(mustParse(t, `{"type": "string"}`))
	assert.ErrorIs(t, err, schemaerrors.ErrDuplicateURI)
}
