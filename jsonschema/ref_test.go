package jsonschema

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erraggy/schematools/schemaerrors"
)

func TestRefToIndexedSchema(t *testing.T) {
	repo := mustRepo(t, "https://ex/s")
	schema := mustParse(t, `{
		"properties": {
			"id": {"$ref": "#/$defs/identifier"}
		},
		"$defs": {
			"identifier": {"type": "string", "minLength": 1}
		}
	}`)
	require.NoError(t, repo.Dereference(schema))

	v, err := repo.Validator(schema)
	require.NoError(t, err)
	require.True(t, v.IsSync())

	assert.NoError(t, v.ValidateSync(NewValidatorContext(), map[string]any{"id": "x"}))
	assert.ErrorIs(t, v.ValidateSync(NewValidatorContext(), map[string]any{"id": ""}), schemaerrors.ErrValidation)
}

func TestRefAcrossDereferencedDocuments(t *testing.T) {
	repo := mustRepo(t, "https://ex/main")
	require.NoError(t, repo.DereferenceWithBase("https://ex/types", mustParse(t, `{
		"$defs": {"port": {"type": "integer", "minimum": 1, "maximum": 65535}}
	}`)))

	schema := mustParse(t, `{
		"properties": {"port": {"$ref": "https://ex/types#/$defs/port"}}
	}`)
	require.NoError(t, repo.Dereference(schema))

	v, err := repo.Validator(schema)
	require.NoError(t, err)
	require.True(t, v.IsSync())

	assert.NoError(t, v.ValidateSync(NewValidatorContext(), map[string]any{"port": 8080}))
	assert.Error(t, v.ValidateSync(NewValidatorContext(), map[string]any{"port": 0}))
}

func TestCyclicRef(t *testing.T) {
	// A linked list: validator construction must terminate and the tree
	// must stay sync-capable.
	repo := mustRepo(t, "https://ex/list")
	schema := mustParse(t, `{
		"$id": "https://ex/list",
		"type": "object",
		"required": ["value"],
		"properties": {
			"value": {"type": "integer"},
			"next": {"$ref": "https://ex/list"}
		}
	}`)
	require.NoError(t, repo.Dereference(schema))

	v, err := repo.Validator(schema)
	require.NoError(t, err)
	require.True(t, v.IsSync())

	list := map[string]any{
		"value": 1,
		"next": map[string]any{
			"value": 2,
			"next":  map[string]any{"value": 3},
		},
	}
	assert.NoError(t, v.ValidateSync(NewValidatorContext(), list))

	broken := map[string]any{
		"value": 1,
		"next":  map[string]any{"value": "two"},
	}
	err = v.ValidateSync(NewValidatorContext(), broken)
	var vErr *schemaerrors.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "/next/value", vErr.InstanceLocation)
}

func TestRecursiveRef(t *testing.T) {
	repo := mustRepo(t, "https://ex/tree")
	schema := mustParse(t, `{
		"$id": "https://ex/tree",
		"type": "object",
		"properties": {
			"children": {"items": {"$recursiveRef": "#"}}
		}
	}`)
	require.NoError(t, repo.Dereference(schema))

	v, err := repo.Validator(schema)
	require.NoError(t, err)
	require.True(t, v.IsSync())

	assert.NoError(t, v.ValidateSync(NewValidatorContext(), map[string]any{
		"children": []any{map[string]any{"children": []any{}}},
	}))
	assert.Error(t, v.ValidateSync(NewValidatorContext(), map[string]any{
		"children": []any{"not a node"},
	}))
}

func TestUnresolvableRefWithoutLoader(t *testing.T) {
	repo := mustRepo(t, "https://ex/s")
	schema := mustParse(t, `{"$ref": "https://nowhere/missing"}`)
	require.NoError(t, repo.Dereference(schema))

	v, err := repo.Validator(schema)
	require.NoError(t, err)
	// Without a loader the reference fails synchronously instead of
	// making the tree async.
	require.True(t, v.IsSync())

	err = v.ValidateSync(NewValidatorContext(), "anything")
	var vErr *schemaerrors.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Message, "https://nowhere/missing")
}

func TestRemoteRefThroughLoader(t *testing.T) {
	var fetches atomic.Int32
	loader := func(_ context.Context, uri string) (*Schema, error) {
		fetches.Add(1)
		if uri != "https://remote/ext" {
			return nil, fmt.Errorf("unexpected uri %s", uri)
		}
		return ParseSchema([]byte(`{"type": "string"}`))
	}

	repo, err := NewRepository(WithBaseURI("https://ex/s"), WithLoader(loader))
	require.NoError(t, err)
	schema := mustParse(t, `{"properties": {"ext": {"$ref": "https://remote/ext"}}}`)
	require.NoError(t, repo.Dereference(schema))

	v, err := repo.Validator(schema)
	require.NoError(t, err)

	// A loader-backed reference makes the tree async-only.
	require.False(t, v.IsSync())
	err = v.ValidateSync(NewValidatorContext(), map[string]any{"ext": "x"})
	assert.ErrorIs(t, err, schemaerrors.ErrSyncUnsupported)

	ctx := context.Background()
	assert.NoError(t, v.Validate(ctx, NewValidatorContext(), map[string]any{"ext": "x"}))
	assert.ErrorIs(t, v.Validate(ctx, NewValidatorContext(), map[string]any{"ext": 7}), schemaerrors.ErrValidation)

	// The remote document is fetched once, not per validation.
	assert.Equal(t, int32(1), fetches.Load())
}

func TestRemoteRefLoaderFailure(t *testing.T) {
	loader := func(_ context.Context, uri string) (*Schema, error) {
		return nil, fmt.Errorf("connection refused")
	}
	repo, err := NewRepository(WithBaseURI("https://ex/s"), WithLoader(loader))
	require.NoError(t, err)
	schema := mustParse(t, `{"$ref": "https://remote/gone"}`)
	require.NoError(t, repo.Dereference(schema))

	v, err := repo.Validator(schema)
	require.NoError(t, err)

	err = v.Validate(context.Background(), NewValidatorContext(), "x")
	var vErr *schemaerrors.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Message, "https://remote/gone")
	require.NotNil(t, vErr.Cause)
	assert.Contains(t, vErr.Cause.Error(), "connection refused")
}

func TestRemoteRefFragment(t *testing.T) {
	loader := func(_ context.Context, uri string) (*Schema, error) {
		require.Equal(t, "https://remote/doc", uri)
		return ParseSchema([]byte(`{"$defs": {"name": {"type": "string"}}}`))
	}
	repo, err := NewRepository(WithBaseURI("https://ex/s"), WithLoader(loader))
	require.NoError(t, err)
	schema := mustParse(t, `{"$ref": "https://remote/doc#/$defs/name"}`)
	require.NoError(t, repo.Dereference(schema))

	v, err := repo.Validator(schema)
	require.NoError(t, err)

	ctx := context.Background()
	assert.NoError(t, v.Validate(ctx, NewValidatorContext(), "ada"))
	assert.ErrorIs(t, v.Validate(ctx, NewValidatorContext(), 1), schemaerrors.ErrValidation)
}
