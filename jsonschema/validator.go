package jsonschema

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/erraggy/schematools/schemaerrors"
)

// Validator validates input values against a schema node. A validator
// tree is built once per schema and may be used for any number of
// validation calls, each with its own ValidatorContext.
//
// Validators have two execution modes. The synchronous mode runs
// entirely on the caller's goroutine and never suspends; it may only be
// used when IsSync reports true. The asynchronous mode is always
// available: when the tree is sync-capable it simply runs the
// synchronous path, otherwise it composes concurrent child validations
// and waits for all of them to settle.
type Validator interface {
	// IsSync reports whether every validator in this subtree can complete
	// a validation attempt without suspending (no remote lookups).
	IsSync() bool

	// ValidateSync validates value on the caller's goroutine. It returns
	// nil on success, a *schemaerrors.ValidationError on failure, and a
	// *schemaerrors.SyncUnsupportedError when the subtree is not
	// sync-capable. The last case is a contract violation: re-invoke
	// through Validate instead.
	ValidateSync(vctx *ValidatorContext, value any) error

	// Validate validates value, running async-only children concurrently.
	// All started children run to completion regardless of earlier
	// failures; when several fail, the first error observed in completion
	// order is returned.
	Validate(ctx context.Context, vctx *ValidatorContext, value any) error
}

// syncState is the settled sync capability of a schemaValidator.
// Capability is computed once, after the whole tree is built, by a
// single-threaded traversal; a back-edge reached while its owner is
// still computing reports sync-capable, since a reference cycle adds no
// suspension beyond what its members already contribute.
type syncState uint8

const (
	syncUnknown syncState = iota
	syncComputing
	syncYes
	syncNo
)

// builder constructs validator trees over a frozen schema index.
// Validators are memoized by canonical URI so that reference cycles
// resolve to the already-built validator instead of expanding forever.
type builder struct {
	index  map[string]*Schema
	loader SchemaLoader
	logger Logger

	// mu guards cache, index and remote once validation has started:
	// remote reference validators materialize their targets lazily and
	// may do so from concurrent goroutines.
	mu     sync.Mutex
	cache  map[string]*schemaValidator
	remote map[string]bool // document URIs already fetched and resolved
}

func newBuilder(index map[string]*Schema, loader SchemaLoader, logger Logger) *builder {
	return &builder{
		index:  index,
		loader: loader,
		logger: logger,
		cache:  make(map[string]*schemaValidator),
		remote: make(map[string]bool),
	}
}

// build returns a validator for the given schema node, reusing the
// memoized validator when the node was built before.
func (b *builder) build(schema *Schema) (Validator, error) {
	if schema.IsBoolean() {
		return &booleanValidator{value: schema.BoolValue(), uri: schema.AbsoluteURI()}, nil
	}
	uri := schema.AbsoluteURI()
	if uri != "" {
		if sv, ok := b.cache[uri]; ok {
			return sv, nil
		}
	}
	sv := &schemaValidator{uri: uri}
	if uri != "" {
		// Insert before building keywords so reference cycles find the
		// validator under construction.
		b.cache[uri] = sv
	}
	keywords, err := b.buildKeywords(schema)
	if err != nil {
		return nil, err
	}
	sv.keywords = keywords
	return sv, nil
}

// schemaValidator validates a value against one object schema by
// running its keyword validators in a fixed order. It is an implicit
// conjunction: every keyword must accept the value.
type schemaValidator struct {
	uri       string
	keywords  []Validator
	syncState syncState
}

func (s *schemaValidator) IsSync() bool {
	switch s.syncState {
	case syncYes, syncComputing:
		return true
	case syncNo:
		return false
	}
	s.syncState = syncComputing
	sync := true
	for _, k := range s.keywords {
		if !k.IsSync() {
			sync = false
		}
	}
	if sync {
		s.syncState = syncYes
	} else {
		s.syncState = syncNo
	}
	return sync
}

func (s *schemaValidator) ValidateSync(vctx *ValidatorContext, value any) error {
	if !s.IsSync() {
		return &schemaerrors.SyncUnsupportedError{SchemaURI: s.uri}
	}
	for _, k := range s.keywords {
		if err := k.ValidateSync(vctx, value); err != nil {
			return err
		}
	}
	return nil
}

func (s *schemaValidator) Validate(ctx context.Context, vctx *ValidatorContext, value any) error {
	if s.IsSync() {
		return s.ValidateSync(vctx, value)
	}
	var g errgroup.Group
	for _, k := range s.keywords {
		g.Go(func() error {
			return k.Validate(ctx, vctx, value)
		})
	}
	return g.Wait()
}

// booleanValidator accepts everything (true) or nothing (false).
type booleanValidator struct {
	value bool
	uri   string
}

func (v *booleanValidator) IsSync() bool { return true }

func (v *booleanValidator) ValidateSync(vctx *ValidatorContext, _ any) error {
	if v.value {
		return nil
	}
	return &schemaerrors.ValidationError{
		InstanceLocation: vctx.Location(),
		SchemaURI:        v.uri,
		Message:          "value rejected by false schema",
	}
}

func (v *booleanValidator) Validate(_ context.Context, vctx *ValidatorContext, value any) error {
	return v.ValidateSync(vctx, value)
}

// leafValidator adapts a synchronous keyword check to the Validator
// interface. Leaf checks never suspend.
type leafValidator struct {
	keyword string
	check   func(vctx *ValidatorContext, value any) error
}

func (l *leafValidator) IsSync() bool { return true }

func (l *leafValidator) ValidateSync(vctx *ValidatorContext, value any) error {
	return l.check(vctx, value)
}

func (l *leafValidator) Validate(_ context.Context, vctx *ValidatorContext, value any) error {
	return l.check(vctx, value)
}

// isValidationFailure distinguishes an ordinary data-dependent failure
// from infrastructure errors (cancelled contexts, loader failures) and
// contract violations. Combinators that absorb child failures (anyOf,
// oneOf, not) must still propagate everything else.
func isValidationFailure(err error) bool {
	return errors.Is(err, schemaerrors.ErrValidation)
}

// failf builds a ValidationError at the context's current location.
func failf(vctx *ValidatorContext, keyword, format string, args ...any) error {
	return &schemaerrors.ValidationError{
		InstanceLocation: vctx.Location(),
		Keyword:          keyword,
		Message:          fmt.Sprintf(format, args...),
	}
}
