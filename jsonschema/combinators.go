package jsonschema

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/erraggy/schematools/schemaerrors"
)

// Combinator validators aggregate an ordered sequence of child
// subschema validators under a logical join predicate. They all share
// one dual-mode skeleton: the synchronous path runs on the caller's
// goroutine and must be guarded by the capability check; the
// asynchronous path delegates to the synchronous one when the whole
// subtree is sync-capable and otherwise starts every child
// concurrently before observing any result, then waits for all of them
// to settle. In-flight siblings are never cancelled by an earlier
// failure; when several children fail, the surfaced error is the first
// one observed in completion order.

// allOfValidator is the conjunction: every child must accept the value.
type allOfValidator struct {
	children []Validator
}

func (v *allOfValidator) IsSync() bool {
	for _, c := range v.children {
		if !c.IsSync() {
			return false
		}
	}
	return true
}

func (v *allOfValidator) ValidateSync(vctx *ValidatorContext, value any) error {
	if !v.IsSync() {
		return &schemaerrors.SyncUnsupportedError{Keyword: "allOf"}
	}
	// Fail fast: the first failing child aborts, in declaration order.
	for _, c := range v.children {
		if err := c.ValidateSync(vctx, value); err != nil {
			return err
		}
	}
	return nil
}

func (v *allOfValidator) Validate(ctx context.Context, vctx *ValidatorContext, value any) error {
	if v.IsSync() {
		return v.ValidateSync(vctx, value)
	}
	var g errgroup.Group
	for _, c := range v.children {
		g.Go(func() error {
			return c.Validate(ctx, vctx, value)
		})
	}
	return g.Wait()
}

// anyOfValidator accepts a value that at least one child accepts.
type anyOfValidator struct {
	children []Validator
}

func (v *anyOfValidator) IsSync() bool {
	for _, c := range v.children {
		if !c.IsSync() {
			return false
		}
	}
	return true
}

func (v *anyOfValidator) ValidateSync(vctx *ValidatorContext, value any) error {
	if !v.IsSync() {
		return &schemaerrors.SyncUnsupportedError{Keyword: "anyOf"}
	}
	var first error
	for _, c := range v.children {
		err := c.ValidateSync(vctx, value)
		if err == nil {
			return nil
		}
		if !isValidationFailure(err) {
			return err
		}
		if first == nil {
			first = err
		}
	}
	return &schemaerrors.ValidationError{
		InstanceLocation: vctx.Location(),
		Keyword:          "anyOf",
		Message:          "no subschema matched",
		Cause:            first,
	}
}

func (v *anyOfValidator) Validate(ctx context.Context, vctx *ValidatorContext, value any) error {
	if v.IsSync() {
		return v.ValidateSync(vctx, value)
	}
	results := fanOut(ctx, vctx, value, v.children)
	var first error
	for _, err := range results {
		if err == nil {
			return nil
		}
		if !isValidationFailure(err) {
			return err
		}
		if first == nil {
			first = err
		}
	}
	return &schemaerrors.ValidationError{
		InstanceLocation: vctx.Location(),
		Keyword:          "anyOf",
		Message:          "no subschema matched",
		Cause:            first,
	}
}

// oneOfValidator accepts a value that exactly one child accepts. The
// join needs every child's outcome, so the synchronous path runs all
// children even after a match.
type oneOfValidator struct {
	children []Validator
}

func (v *oneOfValidator) IsSync() bool {
	for _, c := range v.children {
		if !c.IsSync() {
			return false
		}
	}
	return true
}

func (v *oneOfValidator) ValidateSync(vctx *ValidatorContext, value any) error {
	if !v.IsSync() {
		return &schemaerrors.SyncUnsupportedError{Keyword: "oneOf"}
	}
	matches := 0
	var first error
	for _, c := range v.children {
		err := c.ValidateSync(vctx, value)
		if err == nil {
			matches++
			continue
		}
		if !isValidationFailure(err) {
			return err
		}
		if first == nil {
			first = err
		}
	}
	return oneOfJoin(vctx, matches, first)
}

func (v *oneOfValidator) Validate(ctx context.Context, vctx *ValidatorContext, value any) error {
	if v.IsSync() {
		return v.ValidateSync(vctx, value)
	}
	results := fanOut(ctx, vctx, value, v.children)
	matches := 0
	var first error
	for _, err := range results {
		if err == nil {
			matches++
			continue
		}
		if !isValidationFailure(err) {
			return err
		}
		if first == nil {
			first = err
		}
	}
	return oneOfJoin(vctx, matches, first)
}

func oneOfJoin(vctx *ValidatorContext, matches int, first error) error {
	switch matches {
	case 1:
		return nil
	case 0:
		return &schemaerrors.ValidationError{
			InstanceLocation: vctx.Location(),
			Keyword:          "oneOf",
			Message:          "no subschema matched",
			Cause:            first,
		}
	default:
		return failf(vctx, "oneOf", "value matches %d subschemas, expected exactly one", matches)
	}
}

// notValidator inverts its child: the value is valid only when the
// child rejects it.
type notValidator struct {
	child Validator
}

func (v *notValidator) IsSync() bool {
	return v.child.IsSync()
}

func (v *notValidator) ValidateSync(vctx *ValidatorContext, value any) error {
	if !v.IsSync() {
		return &schemaerrors.SyncUnsupportedError{Keyword: "not"}
	}
	err := v.child.ValidateSync(vctx, value)
	return notJoin(vctx, err)
}

func (v *notValidator) Validate(ctx context.Context, vctx *ValidatorContext, value any) error {
	if v.IsSync() {
		return v.ValidateSync(vctx, value)
	}
	err := v.child.Validate(ctx, vctx, value)
	return notJoin(vctx, err)
}

func notJoin(vctx *ValidatorContext, err error) error {
	if err == nil {
		return failf(vctx, "not", "value must not match schema")
	}
	if isValidationFailure(err) {
		return nil
	}
	return err
}

// condValidator implements if/then/else. The branch choice depends on
// the condition's outcome, so both modes run the condition first and
// then exactly one branch.
type condValidator struct {
	condition Validator
	then      Validator
	els       Validator
}

func (v *condValidator) IsSync() bool {
	if !v.condition.IsSync() {
		return false
	}
	if v.then != nil && !v.then.IsSync() {
		return false
	}
	if v.els != nil && !v.els.IsSync() {
		return false
	}
	return true
}

func (v *condValidator) ValidateSync(vctx *ValidatorContext, value any) error {
	if !v.IsSync() {
		return &schemaerrors.SyncUnsupportedError{Keyword: "if"}
	}
	err := v.condition.ValidateSync(vctx, value)
	switch {
	case err == nil:
		if v.then != nil {
			return v.then.ValidateSync(vctx, value)
		}
	case isValidationFailure(err):
		if v.els != nil {
			return v.els.ValidateSync(vctx, value)
		}
	default:
		return err
	}
	return nil
}

func (v *condValidator) Validate(ctx context.Context, vctx *ValidatorContext, value any) error {
	if v.IsSync() {
		return v.ValidateSync(vctx, value)
	}
	err := v.condition.Validate(ctx, vctx, value)
	switch {
	case err == nil:
		if v.then != nil {
			return v.then.Validate(ctx, vctx, value)
		}
	case isValidationFailure(err):
		if v.els != nil {
			return v.els.Validate(ctx, vctx, value)
		}
	default:
		return err
	}
	return nil
}

// fanOut starts every child's asynchronous validation before observing
// any result and waits for all of them to settle. Results are indexed
// by declaration order; nothing is cancelled on failure.
func fanOut(ctx context.Context, vctx *ValidatorContext, value any, children []Validator) []error {
	results := make([]error, len(children))
	var wg sync.WaitGroup
	for i, c := range children {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = c.Validate(ctx, vctx, value)
		}()
	}
	wg.Wait()
	return results
}
