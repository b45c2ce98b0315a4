package jsonschema

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/erraggy/schematools/schemaerrors"
)

// Applicator validators route parts of an object or array value to
// child subschema validators. Property and item routing is decided per
// value; the routed child runs under a child context so failures report
// the location of the part that failed, not of the container.

type patternProperty struct {
	source string
	re     *regexp.Regexp
	child  Validator
}

// propertiesValidator handles properties, patternProperties and
// additionalProperties as one unit: additionalProperties applies only
// to instance members matched by neither of the other two.
type propertiesValidator struct {
	named      map[string]Validator
	patterns   []patternProperty
	additional Validator
}

func (b *builder) newPropertiesValidator(s *Schema) (Validator, error) {
	pv := &propertiesValidator{}

	if v, ok := s.Get("properties"); ok {
		if props, pok := v.(*Schema); pok {
			pv.named = make(map[string]Validator, props.Len())
			for _, name := range props.Keys() {
				raw, _ := props.Get(name)
				child, cok := childSchema(raw)
				if !cok {
					continue
				}
				cv, err := b.build(child)
				if err != nil {
					return nil, err
				}
				pv.named[name] = cv
			}
		}
	}

	if v, ok := s.Get("patternProperties"); ok {
		if props, pok := v.(*Schema); pok {
			for _, pattern := range props.Keys() {
				raw, _ := props.Get(pattern)
				child, cok := childSchema(raw)
				if !cok {
					continue
				}
				re, err := regexp.Compile(pattern)
				if err != nil {
					return nil, &schemaerrors.ResolutionError{
						URI:     s.AbsoluteURI(),
						Message: fmt.Sprintf("invalid property pattern %q", pattern),
						Cause:   err,
					}
				}
				cv, err := b.build(child)
				if err != nil {
					return nil, err
				}
				pv.patterns = append(pv.patterns, patternProperty{source: pattern, re: re, child: cv})
			}
		}
	}

	if v, ok := s.Get("additionalProperties"); ok {
		if child, cok := childSchema(v); cok {
			cv, err := b.build(child)
			if err != nil {
				return nil, err
			}
			pv.additional = cv
		}
	}

	return pv, nil
}

// route returns the validators applicable to the named property, in a
// stable order.
func (v *propertiesValidator) route(name string) []Validator {
	var applicable []Validator
	if cv, ok := v.named[name]; ok {
		applicable = append(applicable, cv)
	}
	for _, p := range v.patterns {
		if p.re.MatchString(name) {
			applicable = append(applicable, p.child)
		}
	}
	if applicable == nil && v.additional != nil {
		applicable = append(applicable, v.additional)
	}
	return applicable
}

func (v *propertiesValidator) IsSync() bool {
	for _, cv := range v.named {
		if !cv.IsSync() {
			return false
		}
	}
	for _, p := range v.patterns {
		if !p.child.IsSync() {
			return false
		}
	}
	if v.additional != nil && !v.additional.IsSync() {
		return false
	}
	return true
}

func (v *propertiesValidator) ValidateSync(vctx *ValidatorContext, value any) error {
	if !v.IsSync() {
		return &schemaerrors.SyncUnsupportedError{Keyword: "properties"}
	}
	fields, ok := objectFields(value)
	if !ok {
		return nil
	}
	for _, name := range sortedKeys(fields) {
		for _, cv := range v.route(name) {
			if err := cv.ValidateSync(vctx.Child(name), fields[name]); err != nil {
				return err
			}
		}
		vctx.MarkEvaluatedProperty(name)
	}
	return nil
}

func (v *propertiesValidator) Validate(ctx context.Context, vctx *ValidatorContext, value any) error {
	if v.IsSync() {
		return v.ValidateSync(vctx, value)
	}
	fields, ok := objectFields(value)
	if !ok {
		return nil
	}
	var g errgroup.Group
	for _, name := range sortedKeys(fields) {
		applicable := v.route(name)
		if len(applicable) == 0 {
			vctx.MarkEvaluatedProperty(name)
			continue
		}
		g.Go(func() error {
			child := vctx.Child(name)
			for _, cv := range applicable {
				if err := cv.Validate(ctx, child, fields[name]); err != nil {
					return err
				}
			}
			vctx.MarkEvaluatedProperty(name)
			return nil
		})
	}
	return g.Wait()
}

// itemsValidator handles positional item validation: a prefix of
// per-position subschemas followed by one subschema for every remaining
// item.
type itemsValidator struct {
	prefix []Validator
	rest   Validator
}

func (b *builder) newItemsValidator(s *Schema) (Validator, error) {
	iv := &itemsValidator{}

	items, hasItems := s.Get("items")
	if v, ok := s.Get("prefixItems"); ok {
		// Modern form: prefixItems carries the tuple, items the remainder.
		if list, lok := v.([]any); lok {
			prefix, err := b.buildList(list)
			if err != nil {
				return nil, err
			}
			iv.prefix = prefix
		}
		if hasItems {
			if child, cok := childSchema(items); cok {
				cv, err := b.build(child)
				if err != nil {
					return nil, err
				}
				iv.rest = cv
			}
		}
		return iv, nil
	}

	if hasItems {
		switch t := items.(type) {
		case []any:
			// Legacy tuple form: items is the array, additionalItems the
			// remainder.
			prefix, err := b.buildList(t)
			if err != nil {
				return nil, err
			}
			iv.prefix = prefix
			if av, ok := s.Get("additionalItems"); ok {
				if child, cok := childSchema(av); cok {
					cv, err := b.build(child)
					if err != nil {
						return nil, err
					}
					iv.rest = cv
				}
			}
		default:
			if child, cok := childSchema(items); cok {
				cv, err := b.build(child)
				if err != nil {
					return nil, err
				}
				iv.rest = cv
			}
		}
	}
	return iv, nil
}

// route returns the validator for the item at index i, or nil.
func (v *itemsValidator) route(i int) Validator {
	if i < len(v.prefix) {
		return v.prefix[i]
	}
	return v.rest
}

func (v *itemsValidator) IsSync() bool {
	for _, cv := range v.prefix {
		if !cv.IsSync() {
			return false
		}
	}
	if v.rest != nil && !v.rest.IsSync() {
		return false
	}
	return true
}

func (v *itemsValidator) ValidateSync(vctx *ValidatorContext, value any) error {
	if !v.IsSync() {
		return &schemaerrors.SyncUnsupportedError{Keyword: "items"}
	}
	arr, ok := value.([]any)
	if !ok {
		return nil
	}
	for i, item := range arr {
		cv := v.route(i)
		if cv == nil {
			continue
		}
		if err := cv.ValidateSync(vctx.Child(strconv.Itoa(i)), item); err != nil {
			return err
		}
		vctx.MarkEvaluatedItem(i)
	}
	return nil
}

func (v *itemsValidator) Validate(ctx context.Context, vctx *ValidatorContext, value any) error {
	if v.IsSync() {
		return v.ValidateSync(vctx, value)
	}
	arr, ok := value.([]any)
	if !ok {
		return nil
	}
	var g errgroup.Group
	for i, item := range arr {
		cv := v.route(i)
		if cv == nil {
			continue
		}
		g.Go(func() error {
			if err := cv.Validate(ctx, vctx.Child(strconv.Itoa(i)), item); err != nil {
				return err
			}
			vctx.MarkEvaluatedItem(i)
			return nil
		})
	}
	return g.Wait()
}

// containsValidator accepts an array when at least one item matches the
// child subschema.
type containsValidator struct {
	child Validator
}

func (b *builder) newContainsValidator(schema *Schema) (Validator, error) {
	cv, err := b.build(schema)
	if err != nil {
		return nil, err
	}
	return &containsValidator{child: cv}, nil
}

func (v *containsValidator) IsSync() bool {
	return v.child.IsSync()
}

func (v *containsValidator) ValidateSync(vctx *ValidatorContext, value any) error {
	if !v.IsSync() {
		return &schemaerrors.SyncUnsupportedError{Keyword: "contains"}
	}
	arr, ok := value.([]any)
	if !ok {
		return nil
	}
	for i, item := range arr {
		err := v.child.ValidateSync(vctx.Child(strconv.Itoa(i)), item)
		if err == nil {
			return nil
		}
		if !isValidationFailure(err) {
			return err
		}
	}
	return failf(vctx, "contains", "no array item matches")
}

func (v *containsValidator) Validate(ctx context.Context, vctx *ValidatorContext, value any) error {
	if v.IsSync() {
		return v.ValidateSync(vctx, value)
	}
	arr, ok := value.([]any)
	if !ok {
		return nil
	}
	results := make([]error, len(arr))
	var g errgroup.Group
	for i, item := range arr {
		g.Go(func() error {
			err := v.child.Validate(ctx, vctx.Child(strconv.Itoa(i)), item)
			if err != nil && !isValidationFailure(err) {
				return err
			}
			results[i] = err
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for _, err := range results {
		if err == nil {
			return nil
		}
	}
	return failf(vctx, "contains", "no array item matches")
}

// propertyNamesValidator validates every property name of an object,
// as a string value, against the child subschema.
type propertyNamesValidator struct {
	child Validator
}

func (b *builder) newPropertyNamesValidator(schema *Schema) (Validator, error) {
	cv, err := b.build(schema)
	if err != nil {
		return nil, err
	}
	return &propertyNamesValidator{child: cv}, nil
}

func (v *propertyNamesValidator) IsSync() bool {
	return v.child.IsSync()
}

func (v *propertyNamesValidator) ValidateSync(vctx *ValidatorContext, value any) error {
	if !v.IsSync() {
		return &schemaerrors.SyncUnsupportedError{Keyword: "propertyNames"}
	}
	fields, ok := objectFields(value)
	if !ok {
		return nil
	}
	for _, name := range sortedKeys(fields) {
		if err := v.child.ValidateSync(vctx.Child(name), name); err != nil {
			return err
		}
	}
	return nil
}

func (v *propertyNamesValidator) Validate(ctx context.Context, vctx *ValidatorContext, value any) error {
	if v.IsSync() {
		return v.ValidateSync(vctx, value)
	}
	fields, ok := objectFields(value)
	if !ok {
		return nil
	}
	var g errgroup.Group
	for _, name := range sortedKeys(fields) {
		g.Go(func() error {
			return v.child.Validate(ctx, vctx.Child(name), name)
		})
	}
	return g.Wait()
}

func sortedKeys(fields map[string]any) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
