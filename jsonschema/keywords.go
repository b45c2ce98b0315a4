package jsonschema

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/erraggy/schematools/schemaerrors"
)

// buildKeywords assembles the keyword validators for an object schema
// in a fixed evaluation order. The classification of every keyword is
// decided here, once per schema node, rather than re-derived per
// validation call.
func (b *builder) buildKeywords(s *Schema) ([]Validator, error) {
	var kws []Validator

	if ref := s.AbsoluteRef(); ref != "" {
		v, err := b.newRefValidator("$ref", ref)
		if err != nil {
			return nil, err
		}
		kws = append(kws, v)
	}
	if ref := s.AbsoluteRecursiveRef(); ref != "" {
		v, err := b.newRefValidator("$recursiveRef", ref)
		if err != nil {
			return nil, err
		}
		kws = append(kws, v)
	}

	if v, ok := s.Get("type"); ok {
		kws = append(kws, newTypeValidator(v))
	}
	if v, ok := s.Get("enum"); ok {
		if values, ok := v.([]any); ok {
			kws = append(kws, newEnumValidator(values))
		}
	}
	if s.Has("const") {
		v, _ := s.Get("const")
		kws = append(kws, newConstValidator(v))
	}

	kws = appendNumberValidator(kws, s, "maximum", func(n, limit float64) bool { return n <= limit })
	kws = appendNumberValidator(kws, s, "exclusiveMaximum", func(n, limit float64) bool { return n < limit })
	kws = appendNumberValidator(kws, s, "minimum", func(n, limit float64) bool { return n >= limit })
	kws = appendNumberValidator(kws, s, "exclusiveMinimum", func(n, limit float64) bool { return n > limit })
	if v, ok := s.Get("multipleOf"); ok {
		if factor, ok := toNumber(v); ok && factor > 0 {
			kws = append(kws, newMultipleOfValidator(factor))
		}
	}

	if v, ok := s.Get("maxLength"); ok {
		if limit, ok := toNumber(v); ok {
			kws = append(kws, newStringLengthValidator("maxLength", int(limit), false))
		}
	}
	if v, ok := s.Get("minLength"); ok {
		if limit, ok := toNumber(v); ok {
			kws = append(kws, newStringLengthValidator("minLength", int(limit), true))
		}
	}
	if v, ok := s.GetString("pattern"); ok {
		pv, err := newPatternValidator(s.AbsoluteURI(), v)
		if err != nil {
			return nil, err
		}
		kws = append(kws, pv)
	}

	if v, ok := s.Get("maxItems"); ok {
		if limit, ok := toNumber(v); ok {
			kws = append(kws, newItemCountValidator("maxItems", int(limit), false))
		}
	}
	if v, ok := s.Get("minItems"); ok {
		if limit, ok := toNumber(v); ok {
			kws = append(kws, newItemCountValidator("minItems", int(limit), true))
		}
	}
	if v, ok := s.Get("uniqueItems"); ok {
		if unique, ok := v.(bool); ok && unique {
			kws = append(kws, newUniqueItemsValidator())
		}
	}

	if v, ok := s.Get("maxProperties"); ok {
		if limit, ok := toNumber(v); ok {
			kws = append(kws, newPropertyCountValidator("maxProperties", int(limit), false))
		}
	}
	if v, ok := s.Get("minProperties"); ok {
		if limit, ok := toNumber(v); ok {
			kws = append(kws, newPropertyCountValidator("minProperties", int(limit), true))
		}
	}
	if v, ok := s.Get("required"); ok {
		if names, ok := v.([]any); ok {
			kws = append(kws, newRequiredValidator(names))
		}
	}

	if s.Has("properties") || s.Has("patternProperties") || s.Has("additionalProperties") {
		v, err := b.newPropertiesValidator(s)
		if err != nil {
			return nil, err
		}
		kws = append(kws, v)
	}
	if v, ok := s.Get("propertyNames"); ok {
		if child, ok := childSchema(v); ok {
			pv, err := b.newPropertyNamesValidator(child)
			if err != nil {
				return nil, err
			}
			kws = append(kws, pv)
		}
	}
	if s.Has("items") || s.Has("prefixItems") || s.Has("additionalItems") {
		v, err := b.newItemsValidator(s)
		if err != nil {
			return nil, err
		}
		kws = append(kws, v)
	}
	if v, ok := s.Get("contains"); ok {
		if child, ok := childSchema(v); ok {
			cv, err := b.newContainsValidator(child)
			if err != nil {
				return nil, err
			}
			kws = append(kws, cv)
		}
	}

	for _, keyword := range []string{"allOf", "anyOf", "oneOf"} {
		v, ok := s.Get(keyword)
		if !ok {
			continue
		}
		list, ok := v.([]any)
		if !ok {
			continue
		}
		children, err := b.buildList(list)
		if err != nil {
			return nil, err
		}
		switch keyword {
		case "allOf":
			kws = append(kws, &allOfValidator{children: children})
		case "anyOf":
			kws = append(kws, &anyOfValidator{children: children})
		case "oneOf":
			kws = append(kws, &oneOfValidator{children: children})
		}
	}

	if v, ok := s.Get("not"); ok {
		if child, ok := childSchema(v); ok {
			cv, err := b.build(child)
			if err != nil {
				return nil, err
			}
			kws = append(kws, &notValidator{child: cv})
		}
	}

	if v, ok := s.Get("if"); ok {
		if child, ok := childSchema(v); ok {
			cond, err := b.build(child)
			if err != nil {
				return nil, err
			}
			cv := &condValidator{condition: cond}
			if tv, ok := s.Get("then"); ok {
				if ts, ok := childSchema(tv); ok {
					if cv.then, err = b.build(ts); err != nil {
						return nil, err
					}
				}
			}
			if ev, ok := s.Get("else"); ok {
				if es, ok := childSchema(ev); ok {
					if cv.els, err = b.build(es); err != nil {
						return nil, err
					}
				}
			}
			kws = append(kws, cv)
		}
	}

	return kws, nil
}

// buildList builds validators for the schema elements of an
// array-of-schemas keyword, preserving declaration order.
func (b *builder) buildList(list []any) ([]Validator, error) {
	children := make([]Validator, 0, len(list))
	for _, item := range list {
		child, ok := childSchema(item)
		if !ok {
			continue
		}
		v, err := b.build(child)
		if err != nil {
			return nil, err
		}
		children = append(children, v)
	}
	return children, nil
}

func appendNumberValidator(kws []Validator, s *Schema, keyword string, accept func(n, limit float64) bool) []Validator {
	v, ok := s.Get(keyword)
	if !ok {
		return kws
	}
	limit, ok := toNumber(v)
	if !ok {
		return kws
	}
	return append(kws, &leafValidator{keyword: keyword, check: func(vctx *ValidatorContext, value any) error {
		n, ok := toNumber(value)
		if !ok || accept(n, limit) {
			return nil
		}
		return failf(vctx, keyword, "value %v violates %s %v", n, keyword, limit)
	}})
}

func newTypeValidator(value any) Validator {
	var allowed []string
	switch t := value.(type) {
	case string:
		allowed = []string{t}
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok {
				allowed = append(allowed, s)
			}
		}
	}
	return &leafValidator{keyword: "type", check: func(vctx *ValidatorContext, value any) error {
		for _, want := range allowed {
			if typeMatches(want, value) {
				return nil
			}
		}
		return failf(vctx, "type", "expected %s, got %s", strings.Join(allowed, " or "), typeName(value))
	}}
}

func typeMatches(want string, v any) bool {
	switch want {
	case "null":
		return v == nil
	case "boolean":
		_, ok := v.(bool)
		return ok
	case "string":
		_, ok := v.(string)
		return ok
	case "object":
		_, ok := objectFields(v)
		return ok
	case "array":
		_, ok := v.([]any)
		return ok
	case "number":
		_, ok := toNumber(v)
		return ok
	case "integer":
		n, ok := toNumber(v)
		return ok && n == math.Trunc(n)
	}
	return false
}

func typeName(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case []any:
		return "array"
	case int, int64, uint64:
		return "integer"
	case float32, float64:
		return "number"
	default:
		if _, ok := objectFields(t); ok {
			return "object"
		}
		return fmt.Sprintf("%T", v)
	}
}

func newEnumValidator(values []any) Validator {
	return &leafValidator{keyword: "enum", check: func(vctx *ValidatorContext, value any) error {
		for _, candidate := range values {
			if equalValues(value, candidate) {
				return nil
			}
		}
		return failf(vctx, "enum", "value is not one of the allowed values")
	}}
}

func newConstValidator(expected any) Validator {
	return &leafValidator{keyword: "const", check: func(vctx *ValidatorContext, value any) error {
		if equalValues(value, expected) {
			return nil
		}
		return failf(vctx, "const", "value does not equal the constant")
	}}
}

func newMultipleOfValidator(factor float64) Validator {
	return &leafValidator{keyword: "multipleOf", check: func(vctx *ValidatorContext, value any) error {
		n, ok := toNumber(value)
		if !ok {
			return nil
		}
		quotient := n / factor
		if quotient == math.Trunc(quotient) {
			return nil
		}
		return failf(vctx, "multipleOf", "value %v is not a multiple of %v", n, factor)
	}}
}

func newStringLengthValidator(keyword string, limit int, isMin bool) Validator {
	return &leafValidator{keyword: keyword, check: func(vctx *ValidatorContext, value any) error {
		s, ok := value.(string)
		if !ok {
			return nil
		}
		// Length is measured in Unicode code points, not bytes.
		n := utf8.RuneCountInString(s)
		if isMin && n < limit {
			return failf(vctx, keyword, "string length %d is less than %d", n, limit)
		}
		if !isMin && n > limit {
			return failf(vctx, keyword, "string length %d exceeds %d", n, limit)
		}
		return nil
	}}
}

func newPatternValidator(uri, pattern string) (Validator, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, &schemaerrors.ResolutionError{
			URI:     uri,
			Message: fmt.Sprintf("invalid pattern %q", pattern),
			Cause:   err,
		}
	}
	return &leafValidator{keyword: "pattern", check: func(vctx *ValidatorContext, value any) error {
		s, ok := value.(string)
		if !ok || re.MatchString(s) {
			return nil
		}
		return failf(vctx, "pattern", "string does not match pattern %q", pattern)
	}}, nil
}

func newItemCountValidator(keyword string, limit int, isMin bool) Validator {
	return &leafValidator{keyword: keyword, check: func(vctx *ValidatorContext, value any) error {
		arr, ok := value.([]any)
		if !ok {
			return nil
		}
		if isMin && len(arr) < limit {
			return failf(vctx, keyword, "array has %d items, fewer than %d", len(arr), limit)
		}
		if !isMin && len(arr) > limit {
			return failf(vctx, keyword, "array has %d items, more than %d", len(arr), limit)
		}
		return nil
	}}
}

func newUniqueItemsValidator() Validator {
	return &leafValidator{keyword: "uniqueItems", check: func(vctx *ValidatorContext, value any) error {
		arr, ok := value.([]any)
		if !ok {
			return nil
		}
		for i := 0; i < len(arr); i++ {
			for j := i + 1; j < len(arr); j++ {
				if equalValues(arr[i], arr[j]) {
					return failf(vctx, "uniqueItems", "items %d and %d are equal", i, j)
				}
			}
		}
		return nil
	}}
}

func newPropertyCountValidator(keyword string, limit int, isMin bool) Validator {
	return &leafValidator{keyword: keyword, check: func(vctx *ValidatorContext, value any) error {
		fields, ok := objectFields(value)
		if !ok {
			return nil
		}
		if isMin && len(fields) < limit {
			return failf(vctx, keyword, "object has %d properties, fewer than %d", len(fields), limit)
		}
		if !isMin && len(fields) > limit {
			return failf(vctx, keyword, "object has %d properties, more than %d", len(fields), limit)
		}
		return nil
	}}
}

func newRequiredValidator(names []any) Validator {
	required := make([]string, 0, len(names))
	for _, n := range names {
		if s, ok := n.(string); ok {
			required = append(required, s)
		}
	}
	return &leafValidator{keyword: "required", check: func(vctx *ValidatorContext, value any) error {
		fields, ok := objectFields(value)
		if !ok {
			return nil
		}
		for _, name := range required {
			if _, present := fields[name]; !present {
				return failf(vctx, "required", "missing required property %q", name)
			}
		}
		return nil
	}}
}
