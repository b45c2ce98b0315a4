package jsonschema

import (
	"fmt"
	"sort"

	"go.yaml.in/yaml/v4"

	"github.com/erraggy/schematools/schemaerrors"
)

// Schema is one addressable schema node: either a boolean schema or an
// object schema holding an ordered mapping of keyword name to value.
//
// Nested mappings anywhere in a parsed document are themselves *Schema
// values so that any subschema position can be addressed uniformly;
// nested sequences are []any and scalars are plain Go values.
//
// Dereferencing attaches up to three derived annotations to an object
// schema (its canonical absolute URI and the absolute forms of $ref and
// $recursiveRef). Each annotation is set exactly once: re-resolving a
// shared subtree through a second path never changes an annotation that
// is already present.
type Schema struct {
	boolean *bool
	keys    []string
	fields  map[string]any

	absoluteURI          string
	absoluteRef          string
	absoluteRecursiveRef string
}

// ParseSchema parses a schema document from YAML or JSON bytes. Key
// order of every mapping is preserved. The top-level value must be a
// mapping or a boolean.
func ParseSchema(data []byte) (*Schema, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, &schemaerrors.ParseError{Message: "invalid schema document", Cause: err}
	}
	v, err := decodeNode(&node)
	if err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case *Schema:
		return t, nil
	case bool:
		return BooleanSchema(t), nil
	default:
		return nil, &schemaerrors.ParseError{
			Message: fmt.Sprintf("schema document must be an object or boolean, got %T", v),
		}
	}
}

// BooleanSchema returns a boolean schema: true accepts every value,
// false rejects every value.
func BooleanSchema(value bool) *Schema {
	return &Schema{boolean: &value}
}

// SchemaOf converts an already-decoded value into a Schema. Booleans
// become boolean schemas and maps become object schemas with keys in
// sorted order (plain Go maps carry no insertion order; parse source
// text with ParseSchema when order matters).
func SchemaOf(value any) (*Schema, error) {
	switch t := value.(type) {
	case *Schema:
		return t, nil
	case bool:
		return BooleanSchema(t), nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fields := make(map[string]any, len(t))
		for k, v := range t {
			cv, err := convertValue(v)
			if err != nil {
				return nil, err
			}
			fields[k] = cv
		}
		return &Schema{keys: keys, fields: fields}, nil
	default:
		return nil, &schemaerrors.ParseError{
			Message: fmt.Sprintf("cannot build schema from %T", value),
		}
	}
}

// convertValue rewrites nested maps into *Schema so SchemaOf output is
// shaped identically to ParseSchema output.
func convertValue(value any) (any, error) {
	switch t := value.(type) {
	case map[string]any:
		return SchemaOf(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			cv, err := convertValue(item)
			if err != nil {
				return nil, err
			}
			out[i] = cv
		}
		return out, nil
	default:
		return value, nil
	}
}

// decodeNode converts a yaml.Node tree into the schema value model.
func decodeNode(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, &schemaerrors.ParseError{Message: "empty schema document"}
		}
		return decodeNode(n.Content[0])
	case yaml.AliasNode:
		return decodeNode(n.Alias)
	case yaml.MappingNode:
		s := &Schema{
			keys:   make([]string, 0, len(n.Content)/2),
			fields: make(map[string]any, len(n.Content)/2),
		}
		for i := 0; i+1 < len(n.Content); i += 2 {
			var key string
			if err := n.Content[i].Decode(&key); err != nil {
				return nil, &schemaerrors.ParseError{Message: "invalid mapping key", Cause: err}
			}
			v, err := decodeNode(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			if _, exists := s.fields[key]; !exists {
				s.keys = append(s.keys, key)
			}
			s.fields[key] = v
		}
		return s, nil
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := decodeNode(c)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, &schemaerrors.ParseError{Message: "invalid scalar value", Cause: err}
		}
		return v, nil
	default:
		return nil, &schemaerrors.ParseError{Message: fmt.Sprintf("unsupported node kind %d", n.Kind)}
	}
}

// ParseValue parses an instance document from YAML or JSON bytes into
// the plain value model validators consume: map[string]any, []any, and
// scalars.
func ParseValue(data []byte) (any, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, &schemaerrors.ParseError{Message: "invalid instance document", Cause: err}
	}
	return v, nil
}

// IsBoolean reports whether this is a boolean schema.
func (s *Schema) IsBoolean() bool {
	return s.boolean != nil
}

// BoolValue returns the boolean schema's value. It is false for object
// schemas; check IsBoolean first.
func (s *Schema) BoolValue() bool {
	return s.boolean != nil && *s.boolean
}

// Keys returns the keyword names of an object schema in insertion
// order. The returned slice must not be modified.
func (s *Schema) Keys() []string {
	return s.keys
}

// Len returns the number of keywords in an object schema.
func (s *Schema) Len() int {
	return len(s.keys)
}

// Get returns the value for a keyword and whether it is present.
func (s *Schema) Get(key string) (any, bool) {
	v, ok := s.fields[key]
	return v, ok
}

// Has reports whether a keyword is present.
func (s *Schema) Has(key string) bool {
	_, ok := s.fields[key]
	return ok
}

// GetString returns the keyword's value when it is present and a string.
func (s *Schema) GetString(key string) (string, bool) {
	v, ok := s.fields[key]
	if !ok {
		return "", false
	}
	str, ok := v.(string)
	return str, ok
}

// AbsoluteURI returns the canonical URI assigned during dereference, or
// empty when the schema has not been dereferenced.
func (s *Schema) AbsoluteURI() string {
	return s.absoluteURI
}

// AbsoluteRef returns the absolute form of $ref assigned during
// dereference, or empty.
func (s *Schema) AbsoluteRef() string {
	return s.absoluteRef
}

// AbsoluteRecursiveRef returns the absolute form of $recursiveRef
// assigned during dereference, or empty.
func (s *Schema) AbsoluteRecursiveRef() string {
	return s.absoluteRecursiveRef
}

// setAbsoluteURI records the canonical URI. Set-once: later calls are
// ignored so shared subtrees keep their first assignment.
func (s *Schema) setAbsoluteURI(uri string) {
	if s.absoluteURI == "" {
		s.absoluteURI = uri
	}
}

func (s *Schema) setAbsoluteRef(uri string) {
	if s.absoluteRef == "" {
		s.absoluteRef = uri
	}
}

func (s *Schema) setAbsoluteRecursiveRef(uri string) {
	if s.absoluteRecursiveRef == "" {
		s.absoluteRecursiveRef = uri
	}
}

// Equal reports structural equality with another schema node. Object
// comparison is key-order insensitive; numeric values compare across
// integer and float representations.
func (s *Schema) Equal(other *Schema) bool {
	if s == other {
		return true
	}
	if s == nil || other == nil {
		return false
	}
	return equalValues(s, other)
}

// String describes the node for logs and errors.
func (s *Schema) String() string {
	if s.IsBoolean() {
		return fmt.Sprintf("schema(%t)", s.BoolValue())
	}
	if s.absoluteURI != "" {
		return "schema(" + s.absoluteURI + ")"
	}
	return fmt.Sprintf("schema(%d keywords)", len(s.keys))
}

// toNumber converts any numeric representation produced by YAML/JSON
// decoding into a float64.
func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	return 0, false
}

// objectFields views a value as an object when it is either a plain map
// (instance data) or an object schema node (schema data).
func objectFields(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case *Schema:
		if t.boolean == nil {
			return t.fields, true
		}
	}
	return nil, false
}

// equalValues implements structural equality across the instance value
// model (maps, slices, scalars) and the schema value model (*Schema).
func equalValues(a, b any) bool {
	if na, ok := toNumber(a); ok {
		nb, ok := toNumber(b)
		return ok && na == nb
	}
	if sa, ok := a.(*Schema); ok && sa.boolean != nil {
		a = *sa.boolean
	}
	if sb, ok := b.(*Schema); ok && sb.boolean != nil {
		b = *sb.boolean
	}
	switch ta := a.(type) {
	case nil:
		return b == nil
	case bool:
		tb, ok := b.(bool)
		return ok && ta == tb
	case string:
		tb, ok := b.(string)
		return ok && ta == tb
	case []any:
		tb, ok := b.([]any)
		if !ok || len(ta) != len(tb) {
			return false
		}
		for i := range ta {
			if !equalValues(ta[i], tb[i]) {
				return false
			}
		}
		return true
	default:
		fa, ok := objectFields(a)
		if !ok {
			return false
		}
		fb, ok := objectFields(b)
		if !ok || len(fa) != len(fb) {
			return false
		}
		for k, va := range fa {
			vb, present := fb[k]
			if !present || !equalValues(va, vb) {
				return false
			}
		}
		return true
	}
}
