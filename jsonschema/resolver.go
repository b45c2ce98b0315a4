package jsonschema

import (
	"strconv"

	"github.com/erraggy/schematools/internal/jsonpointer"
	"github.com/erraggy/schematools/internal/urlutil"
	"github.com/erraggy/schematools/schemaerrors"
)

// Keyword categories are fixed and case-sensitive. Keywords in none of
// the category sets are leaf keywords and are never descended into.
var (
	// ignoredKeywords hold plain data, never subschemas.
	ignoredKeywords = keywordSet(
		"id", "$id", "$ref", "$schema", "$anchor", "$vocabulary", "$comment",
		"default", "enum", "const", "required", "type",
		"maximum", "minimum", "exclusiveMaximum", "exclusiveMinimum", "multipleOf",
		"maxLength", "minLength", "pattern", "format",
		"maxItems", "minItems", "uniqueItems", "maxProperties", "minProperties",
	)

	// schemaArrayKeywords hold an array of subschemas addressed by position.
	// Their elements are never schema roots: an identifier declared on an
	// array element must not introduce a new base URI.
	schemaArrayKeywords = keywordSet("prefixItems", "items", "allOf", "anyOf", "oneOf")

	// schemaMapKeywords hold a mapping of name to subschema. Their values
	// are always schema roots.
	schemaMapKeywords = keywordSet("$defs", "definitions", "properties", "patternProperties", "dependentSchemas")

	// schemaKeywords hold a single subschema directly. Values of
	// unrecognized keywords are still descended into (to catch nested $ref
	// and $id) but are not schema roots.
	schemaKeywords = keywordSet(
		"additionalItems", "unevaluatedItems", "items", "contains",
		"additionalProperties", "unevaluatedProperties", "propertyNames",
		"not", "if", "then", "else",
	)
)

func keywordSet(keywords ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(keywords))
	for _, k := range keywords {
		set[k] = struct{}{}
	}
	return set
}

// dereference walks a schema tree depth-first in a single pass,
// computing the canonical URI of every addressable subschema and
// recording it in lookup. basePointer is the JSON-pointer path
// accumulated since the last base URI change; schemaRoot reports
// whether the node sits in a true subschema position and may therefore
// introduce a new base URI.
func dereference(lookup map[string]*Schema, schema *Schema, baseURI *urlutil.URL, basePointer string, schemaRoot bool, log Logger) error {
	if !schema.IsBoolean() {
		id, _ := schema.GetString("$id")
		if id == "" {
			id, _ = schema.GetString("id")
		}
		if id != "" {
			u, err := urlutil.Resolve(id, baseURI)
			if err != nil {
				return &schemaerrors.ResolutionError{Ref: id, Message: "malformed identifier", Cause: err}
			}
			switch {
			case u.Fragment() != "":
				// A fragment-bearing identifier registers the node at that
				// URI directly. The base URI never changes, so sibling and
				// descendant resolution is unaffected.
				if err := register(lookup, u.Href(), schema); err != nil {
					return err
				}
			case schemaRoot:
				u.SetFragment("")
				if basePointer == "" {
					baseURI = u
				} else {
					// Identifier declared below the current base: the node is
					// also addressable under the new URI. Re-resolve it there
					// with an empty pointer, then continue under the old base.
					if err := dereference(lookup, schema, u, "", schemaRoot, log); err != nil {
						return err
					}
				}
			}
			// Identifiers without a fragment in non-root positions are
			// ignored entirely: only true subschema positions may introduce
			// a new base URI.
		}
	}

	schemaURI := baseURI.Href()
	if basePointer != "" {
		schemaURI += "#" + basePointer
	}
	if existing, ok := lookup[schemaURI]; ok {
		if sameNode(existing, schema) {
			// Benign revisit through a second reference path; the node and
			// everything below it is already resolved.
			return nil
		}
		return &schemaerrors.ResolutionError{URI: schemaURI, IsDuplicate: true}
	}
	lookup[schemaURI] = schema
	log.Debug("registered schema", "uri", schemaURI)

	if schema.IsBoolean() {
		return nil
	}

	schema.setAbsoluteURI(schemaURI)

	if ref, ok := schema.GetString("$ref"); ok && schema.absoluteRef == "" {
		u, err := urlutil.Resolve(ref, baseURI)
		if err != nil {
			return &schemaerrors.ResolutionError{Ref: ref, Message: "malformed $ref", Cause: err}
		}
		schema.setAbsoluteRef(u.Href())
	}

	if ref, ok := schema.GetString("$recursiveRef"); ok && schema.absoluteRecursiveRef == "" {
		u, err := urlutil.Resolve(ref, baseURI)
		if err != nil {
			return &schemaerrors.ResolutionError{Ref: ref, Message: "malformed $recursiveRef", Cause: err}
		}
		schema.setAbsoluteRecursiveRef(u.Href())
	}

	if anchor, ok := schema.GetString("$anchor"); ok {
		u, err := urlutil.Resolve("#"+anchor, baseURI)
		if err != nil {
			return &schemaerrors.ResolutionError{Ref: anchor, Message: "malformed $anchor", Cause: err}
		}
		if err := register(lookup, u.Href(), schema); err != nil {
			return err
		}
	}

	for _, key := range schema.Keys() {
		if _, ok := ignoredKeywords[key]; ok {
			continue
		}
		keyBase := basePointer + "/" + jsonpointer.Escape(key)
		sub, _ := schema.Get(key)

		switch v := sub.(type) {
		case []any:
			if _, ok := schemaArrayKeywords[key]; !ok {
				continue
			}
			for i, item := range v {
				child, ok := childSchema(item)
				if !ok {
					continue
				}
				if err := dereference(lookup, child, baseURI, keyBase+"/"+strconv.Itoa(i), false, log); err != nil {
					return err
				}
			}
		case *Schema:
			if _, ok := schemaMapKeywords[key]; ok {
				for _, subKey := range v.Keys() {
					mv, _ := v.Get(subKey)
					child, ok := childSchema(mv)
					if !ok {
						continue
					}
					if err := dereference(lookup, child, baseURI, keyBase+"/"+jsonpointer.Escape(subKey), true, log); err != nil {
						return err
					}
				}
				continue
			}
			if err := dereference(lookup, v, baseURI, keyBase, isSchemaKeyword(key), log); err != nil {
				return err
			}
		case bool:
			if err := dereference(lookup, BooleanSchema(v), baseURI, keyBase, isSchemaKeyword(key), log); err != nil {
				return err
			}
		}
	}
	return nil
}

// register inserts an alias or anchor entry. Re-registering the same
// node is a no-op; registering a distinct node under a taken URI fails.
func register(lookup map[string]*Schema, uri string, schema *Schema) error {
	if existing, ok := lookup[uri]; ok {
		if sameNode(existing, schema) {
			return nil
		}
		return &schemaerrors.ResolutionError{URI: uri, IsDuplicate: true}
	}
	lookup[uri] = schema
	return nil
}

// sameNode reports whether two index entries denote the same schema.
// Object schemas compare by identity; boolean schemas, which are
// wrapped fresh on every visit, compare by value.
func sameNode(a, b *Schema) bool {
	if a == b {
		return true
	}
	return a.boolean != nil && b.boolean != nil && *a.boolean == *b.boolean
}

// childSchema views a keyword child value as a schema node. Booleans
// are wrapped; anything that is neither a mapping nor a boolean is not
// a subschema.
func childSchema(v any) (*Schema, bool) {
	switch t := v.(type) {
	case *Schema:
		return t, true
	case bool:
		return BooleanSchema(t), true
	}
	return nil, false
}

func isSchemaKeyword(key string) bool {
	_, ok := schemaKeywords[key]
	return ok
}
