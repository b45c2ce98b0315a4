package jsonschema

import (
	"strings"
	"sync"

	"github.com/erraggy/schematools/internal/jsonpointer"
)

// ValidatorContext carries per-call validation state: the JSON-pointer
// location of the value under validation and cross-keyword evaluation
// bookkeeping (which properties and items have been evaluated at this
// location, as needed by keywords in the unevaluated* family).
//
// A context is exclusively owned by a single top-level validation call
// and must not be reused across calls. Within one call the asynchronous
// path may share it between concurrently running sibling validators;
// the bookkeeping is guarded accordingly.
type ValidatorContext struct {
	path []string

	mu                  sync.Mutex
	evaluatedProperties map[string]bool
	evaluatedItems      map[int]bool
}

// NewValidatorContext returns a context rooted at the top of the input
// value.
func NewValidatorContext() *ValidatorContext {
	return &ValidatorContext{}
}

// Child returns a context for the value at the given field name or
// array index token. The child starts with its own empty evaluation
// bookkeeping.
func (c *ValidatorContext) Child(token string) *ValidatorContext {
	path := make([]string, len(c.path), len(c.path)+1)
	copy(path, c.path)
	return &ValidatorContext{path: append(path, token)}
}

// Location returns the JSON pointer to the current value, with tokens
// escaped per RFC 6901. The root location is the empty string.
func (c *ValidatorContext) Location() string {
	if len(c.path) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, token := range c.path {
		sb.WriteByte('/')
		sb.WriteString(jsonpointer.Escape(token))
	}
	return sb.String()
}

// MarkEvaluatedProperty records that the named property of the object
// at this location was successfully evaluated.
func (c *ValidatorContext) MarkEvaluatedProperty(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.evaluatedProperties == nil {
		c.evaluatedProperties = make(map[string]bool)
	}
	c.evaluatedProperties[name] = true
}

// EvaluatedProperty reports whether the named property was evaluated.
func (c *ValidatorContext) EvaluatedProperty(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evaluatedProperties[name]
}

// MarkEvaluatedItem records that the array item at the given index was
// successfully evaluated.
func (c *ValidatorContext) MarkEvaluatedItem(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.evaluatedItems == nil {
		c.evaluatedItems = make(map[int]bool)
	}
	c.evaluatedItems[index] = true
}

// EvaluatedItem reports whether the array item at the given index was
// evaluated.
func (c *ValidatorContext) EvaluatedItem(index int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evaluatedItems[index]
}
