package schemaerrors

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is().
// These allow quick checks without type assertions.
var (
	// ErrParse indicates a schema parsing failure occurred.
	ErrParse = errors.New("parse error")

	// ErrResolution indicates a reference resolution failure.
	ErrResolution = errors.New("resolution error")

	// ErrDuplicateURI indicates two distinct schema nodes resolved to the
	// same canonical URI.
	ErrDuplicateURI = errors.New("duplicate schema URI")

	// ErrValidation indicates an input value failed validation.
	ErrValidation = errors.New("validation error")

	// ErrSyncUnsupported indicates synchronous validation was requested
	// from a validator tree that requires asynchronous execution.
	ErrSyncUnsupported = errors.New("synchronous validation unsupported")

	// ErrConfig indicates an invalid configuration.
	ErrConfig = errors.New("configuration error")
)

// ParseError represents a failure to parse a schema document.
// This includes YAML/JSON deserialization errors and structural issues.
type ParseError struct {
	// Path is the file path or source identifier
	Path string
	// Message describes the parsing failure
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ParseError) Error() string {
	msg := "parse error"
	if e.Path != "" {
		msg += " in " + e.Path
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// ResolutionError represents a failure to dereference a schema.
// This includes duplicate canonical URIs mapping to distinct schema nodes
// and malformed reference strings. A ResolutionError is fatal to the
// dereference call: the schema must be fixed, not retried.
type ResolutionError struct {
	// URI is the canonical URI involved in the failure, if known
	URI string
	// Ref is the reference string that failed to resolve, if any
	Ref string
	// IsDuplicate is true when two distinct nodes claimed the same URI
	IsDuplicate bool
	// Message provides additional context about the failure
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ResolutionError) Error() string {
	msg := "resolution error"
	if e.IsDuplicate {
		msg = fmt.Sprintf("duplicate schema URI %q", e.URI)
	} else if e.URI != "" {
		msg += " at " + e.URI
	}
	if e.Ref != "" {
		msg += ": " + e.Ref
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ResolutionError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
// Matches ErrResolution, and also ErrDuplicateURI when the error was
// raised for two distinct nodes claiming one canonical URI.
func (e *ResolutionError) Is(target error) bool {
	if target == ErrResolution {
		return true
	}
	return target == ErrDuplicateURI && e.IsDuplicate
}

// ValidationError represents an input value failing one or more keyword
// checks. It is an expected, data-dependent outcome.
type ValidationError struct {
	// InstanceLocation is the JSON pointer to the failing value in the input
	InstanceLocation string
	// SchemaURI is the canonical URI of the subschema that failed, if known
	SchemaURI string
	// Keyword is the schema keyword that rejected the value
	Keyword string
	// Message describes the validation failure
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ValidationError) Error() string {
	msg := "validation error"
	if e.InstanceLocation != "" {
		msg += " at " + e.InstanceLocation
	}
	if e.Keyword != "" {
		msg += " (" + e.Keyword + ")"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// SyncUnsupportedError signals that synchronous validation was attempted
// against a validator tree containing async-only work. This is a
// programming-contract violation, not a validation failure: the caller
// must re-invoke validation through the asynchronous path. It is never
// silently converted into a ValidationError.
type SyncUnsupportedError struct {
	// SchemaURI is the canonical URI of the async-only subtree, if known
	SchemaURI string
	// Keyword is the keyword owning the async-only subtree, if known
	Keyword string
}

// Error returns a human-readable error message.
func (e *SyncUnsupportedError) Error() string {
	msg := "synchronous validation unsupported"
	if e.SchemaURI != "" {
		msg += " for " + e.SchemaURI
	}
	if e.Keyword != "" {
		msg += " (" + e.Keyword + ")"
	}
	msg += ": validator tree requires asynchronous execution"
	return msg
}

// Unwrap returns nil as SyncUnsupportedError has no underlying cause.
func (e *SyncUnsupportedError) Unwrap() error {
	return nil
}

// Is reports whether target matches this error type.
func (e *SyncUnsupportedError) Is(target error) bool {
	return target == ErrSyncUnsupported
}

// ConfigError represents an invalid configuration or input.
// This includes invalid options, missing required inputs, and conflicting settings.
type ConfigError struct {
	// Option is the name of the problematic configuration option
	Option string
	// Value is the invalid value that was provided (may be nil)
	Value any
	// Message describes the configuration error
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ConfigError) Error() string {
	msg := "configuration error"
	if e.Option != "" {
		msg += " for " + e.Option
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}
