// Package schemaerrors provides structured error types for schematools.
//
// These error types enable programmatic error handling via errors.Is() and
// errors.As(), allowing callers to distinguish between different categories
// of errors and implement appropriate recovery strategies.
//
// # Error Categories
//
//   - ParseError: YAML/JSON schema parsing failures
//   - ResolutionError: duplicate canonical URIs and malformed references
//   - ValidationError: input values failing keyword checks
//   - SyncUnsupportedError: synchronous validation requested from a tree
//     that requires asynchronous execution
//   - ConfigError: invalid configuration or input options
//
// # Usage with errors.Is
//
//	err := repo.Dereference(schema)
//	if errors.Is(err, schemaerrors.ErrResolution) {
//	    // the schema itself is broken; fix it rather than retry
//	}
//
// SyncUnsupportedError is a contract-violation signal, not a data error:
// the required remedy is to re-invoke validation through the asynchronous
// path. It must never be treated as an ordinary validation failure.
//
//	err := v.ValidateSync(vctx, value)
//	if errors.Is(err, schemaerrors.ErrSyncUnsupported) {
//	    err = v.Validate(ctx, vctx, value)
//	}
package schemaerrors
