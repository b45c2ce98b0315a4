package jsonschema

import (
	"maps"
	"sort"
	"sync"

	"github.com/erraggy/schematools/internal/urlutil"
	"github.com/erraggy/schematools/schemaerrors"
)

// Repository ties schema resolution and validator construction together
// behind one entry point. Schemas are dereferenced into a single shared
// URI index; validators are built over immutable snapshots of that
// index, so a validator is never affected by schemas added after it was
// built.
type Repository struct {
	baseURI *urlutil.URL
	logger  Logger
	loader  SchemaLoader

	mu     sync.Mutex
	lookup map[string]*Schema
}

type repositoryConfig struct {
	baseURI string
	logger  Logger
	loader  SchemaLoader
}

// Option configures a Repository.
type Option func(*repositoryConfig) error

// WithBaseURI sets the default base URI used to resolve schemas that do
// not declare an absolute identifier. It must be absolute. Required.
func WithBaseURI(baseURI string) Option {
	return func(cfg *repositoryConfig) error {
		if baseURI == "" {
			return &schemaerrors.ConfigError{Option: "WithBaseURI", Message: "base URI must not be empty"}
		}
		cfg.baseURI = baseURI
		return nil
	}
}

// WithLogger sets the logger. Defaults to NopLogger.
func WithLogger(logger Logger) Option {
	return func(cfg *repositoryConfig) error {
		if logger == nil {
			return &schemaerrors.ConfigError{Option: "WithLogger", Message: "logger must not be nil"}
		}
		cfg.logger = logger
		return nil
	}
}

// WithLoader sets the loader used to fetch schema documents referenced
// but not dereferenced into the repository. Without a loader such
// references fail validation instead of being fetched.
func WithLoader(loader SchemaLoader) Option {
	return func(cfg *repositoryConfig) error {
		cfg.loader = loader
		return nil
	}
}

// NewRepository creates an empty repository. WithBaseURI is required.
func NewRepository(opts ...Option) (*Repository, error) {
	cfg := repositoryConfig{logger: NopLogger{}}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	if cfg.baseURI == "" {
		return nil, &schemaerrors.ConfigError{Option: "WithBaseURI", Message: "a default base URI is required"}
	}
	base, err := urlutil.Parse(cfg.baseURI)
	if err != nil {
		return nil, &schemaerrors.ConfigError{Option: "WithBaseURI", Value: cfg.baseURI, Message: "base URI must be absolute", Cause: err}
	}
	return &Repository{
		baseURI: base,
		logger:  cfg.logger,
		loader:  cfg.loader,
		lookup:  make(map[string]*Schema),
	}, nil
}

// Dereference resolves the schema against the repository's default base
// URI, merging every addressable subschema into the shared index. It
// fails with a resolution error on a URI collision between distinct
// nodes; dereferencing the same schema again is a no-op.
func (r *Repository) Dereference(schema *Schema) error {
	return r.dereference(r.baseURI, schema)
}

// DereferenceWithBase is Dereference with an explicit base URI, used
// when the schema's addressable identity differs from the repository
// default.
func (r *Repository) DereferenceWithBase(baseURI string, schema *Schema) error {
	base, err := urlutil.Parse(baseURI)
	if err != nil {
		return &schemaerrors.ResolutionError{Ref: baseURI, Message: "base URI must be absolute", Cause: err}
	}
	return r.dereference(base, schema)
}

func (r *Repository) dereference(base *urlutil.URL, schema *Schema) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	// A failed walk may leave earlier entries behind; callers should
	// discard the repository on error.
	return dereference(r.lookup, schema, base, "", true, r.logger)
}

// Lookup returns the schema indexed at the given absolute URI.
func (r *Repository) Lookup(uri string) (*Schema, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.lookup[uri]
	return s, ok
}

// URIs returns every indexed URI in sorted order.
func (r *Repository) URIs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	uris := make([]string, 0, len(r.lookup))
	for uri := range r.lookup {
		uris = append(uris, uri)
	}
	sort.Strings(uris)
	return uris
}

type validatorConfig struct {
	baseURI string
}

// ValidatorOption configures a single Validator call.
type ValidatorOption func(*validatorConfig) error

// WithValidatorBaseURI overrides the repository's default base URI for
// one validator build.
func WithValidatorBaseURI(baseURI string) ValidatorOption {
	return func(cfg *validatorConfig) error {
		if baseURI == "" {
			return &schemaerrors.ConfigError{Option: "WithValidatorBaseURI", Message: "base URI must not be empty"}
		}
		cfg.baseURI = baseURI
		return nil
	}
}

// Validator builds a validator tree for the schema over an immutable
// snapshot of the current index. The schema is dereferenced into the
// snapshot first (a no-op when it already was), so the returned
// validator sees the schema and everything dereferenced before this
// call, and nothing after.
func (r *Repository) Validator(schema *Schema, opts ...ValidatorOption) (Validator, error) {
	cfg := validatorConfig{}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	base := r.baseURI
	if cfg.baseURI != "" {
		u, err := urlutil.Parse(cfg.baseURI)
		if err != nil {
			return nil, &schemaerrors.ConfigError{Option: "WithValidatorBaseURI", Value: cfg.baseURI, Message: "base URI must be absolute", Cause: err}
		}
		base = u
	}

	r.mu.Lock()
	snapshot := maps.Clone(r.lookup)
	r.mu.Unlock()

	if err := dereference(snapshot, schema, base, "", true, r.logger); err != nil {
		return nil, err
	}

	b := newBuilder(snapshot, r.loader, r.logger)
	root, err := b.build(schema)
	if err != nil {
		return nil, err
	}
	// Settle sync capability single-threaded, before the validator can
	// be shared across goroutines.
	root.IsSync()
	return root, nil
}
