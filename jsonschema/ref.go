package jsonschema

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/erraggy/schematools"
	"github.com/erraggy/schematools/internal/urlutil"
	"github.com/erraggy/schematools/schemaerrors"
)

// maxSchemaBytes caps the size of a remotely fetched schema document.
const maxSchemaBytes = 10 << 20

// SchemaLoader fetches a schema document that is not present in the
// repository, addressed by its absolute URI with any fragment removed.
// Loaders must be safe for concurrent use.
type SchemaLoader func(ctx context.Context, uri string) (*Schema, error)

// NewHTTPLoader returns a SchemaLoader that fetches schema documents
// over HTTP(S). A nil client uses http.DefaultClient.
func NewHTTPLoader(client *http.Client) SchemaLoader {
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context, uri string) (*Schema, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", schematools.UserAgent())
		req.Header.Set("Accept", "application/schema+json, application/json, application/yaml")
		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("fetching %s: unexpected status %s", uri, resp.Status)
		}
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxSchemaBytes))
		if err != nil {
			return nil, fmt.Errorf("fetching %s: %w", uri, err)
		}
		return ParseSchema(body)
	}
}

// refValidator delegates validation to the schema a reference points
// at. Targets present in the index are materialized when the validator
// tree is built; targets in other documents are fetched through the
// loader on first use.
type refValidator struct {
	b       *builder
	keyword string
	ref     string

	mu     sync.Mutex
	target Validator
	done   bool
}

func (b *builder) newRefValidator(keyword, ref string) (*refValidator, error) {
	v := &refValidator{b: b, keyword: keyword, ref: ref}
	if schema, ok := b.index[ref]; ok {
		target, err := b.build(schema)
		if err != nil {
			return nil, err
		}
		v.target = target
		v.done = true
	}
	return v, nil
}

func (v *refValidator) IsSync() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.done {
		return v.target.IsSync()
	}
	// Unresolvable without a loader: validation fails synchronously.
	return v.b.loader == nil
}

func (v *refValidator) ValidateSync(vctx *ValidatorContext, value any) error {
	if !v.IsSync() {
		return &schemaerrors.SyncUnsupportedError{Keyword: v.keyword}
	}
	v.mu.Lock()
	target, done := v.target, v.done
	v.mu.Unlock()
	if !done {
		return v.unresolved(vctx, nil)
	}
	return target.ValidateSync(vctx, value)
}

func (v *refValidator) Validate(ctx context.Context, vctx *ValidatorContext, value any) error {
	target, err := v.resolveTarget(ctx)
	if err != nil {
		return v.unresolved(vctx, err)
	}
	return target.Validate(ctx, vctx, value)
}

// resolveTarget returns the target validator, fetching and resolving
// its document on first use.
func (v *refValidator) resolveTarget(ctx context.Context) (Validator, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.done {
		return v.target, nil
	}
	if v.b.loader == nil {
		return nil, fmt.Errorf("no loader configured")
	}

	u, err := urlutil.Parse(v.ref)
	if err != nil {
		return nil, err
	}
	doc := u.Clone()
	doc.SetFragment("")

	target, err := v.b.resolveRemote(ctx, doc, v.ref)
	if err != nil {
		return nil, err
	}
	v.target = target
	v.done = true
	return target, nil
}

func (v *refValidator) unresolved(vctx *ValidatorContext, cause error) error {
	return &schemaerrors.ValidationError{
		InstanceLocation: vctx.Location(),
		Keyword:          v.keyword,
		Message:          fmt.Sprintf("unresolved reference %q", v.ref),
		Cause:            cause,
	}
}

// resolveRemote fetches the document holding uri (unless a concurrent
// caller already did), resolves it into the index, and builds the
// validator for the referenced node. The builder lock serializes all
// remote materialization so the index and cache stay consistent.
func (b *builder) resolveRemote(ctx context.Context, doc *urlutil.URL, uri string) (Validator, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	docURI := doc.Href()
	if !b.remote[docURI] {
		b.logger.Debug("fetching remote schema", "uri", docURI)
		schema, err := b.loader(ctx, docURI)
		if err != nil {
			return nil, err
		}
		if err := dereference(b.index, schema, doc, "", true, b.logger); err != nil {
			return nil, err
		}
		b.remote[docURI] = true
	}

	schema, ok := b.index[uri]
	if !ok {
		return nil, fmt.Errorf("schema %q not found in %s", uri, docURI)
	}
	target, err := b.build(schema)
	if err != nil {
		return nil, err
	}
	// Settle capability while serialized; the fetched subtree never
	// becomes sync-capable retroactively.
	target.IsSync()
	return target, nil
}
