// Package urlutil provides the URL primitive used by schema reference
// resolution: relative-reference resolution against a base, fragment
// get/set, and a stable string serialization.
//
// Serialization follows the WHATWG convention for fragments: an empty
// fragment and a bare trailing "#" produce the same href, so
// "https://example.com/s#" and "https://example.com/s" are the same
// location.
package urlutil

import (
	"fmt"
	"net/url"
)

// URL is an absolute URL with a mutable fragment.
type URL struct {
	u *url.URL
}

// Parse parses an absolute URL.
func Parse(raw string) (*URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("not an absolute URL: %q", raw)
	}
	return &URL{u: u}, nil
}

// Resolve resolves a relative-or-absolute reference against base and
// returns the resulting absolute URL. A nil base requires ref to be
// absolute.
func Resolve(ref string, base *URL) (*URL, error) {
	r, err := url.Parse(ref)
	if err != nil {
		return nil, err
	}
	if base == nil {
		if !r.IsAbs() {
			return nil, fmt.Errorf("relative reference %q requires a base URL", ref)
		}
		return &URL{u: r}, nil
	}
	return &URL{u: base.u.ResolveReference(r)}, nil
}

// Fragment returns the decoded fragment content without the leading "#".
// It is empty both for URLs with no fragment and for a bare trailing "#".
func (u *URL) Fragment() string {
	return u.u.Fragment
}

// SetFragment replaces the fragment. An empty string removes the
// fragment entirely so the href carries no "#".
func (u *URL) SetFragment(fragment string) {
	u.u.Fragment = fragment
	u.u.RawFragment = ""
}

// Href returns the serialized URL. URLs whose fragment is empty
// serialize without a trailing "#".
func (u *URL) Href() string {
	return u.u.String()
}

// String implements fmt.Stringer.
func (u *URL) String() string {
	return u.Href()
}

// Clone returns an independent copy.
func (u *URL) Clone() *URL {
	c := *u.u
	return &URL{u: &c}
}
