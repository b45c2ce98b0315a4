// Package jsonpointer implements RFC 6901 reference-token escaping for
// JSON pointer paths.
package jsonpointer

import "strings"

// Escape escapes a single reference token for use in a JSON pointer.
// Per RFC 6901, "~" becomes "~0" and "/" becomes "~1".
func Escape(token string) string {
	token = strings.ReplaceAll(token, "~", "~0")
	return strings.ReplaceAll(token, "/", "~1")
}

// Unescape reverses Escape. The order matters: "~1" is rewritten before
// "~0" so that "~01" round-trips to "~1" rather than "/".
func Unescape(token string) string {
	token = strings.ReplaceAll(token, "~1", "/")
	return strings.ReplaceAll(token, "~0", "~")
}
