// Package validate checks tool inputs before any network round-trip.
//
// Handlers call these functions first and short-circuit on failure, so a
// malformed identifier never reaches the molt-md API.
package validate

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// canonicalUUIDLen is the length of the hyphenated 8-4-4-4-12 form.
// uuid.Parse alone also accepts braced, URN-prefixed, and compact encodings,
// which the molt-md API rejects.
const canonicalUUIDLen = 36

// UUID checks that value is a canonical hyphenated UUID (case-insensitive).
// The label names the offending parameter in the returned error.
func UUID(value, label string) error {
	if len(value) == canonicalUUIDLen {
		if _, err := uuid.Parse(value); err == nil {
			return nil
		}
	}
	return fmt.Errorf("%q is not a valid UUID for %s (expected 8-4-4-4-12 hex format)", value, label)
}

// NormalizeETag prepares an optimistic-concurrency token for the If-Match
// header. Empty input means no token and yields empty output. Otherwise all
// surrounding quotation marks are stripped, however many layers the caller
// supplied, and exactly one pair is re-applied. The result is stable under
// repeated normalization.
func NormalizeETag(raw string) string {
	if raw == "" {
		return ""
	}
	return `"` + strings.Trim(raw, `"`) + `"`
}
