// Package catalog implements a generic persisted entity catalog: payloads
// keyed by normalized id, a metadata index for cheap listing, a tombstone
// set for soft deletes, and a write-invalidated in-memory cache.
//
// Persona and knowledge base stores are instances of Store with their own Kind.
package catalog

import (
	"strings"
	"unicode"
)

// Kind supplies the entity-specific behavior a Store needs.
type Kind[T any, M any] interface {
	// Name is the key segment for this kind, e.g. "persona".
	Name() string
	// Validate reports the first invalid field of v, or nil.
	Validate(v T) error
	// Project derives the metadata record of a validated payload.
	Project(id string, v T, modified int64) M
	// MetadataID returns the id a metadata record describes.
	MetadataID(m M) string
	// Modified returns the modification time Project stamped on m.
	Modified(m M) int64
	// Less orders metadata for List. Return false for insertion order.
	Less(a, b M) bool
	// Carry fills fields the caller omitted in incoming from the stored record.
	Carry(stored, incoming T) T
	// Seed returns the built-in record for id, if one exists.
	Seed(id string) (T, bool)
	// SeedIDs lists every built-in id in table order.
	SeedIDs() []string
}

// NormalizeID lowercases and trims id, drops every character that is not
// an ASCII letter or digit, and strips leading digits. The result may be empty.
func NormalizeID(id string) string {
	var b strings.Builder
	b.Grow(len(id))
	for _, r := range strings.ToLower(strings.TrimSpace(id)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return strings.TrimLeftFunc(b.String(), unicode.IsDigit)
}
