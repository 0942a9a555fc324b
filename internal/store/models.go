package store

import (
	"errors"
	"strings"
)

// ErrQuotaExceeded is returned by a Medium when a write would push the
// stored bytes past its capacity. Implementations wrap it, so callers
// check with errors.Is.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// Medium is a synchronous string-keyed, string-valued persistent map.
// Every operation is atomic per key. There are no multi-key transactions.
type Medium interface {
	// Get returns the value stored under key and whether it exists.
	Get(key string) (string, bool, error)
	// Set stores value under key, replacing any previous value.
	Set(key, value string) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(key string) error
	// Keys lists every stored key in unspecified order.
	Keys() ([]string, error)
}

// Entry is a single key/value pair, used for bulk hydrate and export.
type Entry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Stats summarizes a medium's usage.
type Stats struct {
	Keys       int    `json:"keys"`
	Bytes      int64  `json:"bytes"`
	Capacity   int64  `json:"capacity"`
	VecVersion string `json:"vecVersion,omitempty"`
}

// DefaultPrefix namespaces every key the application writes.
const DefaultPrefix = "super_okai_"

// Keys builds the persisted key layout under a prefix.
// Entity payload keys use a "/" separator, which never appears in a
// normalized id, so they cannot collide with the index keys.
type Keys struct {
	Prefix string
}

// NewKeys returns the key layout for prefix, or DefaultPrefix when empty.
func NewKeys(prefix string) Keys {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return Keys{Prefix: prefix}
}

// Entity is the payload key for an entity of the given kind.
func (k Keys) Entity(kind, id string) string { return k.Prefix + kind + "/" + id }

// EntityPrefix is the common prefix of every payload key of a kind.
func (k Keys) EntityPrefix(kind string) string { return k.Prefix + kind + "/" }

// Metadata is the metadata index key for a kind.
func (k Keys) Metadata(kind string) string { return k.Prefix + kind + "_metadata" }

// Deleted is the tombstone set key for a kind.
func (k Keys) Deleted(kind string) string { return k.Prefix + "deleted_" + kind }

func (k Keys) Logs() string { return k.Prefix + "logs" }
func (k Keys) PersonaOrder() string { return k.Prefix + "persona_order" }
func (k Keys) SelectedModel() string { return k.Prefix + "selected_model" }
func (k Keys) SelectedPersona() string { return k.Prefix + "selected_persona" }

// Owns reports whether key belongs to this layout.
func (k Keys) Owns(key string) bool { return strings.HasPrefix(key, k.Prefix) }

// Size is the number of bytes a key/value pair occupies against a quota.
func Size(key, value string) int64 { return int64(len(key) + len(value)) }
