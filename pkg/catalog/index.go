package catalog

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/kittclouds/okai/internal/store"
)

// metadataIndex is the JSON array of metadata records stored under one key,
// kept in insertion order.
type metadataIndex[M any] struct {
	medium store.Medium
	key    string
	idOf   func(M) string
	logger *zap.Logger
}

// load returns the index. A corrupt index is treated as empty.
func (x metadataIndex[M]) load() ([]M, error) {
	raw, ok, err := x.medium.Get(x.key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", x.key, err)
	}
	if !ok || raw == "" {
		return nil, nil
	}
	var entries []M
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		x.logger.Warn("corrupt metadata index, treating as empty", zap.String("key", x.key), zap.Error(err))
		return nil, nil
	}
	return entries, nil
}

func (x metadataIndex[M]) save(entries []M) error {
	if entries == nil {
		entries = []M{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode %s: %w", x.key, err)
	}
	return x.medium.Set(x.key, string(data))
}

func (x metadataIndex[M]) find(entries []M, id string) int {
	for i, m := range entries {
		if x.idOf(m) == id {
			return i
		}
	}
	return -1
}

// upsert replaces the record for m's id in place or appends it.
func (x metadataIndex[M]) upsert(entries []M, m M) []M {
	if i := x.find(entries, x.idOf(m)); i >= 0 {
		out := append([]M(nil), entries...)
		out[i] = m
		return out
	}
	return append(append([]M(nil), entries...), m)
}

// remove drops every record for id.
func (x metadataIndex[M]) remove(entries []M, id string) ([]M, bool) {
	out := make([]M, 0, len(entries))
	removed := false
	for _, m := range entries {
		if x.idOf(m) == id {
			removed = true
			continue
		}
		out = append(out, m)
	}
	return out, removed
}
