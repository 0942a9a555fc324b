package catalog

import (
	"encoding/json"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/kittclouds/okai/internal/store"
)

// tombstones is the persisted set of soft-deleted ids, stored as a JSON array.
type tombstones struct {
	medium store.Medium
	key    string
	logger *zap.Logger
}

func (t tombstones) load() ([]string, error) {
	raw, ok, err := t.medium.Get(t.key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", t.key, err)
	}
	if !ok || raw == "" {
		return nil, nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		t.logger.Warn("corrupt tombstone set, treating as empty", zap.String("key", t.key), zap.Error(err))
		return nil, nil
	}
	return ids, nil
}

func (t tombstones) contains(id string) (bool, error) {
	ids, err := t.load()
	if err != nil {
		return false, err
	}
	return slices.Contains(ids, id), nil
}

func (t tombstones) save(ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encode %s: %w", t.key, err)
	}
	return t.medium.Set(t.key, string(data))
}

// add tombstones id. Adding an id twice leaves one entry.
func (t tombstones) add(id string) error {
	ids, err := t.load()
	if err != nil {
		return err
	}
	if slices.Contains(ids, id) {
		return nil
	}
	return t.save(append(ids, id))
}

// remove reports whether id was tombstoned.
func (t tombstones) remove(id string) (bool, error) {
	ids, err := t.load()
	if err != nil {
		return false, err
	}
	i := slices.Index(ids, id)
	if i < 0 {
		return false, nil
	}
	return true, t.save(slices.Delete(ids, i, i+1))
}

func (t tombstones) clear() error {
	return t.medium.Remove(t.key)
}
