package store

import (
	"fmt"
	"sort"
	"sync"
)

// MemoryMedium holds key/value pairs in Go memory with an optional byte quota.
// Thread-safe for concurrent access from WASM callbacks.
type MemoryMedium struct {
	mu       sync.RWMutex
	data     map[string]string
	used     int64
	capacity int64
}

// NewMemoryMedium creates an empty medium. A capacity <= 0 disables the quota.
func NewMemoryMedium(capacity int64) *MemoryMedium {
	return &MemoryMedium{
		data:     make(map[string]string),
		capacity: capacity,
	}
}

// Hydrate bulk-loads entries, bypassing the quota.
// Called once at startup with a previously exported snapshot.
func (m *MemoryMedium) Hydrate(entries []Entry) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range entries {
		if old, ok := m.data[e.Key]; ok {
			m.used -= Size(e.Key, old)
		}
		m.data[e.Key] = e.Value
		m.used += Size(e.Key, e.Value)
	}
	return len(entries)
}

func (m *MemoryMedium) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	return v, ok, nil
}

// Set stores a value, failing with ErrQuotaExceeded when the new total
// would exceed capacity. A failed Set leaves the previous value intact.
func (m *MemoryMedium) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.used + Size(key, value)
	if old, ok := m.data[key]; ok {
		next -= Size(key, old)
	}
	if m.capacity > 0 && next > m.capacity {
		return fmt.Errorf("set %q (%d bytes, capacity %d): %w", key, next, m.capacity, ErrQuotaExceeded)
	}
	m.data[key] = value
	m.used = next
	return nil
}

func (m *MemoryMedium) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.data[key]; ok {
		m.used -= Size(key, old)
		delete(m.data, key)
	}
	return nil
}

func (m *MemoryMedium) Keys() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys, nil
}

// Snapshot returns every entry sorted by key.
func (m *MemoryMedium) Snapshot() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Entry, 0, len(m.data))
	for k, v := range m.data {
		out = append(out, Entry{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Stats reports key count, bytes used and capacity.
func (m *MemoryMedium) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return Stats{Keys: len(m.data), Bytes: m.used, Capacity: m.capacity}
}

// SetCapacity changes the quota. Existing data is never evicted.
func (m *MemoryMedium) SetCapacity(capacity int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.capacity = capacity
}

// Clear removes all entries.
func (m *MemoryMedium) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data = make(map[string]string)
	m.used = 0
}

var _ Medium = (*MemoryMedium)(nil)
