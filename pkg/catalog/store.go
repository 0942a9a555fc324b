package catalog

import (
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kittclouds/okai/internal/store"
	"github.com/kittclouds/okai/pkg/notify"
)

// Store is a persisted catalog of T payloads described by M metadata records.
// Safe for concurrent use.
type Store[T any, M any] struct {
	mu     sync.RWMutex
	kind   Kind[T, M]
	medium store.Medium
	keys   store.Keys
	index  metadataIndex[M]
	tombs  tombstones
	cache  *payloadCache
	bus    *notify.Bus
	logger *zap.Logger
	now    func() time.Time

	held    atomic.Int32
	pending atomic.Bool
}

// Option configures a Store.
type Option func(*options)

type options struct {
	keys      store.Keys
	cacheSize int
	bus       *notify.Bus
	logger    *zap.Logger
	now       func() time.Time
}

func WithKeys(k store.Keys) Option { return func(o *options) { o.keys = k } }
func WithCacheSize(n int) Option { return func(o *options) { o.cacheSize = n } }
func WithBus(b *notify.Bus) Option { return func(o *options) { o.bus = b } }
func WithLogger(l *zap.Logger) Option { return func(o *options) { o.logger = l } }
func WithClock(now func() time.Time) Option { return func(o *options) { o.now = now } }

// New creates a Store for kind over medium.
func New[T any, M any](kind Kind[T, M], medium store.Medium, opts ...Option) *Store[T, M] {
	o := options{
		keys:      store.NewKeys(""),
		cacheSize: DefaultCacheSize,
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger.Named("catalog." + kind.Name())
	return &Store[T, M]{
		kind:   kind,
		medium: medium,
		keys:   o.keys,
		index: metadataIndex[M]{
			medium: medium,
			key:    o.keys.Metadata(kind.Name()),
			idOf:   kind.MetadataID,
			logger: logger,
		},
		tombs: tombstones{
			medium: medium,
			key:    o.keys.Deleted(kind.Name()),
			logger: logger,
		},
		cache:  newPayloadCache(o.cacheSize),
		bus:    o.bus,
		logger: logger,
		now:    o.now,
	}
}

// Kind returns the entity kind this store serves.
func (s *Store[T, M]) Kind() Kind[T, M] { return s.kind }

// =============================================================================
// Reads
// =============================================================================

// Get returns the entity for id. It reports false when id is tombstoned,
// absent with no seed, or stored data fails to decode or validate.
func (s *Store[T, M]) Get(id string) (T, bool) {
	var zero T
	nid := NormalizeID(id)
	if nid == "" {
		return zero, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	dead, err := s.tombs.contains(nid)
	if err != nil {
		s.logger.Warn("tombstone lookup failed", zap.String("id", nid), zap.Error(err))
		return zero, false
	}
	if dead {
		return zero, false
	}

	if raw, ok := s.cache.get(nid); ok {
		if v, err := s.decode(raw); err == nil {
			return v, true
		}
		s.cache.invalidate(nid)
	}

	raw, ok, err := s.medium.Get(s.keys.Entity(s.kind.Name(), nid))
	if err != nil {
		s.logger.Warn("read failed", zap.String("id", nid), zap.Error(err))
		return zero, false
	}
	if !ok {
		if seed, ok := s.kind.Seed(nid); ok {
			return seed, true
		}
		s.logger.Debug("not found", zap.String("id", nid))
		return zero, false
	}

	v, err := s.decode(raw)
	if err != nil {
		s.logger.Warn("stored payload is not valid JSON", zap.String("id", nid), zap.Error(err))
		return zero, false
	}
	if err := s.kind.Validate(v); err != nil {
		s.logger.Warn("stored payload failed validation", zap.String("id", nid), zap.Error(withSubject(err, s.kind.Name(), nid)))
		return zero, false
	}
	s.cache.put(nid, raw)
	return v, true
}

// Exists reports whether Get would return an entity for id.
func (s *Store[T, M]) Exists(id string) bool {
	_, ok := s.Get(id)
	return ok
}

// List returns the metadata of every live entity, ordered by the kind.
func (s *Store[T, M]) List() []M {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := s.index.load()
	if err != nil {
		s.logger.Warn("list failed", zap.Error(err))
		return nil
	}
	dead, err := s.tombs.load()
	if err != nil {
		s.logger.Warn("list failed", zap.Error(err))
		return nil
	}

	out := make([]M, 0, len(entries))
	for _, m := range entries {
		if !slices.Contains(dead, s.kind.MetadataID(m)) {
			out = append(out, m)
		}
	}
	slices.SortStableFunc(out, func(a, b M) int {
		switch {
		case s.kind.Less(a, b):
			return -1
		case s.kind.Less(b, a):
			return 1
		}
		return 0
	})
	return out
}

// DeletedIDs returns the tombstone set.
func (s *Store[T, M]) DeletedIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids, err := s.tombs.load()
	if err != nil {
		s.logger.Warn("read tombstones failed", zap.Error(err))
		return nil
	}
	return ids
}

// =============================================================================
// Writes
// =============================================================================

// Save validates v and persists it under id, then updates the metadata
// index and clears any tombstone. Saving an unchanged live record is a no-op.
func (s *Store[T, M]) Save(id string, v T) error {
	changed, err := s.put(id, v)
	if err != nil {
		return err
	}
	if changed {
		s.emit()
	}
	return nil
}

func (s *Store[T, M]) put(id string, v T) (bool, error) {
	nid := NormalizeID(id)
	if nid == "" {
		return false, withSubject(Invalid("id", "must contain a letter"), s.kind.Name(), id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := s.keys.Entity(s.kind.Name(), nid)
	stored, hasStored, err := s.medium.Get(key)
	if err != nil {
		return false, fmt.Errorf("save %s %q: %w", s.kind.Name(), nid, err)
	}
	if hasStored {
		if prev, err := s.decode(stored); err == nil {
			v = s.kind.Carry(prev, v)
		}
	}

	if err := s.kind.Validate(v); err != nil {
		return false, withSubject(err, s.kind.Name(), nid)
	}

	payload, err := json.Marshal(v)
	if err != nil {
		return false, fmt.Errorf("encode %s %q: %w", s.kind.Name(), nid, err)
	}

	entries, err := s.index.load()
	if err != nil {
		return false, err
	}
	dead, err := s.tombs.contains(nid)
	if err != nil {
		return false, err
	}

	i := s.index.find(entries, nid)
	if hasStored && stored == string(payload) && !dead && i >= 0 && s.sameProjection(nid, v, entries[i]) {
		return false, nil
	}

	if err := s.medium.Set(key, string(payload)); err != nil {
		return false, fmt.Errorf("save %s %q: %w", s.kind.Name(), nid, err)
	}
	s.cache.invalidate(nid)

	m := s.kind.Project(nid, v, s.now().UnixMilli())
	if err := s.index.save(s.index.upsert(entries, m)); err != nil {
		return true, fmt.Errorf("update %s index for %q: %w", s.kind.Name(), nid, err)
	}
	if dead {
		if _, err := s.tombs.remove(nid); err != nil {
			return true, fmt.Errorf("clear tombstone for %q: %w", nid, err)
		}
	}
	s.logger.Debug("saved", zap.String("id", nid))
	return true, nil
}

// sameProjection compares metadata ignoring the modification time.
func (s *Store[T, M]) sameProjection(id string, v T, existing M) bool {
	a, err := json.Marshal(s.kind.Project(id, v, s.kind.Modified(existing)))
	if err != nil {
		return false
	}
	b, err := json.Marshal(existing)
	if err != nil {
		return false
	}
	return string(a) == string(b)
}

// Delete removes id's payload and metadata and tombstones it. Deleting an id
// that has no payload, no metadata and no seed does nothing.
func (s *Store[T, M]) Delete(id string) error {
	nid := NormalizeID(id)
	if nid == "" {
		return nil
	}

	changed, err := s.delete(nid)
	if err != nil {
		return err
	}
	if changed {
		s.emit()
	}
	return nil
}

func (s *Store[T, M]) delete(nid string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := s.keys.Entity(s.kind.Name(), nid)
	_, hasStored, err := s.medium.Get(key)
	if err != nil {
		return false, fmt.Errorf("delete %s %q: %w", s.kind.Name(), nid, err)
	}
	entries, err := s.index.load()
	if err != nil {
		return false, err
	}
	inIndex := s.index.find(entries, nid) >= 0
	_, isSeed := s.kind.Seed(nid)
	if !hasStored && !inIndex && !isSeed {
		return false, nil
	}

	if hasStored {
		if err := s.medium.Remove(key); err != nil {
			return false, fmt.Errorf("delete %s %q: %w", s.kind.Name(), nid, err)
		}
	}
	s.cache.invalidate(nid)
	if inIndex {
		rest, _ := s.index.remove(entries, nid)
		if err := s.index.save(rest); err != nil {
			return true, fmt.Errorf("update %s index for %q: %w", s.kind.Name(), nid, err)
		}
	}
	if err := s.tombs.add(nid); err != nil {
		return true, fmt.Errorf("tombstone %q: %w", nid, err)
	}
	s.logger.Debug("deleted", zap.String("id", nid))
	return true, nil
}

// MarkAsDeleted tombstones id without touching its payload.
func (s *Store[T, M]) MarkAsDeleted(id string) error {
	nid := NormalizeID(id)
	if nid == "" {
		return nil
	}

	s.mu.Lock()
	err := s.tombs.add(nid)
	s.cache.invalidate(nid)
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("tombstone %q: %w", nid, err)
	}
	s.emit()
	return nil
}

// ClearDeletedIDs empties the tombstone set.
func (s *Store[T, M]) ClearDeletedIDs() error {
	s.mu.Lock()
	err := s.tombs.clear()
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("clear %s tombstones: %w", s.kind.Name(), err)
	}
	s.emit()
	return nil
}

// Invalidate drops every cached payload. Call after another writer changed the medium.
func (s *Store[T, M]) Invalidate() {
	s.cache.purge()
}

// CacheLen reports how many payloads are cached.
func (s *Store[T, M]) CacheLen() int { return s.cache.len() }

// =============================================================================
// Change notification
// =============================================================================

// Hold defers change signals until the returned release is called, then
// emits once if anything changed in between. Holds nest.
func (s *Store[T, M]) Hold() (release func()) {
	s.held.Add(1)
	var once sync.Once
	return func() {
		once.Do(func() {
			if s.held.Add(-1) == 0 && s.pending.Swap(false) {
				s.publish()
			}
		})
	}
}

func (s *Store[T, M]) emit() {
	if s.held.Load() > 0 {
		s.pending.Store(true)
		return
	}
	s.publish()
}

func (s *Store[T, M]) publish() {
	if s.bus != nil {
		s.bus.Emit(notify.StorageChanged)
	}
}

func (s *Store[T, M]) decode(raw string) (T, error) {
	var v T
	err := json.Unmarshal([]byte(raw), &v)
	return v, err
}
