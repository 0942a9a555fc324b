package convlog

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kittclouds/okai/internal/store"
	"github.com/kittclouds/okai/pkg/catalog"
	"github.com/kittclouds/okai/pkg/notify"
	"github.com/kittclouds/okai/pkg/persona"
)

const (
	DefaultMaxMessages   = 100
	DefaultRetentionDays = 30
)

// Personas resolves the persona a conversation belongs to.
type Personas interface {
	Get(id string) (persona.Persona, bool)
}

// Models reports the currently selected model.
type Models interface {
	Current() (id, name string)
}

// Option configures a Manager.
type Option func(*Manager)

func WithKeys(k store.Keys) Option { return func(m *Manager) { m.key = k.Logs() } }
func WithBus(b *notify.Bus) Option { return func(m *Manager) { m.bus = b } }
func WithLogger(l *zap.Logger) Option { return func(m *Manager) { m.logger = l } }
func WithClock(now func() time.Time) Option { return func(m *Manager) { m.now = now } }
func WithIDs(newID func() string) Option { return func(m *Manager) { m.newID = newID } }
func WithDownloader(d Downloader) Option { return func(m *Manager) { m.downloader = d } }
func WithMaxMessages(n int) Option { return func(m *Manager) { m.maxMessages = n } }
func WithRetention(d time.Duration) Option { return func(m *Manager) { m.retention = d } }

// Manager owns the conversation log key. All records live under one key and
// are rewritten together.
type Manager struct {
	mu          sync.RWMutex
	medium      store.Medium
	key         string
	personas    Personas
	models      Models
	bus         *notify.Bus
	downloader  Downloader
	formatter   Formatter
	logger      *zap.Logger
	now         func() time.Time
	newID       func() string
	maxMessages int
	retention   time.Duration

	logs map[string]Conversation

	lmu       sync.Mutex
	listeners map[int]Listener
	nextID    int
}

// NewManager loads the stored logs and prunes records past the retention window.
func NewManager(medium store.Medium, personas Personas, models Models, opts ...Option) *Manager {
	m := &Manager{
		medium:      medium,
		key:         store.NewKeys("").Logs(),
		personas:    personas,
		models:      models,
		logger:      zap.NewNop(),
		now:         time.Now,
		newID:       uuid.NewString,
		maxMessages: DefaultMaxMessages,
		retention:   DefaultRetentionDays * 24 * time.Hour,
		logs:        map[string]Conversation{},
		listeners:   map[int]Listener{},
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.Named("convlog")

	m.mu.Lock()
	m.logs = m.load()
	m.cleanup()
	m.mu.Unlock()
	return m
}

// =============================================================================
// Persistence
// =============================================================================

// load reads the stored map. Records without messages are dropped and keys
// are normalized.
func (m *Manager) load() map[string]Conversation {
	out := map[string]Conversation{}
	raw, ok, err := m.medium.Get(m.key)
	if err != nil {
		m.logger.Error("loading logs failed", zap.Error(err))
		return out
	}
	if !ok {
		return out
	}
	var stored map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		m.logger.Warn("stored logs are corrupt", zap.Error(err))
		return out
	}
	for key, data := range stored {
		var c Conversation
		if err := json.Unmarshal(data, &c); err != nil || len(c.Messages) == 0 {
			m.logger.Debug("skipping invalid conversation", zap.String("key", key))
			continue
		}
		if id := catalog.NormalizeID(key); id != "" {
			out[id] = c
		}
	}
	return out
}

func (m *Manager) cleanup() {
	cutoff := m.now().Add(-m.retention).UnixMilli()
	removed := 0
	for id, c := range m.logs {
		if c.LastUpdated < cutoff {
			delete(m.logs, id)
			removed++
		}
	}
	if removed == 0 {
		return
	}
	next, err := m.persist(m.logs, "")
	if err != nil {
		m.logger.Error("saving pruned logs failed", zap.Error(err))
		return
	}
	m.logs = next
	m.logger.Info("cleaned up old logs", zap.Int("removed", removed))
}

// persist writes logs. On a quota failure it evicts the older half of the
// records other than keep and retries once. It returns the map that was
// written.
func (m *Manager) persist(logs map[string]Conversation, keep string) (map[string]Conversation, error) {
	err := m.write(logs)
	if err == nil {
		return logs, nil
	}
	if !errors.Is(err, store.ErrQuotaExceeded) {
		return nil, err
	}

	trimmed, evicted := evictOldest(logs, keep)
	m.logger.Warn("log storage full, evicting oldest conversations", zap.Int("evicted", evicted))
	if err := m.write(trimmed); err != nil {
		return nil, fmt.Errorf("after evicting %d conversations: %w", evicted, err)
	}
	return trimmed, nil
}

func (m *Manager) write(logs map[string]Conversation) error {
	data, err := json.Marshal(logs)
	if err != nil {
		return fmt.Errorf("encode logs: %w", err)
	}
	return m.medium.Set(m.key, string(data))
}

// evictOldest drops the older half (at least one) of the records other than
// keep, ranked by lastUpdated.
func evictOldest(logs map[string]Conversation, keep string) (map[string]Conversation, int) {
	candidates := make([]string, 0, len(logs))
	for id := range logs {
		if id != keep {
			candidates = append(candidates, id)
		}
	}
	slices.SortFunc(candidates, func(a, b string) int {
		if d := logs[a].LastUpdated - logs[b].LastUpdated; d != 0 {
			if d < 0 {
				return -1
			}
			return 1
		}
		return strings.Compare(a, b)
	})

	n := len(candidates) / 2
	if n == 0 && len(candidates) > 0 {
		n = 1
	}
	out := maps.Clone(logs)
	for _, id := range candidates[:n] {
		delete(out, id)
	}
	return out, n
}

// =============================================================================
// Operations
// =============================================================================

// LogConversation stores messages as the full history of personaID. Empty
// input is ignored. The record keeps its id and start time across saves.
func (m *Manager) LogConversation(messages []Message, personaID string) error {
	if len(messages) == 0 {
		return nil
	}
	p, ok := m.personas.Get(personaID)
	if !ok {
		return fmt.Errorf("log conversation: %w: %q", ErrUnknownPersona, personaID)
	}
	nid := catalog.NormalizeID(personaID)
	if len(messages) > m.maxMessages && m.maxMessages > 0 {
		messages = messages[len(messages)-m.maxMessages:]
	}
	modelID, modelName := m.models.Current()

	m.mu.Lock()
	now := m.now().UnixMilli()
	prev, existed := m.logs[nid]

	usage := slices.Clone(prev.ModelUsage)
	if len(usage) == 0 || usage[len(usage)-1].ModelID != modelID {
		usage = append(usage, ModelUsage{ModelID: modelID, ModelName: modelName, Timestamp: now})
	}
	rec := Conversation{
		ID:           prev.ID,
		Timestamp:    prev.Timestamp,
		Messages:     slices.Clone(messages),
		LastUpdated:  max(now, prev.LastUpdated),
		PersonaName:  p.Name,
		DisplayOrder: p.Order(),
		ModelUsage:   usage,
	}
	if !existed {
		rec.ID = m.newID()
		rec.Timestamp = now
	}

	next := maps.Clone(m.logs)
	next[nid] = rec
	written, err := m.persist(next, nid)
	if err != nil {
		m.mu.Unlock()
		m.logger.Error("logging conversation failed", zap.String("persona", nid), zap.Error(err))
		return fmt.Errorf("log conversation for %q: %w", nid, err)
	}
	m.logs = written
	m.mu.Unlock()

	m.emit(Event{Type: EventSave, PersonaID: nid, Timestamp: now})
	m.signal(notify.StorageChanged)
	return nil
}

// GetPersonaLogs returns a copy of the conversation of id.
func (m *Manager) GetPersonaLogs(id string) (Conversation, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.logs[catalog.NormalizeID(id)]
	if !ok {
		return Conversation{}, false
	}
	return c.clone(), true
}

// GetLogs returns a copy of every conversation keyed by persona id.
func (m *Manager) GetLogs() map[string]Conversation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]Conversation, len(m.logs))
	for id, c := range m.logs {
		out[id] = c.clone()
	}
	return out
}

// ClearPersonaLogs removes the conversation of id. Unknown ids are ignored.
func (m *Manager) ClearPersonaLogs(id string) error {
	nid := catalog.NormalizeID(id)

	m.mu.Lock()
	if _, ok := m.logs[nid]; !ok {
		m.mu.Unlock()
		return nil
	}
	next := maps.Clone(m.logs)
	delete(next, nid)
	if err := m.write(next); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("clear logs for %q: %w", nid, err)
	}
	m.logs = next
	m.mu.Unlock()

	m.emit(Event{Type: EventClear, PersonaID: nid, Timestamp: m.now().UnixMilli()})
	m.signal(notify.StorageChanged)
	return nil
}

// ClearAllLogs removes the whole log key and broadcasts both a storage change
// and a logs-cleared signal.
func (m *Manager) ClearAllLogs() error {
	m.mu.Lock()
	if err := m.medium.Remove(m.key); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("clear all logs: %w", err)
	}
	m.logs = map[string]Conversation{}
	m.mu.Unlock()

	m.emit(Event{Type: EventClear, Timestamp: m.now().UnixMilli()})
	m.signal(notify.StorageChanged)
	m.signal(notify.LogsCleared)
	m.logger.Info("all logs cleared")
	return nil
}

// Reload rereads the log key after another writer changed it.
func (m *Manager) Reload() {
	m.mu.Lock()
	m.logs = m.load()
	m.mu.Unlock()
	m.emit(Event{Type: EventUpdate, Timestamp: m.now().UnixMilli()})
}

// GetAvailablePersonas lists the personas with a conversation, sorted by name.
func (m *Manager) GetAvailablePersonas() []PersonaEntry {
	m.mu.RLock()
	out := make([]PersonaEntry, 0, len(m.logs))
	for id, c := range m.logs {
		out = append(out, PersonaEntry{Key: id, Name: c.PersonaName})
	}
	m.mu.RUnlock()

	slices.SortFunc(out, func(a, b PersonaEntry) int {
		if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
			return c
		}
		return strings.Compare(a.Key, b.Key)
	})
	return out
}

// =============================================================================
// Export
// =============================================================================

// DownloadPersonaLogs exports the transcript of id through the downloader
// and returns the file name used.
func (m *Manager) DownloadPersonaLogs(id string) (string, error) {
	c, ok := m.GetPersonaLogs(id)
	if !ok {
		return "", fmt.Errorf("download logs for %q: %w", id, ErrNoLogs)
	}
	name := filename(slug(c.PersonaName), m.now())
	return name, m.download(m.formatter.FormatConversation(c), name)
}

// DownloadAllLogs exports every transcript as one file.
func (m *Manager) DownloadAllLogs() (string, error) {
	logs := m.GetLogs()
	if len(logs) == 0 {
		return "", fmt.Errorf("download all logs: %w", ErrNoLogs)
	}
	convs := make([]Conversation, 0, len(logs))
	for _, id := range slices.Sorted(maps.Keys(logs)) {
		convs = append(convs, logs[id])
	}
	name := filename("all-conversations", m.now())
	return name, m.download(m.formatter.FormatAll(convs), name)
}

func (m *Manager) download(content, name string) error {
	if m.downloader == nil {
		return errors.New("no downloader configured")
	}
	if err := m.downloader.Download(content, name); err != nil {
		m.logger.Error("download failed", zap.String("file", name), zap.Error(err))
		return err
	}
	return nil
}

// =============================================================================
// Events
// =============================================================================

// OnEvent registers l and returns a func that removes it.
func (m *Manager) OnEvent(l Listener) (remove func()) {
	m.lmu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = l
	m.lmu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.lmu.Lock()
			delete(m.listeners, id)
			m.lmu.Unlock()
		})
	}
}

func (m *Manager) emit(ev Event) {
	m.lmu.Lock()
	ids := slices.Sorted(maps.Keys(m.listeners))
	ls := make([]Listener, 0, len(ids))
	for _, id := range ids {
		ls = append(ls, m.listeners[id])
	}
	m.lmu.Unlock()

	for _, l := range ls {
		l(ev)
	}
}

func (m *Manager) signal(sig notify.Signal) {
	if m.bus != nil {
		m.bus.Emit(sig)
	}
}
