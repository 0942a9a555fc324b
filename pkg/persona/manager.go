package persona

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kittclouds/okai/internal/store"
	"github.com/kittclouds/okai/pkg/catalog"
)

// ErrBuiltInProtected is wrapped by BuiltInProtectedError.
var ErrBuiltInProtected = errors.New("built-in persona is protected")

// BuiltInProtectedError rejects deleting a persona flagged built-in.
type BuiltInProtectedError struct {
	ID string
}

func (e *BuiltInProtectedError) Error() string {
	return fmt.Sprintf("persona %q is built-in and cannot be deleted", e.ID)
}

func (e *BuiltInProtectedError) Unwrap() error { return ErrBuiltInProtected }

// View is the expanded read model of one persona.
type View struct {
	Metadata Metadata `json:"metadata"`
	Persona  Persona  `json:"persona"`
}

// Manager applies persona policy on top of the catalog store.
type Manager struct {
	store   *Store
	medium  store.Medium
	keys    store.Keys
	protect bool
	logger  *zap.Logger
}

// NewManager wraps a persona store. With protect set, Delete refuses
// records flagged built-in.
func NewManager(s *Store, medium store.Medium, keys store.Keys, protect bool, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		store:   s,
		medium:  medium,
		keys:    keys,
		protect: protect,
		logger:  logger.Named("persona"),
	}
}

// NewStore builds the persona catalog over medium.
func NewStore(medium store.Medium, opts ...catalog.Option) *Store {
	return catalog.New[Persona, Metadata](Kind{}, medium, opts...)
}

// Store exposes the underlying catalog.
func (m *Manager) Store() *Store { return m.store }

// Initialize seeds an empty catalog with the built-in personas.
func (m *Manager) Initialize() error {
	if len(m.store.List()) > 0 {
		return nil
	}

	release := m.store.Hold()
	defer release()

	var errs []error
	for _, seed := range Seeds() {
		if err := m.store.Save(seed.ID, seed.Persona); err != nil {
			m.logger.Error("seeding persona failed", zap.String("id", seed.ID), zap.Error(err))
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("initialize personas: %w", err)
	}
	m.logger.Info("initialized with original personas", zap.Int("count", len(seedOrder)))
	return nil
}

func (m *Manager) Get(id string) (Persona, bool) { return m.store.Get(id) }

func (m *Manager) Save(id string, p Persona) error { return m.store.Save(id, p) }

func (m *Manager) List() []Metadata { return m.store.List() }

// Delete tombstones a persona. A record flagged built-in is refused while
// protection is on.
func (m *Manager) Delete(id string) error {
	nid := catalog.NormalizeID(id)
	if m.protect {
		if p, ok := m.store.Get(nid); ok && p.IsBuiltIn {
			return &BuiltInProtectedError{ID: nid}
		}
	}
	if err := m.store.Delete(nid); err != nil {
		return err
	}
	if m.SelectedID() == nid {
		if err := m.medium.Remove(m.keys.SelectedPersona()); err != nil {
			m.logger.Warn("clearing selection failed", zap.Error(err))
		}
	}
	return nil
}

// GetPersonaStore returns the persona together with its metadata projection.
func (m *Manager) GetPersonaStore(id string) (View, bool) {
	nid := catalog.NormalizeID(id)
	p, ok := m.store.Get(nid)
	if !ok {
		return View{}, false
	}
	var meta Metadata
	found := false
	for _, md := range m.store.List() {
		if md.ID == nid {
			meta, found = md, true
			break
		}
	}
	if !found {
		meta = Kind{}.Project(nid, p, 0)
	}
	return View{Metadata: meta, Persona: p}, true
}

// SelectedID returns the persona the user last selected, or "".
func (m *Manager) SelectedID() string {
	v, ok, err := m.medium.Get(m.keys.SelectedPersona())
	if err != nil || !ok {
		return ""
	}
	return v
}

// Select persists the selected persona. The persona must be readable.
func (m *Manager) Select(id string) error {
	nid := catalog.NormalizeID(id)
	if _, ok := m.store.Get(nid); !ok {
		return fmt.Errorf("select persona %q: not found", id)
	}
	return m.medium.Set(m.keys.SelectedPersona(), nid)
}
