package restore

import (
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/kittclouds/okai/internal/store"
	"github.com/kittclouds/okai/pkg/catalog"
	"github.com/kittclouds/okai/pkg/knowledge"
	"github.com/kittclouds/okai/pkg/notify"
	"github.com/kittclouds/okai/pkg/persona"
	"github.com/kittclouds/okai/pkg/style"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// flakyMedium fails every write to one key.
type flakyMedium struct {
	*store.MemoryMedium
	failKey string
}

func (f *flakyMedium) Set(key, value string) error {
	if key == f.failKey {
		return errors.New("disk on fire")
	}
	return f.MemoryMedium.Set(key, value)
}

type fixture struct {
	medium    store.Medium
	personas  *persona.Store
	knowledge *knowledge.Store
	coord     *Coordinator
	emits     atomic.Int32
}

func newFixture(t *testing.T, medium store.Medium) *fixture {
	t.Helper()
	if medium == nil {
		medium = store.NewMemoryMedium(0)
	}
	f := &fixture{medium: medium}
	bus := notify.NewBus()
	bus.Subscribe(func(notify.Event) { f.emits.Add(1) })
	keys := store.NewKeys("")
	f.personas = persona.NewStore(medium, catalog.WithKeys(keys), catalog.WithBus(bus))
	f.knowledge = knowledge.NewStore(medium, catalog.WithKeys(keys), catalog.WithBus(bus))
	f.coord = NewCoordinator(f.personas, f.knowledge, medium, keys, nil)
	return f
}

func listIDs[M any](list []M, id func(M) string) []string {
	out := make([]string, 0, len(list))
	for _, m := range list {
		out = append(out, id(m))
	}
	return out
}

func personaIDs(s *persona.Store) []string {
	return listIDs(s.List(), func(m persona.Metadata) string { return m.ID })
}

func TestRestoreAfterDelete(t *testing.T) {
	f := newFixture(t, nil)

	require.NoError(t, f.personas.Save("okai", persona.Persona{Name: "Okai", SystemPrompt: "hi"}))
	list := f.personas.List()
	require.Len(t, list, 1)
	assert.Equal(t, "Okai", list[0].Name)

	require.NoError(t, f.personas.Delete("okai"))
	assert.Empty(t, f.personas.List())

	report, err := f.coord.RestorePersonas()
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Len(t, report.Restored, len(persona.Seeds()))

	assert.Contains(t, personaIDs(f.personas), "okai")
	p, ok := f.personas.Get("okai")
	require.True(t, ok)
	seed, _ := persona.Kind{}.Seed("okai")
	assert.Equal(t, seed.SystemPrompt, p.SystemPrompt)
	assert.True(t, p.IsBuiltIn)
	assert.Empty(t, f.personas.DeletedIDs())
}

func TestRestoreKeepsPreferences(t *testing.T) {
	f := newFixture(t, nil)

	custom := style.Rules{EndPhrases: []string{" :)"}}
	require.NoError(t, f.personas.Save("okai", persona.Persona{
		Name:           "Renamed",
		SystemPrompt:   "edited prompt",
		DisplayOrder:   9,
		Model:          "openai/gpt-4o",
		ChatLength:     style.Long,
		KnowledgeBases: []string{"pizza"},
		Style:          &custom,
	}))

	_, err := f.coord.RestorePersonas()
	require.NoError(t, err)

	p, ok := f.personas.Get("okai")
	require.True(t, ok)
	seed, _ := persona.Kind{}.Seed("okai")
	assert.Equal(t, seed.Name, p.Name)
	assert.Equal(t, seed.Description, p.Description)
	assert.Equal(t, seed.SystemPrompt, p.SystemPrompt)
	assert.Equal(t, 9, p.DisplayOrder)
	assert.Equal(t, "openai/gpt-4o", p.Model)
	assert.Equal(t, style.Long, p.ChatLength)
	assert.Equal(t, []string{"pizza"}, p.KnowledgeBases)
	assert.Equal(t, &custom, p.Style)

	// untouched seeds keep their own order
	p, ok = f.personas.Get("elonmusk")
	require.True(t, ok)
	assert.Equal(t, 2, p.DisplayOrder)
}

func TestRestoreKeepsCustomPersonas(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.personas.Save("pirate", persona.Persona{Name: "Pirate", SystemPrompt: "arr"}))

	_, err := f.coord.RestorePersonas()
	require.NoError(t, err)

	ids := personaIDs(f.personas)
	assert.Contains(t, ids, "pirate")
	for _, s := range persona.Seeds() {
		assert.Contains(t, ids, s.ID)
	}
	p, ok := f.personas.Get("pirate")
	require.True(t, ok)
	assert.Equal(t, "arr", p.SystemPrompt)
	assert.False(t, p.IsBuiltIn)
}

func TestRestoreSignalsOnce(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.personas.Save("pirate", persona.Persona{Name: "Pirate", SystemPrompt: "arr"}))
	require.NoError(t, f.personas.Delete("okai"))
	f.emits.Store(0)

	_, err := f.coord.RestorePersonas()
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.emits.Load())
}

func TestRestoreReportsPartialFailure(t *testing.T) {
	keys := store.NewKeys("")
	medium := &flakyMedium{MemoryMedium: store.NewMemoryMedium(0), failKey: keys.Entity("persona", "okai")}
	f := newFixture(t, medium)

	report, err := f.coord.RestorePersonas()
	require.Error(t, err)
	assert.False(t, report.OK())
	require.Contains(t, report.Failed, "okai")
	assert.True(t, strings.HasPrefix(err.Error(), "okai: "))
	assert.Len(t, report.Restored, len(persona.Seeds())-1)
	assert.NotContains(t, personaIDs(f.personas), "okai")
	assert.Contains(t, personaIDs(f.personas), "elonmusk")
}

func TestRestoreKnowledgeBases(t *testing.T) {
	f := newFixture(t, nil)

	require.NoError(t, f.knowledge.Save("anime", knowledge.KnowledgeBase{Name: "Anime", KnowledgeData: "edited"}))
	require.NoError(t, f.knowledge.Save("tea", knowledge.KnowledgeBase{Name: "Tea", KnowledgeData: "leaves"}))
	require.NoError(t, f.knowledge.Delete("pizza"))
	_, ok := f.knowledge.Get("pizza")
	require.False(t, ok)

	report, err := f.coord.RestoreKnowledgeBases()
	require.NoError(t, err)
	assert.Equal(t, []string{"anime", "okcash", "pizza", "tea"}, report.Restored)

	seed, _ := knowledge.Kind{}.Seed("anime")
	got, ok := f.knowledge.Get("anime")
	require.True(t, ok)
	assert.Equal(t, seed, got)

	_, ok = f.knowledge.Get("pizza")
	assert.True(t, ok)
	tea, ok := f.knowledge.Get("tea")
	require.True(t, ok)
	assert.Equal(t, "leaves", tea.KnowledgeData)
	assert.Len(t, f.knowledge.List(), 4)
}

func TestUpdatePersonaOrders(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.personas.Save("a", persona.Persona{Name: "A", SystemPrompt: "x"}))
	require.NoError(t, f.personas.Save("b", persona.Persona{Name: "B", SystemPrompt: "x"}))
	f.emits.Store(0)

	report, err := f.coord.UpdatePersonaOrders(map[string]int{"a": 5, "B": 2, "ghost": 1})
	require.Error(t, err)
	assert.Contains(t, report.Failed, "ghost")
	assert.Equal(t, []string{"a", "b"}, report.Restored)
	assert.Equal(t, int32(1), f.emits.Load())

	assert.Equal(t, []string{"b", "a"}, personaIDs(f.personas))
	assert.Equal(t, 5, f.coord.PersonaOrder("a"))
	assert.Equal(t, 2, f.coord.PersonaOrder("b"))
	assert.Equal(t, persona.DefaultDisplayOrder, f.coord.PersonaOrder("nobody"))

	_, err = f.coord.UpdatePersonaOrders(map[string]int{"a": -1})
	assert.True(t, errors.Is(err, catalog.ErrValidation))
	assert.Equal(t, 5, f.coord.PersonaOrder("a"))
}

func TestPersonaOrdersCorrupt(t *testing.T) {
	medium := store.NewMemoryMedium(0)
	f := newFixture(t, medium)
	require.NoError(t, medium.Set(store.NewKeys("").PersonaOrder(), "{not json"))
	assert.Empty(t, f.coord.PersonaOrders())
	assert.Equal(t, persona.DefaultDisplayOrder, f.coord.PersonaOrder("a"))
}
