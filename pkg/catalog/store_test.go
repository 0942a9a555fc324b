package catalog

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittclouds/okai/internal/store"
	"github.com/kittclouds/okai/pkg/notify"
)

type note struct {
	Title string   `json:"title"`
	Body  string   `json:"body,omitempty"`
	Rank  int      `json:"rank"`
	Tags  []string `json:"tags,omitempty"`
}

type noteMeta struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Rank         int    `json:"rank"`
	LastModified int64  `json:"lastModified"`
}

type noteKind struct{}

func (noteKind) Name() string { return "note" }

func (noteKind) Validate(n note) error {
	if n.Title == "" {
		return Required("title")
	}
	if n.Body == "" {
		return Required("body")
	}
	return nil
}

func (noteKind) Project(id string, n note, modified int64) noteMeta {
	return noteMeta{ID: id, Title: n.Title, Rank: n.Rank, LastModified: modified}
}

func (noteKind) MetadataID(m noteMeta) string { return m.ID }
func (noteKind) Modified(m noteMeta) int64 { return m.LastModified }
func (noteKind) Less(a, b noteMeta) bool { return a.Rank < b.Rank }

func (noteKind) Carry(stored, in note) note {
	if in.Body == "" {
		in.Body = stored.Body
	}
	return in
}

func (noteKind) Seed(id string) (note, bool) {
	if id == "welcome" {
		return note{Title: "Welcome", Body: "hello", Rank: 1}, true
	}
	return note{}, false
}

func (noteKind) SeedIDs() []string { return []string{"welcome"} }

type fixture struct {
	medium *store.MemoryMedium
	store  *Store[note, noteMeta]
	emits  int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{medium: store.NewMemoryMedium(0)}
	bus := notify.NewBus()
	bus.Subscribe(func(notify.Event) { f.emits++ })
	clock := time.UnixMilli(1_700_000_000_000)
	f.store = New[note, noteMeta](noteKind{}, f.medium,
		WithBus(bus),
		WithClock(func() time.Time { clock = clock.Add(time.Second); return clock }),
	)
	return f
}

func TestNormalizeID(t *testing.T) {
	cases := map[string]string{
		"OKAI":             "okai",
		"  Elon Musk ":     "elonmusk",
		"123abc":           "abc",
		"a1b2":             "a1b2",
		"Satoshi-Nakamoto": "satoshinakamoto",
		"42":               "",
		"":                 "",
		"émile":            "mile",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeID(in), in)
	}
}

func TestSaveGetList(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.store.Save("Second", note{Title: "Two", Body: "b", Rank: 2}))
	require.NoError(t, f.store.Save("first", note{Title: "One", Body: "a", Rank: 1}))

	got, ok := f.store.Get("SECOND")
	require.True(t, ok)
	assert.Equal(t, note{Title: "Two", Body: "b", Rank: 2}, got)

	list := f.store.List()
	require.Len(t, list, 2)
	assert.Equal(t, "first", list[0].ID)
	assert.Equal(t, "second", list[1].ID)
	assert.NotZero(t, list[0].LastModified)
	assert.Equal(t, 2, f.emits)

	_, ok, _ = f.medium.Get("super_okai_note/second")
	assert.True(t, ok)
}

func TestListIsStableForEqualRank(t *testing.T) {
	f := newFixture(t)
	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, f.store.Save(id, note{Title: id, Body: "x", Rank: 5}))
	}
	var ids []string
	for _, m := range f.store.List() {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
}

func TestSaveInvalidWritesNothing(t *testing.T) {
	f := newFixture(t)

	err := f.store.Save("bad", note{Body: "no title"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "title", ve.Field)
	assert.Equal(t, "bad", ve.ID)
	assert.Equal(t, "note", ve.Kind)

	keys, _ := f.medium.Keys()
	assert.Empty(t, keys)
	assert.Zero(t, f.emits)

	err = f.store.Save("999", note{Title: "x", Body: "y"})
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestSaveIsIdempotent(t *testing.T) {
	f := newFixture(t)
	n := note{Title: "T", Body: "B", Rank: 3}

	require.NoError(t, f.store.Save("n", n))
	before, _, _ := f.medium.Get("super_okai_note_metadata")

	require.NoError(t, f.store.Save("n", n))
	after, _, _ := f.medium.Get("super_okai_note_metadata")

	assert.Equal(t, before, after)
	assert.Equal(t, 1, f.emits)
}

func TestSaveCarriesOmittedFields(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Save("n", note{Title: "T", Body: "keep me"}))
	require.NoError(t, f.store.Save("n", note{Title: "Renamed"}))

	got, ok := f.store.Get("n")
	require.True(t, ok)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, "keep me", got.Body)
}

func TestDeleteTombstonesAndSaveRestores(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Save("n", note{Title: "T", Body: "B"}))

	require.NoError(t, f.store.Delete("n"))
	_, ok := f.store.Get("n")
	assert.False(t, ok)
	assert.Empty(t, f.store.List())
	assert.Equal(t, []string{"n"}, f.store.DeletedIDs())
	_, stored, _ := f.medium.Get("super_okai_note/n")
	assert.False(t, stored)

	// deleting twice keeps a single tombstone and does not emit
	emits := f.emits
	require.NoError(t, f.store.Delete("n"))
	assert.Equal(t, []string{"n"}, f.store.DeletedIDs())
	assert.Equal(t, emits, f.emits)

	require.NoError(t, f.store.Save("n", note{Title: "Back", Body: "B"}))
	got, ok := f.store.Get("n")
	require.True(t, ok)
	assert.Equal(t, "Back", got.Title)
	assert.Empty(t, f.store.DeletedIDs())
	assert.Len(t, f.store.List(), 1)
}

func TestDeleteUnknownIsNoop(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Delete("ghost"))
	assert.Empty(t, f.store.DeletedIDs())
	assert.Zero(t, f.emits)
}

func TestSeedFallbackAndDelete(t *testing.T) {
	f := newFixture(t)

	got, ok := f.store.Get("Welcome")
	require.True(t, ok)
	assert.Equal(t, "Welcome", got.Title)

	require.NoError(t, f.store.Delete("welcome"))
	_, ok = f.store.Get("welcome")
	assert.False(t, ok)

	require.NoError(t, f.store.ClearDeletedIDs())
	_, ok = f.store.Get("welcome")
	assert.True(t, ok)
}

func TestMarkAsDeleted(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Save("n", note{Title: "T", Body: "B"}))
	require.NoError(t, f.store.MarkAsDeleted("n"))
	require.NoError(t, f.store.MarkAsDeleted("n"))

	_, ok := f.store.Get("n")
	assert.False(t, ok)
	assert.Equal(t, []string{"n"}, f.store.DeletedIDs())
	assert.Empty(t, f.store.List())
}

func TestCorruptDataReadsAsAbsent(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.medium.Set("super_okai_note/broken", "{not json"))
	require.NoError(t, f.medium.Set("super_okai_note/invalid", `{"title":""}`))
	require.NoError(t, f.medium.Set("super_okai_note_metadata", "garbage"))
	require.NoError(t, f.medium.Set("super_okai_deleted_note", "also garbage"))

	_, ok := f.store.Get("broken")
	assert.False(t, ok)
	_, ok = f.store.Get("invalid")
	assert.False(t, ok)
	assert.Empty(t, f.store.List())
	assert.Empty(t, f.store.DeletedIDs())

	// a corrupt index is rebuilt by the next save
	require.NoError(t, f.store.Save("fresh", note{Title: "F", Body: "B"}))
	assert.Len(t, f.store.List(), 1)
}

func TestCacheIsWriteInvalidated(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Save("n", note{Title: "T", Body: "B"}))

	_, ok := f.store.Get("n")
	require.True(t, ok)
	assert.Equal(t, 1, f.store.CacheLen())

	// an external writer changes the medium; the cache still answers
	require.NoError(t, f.medium.Set("super_okai_note/n", `{"title":"External","body":"B"}`))
	got, _ := f.store.Get("n")
	assert.Equal(t, "T", got.Title)

	f.store.Invalidate()
	got, _ = f.store.Get("n")
	assert.Equal(t, "External", got.Title)

	require.NoError(t, f.store.Save("n", note{Title: "Local", Body: "B"}))
	got, _ = f.store.Get("n")
	assert.Equal(t, "Local", got.Title)
}

func TestQuotaFailureLeavesIndexUntouched(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Save("n", note{Title: "T", Body: "B"}))
	stats := f.medium.Stats()
	f.medium.SetCapacity(stats.Bytes)

	err := f.store.Save("big", note{Title: "Big", Body: "a long body that will not fit"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrQuotaExceeded))
	assert.Len(t, f.store.List(), 1)
	_, ok := f.store.Get("big")
	assert.False(t, ok)
}

func TestHoldEmitsOnce(t *testing.T) {
	f := newFixture(t)
	release := f.store.Hold()

	var wg sync.WaitGroup
	for _, id := range []string{"a", "b", "c", "d"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			assert.NoError(t, f.store.Save(id, note{Title: id, Body: "x"}))
		}(id)
	}
	wg.Wait()
	assert.Zero(t, f.emits)

	release()
	release()
	assert.Equal(t, 1, f.emits)
	assert.Len(t, f.store.List(), 4)
}
