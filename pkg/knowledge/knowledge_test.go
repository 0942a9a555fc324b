package knowledge

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittclouds/okai/internal/store"
	"github.com/kittclouds/okai/pkg/catalog"
)

func newManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(NewStore(store.NewMemoryMedium(0)), nil)
}

func TestSeedsAreValid(t *testing.T) {
	for _, s := range Seeds() {
		assert.NoError(t, Kind{}.Validate(s.KnowledgeBase), s.ID)
		assert.True(t, IsSeed(s.ID))
	}
	assert.False(t, IsSeed("cooking"))
}

func TestValidate(t *testing.T) {
	valid := KnowledgeBase{Name: "Tea", KnowledgeData: "leaves"}
	require.NoError(t, Kind{}.Validate(valid))

	tests := []struct {
		name  string
		kb    KnowledgeBase
		field string
	}{
		{"missing name", KnowledgeBase{KnowledgeData: "x"}, "name"},
		{"missing data", KnowledgeBase{Name: "Tea"}, "knowledgeData"},
		{"empty topic", KnowledgeBase{Name: "Tea", KnowledgeData: "x", Topics: map[string][]string{"green": {"sencha", " "}}}, "topics.green[1]"},
		{"empty prompt", KnowledgeBase{Name: "Tea", KnowledgeData: "x", Prompts: map[string]string{"general": ""}}, "prompts.general"},
		{"half qa", KnowledgeBase{Name: "Tea", KnowledgeData: "x", SampleQA: map[string][]QA{"brew": {{Question: "how hot?"}}}}, "sampleQA.brew[0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Kind{}.Validate(tt.kb)
			var ve *catalog.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestSaveProjectsMetadata(t *testing.T) {
	m := newManager(t)
	kb := KnowledgeBase{
		Name:          "Tea",
		Topics:        map[string][]string{"green": {"sencha"}, "black": {"assam"}},
		Prompts:       map[string]string{"general": "talk tea"},
		SampleQA:      map[string][]QA{"brew": {{Question: "q1", Answer: "a1"}, {Question: "q2", Answer: "a2"}}},
		KnowledgeData: "leaves",
	}
	require.NoError(t, m.Save("Tea", kb))

	list := m.List()
	require.Len(t, list, 1)
	md := list[0]
	assert.Equal(t, "tea", md.ID)
	assert.Equal(t, "Knowledge base for Tea", md.Description)
	assert.Equal(t, []string{"black", "green"}, md.Categories)
	assert.Equal(t, 1, md.PromptCount)
	assert.Equal(t, 2, md.QACount)
	assert.Equal(t, MetadataVersion, md.Version)
}

func TestSaveCarriesKnowledgeData(t *testing.T) {
	m := newManager(t)
	require.NoError(t, m.Save("tea", KnowledgeBase{Name: "Tea", KnowledgeData: "leaves"}))
	require.NoError(t, m.Save("tea", KnowledgeBase{Name: "Tea Plus"}))

	kb, ok := m.Get("tea")
	require.True(t, ok)
	assert.Equal(t, "Tea Plus", kb.Name)
	assert.Equal(t, "leaves", kb.KnowledgeData)
}

func TestListKeepsInsertionOrder(t *testing.T) {
	m := newManager(t)
	for _, id := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, m.Save(id, KnowledgeBase{Name: id, KnowledgeData: "x"}))
	}
	var ids []string
	for _, md := range m.List() {
		ids = append(ids, md.ID)
	}
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, ids)
}

func TestGetKnowledgeStore(t *testing.T) {
	m := newManager(t)

	v, ok := m.GetKnowledgeStore("okcash")
	require.True(t, ok)
	assert.Equal(t, "Okcash", v.Metadata.Name)
	require.Len(t, v.Categories, 3)
	assert.Equal(t, "basics", v.Categories[0].ID)
	assert.Equal(t, "Topics related to basics", v.Categories[0].Description)
	require.Len(t, v.QA, 7)
	assert.Equal(t, "ecosystem-0", v.QA[0].ID)
	assert.Len(t, v.Prompts, 3)

	_, ok = m.GetKnowledgeStore("cooking")
	assert.False(t, ok)
}

func TestExportImport(t *testing.T) {
	m := newManager(t)
	data, err := m.ExportByID("pizza")
	require.NoError(t, err)

	require.NoError(t, m.ImportAs("pizza copy", data))
	got, ok := m.Get("pizzacopy")
	require.True(t, ok)
	seed, _ := Kind{}.Seed("pizza")
	assert.Equal(t, seed, got)

	_, err = Import([]byte(`{"name":"Broken"}`))
	assert.True(t, errors.Is(err, catalog.ErrValidation))

	_, err = Import([]byte(`{`))
	assert.Error(t, err)

	_, err = m.ExportByID("nothing")
	assert.Error(t, err)
}

func TestIntegrate(t *testing.T) {
	m := newManager(t)
	out := m.Integrate([]string{"anime", "missing"}, []string{"Shonen", "Studio Ghibli", " "})

	assert.Equal(t, "Anime history and culture", out.Topics[0])
	assert.Equal(t, "Studio Ghibli", out.Topics[len(out.Topics)-1])
	assert.Len(t, out.Topics, 11)
	require.Len(t, out.Prompts, 1)
	assert.Contains(t, out.Prompts[0], "Japanese pop culture")
	assert.Equal(t, []string{"Comprehensive Anime Base, History and Origins of anime"}, out.KnowledgeData)
}

func TestKeywords(t *testing.T) {
	kw := NewMatcher().Keywords("The dough is sticking to the PEEL, dough!")
	assert.Contains(t, kw, "dough")
	assert.Contains(t, kw, "sticking")
	assert.Contains(t, kw, "peel")
	assert.NotContains(t, kw, "the")
	assert.NotContains(t, kw, "is")

	count := 0
	for _, k := range kw {
		if k == "dough" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestBestMatch(t *testing.T) {
	m := newManager(t)

	got, ok := m.FindBestMatch("Neapolitan pizza", []string{"pizza", "okcash"})
	require.True(t, ok)
	assert.Equal(t, "pizza", got.Source)
	assert.Equal(t, "basics", got.Category)
	assert.Equal(t, "What makes a true Neapolitan pizza?", got.Question)
	assert.InDelta(t, 1.0, got.Score, 1e-9)

	_, ok = m.FindBestMatch("quantum chromodynamics lattice", []string{"pizza", "okcash"})
	assert.False(t, ok)

	_, ok = m.FindBestMatch("", []string{"pizza"})
	assert.False(t, ok)

	_, ok = m.FindBestMatch("Neapolitan pizza", nil)
	assert.False(t, ok)
}
