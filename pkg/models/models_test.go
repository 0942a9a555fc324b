package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittclouds/okai/internal/store"
	"github.com/kittclouds/okai/pkg/notify"
)

func TestCatalog(t *testing.T) {
	all := All()
	require.Len(t, all, 9)
	assert.Equal(t, all[0], Default())

	seen := map[string]bool{}
	for _, m := range all {
		assert.False(t, seen[m.ID], m.ID)
		seen[m.ID] = true
		got, ok := ByID(m.ID)
		require.True(t, ok)
		assert.Equal(t, m, got)
	}

	all[0].Name = "mutated"
	assert.NotEqual(t, "mutated", Default().Name)
}

func TestSelector(t *testing.T) {
	medium := store.NewMemoryMedium(0)
	keys := store.NewKeys("")
	bus := notify.NewBus()
	emits := 0
	bus.Subscribe(func(notify.Event) { emits++ })
	s := NewSelector(medium, keys, bus, nil)

	assert.Equal(t, Default(), s.Selected())

	require.NoError(t, s.Select("qwen/qwen-max"))
	id, name := s.Current()
	assert.Equal(t, "qwen/qwen-max", id)
	assert.Equal(t, "Qwen-Max", name)
	assert.Equal(t, 1, emits)

	raw, ok, err := medium.Get(keys.SelectedModel())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `"qwen/qwen-max"`, raw)

	err = s.Select("made/up")
	assert.True(t, errors.Is(err, ErrUnknownModel))
	assert.Equal(t, "qwen/qwen-max", s.Selected().ID)
}

func TestSelectorFallsBackToDefault(t *testing.T) {
	medium := store.NewMemoryMedium(0)
	keys := store.NewKeys("")
	s := NewSelector(medium, keys, nil, nil)

	require.NoError(t, medium.Set(keys.SelectedModel(), `"retired/model"`))
	assert.Equal(t, Default(), s.Selected())

	require.NoError(t, medium.Set(keys.SelectedModel(), `not json`))
	assert.Equal(t, Default(), s.Selected())
}
