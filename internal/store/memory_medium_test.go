package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryMediumQuota(t *testing.T) {
	m := NewMemoryMedium(10)

	require.NoError(t, m.Set("k", "12345"))
	err := m.Set("j", "1234567")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrQuotaExceeded))

	_, ok, _ := m.Get("j")
	assert.False(t, ok, "failed write must not be visible")

	v, ok, _ := m.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "12345", v)

	require.NoError(t, m.Remove("k"))
	assert.Equal(t, int64(0), m.Stats().Bytes)
	require.NoError(t, m.Set("j", "1234567"))
}

func TestMemoryMediumHydrateSnapshot(t *testing.T) {
	m := NewMemoryMedium(0)
	n := m.Hydrate([]Entry{{Key: "b", Value: "2"}, {Key: "a", Value: "1"}})
	assert.Equal(t, 2, n)

	assert.Equal(t, []Entry{{Key: "a", Value: "1"}, {Key: "b", Value: "2"}}, m.Snapshot())
	assert.Equal(t, Stats{Keys: 2, Bytes: 4}, m.Stats())

	m.Clear()
	keys, err := m.Keys()
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestKeysLayout(t *testing.T) {
	k := NewKeys("")
	assert.Equal(t, "super_okai_persona/okai", k.Entity("persona", "okai"))
	assert.Equal(t, "super_okai_persona_metadata", k.Metadata("persona"))
	assert.Equal(t, "super_okai_deleted_knowledge", k.Deleted("knowledge"))
	assert.Equal(t, "super_okai_logs", k.Logs())
	assert.True(t, k.Owns("super_okai_logs"))
	assert.False(t, k.Owns("other"))
}
