package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
retention_days: 7
log:
  level: debug
  format: console
`))
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.RetentionDays)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "super_okai_", cfg.KeyPrefix)
	assert.Equal(t, 100, cfg.MaxMessagesPerPersona)
}

func TestParseRejectsInvalid(t *testing.T) {
	_, err := Parse([]byte("retention_days: 0\ncache_size: -1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retention_days")
	assert.Contains(t, err.Error(), "cache_size")
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "okai.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database_path: /tmp/x.db\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.db", cfg.DatabasePath)
}
