//go:build !js || !wasm

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittclouds/okai/pkg/models"
)

// run executes one okai invocation against the store in dir.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	base := []string{
		"--config", filepath.Join(dir, "missing.yaml"),
		"--db", filepath.Join(dir, "okai.db"),
		"--out", filepath.Join(dir, "out"),
	}
	root.SetArgs(append(base, args...))
	err := root.Execute()
	return out.String(), err
}

func TestRootCmd_Definition(t *testing.T) {
	root := newRootCmd()
	var names []string
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	assert.Subset(t, names, []string{"personas", "knowledge", "logs", "model", "dump", "watch"})

	flag := root.PersistentFlags().Lookup("config")
	require.NotNil(t, flag)
	assert.Equal(t, "okai.yaml", flag.DefValue)
}

func TestPersonasCommands(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, dir, "personas", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "okai")
	assert.Contains(t, out, "Elon Musk")

	out, err = run(t, dir, "personas", "get", "okai")
	require.NoError(t, err)
	var view struct {
		Persona struct {
			Name string `json:"name"`
		} `json:"persona"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, "Okai", view.Persona.Name)

	_, err = run(t, dir, "personas", "get", "nobody")
	assert.Error(t, err)

	_, err = run(t, dir, "personas", "order", "okai")
	assert.Error(t, err)

	out, err = run(t, dir, "personas", "restore")
	require.NoError(t, err)
	assert.Contains(t, out, "restored 6 personas")
}

func TestKnowledgeExportImport(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, dir, "knowledge", "export", "pizza")
	require.NoError(t, err)
	path := filepath.Join(dir, "out", "pizza.json")
	assert.Contains(t, out, path)
	_, err = os.Stat(path)
	require.NoError(t, err)

	_, err = run(t, dir, "knowledge", "import", "pizza two", path)
	require.NoError(t, err)

	out, err = run(t, dir, "knowledge", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "pizzatwo")
}

func TestModelAndDump(t *testing.T) {
	dir := t.TempDir()
	target := models.All()[1]

	_, err := run(t, dir, "model", "set", target.ID)
	require.NoError(t, err)
	out, err := run(t, dir, "model")
	require.NoError(t, err)
	assert.Contains(t, out, target.ID)

	_, err = run(t, dir, "model", "set", "nope/nope")
	assert.ErrorIs(t, err, models.ErrUnknownModel)

	out, err = run(t, dir, "dump")
	require.NoError(t, err)
	var dump struct {
		Personas int    `json:"personas"`
		Model    string `json:"model"`
		Stats    struct {
			Keys int `json:"keys"`
		} `json:"stats"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &dump))
	assert.Equal(t, 6, dump.Personas)
	assert.Equal(t, target.ID, dump.Model)
	assert.Positive(t, dump.Stats.Keys)
}

func TestLogsWithoutConversations(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, dir, "logs", "list")
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = run(t, dir, "logs", "export")
	assert.Error(t, err)

	_, err = run(t, dir, "logs", "clear")
	require.NoError(t, err)
}
