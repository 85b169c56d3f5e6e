package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/fairway/internal/store"
)

func execute(t *testing.T, args ...string) error {
	t.Helper()
	globalOpts.verbose = false
	globalOpts.configPath = ""
	globalOpts.manifestPath = ""
	globalOpts.storeBackend = ""
	globalOpts.storePath = ""
	storeKV = nil
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func readStoreFile(t *testing.T, path string) []store.Assignment {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))

	var out []store.Assignment
	if raw, ok := doc[store.DefaultCollectionKey]; ok {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return out
}

func TestCLI_AssignAndReset(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	storePath := filepath.Join(dir, "assignments.json")

	common := []string{"--store-backend", "file", "--store-path", storePath}

	require.NoError(t, execute(t, append(common, "assign", "/new-build-golf-properties-murcia/", "midnight")...))
	assert.Equal(t, []store.Assignment{{PagePath: "new-build-golf-properties-murcia", ThemeID: "midnight"}},
		readStoreFile(t, storePath))
	assert.Equal(t, storePath, watchedStorePath())

	// Last write wins for the same path.
	require.NoError(t, execute(t, append(common, "assign", "new-build-golf-properties-murcia", "sand")...))
	assert.Equal(t, []store.Assignment{{PagePath: "new-build-golf-properties-murcia", ThemeID: "sand"}},
		readStoreFile(t, storePath))

	require.NoError(t, execute(t, append(common, "reset")...))
	assert.Empty(t, readStoreFile(t, storePath))
}

func TestCLI_AssignUnknownTheme(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))

	err := execute(t, "--store-backend", "memory", "assign", "/", "not-a-real-theme")
	assert.ErrorContains(t, err, "theme not found")
}

func TestCLI_InvalidBackend(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))

	err := execute(t, "--store-backend", "redis", "pages")
	assert.ErrorContains(t, err, "unknown store backend")
}

func TestCLI_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	dbPath := filepath.Join(dir, "themes.db")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
[store]
backend = "sqlite"
path = "`+filepath.ToSlash(dbPath)+`"
`), 0644))

	require.NoError(t, execute(t, "--config", cfgPath, "assign", "contact", "golf"))

	_, err := os.Stat(dbPath)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Store.Backend)
	assert.Empty(t, watchedStorePath(), "only the file backend is watched")
}
