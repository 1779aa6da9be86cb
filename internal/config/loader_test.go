package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/joacominatel/dbdeck/internal/database"
)

func TestLoadFrom_Missing(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, cfg.Connections)
	assert.Equal(t, "default", cfg.Preferences.Theme)
	assert.Equal(t, 50, cfg.Preferences.PageSize)
}

func TestSaveTo_PasswordGoesToKeyring(t *testing.T) {
	keyring.MockInit()
	dir := t.TempDir()

	cfg := &Config{
		Connections: []Connection{{
			Name: "local-mysql", Engine: database.EngineMySQL, Host: "localhost",
			Port: 3306, Database: "shop", Username: "root", Password: "secret",
		}},
		Preferences: Preferences{Theme: "default", DefaultConnection: "local-mysql", PageSize: 100},
	}
	require.NoError(t, SaveTo(dir, cfg))

	raw, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")
	assert.Contains(t, string(raw), "engine: mysql")

	pw, err := keyring.Get(keyringService, "local-mysql")
	require.NoError(t, err)
	assert.Equal(t, "secret", pw)

	loaded, err := LoadFrom(dir)
	require.NoError(t, err)
	require.Len(t, loaded.Connections, 1)
	assert.Equal(t, cfg.Connections[0], loaded.Connections[0])
	assert.Equal(t, 100, loaded.Preferences.PageSize)
}

func TestSaveTo_KeyringUnavailable(t *testing.T) {
	keyring.MockInitWithError(assert.AnError)
	t.Cleanup(keyring.MockInit)
	dir := t.TempDir()

	cfg := &Config{Connections: []Connection{{Name: "pg", Engine: database.EnginePostgres, Host: "h", Password: "pw"}}}
	require.NoError(t, SaveTo(dir, cfg))

	raw, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "password: pw")
}

func TestDeleteConnection(t *testing.T) {
	keyring.MockInit()
	t.Setenv("HOME", t.TempDir())

	require.NoError(t, SaveConnection(Connection{Name: "pg", Engine: database.EnginePostgres, Host: "h", Password: "pw"}))
	require.NoError(t, SaveConnection(Connection{Name: "my", Engine: database.EngineMySQL, Host: "m"}))

	require.NoError(t, DeleteConnection("pg"))
	cfg, err := Load()
	require.NoError(t, err)
	require.Len(t, cfg.Connections, 1)
	assert.Equal(t, "my", cfg.Connections[0].Name)

	_, err = keyring.Get(keyringService, "pg")
	assert.ErrorIs(t, err, keyring.ErrNotFound)

	assert.Error(t, DeleteConnection("pg"))
}
