package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	ws := t.TempDir()
	cfg, err := Load(ws)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(ws, ".ordercloak", "ordercloak.db"), cfg.Store.Path)
	assert.Equal(t, Duration(150*time.Millisecond), cfg.Engine.Debounce)
	assert.Empty(t, cfg.User.Name)
}

func TestLoadOverridesAndBackfills(t *testing.T) {
	ws := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(ws, ".ordercloak"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(ws, ".ordercloak", "config.yaml"), []byte(`
engine:
  debounce: 300ms
user:
  name: pat
`), 0o644))

	cfg, err := Load(ws)
	require.NoError(t, err)
	assert.Equal(t, Duration(300*time.Millisecond), cfg.Engine.Debounce)
	assert.Equal(t, "pat", cfg.User.Name)
	assert.Equal(t, filepath.Join(ws, ".ordercloak", "ordercloak.db"), cfg.Store.Path,
		"unset store path falls back to the default")
}

func TestLoadRejectsBadYAML(t *testing.T) {
	ws := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(ws, ".ordercloak"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(ws, ".ordercloak", "config.yaml"), []byte("{not yaml"), 0o644))

	_, err := Load(ws)
	assert.Error(t, err)
}
