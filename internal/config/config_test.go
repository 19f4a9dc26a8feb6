package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "gemini-2.0-flash", cfg.Recognition.Model)
	assert.Equal(t, 4, cfg.Dispatch.Workers)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.Observability.LogLevel)
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
recognition:
  model: gemini-2.5-pro
dispatch:
  workers: 5
observability:
  log_level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-pro", cfg.Recognition.Model)
	assert.Equal(t, 5, cfg.Dispatch.Workers)
	assert.Equal(t, "debug", cfg.Observability.LogLevel)
	assert.Equal(t, ":8080", cfg.Server.Addr, "untouched keys keep their defaults")
}

func TestLoadEnvOverridesYAML(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "env-key")
	t.Setenv("SHEETSCAN_WORKERS", "3")
	t.Setenv("SHEETSCAN_ADDR", ":9090")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.Recognition.APIKey)
	assert.Equal(t, 3, cfg.Dispatch.Workers)
	assert.Equal(t, ":9090", cfg.Server.Addr)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
