package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setHome points the loader at a fresh home directory so tests never touch
// the real user config.
func setHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func TestLoad_EnvOnly(t *testing.T) {
	setHome(t)
	t.Setenv("MOLT_API_KEY", "test-write-key")
	t.Setenv("MOLT_WORKSPACE_ID", "123e4567-e89b-12d3-a456-426614174000")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "test-write-key", cfg.Molt.APIKey.Value())
	assert.Equal(t, "123e4567-e89b-12d3-a456-426614174000", cfg.Molt.WorkspaceID)
	assert.Equal(t, DefaultBaseURL, cfg.Molt.BaseURL)
	assert.Equal(t, DefaultRequestTimeout, cfg.Molt.RequestTimeout.Duration())
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "molt-mcp", cfg.Telemetry.ServiceName)
}

func TestLoad_MissingAPIKey(t *testing.T) {
	setHome(t)
	t.Setenv("MOLT_API_KEY", "")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MOLT_API_KEY is required")
}

func TestLoad_RequestTimeoutFromEnv(t *testing.T) {
	setHome(t)
	t.Setenv("MOLT_API_KEY", "k")
	t.Setenv("MOLT_REQUEST_TIMEOUT", "45s")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, cfg.Molt.RequestTimeout.Duration())
}

func TestLoad_YAMLFile(t *testing.T) {
	home := setHome(t)
	t.Setenv("MOLT_API_KEY", "")

	dir := filepath.Join(home, ".config", "molt-mcp")
	require.NoError(t, os.MkdirAll(dir, 0700))

	content := []byte(`molt:
  api_key: yaml-key
  base_url: http://localhost:8080/api/v1
logging:
  level: debug
`)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, content, 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "yaml-key", cfg.Molt.APIKey.Value())
	assert.Equal(t, "http://localhost:8080/api/v1", cfg.Molt.BaseURL)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	home := setHome(t)
	t.Setenv("MOLT_API_KEY", "env-key")

	dir := filepath.Join(home, ".config", "molt-mcp")
	require.NoError(t, os.MkdirAll(dir, 0700))
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("molt:\n  api_key: yaml-key\n"), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.Molt.APIKey.Value())
}

func TestLoad_RejectsInsecurePermissions(t *testing.T) {
	home := setHome(t)
	t.Setenv("MOLT_API_KEY", "k")

	dir := filepath.Join(home, ".config", "molt-mcp")
	require.NoError(t, os.MkdirAll(dir, 0700))
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("molt:\n  api_key: yaml-key\n"), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insecure config file permissions")
}

func TestLoad_RejectsPathOutsideAllowedDirs(t *testing.T) {
	setHome(t)
	t.Setenv("MOLT_API_KEY", "k")

	_, err := Load("/tmp/evil-config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file must be in")
}

func TestLoad_MissingFileIsNotAnError(t *testing.T) {
	home := setHome(t)
	t.Setenv("MOLT_API_KEY", "k")

	_, err := Load(filepath.Join(home, ".config", "molt-mcp", "config.yaml"))
	require.NoError(t, err)
}
