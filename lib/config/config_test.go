package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Setenv(tmdbAPIKeyEnv, "")
	t.Setenv(configPathEnv, "")

	_, err := Load()
	assert.ErrorContains(t, err, "TMDB_API_KEY")
}

func TestLoadDefaultsWithEnv(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(tmdbAPIKeyEnv, "key")
	t.Setenv(portEnv, "9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "key", cfg.TMDB.APIKey)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 500*time.Millisecond, cfg.Catalog.SearchDebounce)
	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "marquee.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "7000"
tmdb:
  apiKey: from-file
catalog:
  searchDebounce: 250ms
storage:
  backend: file
  dir: /var/lib/marquee
logging:
  level: debug
`), 0600))

	t.Setenv(configPathEnv, path)
	t.Setenv(tmdbAPIKeyEnv, "")
	t.Setenv(logLevelEnv, "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, "from-file", cfg.TMDB.APIKey)
	assert.Equal(t, 250*time.Millisecond, cfg.Catalog.SearchDebounce)
	assert.Equal(t, BackendFile, cfg.Storage.Backend)
	assert.Equal(t, "/var/lib/marquee", cfg.Storage.Dir)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, 10*time.Second, cfg.TMDB.Timeout)
}

func TestLoadBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0600))
	t.Setenv(configPathEnv, path)
	t.Setenv(tmdbAPIKeyEnv, "key")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidateBackend(t *testing.T) {
	cfg := Default()
	cfg.TMDB.APIKey = "key"
	cfg.Storage.Backend = "redis"
	assert.ErrorContains(t, cfg.Validate(), "redis")
}
