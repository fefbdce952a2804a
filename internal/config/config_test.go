package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/vc")
	t.Setenv("TELEGRAM_API_TOKEN", "")
	t.Setenv("APP_ENV", "")
	t.Setenv("APP_STORAGE", "")

	cfg, err := load(t.TempDir(), filepath.Join(t.TempDir(), ".env"))
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, StoragePostgres, cfg.Storage)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 5*time.Second, cfg.DB.QueryTimeout)
	assert.Equal(t, 20, cfg.DB.MaxConnections)
	assert.Empty(t, cfg.TelegramAPIToken)

	dsn, err := cfg.DB.DSN()
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/vc", dsn)
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("APP_STORAGE", "")

	_, err := load(t.TempDir(), filepath.Join(t.TempDir(), ".env"))
	assert.ErrorIs(t, err, ErrMissingEnvironmentVariables)
}

func TestLoad_MemoryStorageNeedsNoDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("APP_STORAGE", StorageMemory)

	cfg, err := load(t.TempDir(), filepath.Join(t.TempDir(), ".env"))
	require.NoError(t, err)
	assert.Equal(t, StorageMemory, cfg.Storage)
}

func TestLoad_FileAndDotEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte("env: production\nhttp:\n  addr: \":9090\"\ndatabase:\n  query_timeout: 2s\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o600))

	dotEnv := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(dotEnv, []byte("DATABASE_URL=postgres://from-dotenv/vc\n"), 0o600))

	// godotenv never overrides variables that are already set.
	t.Setenv("DATABASE_URL", "")
	require.NoError(t, os.Unsetenv("DATABASE_URL"))
	t.Setenv("APP_ENV", "production")

	cfg, err := load(dir, dotEnv)
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, 2*time.Second, cfg.DB.QueryTimeout)
	assert.Equal(t, "postgres://from-dotenv/vc", cfg.DB.URL)
}
