package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cropq.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, "cropq.db", cfg.Store.SQLitePath)
	assert.Equal(t, "results.txt", cfg.Query.ResultFile)
	assert.False(t, cfg.Query.Strict)

	d, err := cfg.Store.Timeout()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, d)
}

func TestLoad_File(t *testing.T) {
	t.Setenv(EnvPostgresDSN, "")
	path := writeConfig(t, `
[store]
backend = "postgres"
postgres_dsn = "postgres://localhost/cropq"
connect_timeout = "250ms"
connect_attempts = 5

[query]
result_file = "out.txt"
strict = true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, BackendPostgres, cfg.Store.Backend)
	assert.Equal(t, "postgres://localhost/cropq", cfg.Store.PostgresDSN)
	assert.Equal(t, 5, cfg.Store.ConnectAttempts)
	assert.Equal(t, "out.txt", cfg.Query.ResultFile)
	assert.True(t, cfg.Query.Strict)
	assert.Equal(t, "cropq.db", cfg.Store.SQLitePath, "unset keys keep defaults")

	d, err := cfg.Store.Timeout()
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, d)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv(EnvPostgresDSN, "postgres://env/cropq")
	path := writeConfig(t, `
[store]
backend = "postgres"
postgres_dsn = "postgres://file/cropq"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://env/cropq", cfg.Store.PostgresDSN)
}

func TestLoad_MissingDefaultUsesDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Store.Backend, cfg.Store.Backend)
}

func TestLoad_MissingExplicitPath(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoad_Errors(t *testing.T) {
	t.Setenv(EnvPostgresDSN, "")

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bad toml", "[store\n", "failed to parse config"},
		{"unknown key", "[store]\nbacknd = \"sqlite\"\n", "unknown key"},
		{"bad backend", "[store]\nbackend = \"oracle\"\n", "invalid store.backend"},
		{"postgres without dsn", "[store]\nbackend = \"postgres\"\n", "postgres_dsn"},
		{"bad timeout", "[store]\nconnect_timeout = \"soon\"\n", "connect_timeout"},
		{"zero attempts", "[store]\nconnect_attempts = 0\n", "connect_attempts"},
		{"empty result file", "[query]\nresult_file = \"\"\n", "result_file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
