// Package config handles cropq configuration.
//
// Precedence, lowest first: built-in defaults, cropq.toml, environment,
// command-line flags. Flags are applied by the cli package.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultPath is the config file read when --config is not given.
const DefaultPath = "cropq.toml"

// EnvPostgresDSN overrides store.postgres_dsn.
const EnvPostgresDSN = "CROPQ_POSTGRES_DSN"

// Store backends.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config is the full cropq configuration.
type Config struct {
	Store StoreConfig `toml:"store"`
	Query QueryConfig `toml:"query"`
}

// StoreConfig selects and configures the point store backend.
type StoreConfig struct {
	// Backend is one of sqlite, postgres, memory.
	Backend string `toml:"backend"`

	// SQLitePath is the database file for the sqlite backend.
	SQLitePath string `toml:"sqlite_path"`

	// PostgresDSN is the connection string for the postgres backend.
	PostgresDSN string `toml:"postgres_dsn"`

	// ConnectTimeout bounds each connection attempt, e.g. "5s".
	ConnectTimeout string `toml:"connect_timeout"`

	// ConnectAttempts is how many times to try connecting before giving up.
	ConnectAttempts int `toml:"connect_attempts"`
}

// QueryConfig holds query command defaults.
type QueryConfig struct {
	// ResultFile is where results are written.
	ResultFile string `toml:"result_file"`

	// Strict rejects documents that produce validation warnings.
	Strict bool `toml:"strict"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Backend:         BackendSQLite,
			SQLitePath:      "cropq.db",
			ConnectTimeout:  "5s",
			ConnectAttempts: 3,
		},
		Query: QueryConfig{
			ResultFile: "results.txt",
		},
	}
}

// Load reads path, or DefaultPath if path is empty. A missing DefaultPath
// yields the defaults; a missing explicit path is an error. Environment
// overrides are applied and the result is validated.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	cfg := Default()
	if _, err := os.Stat(path); err == nil || explicit {
		if err := cfg.decodeFile(path); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat config %s: %w", path, err)
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decodeFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("failed to parse config %s: unknown key %q", path, undecoded[0].String())
	}
	return nil
}

func (c *Config) applyEnv() {
	if dsn := os.Getenv(EnvPostgresDSN); dsn != "" {
		c.Store.PostgresDSN = dsn
	}
}

// Validate checks field values.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendSQLite:
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("store.sqlite_path is required for the sqlite backend")
		}
	case BackendPostgres:
		if c.Store.PostgresDSN == "" {
			return fmt.Errorf("store.postgres_dsn (or %s) is required for the postgres backend", EnvPostgresDSN)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("invalid store.backend %q: must be one of sqlite, postgres, memory", c.Store.Backend)
	}

	if _, err := c.Store.Timeout(); err != nil {
		return err
	}
	if c.Store.ConnectAttempts < 1 {
		return fmt.Errorf("store.connect_attempts must be at least 1, got %d", c.Store.ConnectAttempts)
	}
	if c.Query.ResultFile == "" {
		return fmt.Errorf("query.result_file must not be empty")
	}
	return nil
}

// Timeout parses ConnectTimeout. An empty value means no timeout.
func (s StoreConfig) Timeout() (time.Duration, error) {
	if s.ConnectTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s.ConnectTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid store.connect_timeout %q: %w", s.ConnectTimeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid store.connect_timeout %q: negative", s.ConnectTimeout)
	}
	return d, nil
}
