package cli

import (
	"context"
	"fmt"

	"github.com/roach88/cropq/internal/config"
	"github.com/roach88/cropq/internal/loader"
	"github.com/roach88/cropq/internal/store"
	"github.com/roach88/cropq/internal/store/memory"
	"github.com/roach88/cropq/internal/store/postgres"
	"github.com/roach88/cropq/internal/store/sqlite"
)

// loadConfig reads the config file named by --config.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	return config.Load(opts.ConfigPath)
}

// openBackend opens the store backend selected by cfg.
func openBackend(ctx context.Context, cfg config.StoreConfig) (store.Backend, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		return sqlite.Open(cfg.SQLitePath)
	case config.BackendPostgres:
		timeout, err := cfg.Timeout()
		if err != nil {
			return nil, err
		}
		return postgres.Open(ctx, postgres.Config{
			DSN:             cfg.PostgresDSN,
			ConnectTimeout:  timeout,
			ConnectAttempts: cfg.ConnectAttempts,
		})
	case config.BackendMemory:
		return memory.New()
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// openDataDirectory loads dir into a fresh memory store.
// Returns the store and the number of points loaded.
func openDataDirectory(ctx context.Context, dir string) (store.Backend, int, error) {
	mem, err := memory.New()
	if err != nil {
		return nil, 0, err
	}
	n, err := loader.Load(ctx, dir, mem)
	if err != nil {
		mem.Close()
		return nil, 0, err
	}
	return mem, n, nil
}
