package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/cropq/internal/loader"
)

// LoadOptions holds flags for the load command.
type LoadOptions struct {
	*RootOptions
	DataDirectory string
}

// LoadResult is the summary printed after a load.
type LoadResult struct {
	Points  int    `json:"points"`
	Backend string `json:"backend"`
}

func (r LoadResult) String() string {
	return "Loaded " + formatCount(r.Points) + " points into the " + r.Backend + " store."
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoadOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Replace the store contents with a data directory",
		Long: `Read points.txt ("x y" per line), categories.txt and groups.txt from a
directory and replace all points and groups in the configured store.

Line N of each file describes point N. Blank lines are skipped. The three
files must have the same number of non-blank lines.

Examples:
  cropq load --data-directory ./data
  cropq load --data-directory ./data --config prod.toml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DataDirectory, "data-directory", "", "directory holding the data files (required)")
	_ = cmd.MarkFlagRequired("data-directory")

	return cmd
}

func runLoad(opts *LoadOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	log := opts.logger()

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "failed to load config", err)
	}

	ds, err := loader.ReadDir(opts.DataDirectory)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeLoadFailed, "failed to read data directory", err)
	}
	log.Debug("data directory read", "dir", opts.DataDirectory, "points", len(ds.Points))

	ctx, stop := signalContext(cmd)
	defer stop()

	backend, err := openBackend(ctx, cfg.Store)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStoreUnavailable, "failed to open store", err)
	}
	defer func() {
		if closeErr := backend.Close(); closeErr != nil {
			log.Error("error closing store", "error", closeErr)
		}
	}()

	if err := backend.ReplaceAll(ctx, ds); err != nil {
		return formatter.Fail(ExitFailure, ErrCodeLoadFailed, "failed to replace store contents", err)
	}
	log.Info("store loaded", "backend", cfg.Store.Backend, "points", len(ds.Points), "groups", len(ds.GroupIDs()))

	return formatter.Success(LoadResult{Points: len(ds.Points), Backend: cfg.Store.Backend})
}
