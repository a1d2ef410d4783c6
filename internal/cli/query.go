package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/cropq/internal/engine"
	"github.com/roach88/cropq/internal/querydoc"
	"github.com/roach88/cropq/internal/queryir"
	"github.com/roach88/cropq/internal/resultfile"
	"github.com/roach88/cropq/internal/store"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	QueryFile     string
	ResultFile    string // empty means config query.result_file
	DataDirectory string // load flat files into a memory store instead of the configured backend
	Strict        bool

	// IDGenerator overrides the execution id generator (for testing).
	// If nil, the engine default (UUIDv7) is used.
	IDGenerator engine.IDGenerator
}

// QueryResult is the summary printed after a query runs.
type QueryResult struct {
	ExecutionID string            `json:"execution_id"`
	Fingerprint string            `json:"fingerprint"`
	Points      int               `json:"points"`
	ResultFile  string            `json:"result_file"`
	Stats       engine.Stats      `json:"stats"`
	Warnings    []queryir.Warning `json:"warnings"`
	DurationMS  int64             `json:"duration_ms"`
}

func (r QueryResult) String() string {
	return fmt.Sprintf("Query executed successfully. %s points -> %s", formatCount(r.Points), r.ResultFile)
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Evaluate a query document and write the result file",
		Long: `Evaluate a query document (JSON, YAML or CUE) against the point store
and write the matching points, one "x y" line each, sorted by y then x.

Exit codes:
  0 - Query executed
  1 - Query rejected or evaluation failed
  2 - Command error (missing files, bad config, store unavailable)

Examples:
  cropq query --query-file query.json
  cropq query --query-file query.yaml --result-file out.txt --strict
  cropq query --query-file query.json --data-directory ./data`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.QueryFile, "query-file", "", "path to the query document (required)")
	cmd.Flags().StringVar(&opts.ResultFile, "result-file", "", "path to write results (default from config, results.txt)")
	cmd.Flags().StringVar(&opts.DataDirectory, "data-directory", "", "load points/categories/groups files from this directory into memory")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "reject documents with validation warnings")
	_ = cmd.MarkFlagRequired("query-file")

	return cmd
}

func runQuery(opts *QueryOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	log := opts.logger()

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "failed to load config", err)
	}
	resultFile := opts.ResultFile
	if resultFile == "" {
		resultFile = cfg.Query.ResultFile
	}
	strict := opts.Strict || cfg.Query.Strict

	doc, err := querydoc.ParseFile(opts.QueryFile)
	if err != nil {
		return failParse(formatter, opts.QueryFile, err)
	}

	fingerprint := queryir.Fingerprint(doc)
	log.Debug("query parsed", "file", opts.QueryFile, "fingerprint", fingerprint)

	validation := queryir.Validate(doc)
	for _, w := range validation.Warnings {
		log.Warn("query validation warning", "code", w.Code, "path", w.Path, "message", w.Message)
	}
	if strict {
		if err := validation.Err(); err != nil {
			return formatter.Fail(ExitFailure, ErrCodeValidationFailed, "query rejected in strict mode", err)
		}
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	var backend store.Backend
	if opts.DataDirectory != "" {
		var n int
		backend, n, err = openDataDirectory(ctx, opts.DataDirectory)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeLoadFailed, "failed to load data directory", err)
		}
		log.Info("data directory loaded", "dir", opts.DataDirectory, "points", n)
	} else {
		backend, err = openBackend(ctx, cfg.Store)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStoreUnavailable, "failed to open store", err)
		}
		log.Debug("store opened", "backend", cfg.Store.Backend)
	}
	defer func() {
		if closeErr := backend.Close(); closeErr != nil {
			log.Error("error closing store", "error", closeErr)
		}
	}()

	engineOpts := []engine.Option{engine.WithLogger(log)}
	if opts.IDGenerator != nil {
		engineOpts = append(engineOpts, engine.WithIDGenerator(opts.IDGenerator))
	}
	eng := engine.New(backend, engineOpts...)

	res, err := eng.Execute(ctx, doc)
	if err != nil {
		if engine.IsStoreUnavailable(err) {
			return formatter.Fail(ExitCommandError, ErrCodeStoreUnavailable, "store unavailable", err)
		}
		return formatter.Fail(ExitFailure, ErrCodeQueryFailed, "query failed", err)
	}

	if err := resultfile.Write(resultFile, res.Points); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, "failed to write result file", err)
	}

	return formatter.Success(QueryResult{
		ExecutionID: res.ExecutionID,
		Fingerprint: fingerprint,
		Points:      res.Points.Len(),
		ResultFile:  resultFile,
		Stats:       res.Stats,
		Warnings:    validation.Warnings,
		DurationMS:  res.Duration.Milliseconds(),
	})
}

// failParse reports a query file that could not be read or parsed.
func failParse(formatter *OutputFormatter, path string, err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("query file not found: %s", path), err)
	}
	if querydoc.IsParseError(err) {
		return formatter.Fail(ExitFailure, ErrCodeParseFailed, "invalid query document", err)
	}
	return formatter.Fail(ExitCommandError, ErrCodeGeneric, "failed to read query file", err)
}

// signalContext derives a context from cmd that is canceled on SIGINT or
// SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	// Use command's context if available (for testing), otherwise create one
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
