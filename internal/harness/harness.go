package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/cropq/internal/engine"
	"github.com/roach88/cropq/internal/querydoc"
	"github.com/roach88/cropq/internal/queryir"
	"github.com/roach88/cropq/internal/store"
	"github.com/roach88/cropq/internal/store/memory"
	"github.com/roach88/cropq/internal/store/sqlite"
	"github.com/roach88/cropq/internal/testutil"
)

// ExecutionID is the fixed execution id used for every scenario.
const ExecutionID = "scenario-execution"

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh store for isolation.
//
// Execution flow:
//  1. Open the scenario's backend and load its dataset
//  2. Parse and validate the query document
//  3. Execute it through a counting store
//  4. Compare the outcome with the expect clause
//
// A returned error means the scenario could not be set up. Query failures
// are outcomes, recorded in Result.ErrorCode.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	backend, err := openBackend(scenario.Backend)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", backendName(scenario.Backend), err)
	}
	defer backend.Close()

	if err := backend.ReplaceAll(ctx, scenario.Dataset.StoreDataset()); err != nil {
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}

	counting := testutil.NewCountingStore(backend)
	eng := engine.New(counting,
		engine.WithIDGenerator(testutil.NewFixedIDGenerator(ExecutionID)),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))), // Suppress logs in tests
	)

	result := NewResult()
	execute(ctx, eng, scenario, result)
	result.PointQueries = counting.PointQueries()
	result.GroupCountQueries = counting.GroupCountQueries()

	for _, msg := range CheckExpectations(scenario.Expect, result) {
		result.AddError(msg)
	}
	return result, nil
}

// execute runs parse, validate and evaluate, recording the outcome.
func execute(ctx context.Context, eng *engine.Engine, scenario *Scenario, result *Result) {
	doc, err := querydoc.ParseTree(scenario.Query)
	if err != nil {
		result.ErrorCode = ErrorCode(err)
		return
	}

	validation := queryir.Validate(doc)
	for _, w := range validation.Warnings {
		result.Warnings = append(result.Warnings, w.Code)
	}
	if scenario.Strict {
		if err := validation.Err(); err != nil {
			result.ErrorCode = ErrorCode(err)
			return
		}
	}

	res, err := eng.Execute(ctx, doc)
	if err != nil {
		result.ErrorCode = ErrorCode(err)
		return
	}
	result.Points = res.Points.Points()
	result.Stats = res.Stats
}

// ErrorCode returns the stable code of a parse, validation or evaluation
// error, or "UNKNOWN" for anything else.
func ErrorCode(err error) string {
	if code := querydoc.ErrorCodeOf(err); code != "" {
		return string(code)
	}
	var verr *queryir.ValidationError
	if errors.As(err, &verr) {
		return queryir.ErrCodeValidationFailed
	}
	if code := engine.CodeOf(err); code != "" {
		return string(code)
	}
	return "UNKNOWN"
}

func openBackend(name string) (store.Backend, error) {
	switch name {
	case "", BackendMemory:
		return memory.New()
	case BackendSQLite:
		return sqlite.Open(":memory:")
	default:
		return nil, fmt.Errorf("unknown backend %q", name)
	}
}

func backendName(name string) string {
	if name == "" {
		return BackendMemory
	}
	return name
}
