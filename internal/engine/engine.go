package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/cropq/internal/geom"
	"github.com/roach88/cropq/internal/queryir"
	"github.com/roach88/cropq/internal/store"
)

// Engine evaluates query documents against a point store.
//
// Thread-safety: Execute may be called concurrently if the store allows
// concurrent snapshots. Each call owns its snapshot and evaluation state.
type Engine struct {
	store  store.PointStore
	ids    IDGenerator
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithIDGenerator sets the execution id generator. Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) {
		e.ids = g
	}
}

// New creates an Engine reading from s.
func New(s store.PointStore, opts ...Option) *Engine {
	e := &Engine{
		store:  s,
		ids:    UUIDv7Generator{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Stats counts the work one evaluation did.
type Stats struct {
	// Crops is the number of crop leaves evaluated.
	Crops int `json:"crops"`

	// PointQueries is the number of QueryPoints calls.
	PointQueries int `json:"point_queries"`

	// GroupCountQueries is the number of GroupCounts calls (0 or 1).
	GroupCountQueries int `json:"group_count_queries"`

	// ProperGroups is the size of the resolved proper set, or -1 if it was
	// never needed.
	ProperGroups int `json:"proper_groups"`
}

// Result is the outcome of one evaluation.
type Result struct {
	ExecutionID string
	Points      *geom.PointSet
	Stats       Stats
	Duration    time.Duration
}

// Execute evaluates doc.Query against one snapshot of the store.
//
// Returns an *EvalError on store failure, cancellation, or a document
// without a query tree. An empty result is not an error.
func (e *Engine) Execute(ctx context.Context, doc queryir.Document) (*Result, error) {
	id := e.ids.Generate()
	start := time.Now()
	log := e.logger.With("execution_id", id)

	if doc.Query == nil {
		return nil, &EvalError{Code: ErrCodeInvalidQuery, ExecutionID: id, Message: "document has no query"}
	}

	snap, err := e.store.Snapshot(ctx)
	if err != nil {
		log.Error("open snapshot failed", "error", err)
		return nil, wrapStoreError(ctx, id, "open snapshot", err)
	}
	defer func() {
		if cerr := snap.Close(); cerr != nil {
			log.Warn("close snapshot failed", "error", cerr)
		}
	}()

	ev := &evaluation{
		id:          id,
		snap:        snap,
		validRegion: doc.ValidRegion,
		logger:      log,
		stats:       Stats{ProperGroups: -1},
	}

	points, err := ev.eval(ctx, doc.Query, "query")
	if err != nil {
		log.Error("query failed", "error", err)
		return nil, err
	}

	res := &Result{
		ExecutionID: id,
		Points:      points,
		Stats:       ev.stats,
		Duration:    time.Since(start),
	}
	log.Info("query executed",
		"points", points.Len(),
		"crops", res.Stats.Crops,
		"point_queries", res.Stats.PointQueries,
		"proper_groups", res.Stats.ProperGroups,
		"duration", res.Duration,
	)
	return res, nil
}

// evaluation is the per-Execute state.
type evaluation struct {
	id          string
	snap        store.Snapshot
	validRegion geom.Region
	logger      *slog.Logger
	stats       Stats

	proper         []int64
	properResolved bool
}

// eval dispatches on node kind.
func (ev *evaluation) eval(ctx context.Context, n queryir.Node, path string) (*geom.PointSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, &EvalError{Code: ErrCodeCanceled, ExecutionID: ev.id, Message: "evaluation canceled at " + path, Err: err}
	}

	switch node := n.(type) {
	case *queryir.Crop:
		return ev.execCrop(ctx, node.Query, path+".operator_crop")
	case *queryir.And:
		return ev.evalAnd(ctx, node, path+".operator_and")
	case *queryir.Or:
		return ev.evalOr(ctx, node, path+".operator_or")
	default:
		return nil, &EvalError{
			Code:        ErrCodeInvalidQuery,
			ExecutionID: ev.id,
			Message:     fmt.Sprintf("unsupported node %T at %s", n, path),
		}
	}
}

// evalAnd intersects child results left to right, stopping once empty.
func (ev *evaluation) evalAnd(ctx context.Context, n *queryir.And, path string) (*geom.PointSet, error) {
	if len(n.Children) == 0 {
		return geom.NewPointSet(), nil
	}

	acc, err := ev.eval(ctx, n.Children[0], fmt.Sprintf("%s[0]", path))
	if err != nil {
		return nil, err
	}
	for i := 1; i < len(n.Children) && !acc.Empty(); i++ {
		next, err := ev.eval(ctx, n.Children[i], fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		acc = acc.Intersect(next)
	}
	return acc, nil
}

// evalOr unions every child result.
func (ev *evaluation) evalOr(ctx context.Context, n *queryir.Or, path string) (*geom.PointSet, error) {
	acc := geom.NewPointSet()
	for i, child := range n.Children {
		next, err := ev.eval(ctx, child, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		acc.Merge(next)
	}
	return acc, nil
}
