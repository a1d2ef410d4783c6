// Package postgres implements the point store on PostgreSQL via pgx.
//
// Snapshots are REPEATABLE READ, READ ONLY transactions, so every retrieval
// of one query execution sees the same committed state. Loads use COPY.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/roach88/cropq/internal/geom"
	"github.com/roach88/cropq/internal/querysql"
	"github.com/roach88/cropq/internal/store"
)

//go:embed schema.sql
var schemaSQL string

// Config configures the connection.
type Config struct {
	// DSN is a libpq connection string or postgres:// URL.
	DSN string

	// ConnectTimeout bounds each connection attempt. Zero means no bound.
	ConnectTimeout time.Duration

	// ConnectAttempts is the number of pings before giving up. Values
	// below 1 are treated as 1.
	ConnectAttempts int
}

// Store is a point store backed by a pgx connection pool.
type Store struct {
	pool     *pgxpool.Pool
	compiler *querysql.Compiler
}

var (
	_ store.Backend  = (*Store)(nil)
	_ store.Snapshot = (*snapshot)(nil)
)

// Open connects to PostgreSQL, retrying the initial ping with exponential
// backoff, and creates the tables if missing.
//
// Failures are reported as store.ErrUnavailable.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, store.Unavailable("parse postgres dsn", err)
	}
	if cfg.ConnectTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, store.Unavailable("create postgres pool", err)
	}

	attempts := max(cfg.ConnectAttempts, 1)
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(attempts-1)),
		ctx,
	)
	if err := backoff.Retry(func() error { return pool.Ping(ctx) }, policy); err != nil {
		pool.Close()
		return nil, store.Unavailable("connect postgres", err)
	}

	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, store.Unavailable("apply schema", err)
	}

	return &Store{pool: pool, compiler: querysql.Postgres()}, nil
}

// Close closes every pooled connection.
func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// Snapshot opens a repeatable-read, read-only transaction.
func (s *Store) Snapshot(ctx context.Context) (store.Snapshot, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return nil, store.Unavailable("open snapshot", err)
	}
	return &snapshot{tx: tx, compiler: s.compiler}, nil
}

// ReplaceAll deletes every point and group and copies in ds, in one
// transaction.
func (s *Store) ReplaceAll(ctx context.Context, ds store.Dataset) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return store.Unavailable("begin load", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM inspection_region"); err != nil {
		return classify("clear points", err)
	}
	if _, err := tx.Exec(ctx, "DELETE FROM inspection_group"); err != nil {
		return classify("clear groups", err)
	}

	groupIDs := ds.GroupIDs()
	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{querysql.TableGroup},
		[]string{querysql.ColID},
		pgx.CopyFromSlice(len(groupIDs), func(i int) ([]any, error) {
			return []any{groupIDs[i]}, nil
		}),
	)
	if err != nil {
		return classify("copy groups", err)
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{querysql.TableRegion},
		[]string{querysql.ColID, querysql.ColX, querysql.ColY, querysql.ColCategory, querysql.ColGroupID},
		pgx.CopyFromSlice(len(ds.Points), func(i int) ([]any, error) {
			p := ds.Points[i]
			return []any{p.ID, p.X, p.Y, int32(p.Category), p.GroupID}, nil
		}),
	)
	if err != nil {
		return classify("copy points", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return classify("commit load", err)
	}
	return nil
}

type snapshot struct {
	tx       pgx.Tx
	compiler *querysql.Compiler
}

func (s *snapshot) QueryPoints(ctx context.Context, f store.Filter) ([]store.Record, error) {
	query, args, err := s.compiler.CompilePoints(f)
	if err != nil {
		return nil, store.QueryFailed("query points", err)
	}

	rows, err := s.tx.Query(ctx, query, args...)
	if err != nil {
		return nil, classify("query points", err)
	}
	defer rows.Close()

	records := []store.Record{}
	for rows.Next() {
		var r store.Record
		if err := rows.Scan(&r.ID, &r.X, &r.Y, &r.Category, &r.GroupID); err != nil {
			return nil, store.QueryFailed("scan point", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("iterate points", err)
	}
	return records, nil
}

func (s *snapshot) GroupCounts(ctx context.Context, region geom.Region) ([]store.GroupCount, error) {
	query, args, err := s.compiler.CompileGroupCounts(region)
	if err != nil {
		return nil, store.QueryFailed("count groups", err)
	}

	rows, err := s.tx.Query(ctx, query, args...)
	if err != nil {
		return nil, classify("count groups", err)
	}
	defer rows.Close()

	counts := []store.GroupCount{}
	for rows.Next() {
		var c store.GroupCount
		if err := rows.Scan(&c.GroupID, &c.Total, &c.Inside); err != nil {
			return nil, store.QueryFailed("scan group count", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("iterate group counts", err)
	}
	return counts, nil
}

func (s *snapshot) Close() error {
	err := s.tx.Rollback(context.Background())
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("close snapshot: %w", err)
	}
	return nil
}

// classify maps connection failures to ErrUnavailable and everything else
// to ErrQueryFailed.
func classify(op string, err error) error {
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) || pgconn.SafeToRetry(err) {
		return store.Unavailable(op, err)
	}
	return store.QueryFailed(op, err)
}
