// Package sqlite implements the point store on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/cropq/internal/geom"
	"github.com/roach88/cropq/internal/querysql"
	"github.com/roach88/cropq/internal/store"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Tables only, as created by older loaders
// 1 - Added group and (coord_y, coord_x) indexes on inspection_region
const currentSchemaVersion = 1

// Store is a point store backed by a SQLite database.
type Store struct {
	db       *sql.DB
	compiler *querysql.Compiler
}

var (
	_ store.Backend = (*Store)(nil)
	_ store.Snapshot = (*snapshot)(nil)
)

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and migrations automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//
// Failures are reported as store.ErrUnavailable.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, store.Unavailable("open sqlite database", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, store.Unavailable("connect sqlite database", err)
	}

	// SQLite only supports one writer at a time. A single connection also
	// keeps ":memory:" databases alive for the lifetime of the Store.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, store.Unavailable("apply pragmas", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, store.Unavailable("apply schema", err)
	}

	return &Store{db: db, compiler: querysql.SQLite()}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Snapshot opens a read transaction. All reads through the returned
// snapshot see the same database state.
func (s *Store) Snapshot(ctx context.Context) (store.Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, store.Unavailable("open snapshot", err)
	}
	return &snapshot{tx: tx, compiler: s.compiler}, nil
}

type snapshot struct {
	tx       *sql.Tx
	compiler *querysql.Compiler
}

func (s *snapshot) QueryPoints(ctx context.Context, f store.Filter) ([]store.Record, error) {
	query, args, err := s.compiler.CompilePoints(f)
	if err != nil {
		return nil, store.QueryFailed("query points", err)
	}

	rows, err := s.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, store.QueryFailed("query points", err)
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
		return nil, store.QueryFailed("iterate points", err)
	}
	return records, nil
}

func (s *snapshot) GroupCounts(ctx context.Context, region geom.Region) ([]store.GroupCount, error) {
	query, args, err := s.compiler.CompileGroupCounts(region)
	if err != nil {
		return nil, store.QueryFailed("count groups", err)
	}

	rows, err := s.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, store.QueryFailed("count groups", err)
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
		return nil, store.QueryFailed("iterate group counts", err)
	}
	return counts, nil
}

// Close ends the read transaction. Nothing was written, so it rolls back.
func (s *snapshot) Close() error {
	if err := s.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
// This function is idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// migrateToV1 adds the lookup indexes used by point and group-count queries.
func migrateToV1(db *sql.DB) error {
	stmts := []string{
		`CREATE INDEX IF NOT EXISTS idx_region_group ON inspection_region(group_id)`,
		`CREATE INDEX IF NOT EXISTS idx_region_yx ON inspection_region(coord_y, coord_x)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate to v1: %w", err)
		}
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
