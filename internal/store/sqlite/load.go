package sqlite

import (
	"context"
	"fmt"

	"github.com/roach88/cropq/internal/store"
)

// ReplaceAll deletes every point and group and inserts ds, in one
// transaction. On any failure the previous contents are kept.
func (s *Store) ReplaceAll(ctx context.Context, ds store.Dataset) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return store.Unavailable("begin load", err)
	}
	defer tx.Rollback()

	// Points reference groups, so points go first.
	for _, stmt := range []string{
		`DELETE FROM inspection_region`,
		`DELETE FROM inspection_group`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return store.QueryFailed("clear tables", err)
		}
	}

	groupStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO inspection_group (id) VALUES (?) ON CONFLICT DO NOTHING`)
	if err != nil {
		return store.QueryFailed("prepare group insert", err)
	}
	defer groupStmt.Close()

	for _, id := range ds.GroupIDs() {
		if _, err := groupStmt.ExecContext(ctx, id); err != nil {
			return store.QueryFailed(fmt.Sprintf("insert group %d", id), err)
		}
	}

	pointStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO inspection_region (id, coord_x, coord_y, category, group_id) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return store.QueryFailed("prepare point insert", err)
	}
	defer pointStmt.Close()

	for _, p := range ds.Points {
		if _, err := pointStmt.ExecContext(ctx, p.ID, p.X, p.Y, p.Category, p.GroupID); err != nil {
			return store.QueryFailed(fmt.Sprintf("insert point %d", p.ID), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return store.QueryFailed("commit load", err)
	}
	return nil
}
