// Package memory implements the point store on go-memdb.
//
// Nothing is persisted. Snapshots are memdb read transactions, so a load
// that commits while a snapshot is open is invisible to it. The test
// harness and `cropq test` run scenarios against this backend.
package memory

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/hashicorp/go-memdb"

	"github.com/roach88/cropq/internal/geom"
	"github.com/roach88/cropq/internal/store"
)

var errSnapshotClosed = errors.New("snapshot closed")

// Store is an in-memory point store.
type Store struct {
	db *memdb.MemDB
}

var (
	_ store.Backend  = (*Store)(nil)
	_ store.Snapshot = (*snapshot)(nil)
)

// New returns an empty store.
func New() (*Store, error) {
	db, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, store.Unavailable("create memdb", err)
	}
	return &Store{db: db}, nil
}

// Close is a no-op; it exists to satisfy store.Backend.
func (s *Store) Close() error {
	return nil
}

// Snapshot opens a read transaction.
func (s *Store) Snapshot(ctx context.Context) (store.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, store.Unavailable("open snapshot", err)
	}
	return &snapshot{txn: s.db.Txn(false)}, nil
}

// ReplaceAll swaps the store contents for ds in one write transaction.
func (s *Store) ReplaceAll(ctx context.Context, ds store.Dataset) error {
	if err := ctx.Err(); err != nil {
		return store.Unavailable("begin load", err)
	}

	txn := s.db.Txn(true)
	defer txn.Abort()

	if _, err := txn.DeleteAll(tablePoint, indexID); err != nil {
		return store.QueryFailed("clear points", err)
	}
	if _, err := txn.DeleteAll(tableGroup, indexID); err != nil {
		return store.QueryFailed("clear groups", err)
	}

	for _, id := range ds.GroupIDs() {
		if err := txn.Insert(tableGroup, &groupRow{id: id}); err != nil {
			return store.QueryFailed(fmt.Sprintf("insert group %d", id), err)
		}
	}

	for _, p := range ds.Points {
		existing, err := txn.First(tablePoint, indexID, p.ID)
		if err != nil {
			return store.QueryFailed(fmt.Sprintf("insert point %d", p.ID), err)
		}
		if existing != nil {
			return store.QueryFailed(fmt.Sprintf("insert point %d", p.ID),
				fmt.Errorf("duplicate point id %d", p.ID))
		}

		row := &pointRow{id: p.ID, x: p.X, y: p.Y, category: p.Category, groupID: p.GroupID}
		if err := txn.Insert(tablePoint, row); err != nil {
			return store.QueryFailed(fmt.Sprintf("insert point %d", p.ID), err)
		}
	}

	txn.Commit()
	return nil
}

type snapshot struct {
	txn    *memdb.Txn
	closed bool
}

func (s *snapshot) QueryPoints(ctx context.Context, f store.Filter) ([]store.Record, error) {
	if s.closed {
		return nil, store.QueryFailed("query points", errSnapshotClosed)
	}
	if err := ctx.Err(); err != nil {
		return nil, store.QueryFailed("query points", err)
	}

	var proper []int64
	if f.ProperIn != nil {
		counts, err := s.GroupCounts(ctx, *f.ProperIn)
		if err != nil {
			return nil, err
		}
		proper = store.ProperGroupIDs(counts)
	}

	records := []store.Record{}
	collect := func(it memdb.ResultIterator) {
		for raw := it.Next(); raw != nil; raw = it.Next() {
			r := raw.(*pointRow).record()
			if f.Matches(r, proper) {
				records = append(records, r)
			}
		}
	}

	switch groups := smallestGroupSet(f, proper); {
	case groups != nil:
		for _, gid := range groups {
			it, err := s.txn.Get(tablePoint, indexGroup, gid)
			if err != nil {
				return nil, store.QueryFailed("query points", err)
			}
			collect(it)
		}
	case f.Category != nil:
		it, err := s.txn.Get(tablePoint, indexCategory, *f.Category)
		if err != nil {
			return nil, store.QueryFailed("query points", err)
		}
		collect(it)
	default:
		it, err := s.txn.Get(tablePoint, indexID)
		if err != nil {
			return nil, store.QueryFailed("query points", err)
		}
		collect(it)
	}

	store.SortRecords(records)
	return records, nil
}

func (s *snapshot) GroupCounts(ctx context.Context, region geom.Region) ([]store.GroupCount, error) {
	if s.closed {
		return nil, store.QueryFailed("count groups", errSnapshotClosed)
	}
	if err := ctx.Err(); err != nil {
		return nil, store.QueryFailed("count groups", err)
	}

	groups, err := s.txn.Get(tableGroup, indexID)
	if err != nil {
		return nil, store.QueryFailed("count groups", err)
	}

	counts := []store.GroupCount{}
	for raw := groups.Next(); raw != nil; raw = groups.Next() {
		gid := raw.(*groupRow).id

		members, err := s.txn.Get(tablePoint, indexGroup, gid)
		if err != nil {
			return nil, store.QueryFailed("count groups", err)
		}

		c := store.GroupCount{GroupID: gid}
		for m := members.Next(); m != nil; m = members.Next() {
			p := m.(*pointRow)
			c.Total++
			if region.Contains(p.x, p.y) {
				c.Inside++
			}
		}
		counts = append(counts, c)
	}

	// The varint-keyed id index does not iterate in numeric order.
	slices.SortFunc(counts, func(a, b store.GroupCount) int {
		switch {
		case a.GroupID < b.GroupID:
			return -1
		case a.GroupID > b.GroupID:
			return 1
		default:
			return 0
		}
	})
	return counts, nil
}

func (s *snapshot) Close() error {
	s.closed = true
	s.txn.Abort()
	return nil
}

func (p *pointRow) record() store.Record {
	return store.Record{ID: p.id, X: p.x, Y: p.y, Category: p.category, GroupID: p.groupID}
}

// smallestGroupSet picks the set group conjunct with fewer ids, deduped,
// or nil when no group conjunct is set. proper is the resolved proper set,
// consulted only when f.ProperIn is set.
func smallestGroupSet(f store.Filter, proper []int64) []int64 {
	var sets [][]int64
	if f.OneOfGroups != nil {
		sets = append(sets, f.OneOfGroups)
	}
	if f.ProperIn != nil {
		sets = append(sets, proper)
	}

	var best []int64
	for _, set := range sets {
		if best == nil || len(set) < len(best) {
			best = set
		}
	}
	if best == nil {
		return nil
	}
	out := slices.Clone(best)
	slices.Sort(out)
	return slices.Compact(out)
}
