package testutil

import (
	"context"
	"sync"

	"github.com/roach88/cropq/internal/geom"
	"github.com/roach88/cropq/internal/store"
)

// CountingStore wraps a point store and counts calls made through its
// snapshots.
//
// Thread-safety: counters are safe for concurrent use.
type CountingStore struct {
	inner store.PointStore

	mu          sync.Mutex
	snapshots   int
	pointCalls  int
	groupCalls  int
	filters     []store.Filter
	openedSnaps int
}

// NewCountingStore wraps inner.
func NewCountingStore(inner store.PointStore) *CountingStore {
	return &CountingStore{inner: inner}
}

// Snapshot opens a counting snapshot on the wrapped store.
func (c *CountingStore) Snapshot(ctx context.Context) (store.Snapshot, error) {
	snap, err := c.inner.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.snapshots++
	c.openedSnaps++
	c.mu.Unlock()
	return &countingSnapshot{inner: snap, parent: c}, nil
}

// Snapshots returns the number of snapshots opened.
func (c *CountingStore) Snapshots() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshots
}

// OpenSnapshots returns the number of snapshots opened but not closed.
func (c *CountingStore) OpenSnapshots() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.openedSnaps
}

// PointQueries returns the number of QueryPoints calls.
func (c *CountingStore) PointQueries() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pointCalls
}

// GroupCountQueries returns the number of GroupCounts calls.
func (c *CountingStore) GroupCountQueries() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.groupCalls
}

// Filters returns every filter passed to QueryPoints, in call order.
func (c *CountingStore) Filters() []store.Filter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]store.Filter(nil), c.filters...)
}

type countingSnapshot struct {
	inner  store.Snapshot
	parent *CountingStore
}

func (s *countingSnapshot) QueryPoints(ctx context.Context, f store.Filter) ([]store.Record, error) {
	s.parent.mu.Lock()
	s.parent.pointCalls++
	s.parent.filters = append(s.parent.filters, f)
	s.parent.mu.Unlock()
	return s.inner.QueryPoints(ctx, f)
}

func (s *countingSnapshot) GroupCounts(ctx context.Context, region geom.Region) ([]store.GroupCount, error) {
	s.parent.mu.Lock()
	s.parent.groupCalls++
	s.parent.mu.Unlock()
	return s.inner.GroupCounts(ctx, region)
}

func (s *countingSnapshot) Close() error {
	s.parent.mu.Lock()
	s.parent.openedSnaps--
	s.parent.mu.Unlock()
	return s.inner.Close()
}

// FailingStore is a point store whose operations fail.
//
// SnapshotErr, if set, is returned by Snapshot. Otherwise snapshots are
// returned whose QueryPoints and GroupCounts fail with QueryErr.
type FailingStore struct {
	SnapshotErr error
	QueryErr    error
}

// Snapshot implements store.PointStore.
func (f *FailingStore) Snapshot(context.Context) (store.Snapshot, error) {
	if f.SnapshotErr != nil {
		return nil, f.SnapshotErr
	}
	return &failingSnapshot{err: f.QueryErr}, nil
}

type failingSnapshot struct {
	err error
}

func (s *failingSnapshot) QueryPoints(context.Context, store.Filter) ([]store.Record, error) {
	return nil, s.err
}

func (s *failingSnapshot) GroupCounts(context.Context, geom.Region) ([]store.GroupCount, error) {
	return nil, s.err
}

func (s *failingSnapshot) Close() error { return nil }
