package store

import (
	"context"

	"github.com/roach88/cropq/internal/geom"
)

// Record is one stored point with its attributes.
type Record struct {
	ID       int64
	X        float64
	Y        float64
	Category int
	GroupID  int64
}

// Point returns the record's coordinates.
func (r Record) Point() geom.Point {
	return geom.Point{X: r.X, Y: r.Y}
}

// GroupCount is the live membership count of one registered group.
type GroupCount struct {
	GroupID int64
	// Total is the number of points in the group.
	Total int64
	// Inside is the number of those points inside the queried region.
	Inside int64
}

// Proper reports whether every member lies inside the queried region.
// Groups without members are proper.
func (c GroupCount) Proper() bool {
	return c.Inside == c.Total
}

// Dataset is a complete replacement for a store's contents.
type Dataset struct {
	Points []Record

	// Groups registers additional group ids that may have no points.
	// Every Points[i].GroupID is registered regardless.
	Groups []int64
}

// GroupIDs returns the sorted, distinct union of Groups and every point's
// group id.
func (d Dataset) GroupIDs() []int64 {
	seen := make(map[int64]struct{}, len(d.Groups))
	ids := make([]int64, 0, len(d.Groups))
	add := func(id int64) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, id := range d.Groups {
		add(id)
	}
	for _, p := range d.Points {
		add(p.GroupID)
	}
	sortInt64s(ids)
	return ids
}

// Snapshot is a read-consistent view of the store.
//
// A Snapshot is used by one goroutine and must be closed.
type Snapshot interface {
	// QueryPoints returns the records matching f, ordered by (Y, X, ID).
	// Returns an empty slice (not nil) when nothing matches.
	QueryPoints(ctx context.Context, f Filter) ([]Record, error)

	// GroupCounts returns one entry per registered group, ordered by
	// GroupID, counting its points in total and inside region.
	GroupCounts(ctx context.Context, region geom.Region) ([]GroupCount, error)

	// Close releases the snapshot.
	Close() error
}

// PointStore is the capability the query engine consumes.
type PointStore interface {
	Snapshot(ctx context.Context) (Snapshot, error)
}

// Loader replaces a store's contents in one transaction.
type Loader interface {
	ReplaceAll(ctx context.Context, ds Dataset) error
}

// Backend is a store that can be both queried and loaded.
type Backend interface {
	PointStore
	Loader
	Close() error
}
