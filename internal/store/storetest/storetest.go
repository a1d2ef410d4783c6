// Package storetest is a conformance suite run against every point store
// backend.
package storetest

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cropq/internal/geom"
	"github.com/roach88/cropq/internal/store"
)

// Tester creates an empty backend for a single test. The suite closes it.
type Tester func(t *testing.T) store.Backend

// Fixture is the dataset most suite cases load.
//
//	id  (x, y)  category  group
//	0   (1, 1)  1         10
//	1   (2, 2)  2         10
//	2   (8, 8)  1         20
//	3   (3, 1)  1         20
//	4   (4, 4)  2         30
//
// Group 40 is registered with no points.
func Fixture() store.Dataset {
	return store.Dataset{
		Points: []store.Record{
			{ID: 0, X: 1, Y: 1, Category: 1, GroupID: 10},
			{ID: 1, X: 2, Y: 2, Category: 2, GroupID: 10},
			{ID: 2, X: 8, Y: 8, Category: 1, GroupID: 20},
			{ID: 3, X: 3, Y: 1, Category: 1, GroupID: 20},
			{ID: 4, X: 4, Y: 4, Category: 2, GroupID: 30},
		},
		Groups: []int64{40},
	}
}

// All runs every conformance case.
func All(t *testing.T, tester Tester) {
	t.Run("EmptyStore", func(t *testing.T) { EmptyStoreTest(t, tester) })
	t.Run("QueryPointsOrdering", func(t *testing.T) { QueryPointsOrderingTest(t, tester) })
	t.Run("QueryPointsFilters", func(t *testing.T) { QueryPointsFiltersTest(t, tester) })
	t.Run("GroupCounts", func(t *testing.T) { GroupCountsTest(t, tester) })
	t.Run("ReplaceAll", func(t *testing.T) { ReplaceAllTest(t, tester) })
}

func open(t *testing.T, tester Tester, ds *store.Dataset) (store.Backend, store.Snapshot) {
	t.Helper()
	ctx := context.Background()

	b := tester(t)
	t.Cleanup(func() { b.Close() })

	if ds != nil {
		require.NoError(t, b.ReplaceAll(ctx, *ds))
	}

	snap, err := b.Snapshot(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { snap.Close() })
	return b, snap
}

func ids(records []store.Record) []int64 {
	out := make([]int64, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func intPtr(v int) *int { return &v }

func regionPtr(r geom.Region) *geom.Region { return &r }

// EmptyStoreTest checks that an empty store answers with empty, non-nil
// results.
func EmptyStoreTest(t *testing.T, tester Tester) {
	ctx := context.Background()
	_, snap := open(t, tester, nil)

	records, err := snap.QueryPoints(ctx, store.Filter{Region: geom.NewRegion(-100, -100, 100, 100)})
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)

	counts, err := snap.GroupCounts(ctx, geom.NewRegion(0, 0, 1, 1))
	require.NoError(t, err)
	assert.NotNil(t, counts)
	assert.Empty(t, counts)
}

// QueryPointsOrderingTest checks region inclusion and (y, x, id) ordering.
func QueryPointsOrderingTest(t *testing.T, tester Tester) {
	ctx := context.Background()
	ds := Fixture()
	_, snap := open(t, tester, &ds)

	records, err := snap.QueryPoints(ctx, store.Filter{Region: geom.NewRegion(0, 0, 5, 5)})
	require.NoError(t, err)

	want := []store.Record{
		{ID: 0, X: 1, Y: 1, Category: 1, GroupID: 10},
		{ID: 3, X: 3, Y: 1, Category: 1, GroupID: 20},
		{ID: 1, X: 2, Y: 2, Category: 2, GroupID: 10},
		{ID: 4, X: 4, Y: 4, Category: 2, GroupID: 30},
	}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Errorf("QueryPoints() mismatch (-want +got):\n%s", diff)
	}
}

// QueryPointsFiltersTest checks each filter conjunct against Filter.Matches.
// Proper conjuncts are judged against the snapshot's own group counts.
func QueryPointsFiltersTest(t *testing.T, tester Tester) {
	ctx := context.Background()
	ds := Fixture()
	_, snap := open(t, tester, &ds)

	all := geom.NewRegion(0, 0, 10, 10)
	tests := []struct {
		name   string
		filter store.Filter
		want   []int64
	}{
		{"boundary inclusive", store.Filter{Region: geom.NewRegion(2, 2, 8, 8)}, []int64{1, 4, 2}},
		{"single point region", store.Filter{Region: geom.NewRegion(4, 4, 4, 4)}, []int64{4}},
		{"inverted region", store.Filter{Region: geom.NewRegion(10, 10, 0, 0)}, []int64{}},
		{"category", store.Filter{Region: all, Category: intPtr(2)}, []int64{1, 4}},
		{"unknown category", store.Filter{Region: all, Category: intPtr(9)}, []int64{}},
		{"one of groups", store.Filter{Region: all, OneOfGroups: []int64{20, 30}}, []int64{3, 4, 2}},
		{"empty one of groups", store.Filter{Region: all, OneOfGroups: []int64{}}, []int64{}},
		{"proper within", store.Filter{Region: all, ProperIn: regionPtr(geom.NewRegion(0, 0, 5, 5))}, []int64{0, 1, 4}},
		{"proper within narrower", store.Filter{Region: all, ProperIn: regionPtr(geom.NewRegion(0, 0, 3, 3))}, []int64{0, 1}},
		{"only memberless group proper", store.Filter{Region: all, ProperIn: regionPtr(geom.NewRegion(5, 5, 0, 0))}, []int64{}},
		{
			"all conjuncts",
			store.Filter{Region: all, Category: intPtr(1), OneOfGroups: []int64{10, 20}, ProperIn: regionPtr(geom.NewRegion(2, 0, 10, 10))},
			[]int64{3, 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := snap.QueryPoints(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(records))

			var proper []int64
			if tt.filter.ProperIn != nil {
				counts, err := snap.GroupCounts(ctx, *tt.filter.ProperIn)
				require.NoError(t, err)
				proper = store.ProperGroupIDs(counts)
			}
			for _, r := range records {
				assert.True(t, tt.filter.Matches(r, proper), "record %d does not match filter", r.ID)
			}
		})
	}
}

// GroupCountsTest checks total and inside counts, including a group
// without points.
func GroupCountsTest(t *testing.T, tester Tester) {
	ctx := context.Background()
	ds := Fixture()
	_, snap := open(t, tester, &ds)

	counts, err := snap.GroupCounts(ctx, geom.NewRegion(0, 0, 5, 5))
	require.NoError(t, err)

	want := []store.GroupCount{
		{GroupID: 10, Total: 2, Inside: 2},
		{GroupID: 20, Total: 2, Inside: 1},
		{GroupID: 30, Total: 1, Inside: 1},
		{GroupID: 40, Total: 0, Inside: 0},
	}
	if diff := cmp.Diff(want, counts); diff != "" {
		t.Errorf("GroupCounts() mismatch (-want +got):\n%s", diff)
	}

	counts, err = snap.GroupCounts(ctx, geom.NewRegion(5, 5, 0, 0))
	require.NoError(t, err)
	for _, c := range counts {
		assert.Zero(t, c.Inside, "group %d inside an inverted region", c.GroupID)
	}
}

// ReplaceAllTest checks that a load replaces rather than appends.
func ReplaceAllTest(t *testing.T, tester Tester) {
	ctx := context.Background()
	ds := Fixture()
	b, snap := open(t, tester, &ds)
	require.NoError(t, snap.Close())

	next := store.Dataset{
		Points: []store.Record{{ID: 0, X: 0.5, Y: 0.5, Category: 7, GroupID: 99}},
	}
	require.NoError(t, b.ReplaceAll(ctx, next))

	snap2, err := b.Snapshot(ctx)
	require.NoError(t, err)
	defer snap2.Close()

	records, err := snap2.QueryPoints(ctx, store.Filter{Region: geom.NewRegion(0, 0, 10, 10)})
	require.NoError(t, err)
	assert.Equal(t, next.Points, records)

	counts, err := snap2.GroupCounts(ctx, geom.NewRegion(0, 0, 10, 10))
	require.NoError(t, err)
	assert.Equal(t, []store.GroupCount{{GroupID: 99, Total: 1, Inside: 1}}, counts)
}
