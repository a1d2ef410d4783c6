package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cropq/internal/geom"
)

func intPtr(v int) *int { return &v }

func regionPtr(r geom.Region) *geom.Region { return &r }

func TestFilterMatches(t *testing.T) {
	rec := Record{ID: 1, X: 2, Y: 3, Category: 4, GroupID: 7}
	region := geom.NewRegion(0, 0, 5, 5)

	tests := []struct {
		name   string
		filter Filter
		proper []int64
		want   bool
	}{
		{"region only", Filter{Region: region}, nil, true},
		{"outside region", Filter{Region: geom.NewRegion(3, 3, 5, 5)}, nil, false},
		{"boundary inclusive", Filter{Region: geom.NewRegion(2, 3, 2, 3)}, nil, true},
		{"category match", Filter{Region: region, Category: intPtr(4)}, nil, true},
		{"category mismatch", Filter{Region: region, Category: intPtr(5)}, nil, false},
		{"one of groups hit", Filter{Region: region, OneOfGroups: []int64{1, 7}}, nil, true},
		{"one of groups miss", Filter{Region: region, OneOfGroups: []int64{1, 2}}, nil, false},
		{"empty one of groups", Filter{Region: region, OneOfGroups: []int64{}}, nil, false},
		{"proper hit", Filter{Region: region, ProperIn: regionPtr(region)}, []int64{7}, true},
		{"proper miss", Filter{Region: region, ProperIn: regionPtr(region)}, []int64{8}, false},
		{"no proper groups", Filter{Region: region, ProperIn: regionPtr(region)}, []int64{}, false},
		{"proper list ignored when unset", Filter{Region: region}, []int64{}, true},
		{"both group conjuncts", Filter{Region: region, OneOfGroups: []int64{7}, ProperIn: regionPtr(region)}, []int64{8}, false},
		{"inverted region", Filter{Region: geom.NewRegion(5, 5, 0, 0)}, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(rec, tt.proper))
		})
	}
}

func TestProperGroupIDs(t *testing.T) {
	counts := []GroupCount{
		{GroupID: 1, Total: 2, Inside: 2},
		{GroupID: 2, Total: 2, Inside: 1},
		{GroupID: 3, Total: 0, Inside: 0},
	}
	assert.Equal(t, []int64{1, 3}, ProperGroupIDs(counts))

	none := ProperGroupIDs([]GroupCount{{GroupID: 1, Total: 1}})
	require.NotNil(t, none)
	assert.Empty(t, none)
}

func TestSortRecords(t *testing.T) {
	records := []Record{
		{ID: 3, X: 1, Y: 2},
		{ID: 2, X: 5, Y: 1},
		{ID: 1, X: 1, Y: 2},
		{ID: 4, X: 0, Y: 2},
	}
	SortRecords(records)

	var ids []int64
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []int64{2, 4, 1, 3}, ids)
}

func TestDatasetGroupIDs(t *testing.T) {
	ds := Dataset{
		Points: []Record{{GroupID: 5}, {GroupID: 2}, {GroupID: 5}},
		Groups: []int64{9, 2},
	}
	assert.Equal(t, []int64{2, 5, 9}, ds.GroupIDs())
	assert.Equal(t, []int64{}, Dataset{}.GroupIDs())
}

func TestGroupCountProper(t *testing.T) {
	assert.True(t, GroupCount{Total: 3, Inside: 3}.Proper())
	assert.False(t, GroupCount{Total: 3, Inside: 2}.Proper())
	assert.True(t, GroupCount{Total: 0, Inside: 0}.Proper(), "empty group is proper")
}

func TestErrorKinds(t *testing.T) {
	driver := errors.New("disk I/O error")

	err := fmt.Errorf("wrapped: %w", QueryFailed("query points", driver))
	assert.True(t, IsQueryFailed(err))
	assert.False(t, IsUnavailable(err))
	assert.ErrorIs(t, err, driver)
	assert.Contains(t, err.Error(), "query points")

	var se *Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "query points", se.Op)

	err = Unavailable("open snapshot", nil)
	assert.True(t, IsUnavailable(err))
	assert.Equal(t, "open snapshot: point store unavailable", err.Error())
}
