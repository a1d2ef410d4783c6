package store

import (
	"slices"

	"github.com/roach88/cropq/internal/geom"
)

// Filter is the conjunctive predicate pushed down to a store.
//
// A record matches when it lies in Region AND every set conjunct holds:
//
//	category == *Category             (Category != nil)
//	group_id IN OneOfGroups           (OneOfGroups != nil)
//	group_id proper within ProperIn   (ProperIn != nil)
//
// For OneOfGroups nil means "no constraint" and a non-nil empty slice means
// "no group qualifies". A group is proper within a region when every one of
// its members lies inside it; stores judge properness against their own
// snapshot so the filter size does not grow with the number of groups.
type Filter struct {
	Region      geom.Region
	Category    *int
	OneOfGroups []int64
	ProperIn    *geom.Region
}

// Matches evaluates the filter against one record. It is the reference
// semantics that SQL compilation must agree with. proper lists the groups
// proper within ProperIn and is ignored when ProperIn is nil.
func (f Filter) Matches(r Record, proper []int64) bool {
	if !f.Region.ContainsPoint(r.Point()) {
		return false
	}
	if f.Category != nil && r.Category != *f.Category {
		return false
	}
	if f.OneOfGroups != nil && !slices.Contains(f.OneOfGroups, r.GroupID) {
		return false
	}
	if f.ProperIn != nil && !slices.Contains(proper, r.GroupID) {
		return false
	}
	return true
}

// ProperGroupIDs returns the ids of the proper groups in counts, in the
// order given. The result is non-nil.
func ProperGroupIDs(counts []GroupCount) []int64 {
	ids := make([]int64, 0, len(counts))
	for _, c := range counts {
		if c.Proper() {
			ids = append(ids, c.GroupID)
		}
	}
	return ids
}

// SortRecords orders records by (Y, X, ID), the order QueryPoints returns.
func SortRecords(records []Record) {
	slices.SortFunc(records, func(a, b Record) int {
		if c := geom.Compare(a.Point(), b.Point()); c != 0 {
			return c
		}
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		default:
			return 0
		}
	})
}

func sortInt64s(ids []int64) {
	slices.Sort(ids)
}
