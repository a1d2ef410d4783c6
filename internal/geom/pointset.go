package geom

import (
	"github.com/emirpasic/gods/sets/treeset"
)

// PointSet is an ordered set of points.
//
// Iteration order is always Compare order (Y, then X). Adding a point that
// is already present is a no-op, which is how duplicate coordinates from
// different source records collapse into one entry.
//
// The zero value is not usable; construct with NewPointSet.
type PointSet struct {
	tree *treeset.Set
}

func pointComparator(a, b interface{}) int {
	return Compare(a.(Point), b.(Point))
}

// NewPointSet returns a set holding the given points.
func NewPointSet(points ...Point) *PointSet {
	s := &PointSet{tree: treeset.NewWith(pointComparator)}
	s.Add(points...)
	return s
}

// Add inserts points into the set.
func (s *PointSet) Add(points ...Point) {
	for _, p := range points {
		s.tree.Add(p)
	}
}

// Contains reports whether p is in the set.
func (s *PointSet) Contains(p Point) bool {
	return s.tree.Contains(p)
}

// Len returns the number of distinct points.
func (s *PointSet) Len() int {
	return s.tree.Size()
}

// Empty reports whether the set has no points.
func (s *PointSet) Empty() bool {
	return s.tree.Empty()
}

// Points returns the members in (Y, X) ascending order.
// Returns an empty slice (not nil) for an empty set.
func (s *PointSet) Points() []Point {
	out := make([]Point, 0, s.tree.Size())
	it := s.tree.Iterator()
	for it.Next() {
		out = append(out, it.Value().(Point))
	}
	return out
}

// Intersect returns a new set with the points present in both s and o.
// Neither input is modified.
func (s *PointSet) Intersect(o *PointSet) *PointSet {
	small, large := s, o
	if large.Len() < small.Len() {
		small, large = large, small
	}
	out := NewPointSet()
	it := small.tree.Iterator()
	for it.Next() {
		if large.tree.Contains(it.Value()) {
			out.tree.Add(it.Value())
		}
	}
	return out
}

// Merge adds every point of o into s in place.
func (s *PointSet) Merge(o *PointSet) {
	s.tree.Add(o.tree.Values()...)
}

// Equal reports whether s and o hold exactly the same points.
func (s *PointSet) Equal(o *PointSet) bool {
	if s.Len() != o.Len() {
		return false
	}
	a, b := s.tree.Iterator(), o.tree.Iterator()
	for a.Next() && b.Next() {
		if Compare(a.Value().(Point), b.Value().(Point)) != 0 {
			return false
		}
	}
	return true
}
