// Package geom provides the 2D value types shared by every layer of cropq:
// points, axis-aligned regions, and an ordered, deduplicating point set.
//
// Point identity is by coordinate value only. Two records with the same
// (x, y) are the same Point, regardless of category or group. All ordered
// output uses Compare: Y ascending, then X ascending.
package geom

import (
	"fmt"
	"strconv"
)

// Point is a coordinate pair.
type Point struct {
	X float64
	Y float64
}

// String renders the point with fixed six-digit precision.
func (p Point) String() string {
	return strconv.FormatFloat(p.X, 'f', 6, 64) + " " + strconv.FormatFloat(p.Y, 'f', 6, 64)
}

// Compare orders points by Y, then X.
// Returns -1, 0 or +1.
func Compare(a, b Point) int {
	switch {
	case a.Y < b.Y:
		return -1
	case a.Y > b.Y:
		return 1
	case a.X < b.X:
		return -1
	case a.X > b.X:
		return 1
	default:
		return 0
	}
}

// Region is an axis-aligned bounding box. All bounds are inclusive.
//
// A Region with MinX > MaxX or MinY > MaxY is inverted. Inverted regions are
// kept as-is (never normalized) and contain no points.
type Region struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// NewRegion builds a region from its two corners.
func NewRegion(minX, minY, maxX, maxY float64) Region {
	return Region{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}
}

// Contains reports whether (x, y) lies inside r, bounds included.
func (r Region) Contains(x, y float64) bool {
	return x >= r.MinX && x <= r.MaxX && y >= r.MinY && y <= r.MaxY
}

// ContainsPoint is Contains for a Point.
func (r Region) ContainsPoint(p Point) bool {
	return r.Contains(p.X, p.Y)
}

// Inverted reports whether min > max on either axis.
func (r Region) Inverted() bool {
	return r.MinX > r.MaxX || r.MinY > r.MaxY
}

// Intersects reports whether r and o share at least one point.
// Touching edges count as intersecting since bounds are inclusive.
func (r Region) Intersects(o Region) bool {
	if r.Inverted() || o.Inverted() {
		return false
	}
	return r.MinX <= o.MaxX && o.MinX <= r.MaxX &&
		r.MinY <= o.MaxY && o.MinY <= r.MaxY
}

func (r Region) String() string {
	return fmt.Sprintf("(%g,%g)-(%g,%g)", r.MinX, r.MinY, r.MaxX, r.MaxY)
}
