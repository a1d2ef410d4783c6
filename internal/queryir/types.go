package queryir

import (
	"fmt"
	"strings"

	"github.com/roach88/cropq/internal/geom"
)

// Node is one node of a query tree.
//
// This is a sealed interface - only types in this package implement it.
// Node kinds:
//   - Crop: leaf predicate over the point store
//   - And: intersection of child results (no children = empty result)
//   - Or: union of child results (no children = empty result)
type Node interface {
	queryNode() // Marker method - seals interface to this package
	fmt.Stringer
}

// CropQuery is the payload of a crop leaf.
//
// Semantics (all conjuncts ANDed):
//
//	Region.Contains(x, y)
//	AND category == *Category       (if Category != nil)
//	AND group_id IN OneOfGroups     (if OneOfGroups != nil)
//	AND group_id IN proper groups   (if Proper)
//
// OneOfGroups distinguishes unset (nil) from set-but-empty (non-nil, length
// zero). An empty list matches no points.
type CropQuery struct {
	Region      geom.Region
	Category    *int
	OneOfGroups []int64
	Proper      bool
}

// HasGroupFilter reports whether the one_of_groups conjunct applies.
func (q CropQuery) HasGroupFilter() bool {
	return q.OneOfGroups != nil
}

// Crop is a leaf node holding exactly one CropQuery.
type Crop struct {
	Query CropQuery
}

func (*Crop) queryNode() {}

func (c *Crop) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "crop%s", c.Query.Region)
	if c.Query.Category != nil {
		fmt.Fprintf(&b, " category=%d", *c.Query.Category)
	}
	if c.Query.HasGroupFilter() {
		fmt.Fprintf(&b, " groups=%v", c.Query.OneOfGroups)
	}
	if c.Query.Proper {
		b.WriteString(" proper")
	}
	return b.String()
}

// And intersects the results of its children.
//
// Empty Children evaluates to the empty set (annihilator, not universe).
type And struct {
	Children []Node
}

func (*And) queryNode() {}

func (a *And) String() string {
	return "and(" + joinNodes(a.Children) + ")"
}

// Or unions the results of its children.
type Or struct {
	Children []Node
}

func (*Or) queryNode() {}

func (o *Or) String() string {
	return "or(" + joinNodes(o.Children) + ")"
}

func joinNodes(nodes []Node) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n.String()
	}
	return strings.Join(parts, ", ")
}

// NewCrop wraps a CropQuery in a leaf node.
func NewCrop(q CropQuery) *Crop {
	return &Crop{Query: q}
}

// NewAnd builds an And node over children.
func NewAnd(children ...Node) *And {
	return &And{Children: children}
}

// NewOr builds an Or node over children.
func NewOr(children ...Node) *Or {
	return &Or{Children: children}
}

// Document is a parsed query document: the analysis universe plus the tree.
type Document struct {
	// ValidRegion defines which groups are proper. It is distinct from every
	// crop's own region.
	ValidRegion geom.Region

	// Query is the root of the tree. Never nil for a parsed document.
	Query Node
}

// Walk visits n and all its descendants depth-first, parents before
// children. path is the node's location using the document's key names,
// e.g. "query.operator_and[1]".
func Walk(n Node, path string, visit func(n Node, path string)) {
	visit(n, path)
	switch node := n.(type) {
	case *And:
		for i, child := range node.Children {
			Walk(child, fmt.Sprintf("%s.operator_and[%d]", path, i), visit)
		}
	case *Or:
		for i, child := range node.Children {
			Walk(child, fmt.Sprintf("%s.operator_or[%d]", path, i), visit)
		}
	}
}

// CountCrops returns the number of crop leaves under n.
func CountCrops(n Node) int {
	count := 0
	Walk(n, "", func(n Node, _ string) {
		if _, ok := n.(*Crop); ok {
			count++
		}
	})
	return count
}
