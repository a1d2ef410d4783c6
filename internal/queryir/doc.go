// Package queryir provides the query tree that cropq evaluates.
//
// A query is a tree of boolean set operators over crop leaves:
//
//	Node ::= Crop(CropQuery) | And(Node...) | Or(Node...)
//
// The tree is produced by package querydoc and consumed read-only by package
// engine. Nodes are never shared between parents and never mutated after
// construction.
//
// SEALED INTERFACE:
//
// Node is sealed with the marker method pattern. Only *Crop, *And and *Or
// implement it, so consumers can type switch exhaustively:
//
//	switch n := node.(type) {
//	case *Crop:
//	    // leaf predicate
//	case *And:
//	    // intersection of children
//	case *Or:
//	    // union of children
//	}
//
// A Crop never has children and an And/Or never carries a crop payload. The
// types make the invalid combinations unrepresentable.
//
// CROP SEMANTICS:
//
// A crop selects the points inside Region, and, when set, with the given
// category, in one of the listed groups, and in a proper group. "Proper" is
// always judged against the document's valid region, never the crop's own
// region.
//
// VALIDATION:
//
// Validate reports structural smells as warnings: inputs that are legal and
// evaluate deterministically, but almost certainly are not what the author
// meant (inverted boxes, empty AND). Warnings never change evaluation.
package queryir
