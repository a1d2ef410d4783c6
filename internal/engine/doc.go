// Package engine evaluates query trees against a point store.
//
// ARCHITECTURE:
//
// One Execute call is one evaluation:
//  1. Open a store snapshot (one read transaction).
//  2. Walk the tree depth-first. Crop leaves become store.Filter
//     retrievals; And intersects child results; Or unions them.
//  3. Close the snapshot and return the ordered point set.
//
// The proper-group set is resolved lazily from the snapshot's group counts
// against the document's valid region: at most once per evaluation, and
// only if some crop sets proper. Every crop of the evaluation sees the same
// set. It is never cached across evaluations.
//
// CRITICAL PATTERNS:
//
// Determinism:
// Results are sets of distinct coordinates ordered by (Y, X). Retrieval
// order, child order, and backend choice never change the output.
//
// Short circuits:
//   - And with no children is empty; no retrieval happens.
//   - And stops evaluating children once the running intersection is empty.
//   - A proper crop with an empty proper set returns empty without
//     retrieving points.
//
// Failure:
// Any store failure aborts the whole evaluation with an *EvalError. There
// are no partial results. Context cancellation is checked at every node.
package engine
