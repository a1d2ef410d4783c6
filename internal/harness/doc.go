// Package harness runs query conformance scenarios.
//
// # Scenario Format
//
// Scenarios are YAML files carrying their own dataset and query:
//
//	name: overlap_and
//	description: "AND of two boxes keeps only the overlap"
//	backend: memory            # memory (default) or sqlite
//	strict: false              # reject documents with validation warnings
//	dataset:
//	  points:
//	    - {x: 3, y: 3, category: 1, group: 1}
//	  empty_groups: [9]        # registered groups without points
//	query:                     # a query document, same shape as a query file
//	  valid_region: {p_min: {x: 0, y: 0}, p_max: {x: 10, y: 10}}
//	  query:
//	    operator_crop:
//	      region: {p_min: {x: 0, y: 0}, p_max: {x: 5, y: 5}}
//	expect:
//	  points:                  # exact result, in (y, x) order
//	    - {x: 3, y: 3}
//	  error: ""                # or an error code such as UNKNOWN_OPERATOR
//	  warnings: []             # validation warning codes, in order
//	  point_queries: 1         # optional store access counts
//	  group_count_queries: 0
//
// Exactly one of expect.points and expect.error must be given. An empty
// list (points: []) expects an empty result.
//
// # Deterministic Testing
//
// Every scenario runs against a fresh store, with a fixed execution id and
// logs discarded, so the same scenario always produces the same Result.
// Golden comparisons use the result-file format (see package resultfile).
package harness
