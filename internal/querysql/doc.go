// Package querysql compiles point store filters to parameterized SQL.
//
// Both SQL backends share the same two statements:
//
//   - Points: select records matching a store.Filter.
//   - GroupCounts: per registered group, total members and members
//     inside a region, in one LEFT JOIN aggregate.
//
// CRITICAL PATTERNS:
//
//   - Every statement carries ORDER BY with a unique tiebreaker so that
//     results are deterministic across backends.
//   - All values are bound as placeholders, never interpolated.
//   - An empty group list compiles to a false predicate, so "no group
//     qualifies" never widens into "any group".
//
// Statements are built with Masterminds/squirrel. The placeholder format
// is the only dialect difference: '?' for SQLite, '$n' for PostgreSQL.
package querysql
