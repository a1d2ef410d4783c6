// Package store defines the point store that the query engine reads from.
//
// The engine never talks to a database directly. It opens a Snapshot, asks
// it for points matching a Filter and for per-group member counts, and
// closes it. Backends live in subpackages:
//
//   - store/sqlite: SQLite file or :memory: database (mattn/go-sqlite3)
//   - store/postgres: PostgreSQL through a pgx connection pool
//   - store/memory: go-memdb radix trees, no persistence
//
// # Tables
//
// SQL backends share one logical schema:
//
//	inspection_group  (id)                                   -- group registry
//	inspection_region (id, coord_x, coord_y, category, group_id)
//
// A group may be registered without any points. Such a group has a total
// count of zero and is therefore proper for every valid region.
//
// # Snapshots
//
// Every query execution runs against a single read-consistent Snapshot: a
// read transaction on SQL backends, a read txn on memdb. Concurrent writes
// during a query are out of contract; the snapshot makes them invisible
// rather than detecting them.
//
// # Errors
//
// Backends wrap failures in *Error with Kind set to ErrUnavailable (cannot
// reach the store or open a snapshot) or ErrQueryFailed (a retrieval
// failed). Match with errors.Is.
package store
