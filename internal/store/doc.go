// Package store provides the SQLite-backed layer catalog.
//
// The store holds two tables:
//   - layers: one row per layer, columns named after layer.StoredColumns
//   - match_history: played layer items, append-only, ordered by seq
//
// Reads go through querysql, so every predicate the constraint compiler
// or the repeat evaluator produces runs here unchanged.
//
// # Critical Patterns
//
// Deterministic Query Results
//   - Every row read ends in ORDER BY ..., id COLLATE BINARY ASC
//   - Paging and the generator's first-row pick are stable across runs
//
// Logical Time
//   - match_history is ordered by seq INTEGER, never by timestamps
//
// Parameterized SQL
//   - Values are always bound; only registry-checked column names are
//     interpolated
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
