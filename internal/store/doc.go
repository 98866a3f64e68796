// Package store provides SQLite-backed persistence for published documents.
//
// The store keeps two tables:
//   - documents: the latest version of each document (canonical JSON tree,
//     selection, plain text, content hash, version identity)
//   - document_logs: one append-only entry per accepted tree change, holding
//     the plain text, a diff against the previous entry, and the diff
//     rendered as HTML
//
// Log entries are ordered by a per-document seq, never by timestamps, so the
// history reads identically across machines.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// A Persister connects a store to a session's publish hook so that every
// published tree change is written without the session knowing about SQL.
package store
