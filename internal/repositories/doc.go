// Package repositories implements SQLite persistence for the post history.
//
// Key Implementations:
//   - [PostRepository] : one row per published (or skipped) item, with run id, outcome, and attempt count
//
// Sequence numbers provide stable, human-readable ordering independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
