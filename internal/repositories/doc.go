// Package repositories implements SQLite persistence for run history.
//
// Key Implementations:
//   - [RunRepository] : deletion and dry runs with their outcome
//   - [DeletedEntryRepository] : the audit trail of removed entries, one row per removal
//   - [SnapshotRepository] : scan exports written to disk before or instead of deleting
//
// Runs carry a sequence number alongside their UUID so history can refer to them as #1, #2 and so on.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
