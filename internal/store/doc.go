// Package store provides SQLite-backed storage for imported contacts.
//
// Each import is one batch:
//   - imports: one row per batch (source, counts, logical seq)
//   - contacts: the flattened records, in flatten order
//   - diagnostics: the recovered parse conditions of the batch
//
// # Ordering
//
// All ordering uses the logical seq column and the per-batch position,
// never timestamps. Queries end in ORDER BY seq ASC, id COLLATE BINARY ASC
// (imports) or ORDER BY seq, position (contacts, diagnostics) so repeated
// reads return identical results.
//
// Records are stored as canonical JSON produced by internal/canon, so the same
// record always yields the same record_json text.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: contacts and diagnostics cascade with their import
package store
