// Package stages owns the fixed analysis pipeline stage table and the pure
// derivation of progress snapshots from canonical job status records.
//
// The descriptor table maps each stage identifier to its display label and
// icon key. It is built once at init and never mutated, so concurrent polling
// sessions can share it without locking. Derive holds no state between calls;
// feeding it the same canonical record twice yields identical snapshots.
//
// Monotonic overall progress is intentionally not a guarantee of this package:
// the backend itself can regress, so the polling engine clamps emitted values.
package stages
