// Package history persists polled snapshots to a local SQLite database so
// past watch sessions can be inspected after the fact.
//
// The store is append-only during a session: each delivered snapshot becomes
// one row, keyed by the session correlation ID. Reads aggregate per job.
package history
