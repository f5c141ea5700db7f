// Package store provides SQLite-backed persistence for document snapshots
// and recompute pass history.
//
// Snapshots are stored normalized (one row per object, property and link
// property) and replaced as a whole inside one transaction. Each carries a
// checksum computed with ir.SnapshotHash that is verified on load.
//
// Pass history is append-only. Store implements engine.Recorder, so an
// engine built with engine.WithRecorder(store) writes every pass it runs.
//
// # Deterministic Query Results
//
//   - Objects, properties and links are read back by position
//   - Passes are read ORDER BY seq ASC, token ASC COLLATE BINARY
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
