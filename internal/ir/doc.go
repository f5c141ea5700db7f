// Package ir provides the plain data types exchanged between featuregraph
// packages: property values, document definitions, snapshots and pass
// records.
//
// This package contains type definitions and their encodings only. All
// other internal packages import ir; ir imports nothing internal. This
// keeps the persistence and loading collaborators decoupled from the live
// object graph.
//
// Key design constraints:
//   - Values are a sealed set (IRValue); floats are finite
//   - Links are recorded by object name, never by pointer
//   - Canonical JSON (MarshalCanonical) is the only input to hashing
//   - Logical sequence numbers (seq) only, never wall-clock timestamps
package ir
