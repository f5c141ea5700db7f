package ir

// Version constants for persisted formats.
const (
	// SnapshotVersion is the snapshot record schema version.
	SnapshotVersion = "1"

	// EngineVersion is the featuregraph engine version.
	EngineVersion = "0.1.0"
)
