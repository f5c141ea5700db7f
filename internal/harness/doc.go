// Package harness runs recompute scenarios against real documents.
//
// A scenario builds a document from a definition file, then runs a series
// of passes. Each pass applies edits (property writes, relinks, additions,
// removals, touches) and recomputes the document, or a single object, with
// the real engine. Every pass is recorded in an in-memory store and read
// back as the trace that assertions and golden files are checked against.
//
// # Scenario Format
//
//	name: scenario_name
//	description: "What this scenario validates"
//	document: ../documents/chain.yaml
//	passes:
//	  - expect:
//	      executed: [Sketch, Pad]
//	  - edits:
//	      - object: Sketch
//	        set: { Width: 0 }
//	    expect:
//	      executed: [Sketch, Pad]
//	      failed: { Sketch: "dimensions must be positive, got 0x5" }
//	assertions:
//	  - type: final_status
//	    object: Pad
//	    status: "Error: Profile has errors"
//
// # Assertion Types
//
//   - executed_order: objects were first executed in the given order
//   - executed_count: an object executed exactly N times over all passes
//   - final_status: an object's status string after the last pass
//   - final_value: a property value after the last pass
//   - final_links: the targets of a link property after the last pass
//
// # Deterministic Testing
//
// Pass tokens are numbered ("pass-1", "pass-2", ... or the scenario's
// token_prefix) and the sequence clock starts at zero, so the same scenario
// always produces byte-identical canonical JSON for golden comparison.
package harness
