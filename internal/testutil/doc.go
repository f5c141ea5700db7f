// Package testutil holds deterministic helpers shared by tests and the
// scenario harness: numbered pass tokens and probe graphs whose behaviours
// record every computation.
package testutil
