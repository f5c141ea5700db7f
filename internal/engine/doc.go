// Package engine runs recompute passes over a featuregraph document.
//
// A pass resolves every touched object in dependency order:
//
//  1. Seeds are the touched objects plus any object whose MustExecute
//     answers Yes.
//  2. The affected set is the seeds and everything that depends on them,
//     transitively.
//  3. The affected set is ordered topologically, dependencies first, ties
//     broken by insertion sequence.
//  4. Each object resolves its policy. No purges the touch and moves on.
//     Yes runs the computation. Inspect runs it only if a direct dependency
//     is still touched or ran in this pass with an Ok or Failed outcome.
//
// Running holds the recompute status bit for the duration of the call and
// converts a panic into a Failed result. A failure marks the object errored
// and the pass continues; dependents get a chance to run because a failed
// dependency counts as changed.
//
// Touches are never propagated eagerly. An errored object is not retried
// until something touches it again or one of its dependencies changes.
//
// Passes are single-threaded and deterministic. Every pass gets a token from
// a TokenGenerator and a seq from the logical Clock; both end up in the
// Report and, if a Recorder is configured, in persisted pass history.
package engine
