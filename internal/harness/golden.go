package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/featuregraph/internal/ir"
)

// TraceSnapshot captures the trace and final statuses of a scenario run.
// It is serialized as canonical JSON for deterministic comparison.
type TraceSnapshot struct {
	ScenarioName string            `json:"scenario_name"`
	Trace        []TraceEvent      `json:"trace"`
	State        map[string]string `json:"status"`
}

// toCanonicalMap converts a TraceSnapshot to a map[string]any for canonical
// JSON serialization, which only handles IR types and primitives.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		eventMap := map[string]any{
			"pass":   event.Pass,
			"token":  event.Token,
			"object": event.Object,
			"action": event.Action,
		}
		if event.Outcome != "" {
			eventMap["outcome"] = event.Outcome
		}
		if event.Reason != "" {
			eventMap["reason"] = event.Reason
		}
		if event.Which != "" {
			eventMap["which"] = event.Which
		}
		traceList[i] = eventMap
	}

	status := make(map[string]any, len(s.State))
	for name, st := range s.State {
		status[name] = st
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         traceList,
		"status":        status,
	}
}

// Marshal returns the snapshot's canonical JSON.
func (s *TraceSnapshot) Marshal() ([]byte, error) {
	return ir.MarshalCanonical(s.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its trace against a golden
// file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns an error if the scenario cannot run. A trace that does not match
// the golden file fails t through goldie.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against the golden file for
// scenarioName without re-running anything.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		Trace:        result.Trace,
		State:        result.State,
	}
	traceJSON, err := snapshot.Marshal()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)

	return nil
}
