package harness

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/featuregraph/internal/compiler"
	"github.com/roach88/featuregraph/internal/document"
	"github.com/roach88/featuregraph/internal/engine"
	"github.com/roach88/featuregraph/internal/features"
)

func sampleTrace() []TraceEvent {
	return []TraceEvent{
		{Pass: 1, Token: "pass-1", Object: "Sketch", Action: "executed", Outcome: "ok"},
		{Pass: 1, Token: "pass-1", Object: "Pad", Action: "executed", Outcome: "ok"},
		{Pass: 1, Token: "pass-1", Object: "Datum", Action: "skipped"},
		{Pass: 2, Token: "pass-2", Object: "Pad", Action: "executed", Outcome: "failed", Reason: "length must be positive, got 0"},
		{Pass: 2, Token: "pass-2", Object: "Datum", Action: "executed", Outcome: "ok_no_change"},
	}
}

// recomputedChain builds the chain document and runs one pass over it.
func recomputedChain(t *testing.T) *document.Document {
	t.Helper()
	spec, err := compiler.Load(chainDocument(t))
	require.NoError(t, err)
	doc, err := compiler.Build(spec, features.NewRegistry())
	require.NoError(t, err)
	_, err = engine.New(engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))).
		Recompute(context.Background(), doc)
	require.NoError(t, err)
	return doc
}

func TestAssertExecutedOrder(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertExecutedOrder(trace, Assertion{Objects: []string{"Sketch", "Pad"}}))
	// Datum first executes after Pad, intervening events are allowed.
	assert.NoError(t, assertExecutedOrder(trace, Assertion{Objects: []string{"Sketch", "Datum"}}))

	err := assertExecutedOrder(trace, Assertion{Objects: []string{"Datum", "Pad"}})
	var aerr *AssertionError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, AssertExecutedOrder, aerr.Type)
	assert.Equal(t, "Datum (pos 5) should be before Pad (pos 2)", aerr.Actual)

	err = assertExecutedOrder(trace, Assertion{Objects: []string{"Sketch", "Pocket"}})
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, "Pocket never executed", aerr.Actual)
}

func TestAssertExecutedCount(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertExecutedCount(trace, Assertion{Object: "Pad", Count: 2}))
	assert.NoError(t, assertExecutedCount(trace, Assertion{Object: "Datum", Count: 1}))
	assert.NoError(t, assertExecutedCount(trace, Assertion{Object: "Pocket", Count: 0}))

	err := assertExecutedCount(trace, Assertion{Object: "Sketch", Count: 2})
	var aerr *AssertionError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, "2 executions of Sketch", aerr.Expected)
	assert.Equal(t, "1 executions", aerr.Actual)
}

func TestAssertFinalStatus(t *testing.T) {
	doc := recomputedChain(t)

	assert.NoError(t, assertFinalStatus(doc, Assertion{Object: "Pad", Status: "Valid"}))

	doc.Object("Sketch").Touch()
	assert.NoError(t, assertFinalStatus(doc, Assertion{Object: "Sketch", Status: "Touched"}))

	err := assertFinalStatus(doc, Assertion{Object: "Sketch", Status: "Valid"})
	var aerr *AssertionError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, `"Touched"`, aerr.Actual)

	err = assertFinalStatus(doc, Assertion{Object: "Nope", Status: "Valid"})
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, "object not found", aerr.Actual)
}

func TestAssertFinalValue(t *testing.T) {
	doc := recomputedChain(t)

	assert.NoError(t, assertFinalValue(doc, Assertion{Object: "Sketch", Property: "Area", Value: 20}))
	assert.NoError(t, assertFinalValue(doc, Assertion{Object: "Sketch", Property: "Area", Value: 20.0}))
	assert.NoError(t, assertFinalValue(doc, Assertion{Object: "Datum", Property: "Comment", Value: ""}))

	var aerr *AssertionError
	err := assertFinalValue(doc, Assertion{Object: "Pad", Property: "Volume", Value: 41.5})
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, "Pad.Volume = 41.5", aerr.Expected)
	assert.Equal(t, "Pad.Volume = 40", aerr.Actual)

	err = assertFinalValue(doc, Assertion{Object: "Pad", Property: "Profile", Value: "Sketch"})
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, `pad has no value property "Profile"`, aerr.Actual)

	err = assertFinalValue(doc, Assertion{Object: "Pad", Property: "Volume", Value: "forty"})
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, `Pad.Volume = "forty"`, aerr.Expected)

	err = assertFinalValue(doc, Assertion{Object: "Pad", Property: "Volume", Value: []int{1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "final_value Pad.Volume")
}

func TestAssertFinalLinks(t *testing.T) {
	doc := recomputedChain(t)

	assert.NoError(t, assertFinalLinks(doc, Assertion{Object: "Pad", Property: "Profile", Targets: []string{"Sketch"}}))
	assert.NoError(t, assertFinalLinks(doc, Assertion{Object: "Datum", Property: "Support"}))

	var aerr *AssertionError
	err := assertFinalLinks(doc, Assertion{Object: "Pad", Property: "Profile"})
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, "Pad.Profile -> [Sketch]", aerr.Actual)

	err = assertFinalLinks(doc, Assertion{Object: "Pad", Property: "Length", Targets: []string{"Sketch"}})
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, `pad has no link property "Length"`, aerr.Actual)
}

func TestEvaluateAssertions(t *testing.T) {
	doc := recomputedChain(t)
	result := NewResult()
	result.Trace = sampleTrace()

	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertExecutedCount, Object: "Pad", Count: 2},
		{Type: AssertExecutedOrder, Objects: []string{"Pad", "Sketch"}},
		{Type: AssertFinalStatus, Object: "Pad", Status: "Valid"},
		{Type: AssertFinalLinks, Object: "Pad", Property: "Profile", Targets: []string{"Sketch"}},
		{Type: "trace_contains"},
	}, &AssertionContext{Doc: doc})

	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "Assertion failed: executed_order")
	assert.Equal(t, `assertion[4]: unknown assertion type "trace_contains"`, errs[1])
}

func TestEvaluateAssertions_FinalWithoutDocument(t *testing.T) {
	errs := EvaluateAssertions(NewResult(), []Assertion{
		{Type: AssertFinalValue, Object: "Pad", Property: "Volume", Value: 1},
	}, nil)

	assert.Equal(t, []string{"assertion[0]: final_value requires a document"}, errs)
}

func TestAssertionError_ErrorFormat(t *testing.T) {
	err := &AssertionError{
		Type:     AssertExecutedCount,
		Expected: "2 executions of Sketch",
		Actual:   "1 executions",
		Trace:    sampleTrace()[3:4],
	}

	assert.Equal(t,
		"Assertion failed: executed_count\n"+
			"  Expected: 2 executions of Sketch\n"+
			"  Actual: 1 executions\n"+
			"\nFull trace:\n"+
			"  [1] pass-2 Pad executed failed (length must be positive, got 0)\n",
		err.Error())

	noTrace := &AssertionError{Type: AssertFinalStatus, Expected: "e", Actual: "a"}
	assert.Equal(t, "Assertion failed: final_status\n  Expected: e\n  Actual: a\n", noTrace.Error())
}
