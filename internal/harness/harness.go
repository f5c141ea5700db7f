package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"

	"github.com/roach88/featuregraph/internal/compiler"
	"github.com/roach88/featuregraph/internal/document"
	"github.com/roach88/featuregraph/internal/engine"
	"github.com/roach88/featuregraph/internal/features"
	"github.com/roach88/featuregraph/internal/ir"
	"github.com/roach88/featuregraph/internal/object"
	"github.com/roach88/featuregraph/internal/store"
	"github.com/roach88/featuregraph/internal/testutil"
)

// Harness runs one scenario against a freshly built document.
type Harness struct {
	doc    *document.Document
	store  *store.Store
	engine *engine.Engine
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory database that records every
// pass. Pass tokens are numbered and the sequence clock starts at zero, so
// repeated runs produce identical traces.
//
// Execution flow:
// 1. Load and build the document with every feature type registered
// 2. For each pass, apply its edits, recompute and check the expect clause
// 3. Read the recorded passes back as the trace
// 4. Evaluate assertions against the trace and the final document
//
// An error is returned when the scenario cannot run at all: the document
// does not build, an edit is rejected or a pass aborts. Expectation and
// assertion failures are reported in the result.
func Run(scenario *Scenario) (*Result, error) {
	spec, err := compiler.Load(scenario.Document)
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	doc, err := compiler.Build(spec, features.NewRegistry(), document.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to build document: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		doc:   doc,
		store: st,
		engine: engine.New(
			engine.WithLogger(logger),
			engine.WithTokenGenerator(testutil.NewNumberedTokens(scenario.TokenPrefix)),
			engine.WithRecorder(st),
		),
		logger: logger,
	}

	ctx := context.Background()
	result := NewResult()
	for i, pass := range scenario.Passes {
		if err := h.runPass(ctx, i, pass, result); err != nil {
			return nil, err
		}
	}

	passes, err := st.ReadPasses(ctx, doc.Name())
	if err != nil {
		return nil, fmt.Errorf("failed to read pass history: %w", err)
	}
	result.AddPasses(passes)
	for _, o := range doc.Objects() {
		result.State[o.Name()] = o.StatusString()
	}

	actx := &AssertionContext{Doc: doc}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}

func (h *Harness) runPass(ctx context.Context, index int, step PassStep, result *Result) error {
	for j, edit := range step.Edits {
		if err := ApplyEdit(h.doc, edit); err != nil {
			return fmt.Errorf("passes[%d].edits[%d]: %w", index, j, err)
		}
	}

	var (
		report *engine.Report
		err    error
	)
	if step.Object != "" {
		o, lerr := h.doc.Lookup(step.Object)
		if lerr != nil {
			return fmt.Errorf("passes[%d]: %w", index, lerr)
		}
		report, err = h.engine.RecomputeObject(ctx, h.doc, o)
	} else {
		report, err = h.engine.Recompute(ctx, h.doc)
	}
	if err != nil {
		return fmt.Errorf("passes[%d]: %w", index, err)
	}

	h.logger.Info("pass completed",
		"pass", index,
		"token", report.Token,
		"executed", report.Count(engine.ActionExecuted),
		"failed", len(report.Errors()))

	if step.Expect != nil {
		for _, msg := range checkExpect(step.Expect, report) {
			result.AddError(fmt.Sprintf("passes[%d]: %s", index, msg))
		}
	}
	return nil
}

// ApplyEdit changes one object of doc. Writes go through the normal
// property and link APIs, so they touch objects exactly as an interactive
// edit would.
func ApplyEdit(doc *document.Document, e Edit) error {
	if e.Add != "" {
		o, err := doc.NewObject(e.Add, e.Object)
		if err != nil {
			return err
		}
		if o.Name() != e.Object {
			return fmt.Errorf("object %s already exists, new object was named %s", e.Object, o.Name())
		}
	}
	if e.Remove {
		return doc.RemoveObject(e.Object)
	}

	o, err := doc.Lookup(e.Object)
	if err != nil {
		return err
	}
	if e.Label != "" {
		if _, err := doc.RelabelObject(o.Name(), e.Label); err != nil {
			return err
		}
	}

	for _, name := range slices.Sorted(maps.Keys(e.Set)) {
		vp, ok := o.Property(name).(object.ValueProperty)
		if !ok {
			return fmt.Errorf("%s has no value property %q", o.Name(), name)
		}
		v, err := ir.FromGo(e.Set[name])
		if err != nil {
			return fmt.Errorf("%s.%s: %w", o.Name(), name, err)
		}
		if err := vp.SetValue(v); err != nil {
			return err
		}
	}

	for _, name := range slices.Sorted(maps.Keys(e.Link)) {
		lp, ok := o.Property(name).(object.LinkProperty)
		if !ok {
			return fmt.Errorf("%s has no link property %q", o.Name(), name)
		}
		targets := make([]*object.Object, 0, len(e.Link[name]))
		for _, t := range e.Link[name] {
			target, err := doc.Lookup(t)
			if err != nil {
				return err
			}
			targets = append(targets, target)
		}
		if err := lp.SetTargets(targets); err != nil {
			return err
		}
	}

	if e.Touch {
		o.Touch()
	}
	return nil
}

// checkExpect compares a pass report with an expect clause and returns one
// message per mismatch.
func checkExpect(exp *ExpectClause, report *engine.Report) []string {
	var msgs []string
	if exp.Executed != nil {
		if got := report.Executed(); !slices.Equal(got, exp.Executed) {
			msgs = append(msgs, fmt.Sprintf("executed %v, expected %v", got, exp.Executed))
		}
	}
	for _, name := range slices.Sorted(maps.Keys(exp.Failed)) {
		reason := exp.Failed[name]
		step, ok := report.Step(name)
		switch {
		case !ok || step.Action != engine.ActionExecuted:
			msgs = append(msgs, fmt.Sprintf("%s did not execute, expected failure %q", name, reason))
		case !step.Result.IsFailed():
			msgs = append(msgs, fmt.Sprintf("%s succeeded, expected failure %q", name, reason))
		case step.Result.Reason != reason:
			msgs = append(msgs, fmt.Sprintf("%s failed with %q, expected %q", name, step.Result.Reason, reason))
		}
	}
	return msgs
}
