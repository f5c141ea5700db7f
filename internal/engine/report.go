package engine

import (
	"github.com/roach88/featuregraph/internal/ir"
	"github.com/roach88/featuregraph/internal/object"
)

// Action is what a pass did with one affected object.
type Action string

const (
	// ActionExecuted means the computation ran.
	ActionExecuted Action = "executed"

	// ActionSkipped means the Inspect policy found no changed dependency.
	ActionSkipped Action = "skipped"

	// ActionOptedOut means the object's policy answered No.
	ActionOptedOut Action = "opted_out"
)

// Step records one object visited by a pass.
type Step struct {
	Object string
	Action Action
	Policy object.MustExecute

	// Result is meaningful only when Action is ActionExecuted.
	Result object.Result
}

// Report describes one pass.
type Report struct {
	Token    string
	Seq      int64
	Document string

	// Seeds lists the objects that started the pass, in insertion order.
	Seeds []string

	// Steps are in execution order.
	Steps []Step
}

// Executed returns the names of objects whose computation ran, in order.
func (r *Report) Executed() []string {
	var names []string
	for _, s := range r.Steps {
		if s.Action == ActionExecuted {
			names = append(names, s.Object)
		}
	}
	return names
}

// Errors returns the steps whose computation failed.
func (r *Report) Errors() []Step {
	var failed []Step
	for _, s := range r.Steps {
		if s.Action == ActionExecuted && s.Result.IsFailed() {
			failed = append(failed, s)
		}
	}
	return failed
}

// Count returns the number of steps with the given action.
func (r *Report) Count(action Action) int {
	n := 0
	for _, s := range r.Steps {
		if s.Action == action {
			n++
		}
	}
	return n
}

// Step returns the step for the named object, if it was visited.
func (r *Report) Step(name string) (Step, bool) {
	for _, s := range r.Steps {
		if s.Object == name {
			return s, true
		}
	}
	return Step{}, false
}

// Record converts the report to its persisted form.
func (r *Report) Record() ir.PassRecord {
	rec := ir.PassRecord{
		Token:    r.Token,
		Seq:      r.Seq,
		Document: r.Document,
		Steps:    make([]ir.StepRecord, len(r.Steps)),
	}
	for i, s := range r.Steps {
		sr := ir.StepRecord{Object: s.Object, Action: string(s.Action)}
		if s.Action == ActionExecuted {
			sr.Outcome = s.Result.Outcome.String()
			sr.Reason = s.Result.Reason
			sr.Which = s.Result.Which
		}
		rec.Steps[i] = sr
	}
	return rec
}
