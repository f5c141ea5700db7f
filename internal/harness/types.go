package harness

import (
	"github.com/roach88/featuregraph/internal/store"
)

// TraceEvent is one object visited by a recorded pass.
type TraceEvent struct {
	Pass    int64  `json:"pass"` // pass sequence number
	Token   string `json:"token"`
	Object  string `json:"object"`
	Action  string `json:"action"` // "executed", "skipped" or "opted_out"
	Outcome string `json:"outcome,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Which   string `json:"which,omitempty"`
}

// Executed reports whether the object's computation ran.
func (e TraceEvent) Executed() bool {
	return e.Action == "executed"
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all expect clauses and assertions match.
	Pass bool `json:"pass"`

	// Trace holds every step of every pass, in pass order, as read back
	// from the pass history.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// State maps each object left in the document to its status string.
	State map[string]string `json:"state,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		State:  make(map[string]string),
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddPasses appends the steps of recorded passes to the trace.
func (r *Result) AddPasses(passes []store.PassSummary) {
	for _, p := range passes {
		for _, s := range p.Steps {
			r.Trace = append(r.Trace, TraceEvent{
				Pass:    p.Seq,
				Token:   p.Token,
				Object:  s.Object,
				Action:  s.Action,
				Outcome: s.Outcome,
				Reason:  s.Reason,
				Which:   s.Which,
			})
		}
	}
}
