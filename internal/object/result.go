package object

import "fmt"

// Outcome classifies a computation attempt.
type Outcome int

const (
	// OutcomeOk means the computation succeeded and may have changed outputs.
	OutcomeOk Outcome = iota

	// OutcomeOkNoChange means the computation succeeded without changing
	// outputs. Dependents resolving InspectDependencies ignore it.
	OutcomeOkNoChange

	// OutcomeFailed means the computation failed; Reason and Which are set.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOk:
		return "ok"
	case OutcomeOkNoChange:
		return "ok_no_change"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is returned by every computation attempt.
type Result struct {
	Outcome Outcome
	Reason  string

	// Which names the object that detected the failure. It may differ from
	// the object being recomputed when the failure came from a delegated
	// computation. Empty means the executing object.
	Which string
}

// Ok returns a successful result.
func Ok() Result {
	return Result{Outcome: OutcomeOk}
}

// NoChange returns a successful result with unchanged outputs.
func NoChange() Result {
	return Result{Outcome: OutcomeOkNoChange}
}

// Failed returns a failed result. A nil which attributes the failure to the
// executing object.
func Failed(reason string, which *Object) Result {
	r := Result{Outcome: OutcomeFailed, Reason: reason}
	if which != nil {
		r.Which = which.Name()
	}
	return r
}

// Failedf is Failed with a formatted reason.
func Failedf(which *Object, format string, args ...any) Result {
	return Failed(fmt.Sprintf(format, args...), which)
}

// IsFailed reports whether the result is a failure.
func (r Result) IsFailed() bool {
	return r.Outcome == OutcomeFailed
}

// Err returns the failure as an error, or nil for successful results.
func (r Result) Err() error {
	if r.Outcome != OutcomeFailed {
		return nil
	}
	return &ExecError{Reason: r.Reason, Which: r.Which}
}

// ExecError is a failed Result seen as an error.
type ExecError struct {
	Reason string
	Which  string
}

// Error implements the error interface.
func (e *ExecError) Error() string {
	if e.Which == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Which, e.Reason)
}
