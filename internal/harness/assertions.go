package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/featuregraph/internal/document"
	"github.com/roach88/featuregraph/internal/ir"
	"github.com/roach88/featuregraph/internal/object"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for i, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s %s", i+1, event.Token, event.Object, event.Action)
			if event.Outcome != "" {
				fmt.Fprintf(&buf, " %s", event.Outcome)
			}
			if event.Reason != "" {
				fmt.Fprintf(&buf, " (%s)", event.Reason)
			}
			buf.WriteByte('\n')
		}
	}

	return buf.String()
}

// assertExecutedOrder checks that the objects were first executed in the
// given order. Other executions may come in between.
func assertExecutedOrder(trace []TraceEvent, assertion Assertion) error {
	positions := make(map[string]int)
	for i, event := range trace {
		if !event.Executed() {
			continue
		}
		if _, seen := positions[event.Object]; !seen {
			positions[event.Object] = i + 1 // 1-indexed for readability
		}
	}

	for _, name := range assertion.Objects {
		if positions[name] == 0 {
			return &AssertionError{
				Type:     AssertExecutedOrder,
				Expected: fmt.Sprintf("all objects executed: %v", assertion.Objects),
				Actual:   fmt.Sprintf("%s never executed", name),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(assertion.Objects); i++ {
		prev := assertion.Objects[i-1]
		curr := assertion.Objects[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertExecutedOrder,
				Expected: fmt.Sprintf("objects executed in order: %v", assertion.Objects),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}

	return nil
}

// assertExecutedCount checks how often the object's computation ran across
// all passes.
func assertExecutedCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Executed() && event.Object == assertion.Object {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertExecutedCount,
			Expected: fmt.Sprintf("%d executions of %s", assertion.Count, assertion.Object),
			Actual:   fmt.Sprintf("%d executions", count),
			Trace:    trace,
		}
	}

	return nil
}

func assertFinalStatus(doc *document.Document, assertion Assertion) error {
	o := doc.Object(assertion.Object)
	if o == nil {
		return &AssertionError{
			Type:     AssertFinalStatus,
			Expected: fmt.Sprintf("%s with status %q", assertion.Object, assertion.Status),
			Actual:   "object not found",
		}
	}
	if got := o.StatusString(); got != assertion.Status {
		return &AssertionError{
			Type:     AssertFinalStatus,
			Expected: fmt.Sprintf("%s status %q", assertion.Object, assertion.Status),
			Actual:   fmt.Sprintf("%q", got),
		}
	}
	return nil
}

// assertFinalValue compares a property value. Numbers compare by value, so
// an integer in the scenario matches a float property.
func assertFinalValue(doc *document.Document, assertion Assertion) error {
	field := assertion.Object + "." + assertion.Property
	want, err := ir.FromGo(assertion.Value)
	if err != nil {
		return fmt.Errorf("final_value %s: %w", field, err)
	}

	o := doc.Object(assertion.Object)
	if o == nil {
		return &AssertionError{
			Type:     AssertFinalValue,
			Expected: fmt.Sprintf("%s = %s", field, formatValue(want)),
			Actual:   "object not found",
		}
	}
	vp, ok := o.Property(assertion.Property).(object.ValueProperty)
	if !ok {
		return &AssertionError{
			Type:     AssertFinalValue,
			Expected: fmt.Sprintf("%s = %s", field, formatValue(want)),
			Actual:   fmt.Sprintf("%s has no value property %q", o.Type(), assertion.Property),
		}
	}
	if got := vp.Value(); !ir.Equal(got, want) {
		return &AssertionError{
			Type:     AssertFinalValue,
			Expected: fmt.Sprintf("%s = %s", field, formatValue(want)),
			Actual:   fmt.Sprintf("%s = %s", field, formatValue(got)),
		}
	}
	return nil
}

func assertFinalLinks(doc *document.Document, assertion Assertion) error {
	field := assertion.Object + "." + assertion.Property
	o := doc.Object(assertion.Object)
	if o == nil {
		return &AssertionError{
			Type:     AssertFinalLinks,
			Expected: fmt.Sprintf("%s -> %v", field, assertion.Targets),
			Actual:   "object not found",
		}
	}
	lp, ok := o.Property(assertion.Property).(object.LinkProperty)
	if !ok {
		return &AssertionError{
			Type:     AssertFinalLinks,
			Expected: fmt.Sprintf("%s -> %v", field, assertion.Targets),
			Actual:   fmt.Sprintf("%s has no link property %q", o.Type(), assertion.Property),
		}
	}

	var got []string
	for _, t := range lp.Targets() {
		got = append(got, t.Name())
	}
	if !slices.Equal(got, assertion.Targets) {
		return &AssertionError{
			Type:     AssertFinalLinks,
			Expected: fmt.Sprintf("%s -> %v", field, assertion.Targets),
			Actual:   fmt.Sprintf("%s -> %v", field, got),
		}
	}
	return nil
}

func formatValue(v ir.IRValue) string {
	data, err := ir.MarshalIRValue(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

// AssertionContext provides context for evaluating assertions.
type AssertionContext struct {
	Doc *document.Document
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// The actx parameter provides the document for final_* assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertExecutedOrder:
			err = assertExecutedOrder(result.Trace, assertion)
		case AssertExecutedCount:
			err = assertExecutedCount(result.Trace, assertion)
		case AssertFinalStatus, AssertFinalValue, AssertFinalLinks:
			if actx == nil || actx.Doc == nil {
				err = fmt.Errorf("assertion[%d]: %s requires a document", i, assertion.Type)
				break
			}
			switch assertion.Type {
			case AssertFinalStatus:
				err = assertFinalStatus(actx.Doc, assertion)
			case AssertFinalValue:
				err = assertFinalValue(actx.Doc, assertion)
			default:
				err = assertFinalLinks(actx.Doc, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
