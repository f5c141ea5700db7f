package object

import (
	"fmt"
	"strings"
)

// StatusBit is the position of one flag in a Status.
type StatusBit uint8

// Status bit positions. Bits 6-15 and 17-31 are free for consumers, see
// ReservedBit.
const (
	StatusTouch     StatusBit = 0
	StatusError     StatusBit = 1
	StatusNew       StatusBit = 2
	StatusRecompute StatusBit = 3
	StatusRestore   StatusBit = 4
	StatusDelete    StatusBit = 5
	StatusExpand    StatusBit = 16
)

var bitNames = map[StatusBit]string{
	StatusTouch:     "touched",
	StatusError:     "error",
	StatusNew:       "new",
	StatusRecompute: "recomputing",
	StatusRestore:   "restoring",
	StatusDelete:    "deleting",
	StatusExpand:    "expanded",
}

func (b StatusBit) String() string {
	if name, ok := bitNames[b]; ok {
		return name
	}
	return fmt.Sprintf("bit%d", uint8(b))
}

// ReservedBit returns the consumer bit at position n.
func ReservedBit(n int) (StatusBit, error) {
	if (n >= 6 && n <= 15) || (n >= 17 && n <= 31) {
		return StatusBit(n), nil
	}
	return 0, fmt.Errorf("status bit %d is not reserved for consumers", n)
}

// Status is a fixed-width flag set.
type Status uint32

// Has reports whether bit is set.
func (s Status) Has(bit StatusBit) bool {
	return s&(1<<bit) != 0
}

func (s Status) with(bit StatusBit, on bool) Status {
	if on {
		return s | 1<<bit
	}
	return s &^ (1 << bit)
}

// Baseline keeps only the bits that survive persistence.
func (s Status) Baseline() Status {
	return s & (1<<StatusError | 1<<StatusExpand)
}

// String lists the set bits, lowest first, separated by "|".
func (s Status) String() string {
	if s == 0 {
		return "none"
	}
	var parts []string
	for bit := StatusBit(0); bit < 32; bit++ {
		if s.Has(bit) {
			parts = append(parts, bit.String())
		}
	}
	return strings.Join(parts, "|")
}

// Status returns the object's full flag set.
func (o *Object) Status() Status {
	return o.status
}

// TestStatus reports whether bit is set.
func (o *Object) TestStatus(bit StatusBit) bool {
	return o.status.Has(bit)
}

// SetStatus sets or clears bit.
func (o *Object) SetStatus(bit StatusBit, on bool) {
	o.status = o.status.with(bit, on)
}

// RestoreStatus replaces the flag set with the persisted baseline of s.
// Transient bits in s are dropped.
func (o *Object) RestoreStatus(s Status) {
	o.status = s.Baseline()
}

func (o *Object) IsTouched() bool     { return o.status.Has(StatusTouch) }
func (o *Object) IsError() bool       { return o.status.Has(StatusError) }
func (o *Object) IsNew() bool         { return o.status.Has(StatusNew) }
func (o *Object) IsRecomputing() bool { return o.status.Has(StatusRecompute) }
func (o *Object) IsRestoring() bool   { return o.status.Has(StatusRestore) }
func (o *Object) IsDeleting() bool    { return o.status.Has(StatusDelete) }
func (o *Object) IsExpanded() bool    { return o.status.Has(StatusExpand) }

// IsValid reports whether the object is neither touched nor errored.
func (o *Object) IsValid() bool {
	return !o.IsTouched() && !o.IsError()
}

// SetExpanded records the presentation expand state.
func (o *Object) SetExpanded(on bool) {
	o.SetStatus(StatusExpand, on)
}

// Touch marks the object as needing recomputation. Touching a touched
// object has no further effect.
func (o *Object) Touch() {
	o.SetStatus(StatusTouch, true)
}

// PurgeTouched clears the touched bit and every property's changed flag.
func (o *Object) PurgeTouched() {
	o.SetStatus(StatusTouch, false)
	for _, p := range o.props {
		p.base().changed = false
	}
}

// PurgeError clears the error bit and the stored failure.
func (o *Object) PurgeError() {
	o.SetStatus(StatusError, false)
	o.execErr = nil
}

// ExecError returns the stored failure, or nil.
func (o *Object) ExecError() *Result {
	if o.execErr == nil {
		return nil
	}
	r := *o.execErr
	return &r
}

// SetExecError records a failure without running anything, e.g. when
// rebuilding a document from a snapshot.
func (o *Object) SetExecError(reason, which string) {
	o.SetStatus(StatusError, true)
	o.execErr = &Result{Outcome: OutcomeFailed, Reason: reason, Which: which}
}

// ApplyResult updates status after a computation attempt. Success clears the
// error; failure sets it and keeps r for reporting. Both clear touched.
func (o *Object) ApplyResult(r Result) {
	switch r.Outcome {
	case OutcomeFailed:
		if r.Which == "" {
			r.Which = o.Name()
		}
		o.SetStatus(StatusError, true)
		o.execErr = &r
	default:
		o.PurgeError()
	}
	o.PurgeTouched()
}

// StatusString renders the status for presentation. It never mutates.
func (o *Object) StatusString() string {
	switch {
	case o.IsError():
		if o.execErr != nil && o.execErr.Reason != "" {
			return "Error: " + o.execErr.Reason
		}
		return "Error"
	case o.IsTouched():
		return "Touched"
	default:
		return "Valid"
	}
}
