package object

import (
	"context"
	"log/slog"
)

// Behavior is the computation attached to an object.
// Execute runs only when the recompute engine decides the object must run.
type Behavior interface {
	Execute(ctx *ExecContext) Result
}

// MustExecuter overrides the default MustExecute policy.
type MustExecuter interface {
	MustExecute(o *Object) MustExecute
}

// LostLinkHandler is notified when an object it links to is removed from the
// document. Without one, the object drops every link to the lost object.
type LostLinkHandler interface {
	OnLostLink(o *Object, lost *Object)
}

// Restorer is notified once a document finished loading from a snapshot.
type Restorer interface {
	OnDocumentRestored(o *Object)
}

// Lifecycle is notified after an object joins a document and before it
// leaves one.
type Lifecycle interface {
	Setup(o *Object)
	Unsetup(o *Object)
}

// ExecContext is everything a computation may use. It replaces process-wide
// state so passes can run in isolation.
type ExecContext struct {
	Context   context.Context
	Container Container
	Object    *Object

	// Token identifies the recompute pass.
	Token  string
	Logger *slog.Logger
}

// Fail returns a failure attributed to the executing object.
func (c *ExecContext) Fail(format string, args ...any) Result {
	return Failedf(c.Object, format, args...)
}

// Execute runs the behaviour. Objects without one succeed without change.
// Panics are not recovered here.
func (o *Object) Execute(ctx *ExecContext) Result {
	if o.behavior == nil {
		return NoChange()
	}
	return o.behavior.Execute(ctx)
}

// OnLostLink handles the removal of lost, which o links to.
func (o *Object) OnLostLink(lost *Object) {
	if h, ok := o.behavior.(LostLinkHandler); ok {
		h.OnLostLink(o, lost)
		return
	}
	o.DropLinksTo(lost)
}

// OnDocumentRestored runs the behaviour's restore hook, if any.
func (o *Object) OnDocumentRestored() {
	if r, ok := o.behavior.(Restorer); ok {
		r.OnDocumentRestored(o)
	}
}

// Setup runs the behaviour's setup hook, if any.
func (o *Object) Setup() {
	if l, ok := o.behavior.(Lifecycle); ok {
		l.Setup(o)
	}
}

// Unsetup runs the behaviour's unsetup hook, if any.
func (o *Object) Unsetup() {
	if l, ok := o.behavior.(Lifecycle); ok {
		l.Unsetup(o)
	}
}
