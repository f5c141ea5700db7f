package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/featuregraph/internal/document"
	"github.com/roach88/featuregraph/internal/ir"
	"github.com/roach88/featuregraph/internal/object"
)

// Recorder persists pass history. Implemented by store.Store.
type Recorder interface {
	RecordPass(ctx context.Context, rec ir.PassRecord) error
}

// Engine runs recompute passes. One Engine may serve many documents but
// must not run two passes at once.
type Engine struct {
	clock    *Clock
	tokens   TokenGenerator
	logger   *slog.Logger
	recorder Recorder
	metrics  *Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for pass events and handed to
// computations. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithTokenGenerator sets the pass token source. Default: UUIDv7Generator.
func WithTokenGenerator(g TokenGenerator) Option {
	return func(e *Engine) {
		e.tokens = g
	}
}

// WithClock sets the pass sequence clock, e.g. NewClockAt(lastSeq) to
// continue persisted history.
func WithClock(c *Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithRecorder persists every pass through r.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		e.recorder = r
	}
}

// WithMetrics updates m after every pass.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		clock:  NewClock(),
		tokens: UUIDv7Generator{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Clock returns the engine's pass clock.
func (e *Engine) Clock() *Clock {
	return e.clock
}

// Recompute runs one pass over doc and returns its report.
//
// Failed computations do not make Recompute fail; they are in the report and
// in each object's status. An error is returned only for a consistency fault
// found while planning or running the pass (in which case the report covers
// the steps taken so far) or when the recorder fails (*RecordError, with a
// complete report).
func (e *Engine) Recompute(ctx context.Context, doc *document.Document) (*Report, error) {
	report := e.newReport(doc)

	var seeds []*object.Object
	for _, o := range doc.Objects() {
		if o.IsTouched() || o.MustExecute() == object.MustExecuteYes {
			seeds = append(seeds, o)
			report.Seeds = append(report.Seeds, o.Name())
		}
	}

	affected := make(map[*object.Object]bool)
	for _, s := range seeds {
		affected[s] = true
		dependents, err := s.InListRecursive()
		if err != nil {
			e.logger.Error("recompute aborted", "token", report.Token, "object", s.Name(), "error", err)
			return report, err
		}
		for _, d := range dependents {
			affected[d] = true
		}
	}

	subset := make([]*object.Object, 0, len(affected))
	for _, o := range doc.Objects() {
		if affected[o] {
			subset = append(subset, o)
		}
	}
	order, err := doc.TopologicalOrder(subset)
	if err != nil {
		e.logger.Error("recompute aborted", "token", report.Token, "error", err)
		return report, err
	}

	e.logger.Info("recompute started",
		"token", report.Token,
		"seq", report.Seq,
		"document", doc.Name(),
		"seeds", len(seeds),
		"affected", len(order))

	// changed holds objects that ran in this pass with Ok or Failed.
	changed := make(map[*object.Object]bool)
	visited := make(map[*object.Object]bool)

	for _, o := range order {
		for _, dep := range o.OutList() {
			if affected[dep] && !visited[dep] {
				err := &object.ConsistencyError{
					Code:    object.CodeOrderViolation,
					Message: "dependent visited before its dependency",
					Path:    []string{dep.Name(), o.Name()},
				}
				e.logger.Error("recompute aborted", "token", report.Token, "error", err)
				return report, err
			}
		}
		visited[o] = true

		step := Step{Object: o.Name(), Policy: o.MustExecute()}
		switch step.Policy {
		case object.MustExecuteNo:
			o.PurgeTouched()
			step.Action = ActionOptedOut
		case object.MustExecuteInspect:
			if !dependencyChanged(o, changed) {
				o.PurgeTouched()
				step.Action = ActionSkipped
				break
			}
			fallthrough
		default:
			step.Action = ActionExecuted
			step.Result = e.run(ctx, doc, report.Token, o)
			if step.Result.Outcome != object.OutcomeOkNoChange {
				changed[o] = true
			}
		}

		e.logger.Debug("recompute step",
			"token", report.Token,
			"object", step.Object,
			"policy", step.Policy.String(),
			"action", string(step.Action))
		e.metrics.observeStep(step.Action, step.Result.Outcome)
		report.Steps = append(report.Steps, step)
	}

	e.metrics.observePass(len(order))
	e.logger.Info("recompute finished",
		"token", report.Token,
		"executed", report.Count(ActionExecuted),
		"failed", len(report.Errors()))

	return report, e.record(ctx, report)
}

// RecomputeObject runs o's computation regardless of its policy and
// without visiting dependents.
func (e *Engine) RecomputeObject(ctx context.Context, doc *document.Document, o *object.Object) (*Report, error) {
	if !doc.Contains(o) {
		return nil, fmt.Errorf("recompute %s: %w", o, ErrNotInDocument)
	}
	report := e.newReport(doc)
	report.Seeds = []string{o.Name()}

	step := Step{Object: o.Name(), Policy: o.MustExecute(), Action: ActionExecuted}
	step.Result = e.run(ctx, doc, report.Token, o)
	e.metrics.observeStep(step.Action, step.Result.Outcome)
	e.metrics.observePass(1)
	report.Steps = append(report.Steps, step)

	return report, e.record(ctx, report)
}

func (e *Engine) newReport(doc *document.Document) *Report {
	return &Report{
		Token:    e.tokens.Generate(),
		Seq:      e.clock.Next(),
		Document: doc.Name(),
	}
}

// dependencyChanged reports whether a direct dependency of o is touched, is
// in error, or ran in this pass with a changing outcome.
func dependencyChanged(o *object.Object, changed map[*object.Object]bool) bool {
	for _, dep := range o.OutList() {
		if dep.IsTouched() || dep.IsError() || changed[dep] {
			return true
		}
	}
	return false
}

// run executes o under the recompute status and applies the result.
func (e *Engine) run(ctx context.Context, doc *document.Document, token string, o *object.Object) object.Result {
	res := e.execute(ctx, doc, token, o)
	if res.IsFailed() && res.Which == "" {
		res.Which = o.Name()
	}
	o.ApplyResult(res)

	if res.IsFailed() {
		e.logger.Warn("computation failed",
			"token", token,
			"object", o.Name(),
			"which", res.Which,
			"reason", res.Reason)
	}
	return res
}

func (e *Engine) execute(ctx context.Context, doc *document.Document, token string, o *object.Object) (res object.Result) {
	lock := object.Lock(o, object.StatusRecompute)
	defer lock.Release()
	defer func() {
		if r := recover(); r != nil {
			res = object.Failed(fmt.Sprintf("panic: %v", r), o)
		}
	}()

	return o.Execute(&object.ExecContext{
		Context:   ctx,
		Container: doc,
		Object:    o,
		Token:     token,
		Logger:    e.logger.With("object", o.Name(), "token", token),
	})
}

func (e *Engine) record(ctx context.Context, report *Report) error {
	if e.recorder == nil {
		return nil
	}
	if err := e.recorder.RecordPass(ctx, report.Record()); err != nil {
		e.logger.Error("recording pass failed", "token", report.Token, "error", err)
		return &RecordError{Token: report.Token, Err: err}
	}
	return nil
}
