package testutil

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/featuregraph/internal/document"
	"github.com/roach88/featuregraph/internal/object"
)

// ProbeType is the registry name of Probe objects.
const ProbeType = "probe"

// Call is one recorded computation.
type Call struct {
	Object string

	// DepsClean reports that, when the computation started, no direct
	// dependency was touched or recomputing.
	DepsClean bool

	// Recomputing reports the object's own recompute bit during the call.
	Recomputing bool
}

// Log collects calls from every probe of a graph, in order.
type Log struct {
	calls []Call
}

// Calls returns the recorded calls.
func (l *Log) Calls() []Call {
	return slices.Clone(l.calls)
}

// Names returns the names of the objects computed, in order.
func (l *Log) Names() []string {
	names := make([]string, len(l.calls))
	for i, c := range l.calls {
		names[i] = c.Object
	}
	return names
}

// Reset forgets all calls.
func (l *Log) Reset() {
	l.calls = nil
}

// Probe is a behaviour that records its calls and returns a scripted result.
// It declares an "Input" float and a "Deps" link list.
type Probe struct {
	Input *object.Float
	Deps  *object.LinkList

	// Result is returned by Execute.
	Result object.Result

	// Panic, when non-nil, is raised inside Execute.
	Panic any

	log *Log
}

// Execute implements object.Behavior.
func (p *Probe) Execute(ctx *object.ExecContext) object.Result {
	o := ctx.Object
	clean := true
	for _, dep := range o.OutList() {
		if dep.IsTouched() || dep.IsRecomputing() {
			clean = false
		}
	}
	p.log.calls = append(p.log.calls, Call{
		Object:      o.Name(),
		DepsClean:   clean,
		Recomputing: o.IsRecomputing(),
	})
	if p.Panic != nil {
		panic(p.Panic)
	}
	return p.Result
}

// policyProbe pins a Probe's MustExecute answer.
type policyProbe struct {
	*Probe
	policy object.MustExecute
}

func (p policyProbe) MustExecute(*object.Object) object.MustExecute {
	return p.policy
}

// Graph is a document of probes sharing one call log.
type Graph struct {
	Doc *document.Document
	Log *Log
}

// NewGraph returns an empty probe graph.
func NewGraph(t testing.TB) *Graph {
	t.Helper()
	log := &Log{}
	reg := document.NewRegistry()
	require.NoError(t, reg.Register(ProbeType, func(o *object.Object) object.Behavior {
		return &Probe{
			Input:  o.AddFloat("Input", 0),
			Deps:   o.AddLinkList("Deps"),
			Result: object.Ok(),
			log:    log,
		}
	}))
	return &Graph{Doc: document.New("probe-graph", reg), Log: log}
}

// Add creates a probe named name depending on deps, which must exist.
func (g *Graph) Add(t testing.TB, name string, deps ...string) *object.Object {
	t.Helper()
	o, err := g.Doc.NewObject(ProbeType, name)
	require.NoError(t, err)
	require.Equal(t, name, o.Name(), "name already taken")
	for _, d := range deps {
		require.NoError(t, g.Probe(t, name).Deps.Append(g.Object(t, d)))
	}
	return o
}

// Object returns the named object.
func (g *Graph) Object(t testing.TB, name string) *object.Object {
	t.Helper()
	o, err := g.Doc.Lookup(name)
	require.NoError(t, err)
	return o
}

// Probe returns the behaviour of the named object.
func (g *Graph) Probe(t testing.TB, name string) *Probe {
	t.Helper()
	o := g.Object(t, name)
	switch b := o.Behavior().(type) {
	case *Probe:
		return b
	case policyProbe:
		return b.Probe
	}
	t.Fatalf("object %s is not a probe", name)
	return nil
}

// SetPolicy pins the MustExecute answer of the named probe.
func (g *Graph) SetPolicy(t testing.TB, name string, policy object.MustExecute) {
	t.Helper()
	g.Object(t, name).SetBehavior(policyProbe{Probe: g.Probe(t, name), policy: policy})
}

// Settle clears touched and error state on every object and forgets the log,
// as if a successful pass had just run.
func (g *Graph) Settle() {
	for _, o := range g.Doc.Objects() {
		o.PurgeTouched()
		o.PurgeError()
	}
	g.Log.Reset()
}
