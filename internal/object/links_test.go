package object

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chain builds A <- B <- C: B links to A, C links to B.
func chain(t *testing.T) (*testDoc, *Object, *Object, *Object) {
	t.Helper()
	doc := &testDoc{name: "d"}
	a := doc.add(t, "A")
	b := doc.add(t, "B")
	c := doc.add(t, "C")
	require.NoError(t, base(b).Set(a))
	require.NoError(t, base(c).Set(b))
	return doc, a, b, c
}

func TestLinkMaintainsBackLinks(t *testing.T) {
	doc := &testDoc{name: "d"}
	a := doc.add(t, "A")
	b := doc.add(t, "B")
	x := doc.add(t, "X")

	require.NoError(t, base(b).Set(a))
	assert.Equal(t, []string{"A"}, names(b.OutList()))
	assert.Equal(t, []string{"B"}, names(a.InList()))
	assertSymmetric(t, a, b, x)

	require.NoError(t, base(b).Set(x))
	assert.Empty(t, a.InList())
	assert.Equal(t, []string{"B"}, names(x.InList()))
	assertSymmetric(t, a, b, x)

	require.NoError(t, base(b).Set(nil))
	assert.Empty(t, b.OutList())
	assert.Empty(t, x.InList())
	assertSymmetric(t, a, b, x)
}

func TestLinkWriteTouchesOwner(t *testing.T) {
	doc := &testDoc{name: "d"}
	a := doc.add(t, "A")
	b := doc.add(t, "B")
	b.PurgeTouched()
	a.PurgeTouched()

	require.NoError(t, base(b).Set(a))
	assert.True(t, b.IsTouched())
	assert.False(t, a.IsTouched())
}

func TestCycleRejection(t *testing.T) {
	_, a, b, c := chain(t)

	ok, err := a.TestIfLinkAcyclic(c)
	require.NoError(t, err)
	assert.False(t, ok)

	a.PurgeTouched()
	err = base(a).Set(c)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLinkCycle)

	var le *LinkError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "A", le.Object)
	assert.Equal(t, "Base", le.Property)
	assert.Equal(t, "C", le.Target)

	// Nothing moved.
	assert.Nil(t, base(a).Get())
	assert.Empty(t, a.OutList())
	assert.Equal(t, []string{"B"}, names(a.InList()))
	assert.Empty(t, c.InList())
	assert.False(t, a.IsTouched())
	assertSymmetric(t, a, b, c)
}

func TestSelfLinkRejected(t *testing.T) {
	doc := &testDoc{name: "d"}
	a := doc.add(t, "A")

	ok, err := a.TestIfLinkAcyclic(a)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.ErrorIs(t, base(a).Set(a), ErrLinkCycle)
	assert.ErrorIs(t, tools(a).Append(a), ErrLinkCycle)
}

func TestGuardAcceptsDiamond(t *testing.T) {
	_, a, b, c := chain(t)
	ok, err := c.TestIfLinkAcyclic(a, b)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, tools(c).Set(a, b))
	assert.Equal(t, []string{"B", "A", "B"}, names(c.OutList()))
}

func TestLinkListRejectsAtomically(t *testing.T) {
	doc, a, b, c := chain(t)
	d := doc.add(t, "D")

	err := tools(a).Set(d, c)
	assert.ErrorIs(t, err, ErrLinkCycle)
	assert.Equal(t, 0, tools(a).Len())
	assert.Empty(t, d.InList())
	assertSymmetric(t, a, b, c, d)
}

func TestForeignTargetRejected(t *testing.T) {
	doc := &testDoc{name: "d"}
	other := &testDoc{name: "other"}
	a := doc.add(t, "A")
	b := other.add(t, "B")
	detached := New("part")

	assert.ErrorIs(t, base(a).Set(b), ErrForeignObject)
	assert.ErrorIs(t, base(a).Set(detached), ErrForeignObject)
	assert.ErrorIs(t, tools(a).Append(nil), ErrNilTarget)
	assert.Empty(t, b.InList())
}

func TestSetTargetsOnSingleLink(t *testing.T) {
	doc := &testDoc{name: "d"}
	a := doc.add(t, "A")
	b := doc.add(t, "B")
	c := doc.add(t, "C")

	require.NoError(t, base(c).SetTargets([]*Object{a}))
	assert.Same(t, a, base(c).Get())
	assert.ErrorIs(t, base(c).SetTargets([]*Object{a, b}), ErrTooManyTargets)
	require.NoError(t, base(c).SetTargets(nil))
	assert.Nil(t, base(c).Get())
}

func TestBackLinkMultiset(t *testing.T) {
	doc := &testDoc{name: "d"}
	a := doc.add(t, "A")
	b := doc.add(t, "B")

	// B reaches A through two properties and twice through the list.
	require.NoError(t, base(b).Set(a))
	require.NoError(t, tools(b).Set(a, a))
	assert.Equal(t, []string{"A", "A", "A"}, names(b.OutList()))
	assert.Equal(t, []string{"B"}, names(a.InList()))

	assert.Equal(t, 2, tools(b).Remove(a))
	assert.True(t, a.IsInInList(b), "still linked through Base")
	assertSymmetric(t, a, b)

	require.NoError(t, base(b).Set(nil))
	assert.False(t, a.IsInInList(b))
	assertSymmetric(t, a, b)

	assert.Equal(t, 0, tools(b).Remove(a))
}

func TestRemoveBackLinkIsIdempotent(t *testing.T) {
	doc := &testDoc{name: "d"}
	a := doc.add(t, "A")
	b := doc.add(t, "B")

	a.removeBackLink(b)
	assert.Empty(t, a.InList())

	a.addBackLink(b)
	a.removeBackLink(b)
	a.removeBackLink(b)
	assert.Empty(t, a.InList())
}

func TestRecursiveQueries(t *testing.T) {
	doc, a, b, c := chain(t)
	d := doc.add(t, "D")
	require.NoError(t, tools(d).Set(a))

	out, err := c.OutListRecursive()
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A"}, names(out))

	in, err := a.InListRecursive()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"B", "C", "D"}, names(in))

	dep, err := c.IsInOutListRecursive(a)
	require.NoError(t, err)
	assert.True(t, dep)

	dep, err = a.IsInInListRecursive(c)
	require.NoError(t, err)
	assert.True(t, dep)

	dep, err = d.IsInOutListRecursive(b)
	require.NoError(t, err)
	assert.False(t, dep)

	assert.True(t, b.IsInOutList(a))
	assert.False(t, c.IsInOutList(a))
	assert.True(t, a.IsInInList(b))
	assert.False(t, a.IsInInList(c))
}

func TestAcyclicityInvariantOverEdits(t *testing.T) {
	doc := &testDoc{name: "d"}
	objs := make([]*Object, 5)
	for i := range objs {
		objs[i] = doc.add(t, string(rune('A'+i)))
	}

	// Try every ordered pair; accepted edits must never make a node reach itself.
	for _, from := range objs {
		for _, to := range objs {
			_ = tools(from).Append(to)
		}
	}
	for _, o := range objs {
		reach, err := o.OutListRecursive()
		require.NoError(t, err)
		assert.NotContains(t, reach, o)
	}
	assertSymmetric(t, objs...)
}

// forceLink bypasses the guard the way a restore does.
func forceLink(t *testing.T, from, to *Object) {
	t.Helper()
	lock := Lock(from, StatusRestore)
	defer lock.Release()
	require.NoError(t, tools(from).Append(to))
}

func TestPreExistingCycleIsConsistencyFault(t *testing.T) {
	doc, a, _, c := chain(t)
	forceLink(t, a, c)

	_, err := c.OutListRecursive()
	require.Error(t, err)
	assert.True(t, IsConsistencyError(err))
	assert.True(t, IsCycleInGraph(err))

	var ce *ConsistencyError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, []string{"C", "B", "A", "C"}, ce.Path)

	_, err = a.InListRecursive()
	assert.True(t, IsCycleInGraph(err))

	// The guard surfaces the fault instead of answering false.
	x := doc.add(t, "X")
	_, err = x.TestIfLinkAcyclic(c)
	assert.True(t, IsCycleInGraph(err))
}

func TestDropLinksTo(t *testing.T) {
	doc := &testDoc{name: "d"}
	a := doc.add(t, "A")
	b := doc.add(t, "B")
	c := doc.add(t, "C")
	require.NoError(t, base(c).Set(a))
	require.NoError(t, tools(c).Set(a, b, a))
	c.PurgeTouched()

	assert.Equal(t, 3, c.DropLinksTo(a))
	assert.True(t, c.IsTouched())
	assert.Equal(t, []string{"B"}, names(c.OutList()))
	assert.Empty(t, a.InList())
	assertSymmetric(t, a, b, c)
}

func TestOnLostLinkDefault(t *testing.T) {
	_, a, b, _ := chain(t)
	b.OnLostLink(a)
	assert.Nil(t, base(b).Get())
	assert.Empty(t, a.InList())
}

type keepLinks struct{ lost []*Object }

func (k *keepLinks) Execute(*ExecContext) Result { return Ok() }
func (k *keepLinks) OnLostLink(_ *Object, lost *Object) {
	k.lost = append(k.lost, lost)
}

func TestOnLostLinkHandler(t *testing.T) {
	_, a, b, _ := chain(t)
	h := &keepLinks{}
	b.SetBehavior(h)

	b.OnLostLink(a)
	assert.Equal(t, []*Object{a}, h.lost)
	assert.Same(t, a, base(b).Get())
}

func TestClearLinks(t *testing.T) {
	doc, a, b, c := chain(t)
	d := doc.add(t, "D")
	require.NoError(t, tools(b).Set(d, d))

	b.ClearLinks()
	assert.Empty(t, b.OutList())
	assert.Empty(t, a.InList())
	assert.Empty(t, d.InList())
	// Links into B are untouched.
	assert.Equal(t, []string{"C"}, names(b.InList()))
	assertSymmetric(t, a, b, c, d)
}

func TestInListOrderedBySeq(t *testing.T) {
	doc := &testDoc{name: "d"}
	a := doc.add(t, "A")
	z := doc.add(t, "Z")
	m := doc.add(t, "M")
	require.NoError(t, base(m).Set(a))
	require.NoError(t, base(z).Set(a))

	assert.Equal(t, []string{"Z", "M"}, names(a.InList()))
}
