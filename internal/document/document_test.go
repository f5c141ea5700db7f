package document

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/featuregraph/internal/ir"
	"github.com/roach88/featuregraph/internal/object"
)

// part has a single link, a link list, an input and an output.
type part struct {
	Base   *object.Link
	Tools  *object.LinkList
	Length *object.Float
	Volume *object.Float

	setups, unsetups, restored int
	lost                       []string
	keepLinks                  bool
}

func (p *part) Execute(*object.ExecContext) object.Result { return object.Ok() }

func (p *part) Setup(*object.Object)   { p.setups++ }
func (p *part) Unsetup(*object.Object) { p.unsetups++ }

func (p *part) OnDocumentRestored(*object.Object) { p.restored++ }

func (p *part) OnLostLink(o *object.Object, lost *object.Object) {
	p.lost = append(p.lost, lost.Name())
	if !p.keepLinks {
		o.DropLinksTo(lost)
	}
}

func newPart(o *object.Object) object.Behavior {
	return &part{
		Base:   o.AddLink("Base"),
		Tools:  o.AddLinkList("Tools"),
		Length: o.AddFloat("Length", 1),
		Volume: o.AddFloat("Volume", 0).AsOutput(),
	}
}

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	reg := NewRegistry()
	require.NoError(t, reg.Register("part", newPart))
	return reg
}

func behavior(o *object.Object) *part {
	return o.Behavior().(*part)
}

func mustNew(t *testing.T, d *Document, name string) *object.Object {
	t.Helper()
	o, err := d.NewObject("part", name)
	require.NoError(t, err)
	return o
}

func objNames(objs []*object.Object) []string {
	out := make([]string, len(objs))
	for i, o := range objs {
		out[i] = o.Name()
	}
	return out
}

// bracket builds Sketch <- Pad <- Pocket, with Pocket also using Sketch.
func bracket(t *testing.T) (*Document, *object.Object, *object.Object, *object.Object) {
	t.Helper()
	d := New("bracket", testRegistry(t))
	sketch := mustNew(t, d, "Sketch")
	pad := mustNew(t, d, "Pad")
	pocket := mustNew(t, d, "Pocket")
	require.NoError(t, behavior(pad).Base.Set(sketch))
	require.NoError(t, behavior(pocket).Base.Set(pad))
	require.NoError(t, behavior(pocket).Tools.Set(sketch))
	return d, sketch, pad, pocket
}

func TestRegistry(t *testing.T) {
	reg := testRegistry(t)
	require.NoError(t, reg.Register("group", newPart))
	assert.ErrorIs(t, reg.Register("part", newPart), ErrDuplicateType)
	assert.Equal(t, []string{"group", "part"}, reg.Types())
	assert.True(t, reg.Has("group"))
	assert.False(t, reg.Has("missing"))

	_, err := reg.Build("missing")
	assert.ErrorIs(t, err, ErrUnknownType)

	o, err := reg.Build("part")
	require.NoError(t, err)
	assert.True(t, o.IsNew())
	assert.NotNil(t, o.Property("Length"))
}

func TestNewObjectUniqueNames(t *testing.T) {
	d := New("d", testRegistry(t))

	a := mustNew(t, d, "Pad")
	b := mustNew(t, d, "Pad")
	c := mustNew(t, d, "Pad")
	e := mustNew(t, d, "")
	f := mustNew(t, d, "my part")
	g := mustNew(t, d, "2nd")

	assert.Equal(t, "Pad", a.Name())
	assert.Equal(t, "Pad001", b.Name())
	assert.Equal(t, "Pad002", c.Name())
	assert.Equal(t, "part", e.Name())
	assert.Equal(t, "my_part", f.Name())
	assert.Equal(t, "_2nd", g.Name())

	assert.Equal(t, []int64{1, 2, 3}, []int64{a.Seq(), b.Seq(), c.Seq()})
	assert.Equal(t, 6, d.Len())
}

func TestNewObjectErrors(t *testing.T) {
	d := New("d", testRegistry(t))
	_, err := d.NewObject("missing", "X")
	assert.ErrorIs(t, err, ErrUnknownType)

	bare := New("bare", nil)
	_, err = bare.NewObject("part", "X")
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestAddObjectLifecycle(t *testing.T) {
	d := New("d", testRegistry(t))
	o := mustNew(t, d, "Pad")

	assert.False(t, o.IsNew())
	assert.True(t, o.IsTouched())
	assert.Equal(t, 1, behavior(o).setups)
	assert.Same(t, d, o.Container())
	assert.True(t, d.Contains(o))

	err := d.AddObject(o, "Again")
	assert.ErrorIs(t, err, object.ErrAlreadyAttached)
}

func TestQueries(t *testing.T) {
	d, sketch, pad, pocket := bracket(t)

	assert.Equal(t, []string{"Sketch", "Pad", "Pocket"}, objNames(d.Objects()))
	assert.Equal(t, []string{"Pad", "Pocket", "Sketch"}, d.Names())
	assert.Same(t, pad, d.Object("Pad"))
	assert.Nil(t, d.Object("Nope"))

	_, err := d.Lookup("Nope")
	assert.ErrorIs(t, err, ErrNotFound)

	for _, o := range d.Objects() {
		o.PurgeTouched()
	}
	behavior(sketch).Length.Set(3)
	pocket.ApplyResult(object.Failed("boom", nil))

	assert.Equal(t, []string{"Sketch"}, objNames(d.TouchedObjects()))
	assert.Equal(t, []string{"Pocket"}, objNames(d.ErroredObjects()))
}

func TestLabels(t *testing.T) {
	d := New("d", testRegistry(t))
	a := mustNew(t, d, "A")
	b := mustNew(t, d, "B")

	label, err := d.RelabelObject("A", "Caf\u00e9")
	require.NoError(t, err)
	assert.Equal(t, "Caf\u00e9", label)
	assert.Same(t, a, d.ObjectByLabel("Cafe\u0301"))

	// Same label in decomposed form collides and gets a suffix.
	label, err = d.RelabelObject("B", "Cafe\u0301")
	require.NoError(t, err)
	assert.Equal(t, "Cafe\u0301001", label)
	assert.Equal(t, label, b.Label())

	// Relabelling to its own label is fine.
	label, err = d.RelabelObject("A", "Caf\u00e9")
	require.NoError(t, err)
	assert.Equal(t, "Caf\u00e9", label)

	_, err = d.RelabelObject("Z", "x")
	assert.ErrorIs(t, err, ErrNotFound)

	// Pre-set labels that collide are made unique on add.
	o, err := testRegistry(t).Build("part")
	require.NoError(t, err)
	o.SetLabel("Caf\u00e9")
	require.NoError(t, d.AddObject(o, "C"))
	assert.Equal(t, "Caf\u00e9002", o.Label())
}

func TestRemoveObject(t *testing.T) {
	d, sketch, pad, pocket := bracket(t)
	for _, o := range d.Objects() {
		o.PurgeTouched()
	}

	require.NoError(t, d.RemoveObject("Pad"))

	assert.Nil(t, d.Object("Pad"))
	assert.Equal(t, []string{"Sketch", "Pocket"}, objNames(d.Objects()))
	assert.Nil(t, pad.Container())
	assert.False(t, pad.IsDeleting())
	assert.Equal(t, 1, behavior(pad).unsetups)

	// Dependent lost its link and was touched.
	assert.Equal(t, []string{"Pad"}, behavior(pocket).lost)
	assert.Nil(t, behavior(pocket).Base.Get())
	assert.True(t, pocket.IsTouched())
	assert.Equal(t, []string{"Sketch"}, objNames(pocket.OutList()))

	// The victim's own links are gone from its targets.
	assert.Equal(t, []string{"Pocket"}, objNames(sketch.InList()))
	assert.Empty(t, pad.OutList())
	assert.False(t, sketch.IsTouched())

	require.NoError(t, d.CheckConsistency())
	assert.ErrorIs(t, d.RemoveObject("Pad"), ErrNotFound)
}

func TestRemoveObjectDropsKeptLinks(t *testing.T) {
	d, sketch, pad, _ := bracket(t)
	behavior(pad).keepLinks = true

	require.NoError(t, d.RemoveObject("Sketch"))
	assert.Equal(t, []string{"Sketch"}, behavior(pad).lost)
	assert.Nil(t, behavior(pad).Base.Get())
	assert.Empty(t, sketch.InList())
	require.NoError(t, d.CheckConsistency())
}

func TestRemoveObjectLogsToDocumentLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	d := New("bracket", testRegistry(t), WithLogger(logger))
	assert.Same(t, logger, d.Logger())
	sketch := mustNew(t, d, "Sketch")
	pad := mustNew(t, d, "Pad")
	require.NoError(t, behavior(pad).Base.Set(sketch))
	behavior(pad).keepLinks = true

	require.NoError(t, d.RemoveObject("Sketch"))
	out := buf.String()
	assert.Contains(t, out, "lost-link handler kept links")
	assert.Contains(t, out, "object=Pad")
	assert.Contains(t, out, "lost=Sketch")
	assert.Contains(t, out, "links=1")
}

func TestNewDefaultsToDefaultLogger(t *testing.T) {
	d := New("empty", nil, WithLogger(nil))
	assert.Same(t, slog.Default(), d.Logger())
}

func TestRemovedNameIsReusable(t *testing.T) {
	d, _, _, _ := bracket(t)
	require.NoError(t, d.RemoveObject("Pocket"))
	o := mustNew(t, d, "Pocket")
	assert.Equal(t, "Pocket", o.Name())
	assert.Equal(t, int64(4), o.Seq())
}

func TestTopologicalOrder(t *testing.T) {
	d, sketch, pad, pocket := bracket(t)
	free := mustNew(t, d, "Free")

	order, err := d.TopologicalOrder(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Sketch", "Pad", "Pocket", "Free"}, objNames(order))

	// Subsets ignore outside edges.
	order, err = d.TopologicalOrder([]*object.Object{pocket, free, pad})
	require.NoError(t, err)
	assert.Equal(t, []string{"Pad", "Pocket", "Free"}, objNames(order))

	// Tie break by seq regardless of input order.
	order, err = d.TopologicalOrder([]*object.Object{free, sketch})
	require.NoError(t, err)
	assert.Equal(t, []string{"Sketch", "Free"}, objNames(order))
}

func TestTopologicalOrderDependencyBeforeSeq(t *testing.T) {
	d := New("d", testRegistry(t))
	late := mustNew(t, d, "Late")
	early := mustNew(t, d, "Early")
	// Late (seq 1) depends on Early (seq 2).
	require.NoError(t, behavior(late).Base.Set(early))

	order, err := d.TopologicalOrder(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Early", "Late"}, objNames(order))
}

func forceCycle(t *testing.T, from, to *object.Object) {
	t.Helper()
	lock := object.Lock(from, object.StatusRestore)
	defer lock.Release()
	require.NoError(t, behavior(from).Tools.Append(to))
}

func TestCycleIsConsistencyFault(t *testing.T) {
	d, sketch, _, pocket := bracket(t)
	require.NoError(t, d.CheckConsistency())

	forceCycle(t, sketch, pocket)

	_, err := d.TopologicalOrder(nil)
	require.Error(t, err)
	assert.True(t, object.IsCycleInGraph(err))

	err = d.CheckConsistency()
	assert.True(t, object.IsCycleInGraph(err))
}

func TestSnapshotRestore(t *testing.T) {
	d, sketch, pad, pocket := bracket(t)
	behavior(sketch).Length.Set(7)
	behavior(pad).Volume.Set(70)
	pocket.ApplyResult(object.Failed("no room", pad))
	pad.SetExpanded(true)
	pad.SetStatus(object.StatusRecompute, true)
	_, err := d.RelabelObject("Pad", "Main pad")
	require.NoError(t, err)

	snap := d.Snapshot()
	require.Len(t, snap.Objects, 3)
	assert.Equal(t, "bracket", snap.Name)
	assert.Equal(t, "Pocket", snap.Objects[2].Name)
	require.NotNil(t, snap.Objects[2].Error)
	assert.Equal(t, "Pad", snap.Objects[2].Error.Which)
	assert.Equal(t, uint32(1<<object.StatusExpand), snap.Objects[1].Status)

	restored, err := Restore(snap, testRegistry(t))
	require.NoError(t, err)
	require.NoError(t, restored.CheckConsistency())

	for _, orig := range d.Objects() {
		got := restored.Object(orig.Name())
		require.NotNil(t, got, orig.Name())
		assert.Equal(t, orig.Label(), got.Label())
		assert.Equal(t, objNames(orig.OutList()), objNames(got.OutList()))
		assert.Equal(t, objNames(orig.InList()), objNames(got.InList()))
		assert.False(t, got.IsTouched(), got.Name())
		assert.False(t, got.IsRecomputing(), got.Name())
		assert.False(t, got.IsRestoring(), got.Name())
		assert.False(t, got.IsNew(), got.Name())
		assert.Empty(t, got.ChangedProperties())
		assert.Equal(t, 1, behavior(got).restored)
		assert.Equal(t, 0, behavior(got).setups)
	}

	assert.Equal(t, 7.0, behavior(restored.Object("Sketch")).Length.Get())
	assert.True(t, restored.Object("Pad").IsExpanded())
	assert.True(t, restored.Object("Pocket").IsError())
	assert.Equal(t, "Error: no room", restored.Object("Pocket").StatusString())

	// Same content hashes the same.
	h1, err := ir.SnapshotHash(snap)
	require.NoError(t, err)
	h2, err := ir.SnapshotHash(restored.Snapshot())
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	// Names stay unique against restored ones.
	o := mustNew(t, restored, "Pad")
	assert.Equal(t, "Pad001", o.Name())
	assert.Equal(t, int64(4), o.Seq())
}

func TestRestoreErrors(t *testing.T) {
	d, _, _, _ := bracket(t)
	reg := testRegistry(t)

	snap := d.Snapshot()
	snap.Objects[0].Type = "missing"
	_, err := Restore(snap, reg)
	assert.ErrorIs(t, err, ErrUnknownType)

	snap = d.Snapshot()
	snap.Objects[0].Properties = append(snap.Objects[0].Properties,
		ir.PropertyRecord{Name: "Nope", Kind: ir.KindInt, Value: ir.IRInt(1)})
	_, err = Restore(snap, reg)
	assert.ErrorIs(t, err, ErrUnknownProperty)

	snap = d.Snapshot()
	snap.Objects[1].Links[0].Targets = []string{"Ghost"}
	_, err = Restore(snap, reg)
	assert.ErrorIs(t, err, ErrNotFound)

	snap = d.Snapshot()
	snap.Objects[1].Name = "Sketch"
	_, err = Restore(snap, reg)
	assert.ErrorIs(t, err, ErrDuplicateName)

	// A cycle written into the file is caught after loading.
	snap = d.Snapshot()
	snap.Objects[0].Links[1].Targets = []string{"Pocket"}
	_, err = Restore(snap, reg)
	assert.True(t, object.IsCycleInGraph(err))
}
