package object

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/featuregraph/internal/ir"
)

type testDoc struct {
	name string
	seq  int64
}

func (d *testDoc) Name() string { return d.name }

// add attaches a fresh object with a "Base" link and a "Tools" link list.
func (d *testDoc) add(t *testing.T, name string) *Object {
	t.Helper()
	o := New("part")
	o.AddLink("Base")
	o.AddLinkList("Tools")
	o.AddFloat("Length", 1)
	d.seq++
	require.NoError(t, o.Attach(d, name, d.seq))
	return o
}

func base(o *Object) *Link      { return o.Property("Base").(*Link) }
func tools(o *Object) *LinkList { return o.Property("Tools").(*LinkList) }

func names(objs []*Object) []string {
	out := make([]string, len(objs))
	for i, o := range objs {
		out[i] = o.Name()
	}
	return out
}

// assertSymmetric checks M in OutList(N) iff N in InList(M) over objs.
func assertSymmetric(t *testing.T, objs ...*Object) {
	t.Helper()
	for _, n := range objs {
		for _, m := range objs {
			assert.Equal(t, n.IsInOutList(m), m.IsInInList(n),
				"symmetry broken between %s and %s", n.Name(), m.Name())
		}
	}
}

func TestNewAndAttach(t *testing.T) {
	o := New("sketch")
	assert.True(t, o.IsNew())
	assert.Equal(t, "", o.Name())
	assert.Equal(t, "sketch", o.Type())

	doc := &testDoc{name: "d"}
	require.NoError(t, o.Attach(doc, "Sketch", 1))
	assert.False(t, o.IsNew())
	assert.True(t, o.IsTouched())
	assert.Equal(t, "Sketch", o.Name())
	assert.Equal(t, "Sketch", o.Label())
	assert.Equal(t, int64(1), o.Seq())
	assert.Same(t, doc, o.Container())

	err := o.Attach(doc, "Other", 2)
	assert.ErrorIs(t, err, ErrAlreadyAttached)
	assert.Equal(t, "Sketch", o.Name())
}

func TestLabelDistinctFromName(t *testing.T) {
	doc := &testDoc{name: "d"}
	o := doc.add(t, "Pad")
	o.SetLabel("Main pad")
	assert.Equal(t, "Pad", o.Name())
	assert.Equal(t, "Main pad", o.Label())
}

func TestDuplicatePropertyPanics(t *testing.T) {
	o := New("x")
	o.AddFloat("Width", 1)
	assert.Panics(t, func() { o.AddInt("Width", 2) })
}

func TestPropertyWriteTouchesOwner(t *testing.T) {
	doc := &testDoc{name: "d"}
	o := doc.add(t, "A")
	o.PurgeTouched()
	require.False(t, o.IsTouched())

	length := o.Property("Length").(*Float)
	length.Set(5)
	assert.True(t, o.IsTouched())
	assert.True(t, length.Changed())
	assert.Equal(t, []string{"Length"}, o.ChangedProperties())

	o.PurgeTouched()
	assert.False(t, o.IsTouched())
	assert.False(t, length.Changed())
	assert.Empty(t, o.ChangedProperties())
}

func TestOutputWriteDoesNotTouch(t *testing.T) {
	doc := &testDoc{name: "d"}
	o := doc.add(t, "A")
	volume := o.AddFloat("Volume", 0).AsOutput()
	o.PurgeTouched()

	volume.Set(42)
	assert.Equal(t, 42.0, volume.Get())
	assert.True(t, volume.IsOutput())
	assert.False(t, o.IsTouched())
	assert.False(t, volume.Changed())
}

func TestWriteWhileRestoringDoesNotTouch(t *testing.T) {
	doc := &testDoc{name: "d"}
	o := doc.add(t, "A")
	o.PurgeTouched()

	lock := Lock(o, StatusRestore)
	o.Property("Length").(*Float).Set(3)
	lock.Release()

	assert.False(t, o.IsTouched())
	assert.Empty(t, o.ChangedProperties())
}

func TestScalarSetValue(t *testing.T) {
	o := New("x")
	f := o.AddFloat("F", 0)
	i := o.AddInt("I", 0)
	s := o.AddString("S", "")
	b := o.AddBool("B", false)

	require.NoError(t, f.SetValue(ir.IRInt(3)))
	assert.Equal(t, 3.0, f.Get())
	require.NoError(t, f.SetValue(ir.IRFloat(2.5)))
	assert.Equal(t, 2.5, f.Get())

	require.NoError(t, i.SetValue(ir.IRFloat(4)))
	assert.Equal(t, int64(4), i.Get())
	assert.ErrorIs(t, i.SetValue(ir.IRFloat(4.5)), ErrValueKind)

	require.NoError(t, s.SetValue(ir.IRString("hi")))
	assert.Equal(t, "hi", s.Get())
	assert.ErrorIs(t, s.SetValue(ir.IRInt(1)), ErrValueKind)

	require.NoError(t, b.SetValue(ir.IRBool(true)))
	assert.True(t, b.Get())
	assert.ErrorIs(t, b.SetValue(ir.IRString("true")), ErrValueKind)

	assert.Equal(t, ir.KindFloat, f.Kind())
	assert.Equal(t, ir.KindInt, i.Kind())
	assert.Equal(t, ir.KindString, s.Kind())
	assert.Equal(t, ir.KindBool, b.Kind())
	assert.Equal(t, ir.IRFloat(2.5), f.Value())
	assert.Equal(t, ir.IRBool(true), b.Value())
}

func TestStatusBits(t *testing.T) {
	o := New("x")
	o.SetStatus(StatusTouch, true)
	o.SetStatus(StatusExpand, true)
	assert.True(t, o.TestStatus(StatusTouch))
	assert.True(t, o.IsExpanded())
	assert.Equal(t, "touched|new|expanded", o.Status().String())

	o.SetStatus(StatusTouch, false)
	assert.False(t, o.IsTouched())

	bit, err := ReservedBit(7)
	require.NoError(t, err)
	o.SetStatus(bit, true)
	assert.True(t, o.TestStatus(bit))
	assert.Equal(t, "bit7", bit.String())

	_, err = ReservedBit(3)
	assert.Error(t, err)
	_, err = ReservedBit(16)
	assert.Error(t, err)
}

func TestStatusBaseline(t *testing.T) {
	s := Status(1<<StatusTouch | 1<<StatusError | 1<<StatusRecompute | 1<<StatusExpand)
	assert.Equal(t, Status(1<<StatusError|1<<StatusExpand), s.Baseline())

	o := New("x")
	o.RestoreStatus(s)
	assert.True(t, o.IsError())
	assert.True(t, o.IsExpanded())
	assert.False(t, o.IsTouched())
	assert.False(t, o.IsRecomputing())
	assert.False(t, o.IsNew())
}

func TestApplyResultAndStatusString(t *testing.T) {
	doc := &testDoc{name: "d"}
	o := doc.add(t, "Pad")
	assert.Equal(t, "Touched", o.StatusString())

	o.ApplyResult(Failed("profile missing", nil))
	assert.True(t, o.IsError())
	assert.False(t, o.IsTouched())
	assert.False(t, o.IsValid())
	assert.Equal(t, "Error: profile missing", o.StatusString())
	require.NotNil(t, o.ExecError())
	assert.Equal(t, "Pad", o.ExecError().Which)

	o.ApplyResult(Ok())
	assert.False(t, o.IsError())
	assert.Nil(t, o.ExecError())
	assert.True(t, o.IsValid())
	assert.Equal(t, "Valid", o.StatusString())

	o.SetStatus(StatusError, true)
	assert.Equal(t, "Error", o.StatusString())
	o.PurgeError()
	assert.False(t, o.IsError())
}

func TestResult(t *testing.T) {
	doc := &testDoc{name: "d"}
	sketch := doc.add(t, "Sketch")

	r := Failedf(sketch, "width %d", -1)
	assert.True(t, r.IsFailed())
	assert.Equal(t, "width -1", r.Reason)
	assert.Equal(t, "Sketch", r.Which)

	var ee *ExecError
	require.True(t, errors.As(r.Err(), &ee))
	assert.Equal(t, "Sketch: width -1", ee.Error())

	assert.NoError(t, Ok().Err())
	assert.NoError(t, NoChange().Err())
	assert.Equal(t, "ok_no_change", NoChange().Outcome.String())
}

func TestMustExecuteDefault(t *testing.T) {
	doc := &testDoc{name: "d"}
	o := doc.add(t, "A")
	assert.Equal(t, MustExecuteYes, o.MustExecute())

	o.PurgeTouched()
	assert.Equal(t, MustExecuteInspect, o.MustExecute())

	// A changed property alone is enough.
	o.Property("Length").(*Float).Set(2)
	o.SetStatus(StatusTouch, false)
	assert.Equal(t, MustExecuteYes, o.MustExecute())
}

type optOut struct{}

func (optOut) Execute(*ExecContext) Result     { return Ok() }
func (optOut) MustExecute(*Object) MustExecute { return MustExecuteNo }

func TestMustExecuteOverride(t *testing.T) {
	doc := &testDoc{name: "d"}
	o := doc.add(t, "A")
	o.SetBehavior(optOut{})
	assert.Equal(t, MustExecuteNo, o.MustExecute())
	assert.Equal(t, OutcomeOk, o.Execute(&ExecContext{Object: o}).Outcome)
}

func TestExecuteWithoutBehavior(t *testing.T) {
	o := New("x")
	assert.Equal(t, OutcomeOkNoChange, o.Execute(&ExecContext{Object: o}).Outcome)
}

func TestLockerReleasedOnPanic(t *testing.T) {
	o := New("x")
	func() {
		defer func() { _ = recover() }()
		lock := Lock(o, StatusRecompute)
		defer lock.Release()
		require.True(t, o.IsRecomputing())
		panic("boom")
	}()
	assert.False(t, o.IsRecomputing())
}

func TestLockerRestoresPreviousValue(t *testing.T) {
	o := New("x")
	outer := Lock(o, StatusRestore)
	inner := Lock(o, StatusRestore)
	inner.Release()
	assert.True(t, o.IsRestoring())
	outer.Release()
	assert.False(t, o.IsRestoring())

	outer.Release()
	assert.False(t, o.IsRestoring())
}
