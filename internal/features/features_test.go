package features

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/featuregraph/internal/document"
	"github.com/roach88/featuregraph/internal/engine"
	"github.com/roach88/featuregraph/internal/object"
)

func newEngine() *engine.Engine {
	return engine.New(engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func add[B any](t *testing.T, doc *document.Document, typeName, name string) (*object.Object, B) {
	t.Helper()
	o, err := doc.NewObject(typeName, name)
	require.NoError(t, err)
	b, ok := o.Behavior().(B)
	require.True(t, ok, "%s has behaviour %T", name, o.Behavior())
	return o, b
}

func failed(r *engine.Report) []string {
	var names []string
	for _, s := range r.Errors() {
		names = append(names, s.Object)
	}
	return names
}

func recompute(t *testing.T, doc *document.Document) *engine.Report {
	t.Helper()
	report, err := newEngine().Recompute(context.Background(), doc)
	require.NoError(t, err)
	return report
}

type body struct {
	doc                 *document.Document
	sketch, pad, pocket *object.Object
	cutSketch           *object.Object
	sketchB             *Sketch
	padB                *Pad
	pocketB             *Pocket
}

// newBody builds Sketch <- Pad <- Pocket, with the pocket cutting a 2x5
// sketch three units deep.
func newBody(t *testing.T) *body {
	t.Helper()
	b := &body{doc: document.New("Body", NewRegistry())}
	b.sketch, b.sketchB = add[*Sketch](t, b.doc, TypeSketch, "Sketch")
	b.pad, b.padB = add[*Pad](t, b.doc, TypePad, "Pad")
	var cut *Sketch
	b.cutSketch, cut = add[*Sketch](t, b.doc, TypeSketch, "")
	b.pocket, b.pocketB = add[*Pocket](t, b.doc, TypePocket, "Pocket")

	require.NoError(t, b.padB.Profile.Set(b.sketch))
	cut.Width.Set(2)
	cut.Height.Set(5)
	require.NoError(t, b.pocketB.Base.Set(b.pad))
	require.NoError(t, b.pocketB.Profile.Set(b.cutSketch))
	b.pocketB.Depth.Set(3)
	return b
}

func TestRegister(t *testing.T) {
	reg := NewRegistry()
	assert.Equal(t, []string{TypeDatumPlane, TypeGroup, TypePad, TypePocket, TypeSketch}, reg.Types())
	assert.ErrorIs(t, Register(reg), document.ErrDuplicateType)
}

func TestBodyRecompute(t *testing.T) {
	b := newBody(t)
	assert.Equal(t, "Sketch001", b.cutSketch.Name())

	report := recompute(t, b.doc)
	assert.Len(t, report.Executed(), 4)
	assert.Empty(t, failed(report))
	assert.Equal(t, 100.0, b.sketchB.Area())
	assert.Equal(t, 1000.0, b.padB.Volume())
	assert.Equal(t, 970.0, b.pocketB.Volume())

	b.sketchB.Width.Set(20)
	report = recompute(t, b.doc)
	assert.Equal(t, []string{"Sketch", "Pad", "Pocket"}, report.Executed())
	_, visited := report.Step("Sketch001")
	assert.False(t, visited)
	assert.Equal(t, 2000.0, b.padB.Volume())
	assert.Equal(t, 1970.0, b.pocketB.Volume())
}

func TestBodyFailurePropagates(t *testing.T) {
	b := newBody(t)
	recompute(t, b.doc)

	b.sketchB.Width.Set(0)
	report := recompute(t, b.doc)
	assert.Equal(t, []string{"Sketch", "Pad", "Pocket"}, failed(report))

	sketch, _ := report.Step("Sketch")
	assert.Equal(t, "dimensions must be positive, got 0x10", sketch.Result.Reason)
	assert.Equal(t, "Sketch", sketch.Result.Which)

	pad, _ := report.Step("Pad")
	assert.Equal(t, "Profile has errors", pad.Result.Reason)
	assert.Equal(t, "Sketch", pad.Result.Which)

	pocket, _ := report.Step("Pocket")
	assert.Equal(t, "Base has errors", pocket.Result.Reason)
	assert.Equal(t, "Pad", pocket.Result.Which)
	assert.Equal(t, "Error: Base has errors", b.pocket.StatusString())

	b.sketchB.Width.Set(5)
	report = recompute(t, b.doc)
	assert.Empty(t, failed(report))
	assert.Equal(t, 500.0, b.padB.Volume())
	assert.Equal(t, 470.0, b.pocketB.Volume())
	assert.True(t, b.pocket.IsValid())
}

func TestUnchangedOutputSkipsDependents(t *testing.T) {
	b := newBody(t)
	recompute(t, b.doc)

	b.sketchB.Width.Set(20)
	b.sketchB.Height.Set(5)
	report := recompute(t, b.doc)

	sketch, _ := report.Step("Sketch")
	assert.Equal(t, object.OutcomeOkNoChange, sketch.Result.Outcome)
	pad, _ := report.Step("Pad")
	assert.Equal(t, engine.ActionSkipped, pad.Action)
	pocket, _ := report.Step("Pocket")
	assert.Equal(t, engine.ActionSkipped, pocket.Action)
}

func TestPocketTooDeep(t *testing.T) {
	b := newBody(t)
	b.pocketB.Depth.Set(200)
	report := recompute(t, b.doc)
	assert.Equal(t, []string{"Pocket"}, failed(report))
	assert.Equal(t, "Error: pocket removes more than the base holds", b.pocket.StatusString())
}

func TestPadProfileChecks(t *testing.T) {
	doc := document.New("Doc", NewRegistry())
	pad, padB := add[*Pad](t, doc, TypePad, "Pad")
	group, _ := add[*Group](t, doc, TypeGroup, "Group")

	recompute(t, doc)
	assert.Equal(t, "Error: Profile is not set", pad.StatusString())

	require.NoError(t, padB.Profile.Set(group))
	recompute(t, doc)
	assert.Equal(t, "Error: Profile Group is not a profile", pad.StatusString())
}

func TestRemovedProfileFailsPad(t *testing.T) {
	b := newBody(t)
	recompute(t, b.doc)

	require.NoError(t, b.doc.RemoveObject("Sketch"))
	assert.Nil(t, b.padB.Profile.Get())
	assert.True(t, b.pad.IsTouched())

	report := recompute(t, b.doc)
	assert.Equal(t, []string{"Pad", "Pocket"}, failed(report))
	assert.Equal(t, "Error: Profile is not set", b.pad.StatusString())
}

func TestDatumPlane(t *testing.T) {
	doc := document.New("Doc", NewRegistry())
	_, base := add[*DatumPlane](t, doc, TypeDatumPlane, "Base")
	child, childB := add[*DatumPlane](t, doc, TypeDatumPlane, "Child")
	base.Offset.Set(5)
	childB.Offset.Set(2)
	require.NoError(t, childB.Support.Set(doc.Object("Base")))

	recompute(t, doc)
	assert.Equal(t, 7.0, childB.Position())

	t.Run("comment only opts out", func(t *testing.T) {
		childB.Comment.Set("reference for the pocket")
		assert.Equal(t, object.MustExecuteNo, child.MustExecute())

		report := recompute(t, doc)
		step, ok := report.Step("Child")
		require.True(t, ok)
		assert.Equal(t, engine.ActionOptedOut, step.Action)
		assert.False(t, child.IsTouched())
	})

	t.Run("support moves dependents", func(t *testing.T) {
		base.Offset.Set(10)
		assert.Equal(t, object.MustExecuteInspect, child.MustExecute())

		report := recompute(t, doc)
		assert.Equal(t, []string{"Base", "Child"}, report.Executed())
		assert.Equal(t, 12.0, childB.Position())
	})

	t.Run("comment with offset runs", func(t *testing.T) {
		childB.Comment.Set("moved")
		childB.Offset.Set(3)
		assert.Equal(t, object.MustExecuteYes, child.MustExecute())
		recompute(t, doc)
		assert.Equal(t, 13.0, childB.Position())
	})
}

func TestGroup(t *testing.T) {
	b := newBody(t)
	group, groupB := add[*Group](t, b.doc, TypeGroup, "Group")
	require.NoError(t, groupB.Members.Set(b.sketch, b.pad))

	recompute(t, b.doc)
	assert.Equal(t, int64(2), groupB.Count.Get())

	b.sketchB.Width.Set(20)
	report := recompute(t, b.doc)
	step, ok := report.Step("Group")
	require.True(t, ok)
	assert.Equal(t, engine.ActionExecuted, step.Action)
	assert.Equal(t, object.OutcomeOkNoChange, step.Result.Outcome)

	require.NoError(t, groupB.Members.Append(b.pocket))
	recompute(t, b.doc)
	assert.Equal(t, int64(3), groupB.Count.Get())
	assert.True(t, group.IsValid())
}
