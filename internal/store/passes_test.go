package store

import (
	"context"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/roach88/featuregraph/internal/engine"
	"github.com/roach88/featuregraph/internal/features"
	"github.com/roach88/featuregraph/internal/ir"
)

var _ engine.Recorder = (*Store)(nil)

func testPass(token string, seq int64, document string) ir.PassRecord {
	return ir.PassRecord{
		Token:    token,
		Seq:      seq,
		Document: document,
		Steps: []ir.StepRecord{
			{Object: "Sketch", Action: "executed", Outcome: "ok"},
			{Object: "Pad", Action: "executed", Outcome: "failed", Reason: "Profile has errors", Which: "Sketch"},
			{Object: "Datum", Action: "opted_out"},
		},
	}
}

func TestRecordPass_ReadBack(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	pass := testPass("pass-1", 1, "Body")
	if err := s.RecordPass(ctx, pass); err != nil {
		t.Fatalf("RecordPass() failed: %v", err)
	}

	passes, err := s.ReadPasses(ctx, "Body")
	if err != nil {
		t.Fatalf("ReadPasses() failed: %v", err)
	}
	if len(passes) != 1 {
		t.Fatalf("got %d passes, want 1", len(passes))
	}
	if !reflect.DeepEqual(passes[0].PassRecord, pass) {
		t.Errorf("ReadPasses()[0] = %+v\nwant %+v", passes[0].PassRecord, pass)
	}
	want, _ := ir.PassHash(pass)
	if passes[0].Hash != want {
		t.Errorf("hash = %s, want %s", passes[0].Hash, want)
	}
}

func TestRecordPass_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first := testPass("pass-1", 1, "Body")
	second := testPass("pass-1", 7, "Other")
	second.Steps = nil

	if err := s.RecordPass(ctx, first); err != nil {
		t.Fatalf("first RecordPass() failed: %v", err)
	}
	if err := s.RecordPass(ctx, second); err != nil {
		t.Fatalf("duplicate RecordPass() failed: %v", err)
	}

	passes, err := s.ReadPasses(ctx, "")
	if err != nil {
		t.Fatalf("ReadPasses() failed: %v", err)
	}
	if len(passes) != 1 || passes[0].Seq != 1 || len(passes[0].Steps) != 3 {
		t.Errorf("duplicate token overwrote the first pass: %+v", passes)
	}
}

func TestReadPasses_Ordering(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, p := range []ir.PassRecord{
		testPass("c", 3, "Body"),
		testPass("a", 1, "Body"),
		testPass("x", 2, "Other"),
		testPass("b", 3, "Body"),
	} {
		if err := s.RecordPass(ctx, p); err != nil {
			t.Fatalf("RecordPass(%s) failed: %v", p.Token, err)
		}
	}

	tokens := func(passes []PassSummary) []string {
		var out []string
		for _, p := range passes {
			out = append(out, p.Token)
		}
		return out
	}

	body, err := s.ReadPasses(ctx, "Body")
	if err != nil {
		t.Fatalf("ReadPasses(Body) failed: %v", err)
	}
	if got, want := tokens(body), []string{"a", "b", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Body passes = %v, want %v", got, want)
	}

	all, err := s.ReadPasses(ctx, "")
	if err != nil {
		t.Fatalf("ReadPasses(all) failed: %v", err)
	}
	if got, want := tokens(all), []string{"a", "x", "b", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("all passes = %v, want %v", got, want)
	}

	none, err := s.ReadPasses(ctx, "Missing")
	if err != nil {
		t.Fatalf("ReadPasses(Missing) failed: %v", err)
	}
	if none == nil || len(none) != 0 {
		t.Errorf("ReadPasses(Missing) = %#v, want empty slice", none)
	}
}

func TestLastSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	seq, err := s.LastSeq(ctx)
	if err != nil || seq != 0 {
		t.Fatalf("LastSeq() on empty store = %d, %v", seq, err)
	}

	for _, p := range []ir.PassRecord{testPass("a", 4, "Body"), testPass("b", 9, "Other")} {
		if err := s.RecordPass(ctx, p); err != nil {
			t.Fatalf("RecordPass() failed: %v", err)
		}
	}
	seq, err = s.LastSeq(ctx)
	if err != nil || seq != 9 {
		t.Errorf("LastSeq() = %d, %v; want 9", seq, err)
	}
}

func TestEngineRecordsThroughStore(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	doc := buildBody(t)

	last, err := s.LastSeq(ctx)
	if err != nil {
		t.Fatalf("LastSeq() failed: %v", err)
	}
	e := engine.New(
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		engine.WithRecorder(s),
		engine.WithClock(engine.NewClockAt(last+10)),
		engine.WithTokenGenerator(engine.NewFixedGenerator("resume")),
	)

	doc.Object("Sketch").Behavior().(*features.Sketch).Height.Set(4)
	report, err := e.Recompute(ctx, doc)
	if err != nil {
		t.Fatalf("Recompute() failed: %v", err)
	}

	passes, err := s.ReadPasses(ctx, "Body")
	if err != nil {
		t.Fatalf("ReadPasses() failed: %v", err)
	}
	if len(passes) != 1 {
		t.Fatalf("got %d passes, want 1", len(passes))
	}
	if passes[0].Token != "resume" || passes[0].Seq != 11 {
		t.Errorf("pass = %s/%d, want resume/11", passes[0].Token, passes[0].Seq)
	}
	if !reflect.DeepEqual(passes[0].PassRecord, report.Record()) {
		t.Errorf("stored pass %+v differs from report %+v", passes[0].PassRecord, report.Record())
	}
}
