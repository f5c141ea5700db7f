package cli

import (
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/featuregraph/internal/document"
	"github.com/roach88/featuregraph/internal/engine"
	"github.com/roach88/featuregraph/internal/harness"
	"github.com/roach88/featuregraph/internal/ir"
	"github.com/roach88/featuregraph/internal/store"
)

// RecomputeOptions holds flags for the recompute command.
type RecomputeOptions struct {
	*RootOptions
	Sets    []string // Object.Property=value
	Links   []string // Object.Property=Target,Target
	Touch   []string // object names
	Object  string   // recompute one object instead of the document
	DB      string
	Metrics bool
}

// RecomputeResult is the report of the pass the command ran.
type RecomputeResult struct {
	ir.PassRecord
	Seeds   []string `json:"seeds"`
	Failed  int      `json:"failed"`
	Metrics string   `json:"metrics,omitempty"`
}

func (r RecomputeResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Pass %s (seq %d) on %s, seeds %v\n", r.Token, r.Seq, r.Document, r.Seeds)

	width := 0
	for _, s := range r.Steps {
		width = max(width, len(s.Object))
	}
	counts := map[string]int{}
	for _, s := range r.Steps {
		counts[s.Action]++
		fmt.Fprintf(&b, "  %s %-*s  %s\n", stepMark(s), width, s.Object, describeStep(s))
	}
	fmt.Fprintf(&b, "%d executed, %d skipped, %d opted out, %d failed",
		counts[string(engine.ActionExecuted)],
		counts[string(engine.ActionSkipped)],
		counts[string(engine.ActionOptedOut)],
		r.Failed)
	if r.Metrics != "" {
		b.WriteString("\n\n")
		b.WriteString(strings.TrimSuffix(r.Metrics, "\n"))
	}
	return b.String()
}

func stepMark(s ir.StepRecord) string {
	switch {
	case s.Action != string(engine.ActionExecuted):
		return "-"
	case s.Outcome == "failed":
		return "\u2717"
	default:
		return "\u2713"
	}
}

func describeStep(s ir.StepRecord) string {
	if s.Action != string(engine.ActionExecuted) {
		return s.Action
	}
	if s.Reason == "" {
		return s.Outcome
	}
	if s.Which != "" && s.Which != s.Object {
		return fmt.Sprintf("%s: %s (%s)", s.Outcome, s.Reason, s.Which)
	}
	return fmt.Sprintf("%s: %s", s.Outcome, s.Reason)
}

// NewRecomputeCommand creates the recompute command.
func NewRecomputeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecomputeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "recompute <definition|document>",
		Short: "Recompute a document and report every visited object",
		Long: `Recompute a document in dependency order.

The argument is a definition file or directory, or the name of a document
stored with 'featuregraph save'. A stored document is restored, edited,
recomputed and saved back.

Edits given with --set, --link and --touch are applied after a first pass
over a fresh definition, so the report shows what the edits cause.

With a database (--db or store.path) every pass is appended to its history.

Exit codes:
  0 - Pass completed and no object failed
  1 - One or more objects failed
  2 - Command error (bad definition, unknown object, invalid edit)

Examples:
  featuregraph recompute body.yaml
  featuregraph recompute body.yaml --set Sketch.Width=0
  featuregraph recompute body.yaml --link Pocket.Profile=Sketch --touch Parts
  featuregraph recompute Body --db body.db --set Pad.Length=4 --metrics`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecompute(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Sets, "set", nil, "set a property, Object.Property=value (repeatable)")
	cmd.Flags().StringArrayVar(&opts.Links, "link", nil, "set link targets, Object.Property=A,B (repeatable, empty clears)")
	cmd.Flags().StringSliceVar(&opts.Touch, "touch", nil, "touch objects before recomputing")
	cmd.Flags().StringVar(&opts.Object, "object", "", "recompute only this object")
	cmd.Flags().StringVar(&opts.DB, "db", "", "database recording pass history")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "print recompute metrics")

	return cmd
}

func runRecompute(opts *RecomputeOptions, arg string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	ctx := cmd.Context()

	edits, err := opts.edits()
	if err != nil {
		return f.Fail(ExitCommandError, CodeUsage, "invalid edit", err)
	}

	var st *store.Store
	if opts.dbPath(opts.DB) != "" {
		if st, err = openStore(opts.RootOptions, f, opts.DB); err != nil {
			return err
		}
		defer st.Close()
	}

	engineOpts := []engine.Option{engine.WithLogger(opts.logger())}
	if st != nil {
		last, err := st.LastSeq(ctx)
		if err != nil {
			return f.Fail(ExitCommandError, CodeStore, "failed to read pass history", err)
		}
		engineOpts = append(engineOpts, engine.WithClock(engine.NewClockAt(last)), engine.WithRecorder(st))
	}
	var reg *prometheus.Registry
	if opts.Metrics {
		reg = prometheus.NewRegistry()
		engineOpts = append(engineOpts, engine.WithMetrics(engine.NewMetrics(reg)))
	}
	eng := engine.New(engineOpts...)

	var (
		doc    *document.Document
		stored bool
	)
	switch {
	case isDefinitionPath(arg):
		if doc, err = buildDocument(opts.RootOptions, f, arg); err != nil {
			return err
		}
		if len(edits) > 0 {
			if _, err := eng.Recompute(ctx, doc); err != nil {
				return f.Fail(ExitCommandError, CodeRecompute, "initial recompute failed", err)
			}
		}
	case st != nil:
		if doc, err = restoreDocument(ctx, opts.RootOptions, f, st, arg); err != nil {
			return err
		}
		stored = true
	default:
		return f.Fail(ExitCommandError, CodeNotFound,
			fmt.Sprintf("%s is not a definition and no database was given", arg), nil)
	}

	for _, e := range edits {
		if err := harness.ApplyEdit(doc, e); err != nil {
			return f.Fail(ExitCommandError, CodeUsage, "invalid edit", err)
		}
	}

	var report *engine.Report
	if opts.Object != "" {
		o, lerr := doc.Lookup(opts.Object)
		if lerr != nil {
			return f.Fail(ExitCommandError, CodeNotFound, fmt.Sprintf("no object %s in %s", opts.Object, doc.Name()), lerr)
		}
		report, err = eng.RecomputeObject(ctx, doc, o)
	} else {
		report, err = eng.Recompute(ctx, doc)
	}
	if err != nil {
		return f.Fail(ExitCommandError, CodeRecompute, "recompute failed", err)
	}

	if stored {
		sum, err := st.SaveSnapshot(ctx, doc.Snapshot())
		if err != nil {
			return f.Fail(ExitCommandError, CodeStore, "failed to save snapshot", err)
		}
		f.VerboseLog("Saved %s (checksum %s)", doc.Name(), sum)
	}

	result := RecomputeResult{
		PassRecord: report.Record(),
		Seeds:      report.Seeds,
		Failed:     len(report.Errors()),
	}
	if reg != nil {
		if result.Metrics, err = gatherMetrics(reg); err != nil {
			return f.Fail(ExitCommandError, CodeRecompute, "failed to gather metrics", err)
		}
	}

	if err := f.Success(result); err != nil {
		return err
	}
	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d object(s) failed", result.Failed))
	}
	return nil
}

// edits turns the edit flags into harness edits: sets first, then links,
// then touches, each in flag order.
func (o *RecomputeOptions) edits() ([]harness.Edit, error) {
	var edits []harness.Edit
	for _, s := range o.Sets {
		obj, prop, raw, err := parseAssignment(s)
		if err != nil {
			return nil, err
		}
		var v any
		if raw == "" {
			v = ""
		} else if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("value of %s.%s: %w", obj, prop, err)
		}
		edits = append(edits, harness.Edit{Object: obj, Set: map[string]any{prop: v}})
	}
	for _, s := range o.Links {
		obj, prop, raw, err := parseAssignment(s)
		if err != nil {
			return nil, err
		}
		targets := []string{}
		if raw != "" {
			targets = strings.Split(raw, ",")
		}
		edits = append(edits, harness.Edit{Object: obj, Link: map[string][]string{prop: targets}})
	}
	for _, name := range o.Touch {
		edits = append(edits, harness.Edit{Object: name, Touch: true})
	}
	return edits, nil
}

// parseAssignment splits "Object.Property=value".
func parseAssignment(s string) (obj, prop, value string, err error) {
	key, value, ok := strings.Cut(s, "=")
	if ok {
		obj, prop, ok = strings.Cut(key, ".")
	}
	if !ok || obj == "" || prop == "" {
		return "", "", "", fmt.Errorf("invalid assignment %q: want Object.Property=value", s)
	}
	return obj, prop, value, nil
}

// gatherMetrics renders reg in the Prometheus text format.
func gatherMetrics(reg *prometheus.Registry) (string, error) {
	families, err := reg.Gather()
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(&b, mf); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}
