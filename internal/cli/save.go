package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/featuregraph/internal/engine"
)

// SaveOptions holds flags for the save command.
type SaveOptions struct {
	*RootOptions
	DB string
}

// SaveResult describes a stored snapshot.
type SaveResult struct {
	Document string `json:"document"`
	Objects  int    `json:"objects"`
	Checksum string `json:"checksum"`
	Token    string `json:"token"` // pass that computed the saved state
	Failed   int    `json:"failed"`
}

func (r SaveResult) String() string {
	s := fmt.Sprintf("\u2713 Saved %s (%d objects) after pass %s\n  checksum %s", r.Document, r.Objects, r.Token, r.Checksum)
	if r.Failed > 0 {
		s += fmt.Sprintf("\n  %d object(s) saved in error", r.Failed)
	}
	return s
}

// NewSaveCommand creates the save command.
func NewSaveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SaveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "save <definition>",
		Short: "Build, recompute and store a document",
		Long: `Build a document from its definition, recompute it and store the
snapshot under the document name, replacing any earlier snapshot.
The pass is appended to the database history.

Objects that failed are stored with their errors; the command still
succeeds.

Examples:
  featuregraph save body.yaml --db body.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSave(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "database to store the document in")

	return cmd
}

func runSave(opts *SaveOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	ctx := cmd.Context()

	st, err := openStore(opts.RootOptions, f, opts.DB)
	if err != nil {
		return err
	}
	defer st.Close()

	doc, err := buildDocument(opts.RootOptions, f, path)
	if err != nil {
		return err
	}

	last, err := st.LastSeq(ctx)
	if err != nil {
		return f.Fail(ExitCommandError, CodeStore, "failed to read pass history", err)
	}
	eng := engine.New(
		engine.WithLogger(opts.logger()),
		engine.WithClock(engine.NewClockAt(last)),
		engine.WithRecorder(st),
	)
	report, err := eng.Recompute(ctx, doc)
	if err != nil {
		return f.Fail(ExitCommandError, CodeRecompute, "recompute failed", err)
	}

	sum, err := st.SaveSnapshot(ctx, doc.Snapshot())
	if err != nil {
		return f.Fail(ExitCommandError, CodeStore, "failed to save snapshot", err)
	}

	return f.Success(SaveResult{
		Document: doc.Name(),
		Objects:  doc.Len(),
		Checksum: sum,
		Token:    report.Token,
		Failed:   len(report.Errors()),
	})
}
