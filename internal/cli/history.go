package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/featuregraph/internal/engine"
	"github.com/roach88/featuregraph/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	DB       string
	Document string
	Steps    bool
}

// HistoryResult lists recorded passes, oldest first.
type HistoryResult struct {
	Passes []store.PassSummary `json:"passes"`

	showSteps bool
}

func (r HistoryResult) String() string {
	if len(r.Passes) == 0 {
		return "No passes recorded."
	}
	var b strings.Builder
	for i, p := range r.Passes {
		if i > 0 {
			b.WriteByte('\n')
		}
		executed, failed := 0, 0
		for _, s := range p.Steps {
			if s.Action == string(engine.ActionExecuted) {
				executed++
				if s.Outcome == "failed" {
					failed++
				}
			}
		}
		fmt.Fprintf(&b, "%4d  %s  %s  %d visited, %d executed, %d failed",
			p.Seq, p.Token, p.Document, len(p.Steps), executed, failed)
		if r.showSteps {
			for _, s := range p.Steps {
				fmt.Fprintf(&b, "\n        %s %s %s", stepMark(s), s.Object, describeStep(s))
			}
		}
	}
	return b.String()
}

// DocumentsOptions holds flags for the documents command.
type DocumentsOptions struct {
	*RootOptions
	DB     string
	Delete string
}

// DocumentsResult lists stored snapshots.
type DocumentsResult struct {
	Documents []store.DocumentInfo `json:"documents"`
	Deleted   string               `json:"deleted,omitempty"`
}

func (r DocumentsResult) String() string {
	var b strings.Builder
	if r.Deleted != "" {
		fmt.Fprintf(&b, "Deleted %s\n", r.Deleted)
	}
	if len(r.Documents) == 0 {
		b.WriteString("No documents stored.")
		return b.String()
	}
	for i, d := range r.Documents {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s  %d objects  %s", d.Name, d.Objects, d.Checksum)
	}
	return b.String()
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded recompute passes",
		Long: `Show the passes recorded in a database, oldest first.

Examples:
  featuregraph history --db body.db
  featuregraph history --db body.db --document Body --steps`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "database to read")
	cmd.Flags().StringVar(&opts.Document, "document", "", "only passes over this document")
	cmd.Flags().BoolVar(&opts.Steps, "steps", false, "list the steps of every pass")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	st, err := openStore(opts.RootOptions, f, opts.DB)
	if err != nil {
		return err
	}
	defer st.Close()

	passes, err := st.ReadPasses(cmd.Context(), opts.Document)
	if err != nil {
		return f.Fail(ExitCommandError, CodeStore, "failed to read passes", err)
	}
	return f.Success(HistoryResult{Passes: passes, showSteps: opts.Steps})
}

// NewDocumentsCommand creates the documents command.
func NewDocumentsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DocumentsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "documents",
		Short: "List stored documents",
		Long: `List the document snapshots stored in a database. With --delete the
named snapshot is removed first; its pass history is kept.

Examples:
  featuregraph documents --db body.db
  featuregraph documents --db body.db --delete Body`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDocuments(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "database to read")
	cmd.Flags().StringVar(&opts.Delete, "delete", "", "delete this stored document")

	return cmd
}

func runDocuments(opts *DocumentsOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	ctx := cmd.Context()

	st, err := openStore(opts.RootOptions, f, opts.DB)
	if err != nil {
		return err
	}
	defer st.Close()

	result := DocumentsResult{Deleted: opts.Delete}
	if opts.Delete != "" {
		err := st.DeleteSnapshot(ctx, opts.Delete)
		if errors.Is(err, store.ErrNotFound) {
			return f.Fail(ExitCommandError, CodeNotFound, fmt.Sprintf("document %s is not stored", opts.Delete), nil)
		}
		if err != nil {
			return f.Fail(ExitCommandError, CodeStore, "failed to delete snapshot", err)
		}
	}

	if result.Documents, err = st.ListDocuments(ctx); err != nil {
		return f.Fail(ExitCommandError, CodeStore, "failed to list documents", err)
	}
	return f.Success(result)
}
