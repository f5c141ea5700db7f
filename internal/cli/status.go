package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/featuregraph/internal/document"
)

// StatusOptions holds flags for the status command.
type StatusOptions struct {
	*RootOptions
	DB string
}

// ObjectStatus is one row of the status listing.
type ObjectStatus struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Label  string `json:"label,omitempty"`
	Status string `json:"status"`
	Which  string `json:"which,omitempty"` // object that reported the failure
}

// StatusResult lists every object of a document in insertion order.
type StatusResult struct {
	Document string         `json:"document"`
	Objects  []ObjectStatus `json:"objects"`
	Errors   int            `json:"errors"`
}

func (r StatusResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d objects, %d in error", r.Document, len(r.Objects), r.Errors)

	nameWidth, typeWidth := 0, 0
	for _, o := range r.Objects {
		nameWidth = max(nameWidth, len(o.Name))
		typeWidth = max(typeWidth, len(o.Type))
	}
	for _, o := range r.Objects {
		fmt.Fprintf(&b, "\n  %-*s  %-*s  %s", nameWidth, o.Name, typeWidth, o.Type, o.Status)
		if o.Which != "" && o.Which != o.Name {
			fmt.Fprintf(&b, " (from %s)", o.Which)
		}
		if o.Label != "" {
			fmt.Fprintf(&b, " %q", o.Label)
		}
	}
	return b.String()
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatusOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "status <definition|document>",
		Short: "List objects with their recompute status",
		Long: `List every object of a document with its status.

A definition is built and recomputed once first. A stored document name
is restored from the database and shown as saved.

Examples:
  featuregraph status body.yaml
  featuregraph status Body --db body.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "database holding stored documents")

	return cmd
}

func runStatus(opts *StatusOptions, arg string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	ctx := cmd.Context()

	var doc *document.Document
	if isDefinitionPath(arg) {
		d, _, err := recomputedDocument(ctx, opts.RootOptions, f, arg)
		if err != nil {
			return err
		}
		doc = d
	} else {
		st, err := openStore(opts.RootOptions, f, opts.DB)
		if err != nil {
			return err
		}
		defer st.Close()
		if doc, err = restoreDocument(ctx, opts.RootOptions, f, st, arg); err != nil {
			return err
		}
	}

	return f.Success(statusOf(doc))
}

func statusOf(doc *document.Document) StatusResult {
	result := StatusResult{Document: doc.Name(), Objects: make([]ObjectStatus, 0, doc.Len())}
	for _, o := range doc.Objects() {
		row := ObjectStatus{Name: o.Name(), Type: o.Type(), Status: o.StatusString()}
		if o.Label() != o.Name() {
			row.Label = o.Label()
		}
		if o.IsError() {
			result.Errors++
			if e := o.ExecError(); e != nil {
				row.Which = e.Which
			}
		}
		result.Objects = append(result.Objects, row)
	}
	return result
}
