package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/featuregraph/internal/compiler"
	"github.com/roach88/featuregraph/internal/document"
	"github.com/roach88/featuregraph/internal/features"
)

// CheckResult holds the outcome of checking a definition.
type CheckResult struct {
	Document string                     `json:"document"`
	Objects  int                        `json:"objects"`
	Valid    bool                       `json:"valid"`
	Errors   []compiler.ValidationError `json:"errors,omitempty"`
	Cycles   []compiler.CycleWarning    `json:"cycles,omitempty"`
}

func (r CheckResult) String() string {
	var b strings.Builder
	if r.Valid {
		fmt.Fprintf(&b, "\u2713 %s is valid (%d objects)", r.Document, r.Objects)
		return b.String()
	}
	fmt.Fprintf(&b, "\u2717 %s has %d problem(s)", r.Document, len(r.Errors)+len(r.Cycles))
	for _, e := range r.Errors {
		fmt.Fprintf(&b, "\n  %s", e.Error())
	}
	for _, c := range r.Cycles {
		fmt.Fprintf(&b, "\n  [%s] %s", c.Level, c.Message)
	}
	return b.String()
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <definition>",
		Short: "Check a document definition without recomputing it",
		Long: `Check a YAML or CUE document definition.

Reports every validation error and link cycle, then builds the document
to catch property values that do not fit their declared kind.

Exit codes:
  0 - Definition is valid
  1 - Validation errors or cycles found
  2 - Command error (unreadable file, syntax error)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runCheck(opts *RootOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	spec, err := loadDefinition(f, path)
	if err != nil {
		return err
	}

	reg := features.NewRegistry()
	result := CheckResult{
		Document: spec.Name,
		Objects:  len(spec.Objects),
		Errors:   compiler.Validate(spec, reg),
		Cycles:   compiler.AnalyzeCycles(spec),
	}

	if len(result.Errors) == 0 && len(result.Cycles) == 0 {
		if _, err := compiler.Build(spec, reg, document.WithLogger(opts.logger())); err != nil {
			var ce *compiler.CompileError
			if !errors.As(err, &ce) {
				return f.Fail(ExitCommandError, CodeBuild, "failed to build document", err)
			}
			result.Errors = append(result.Errors, compiler.ValidationError{
				Field:   ce.Field,
				Message: ce.Message,
				Code:    CodeBuild,
			})
		}
	}
	result.Valid = len(result.Errors) == 0 && len(result.Cycles) == 0

	if result.Valid {
		return f.Success(result)
	}

	if f.IsJSON() {
		if err := f.Error(CodeInvalid, fmt.Sprintf("%s is not valid", result.Document), result); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(f.Writer, result)
	}
	return NewExitError(ExitFailure, fmt.Sprintf("%s is not valid", result.Document))
}
