package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/featuregraph/internal/object"
)

// LinksOptions holds flags for the links command.
type LinksOptions struct {
	*RootOptions
	Recursive bool
	Direction string // "out" | "in"
}

// LinksResult lists the neighbours of one object.
type LinksResult struct {
	Object    string   `json:"object"`
	Direction string   `json:"direction"`
	Recursive bool     `json:"recursive"`
	Links     []string `json:"links"`
}

func (r LinksResult) String() string {
	verb := "depends on"
	if r.Direction == "in" {
		verb = "is used by"
	}
	if r.Recursive {
		verb += " (recursively)"
	}
	if len(r.Links) == 0 {
		return fmt.Sprintf("%s %s nothing", r.Object, verb)
	}
	return fmt.Sprintf("%s %s:\n  %s", r.Object, verb, strings.Join(r.Links, "\n  "))
}

// NewLinksCommand creates the links command.
func NewLinksCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LinksOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "links <definition> <object>",
		Short: "Show what an object depends on or what depends on it",
		Long: `Show the dependency neighbours of an object.

Direction "out" lists the objects it links to, "in" the objects linking
to it. With --recursive the whole closure is listed.

Examples:
  featuregraph links body.yaml Pocket
  featuregraph links body.yaml Sketch --direction in --recursive`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLinks(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().BoolVarP(&opts.Recursive, "recursive", "r", false, "follow links transitively")
	cmd.Flags().StringVar(&opts.Direction, "direction", "out", "link direction (out|in)")

	return cmd
}

func runLinks(opts *LinksOptions, path, name string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	if opts.Direction != "out" && opts.Direction != "in" {
		return f.Fail(ExitCommandError, CodeUsage, fmt.Sprintf("invalid direction %q: must be out or in", opts.Direction), nil)
	}

	doc, err := buildDocument(opts.RootOptions, f, path)
	if err != nil {
		return err
	}
	o, err := doc.Lookup(name)
	if err != nil {
		return f.Fail(ExitCommandError, CodeNotFound, fmt.Sprintf("no object %s in %s", name, doc.Name()), err)
	}

	var linked []*object.Object
	switch {
	case opts.Direction == "out" && opts.Recursive:
		linked, err = o.OutListRecursive()
	case opts.Direction == "out":
		linked = o.OutList()
	case opts.Recursive:
		linked, err = o.InListRecursive()
	default:
		linked = o.InList()
	}
	if err != nil {
		return f.Fail(ExitCommandError, CodeBuild, "link traversal failed", err)
	}

	result := LinksResult{
		Object:    o.Name(),
		Direction: opts.Direction,
		Recursive: opts.Recursive,
		Links:     make([]string, 0, len(linked)),
	}
	for _, l := range linked {
		result.Links = append(result.Links, l.Name())
	}
	return f.Success(result)
}
