package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags and the state every command shares.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string

	// Set before any command runs.
	Config *Config
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the featuregraph CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "featuregraph",
		Short: "featuregraph - parametric feature dependency graphs",
		Long: `Build documents of parametric features from YAML or CUE definitions,
recompute them in dependency order and keep their snapshots and pass
history in SQLite.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return opts.setup(cmd.ErrOrStderr())
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default ./featuregraph.yaml if present)")

	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewRecomputeCommand(opts))
	cmd.AddCommand(NewLinksCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewSaveCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewDocumentsCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// setup loads the configuration and installs the logger, also as the
// slog default so library packages log through it.
func (o *RootOptions) setup(logOut io.Writer) error {
	cfg, err := LoadConfig(o.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	logger, err := NewLogger(cfg.Log, o.Verbose, logOut)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid log config", err)
	}
	o.Config = cfg
	o.Logger = logger
	slog.SetDefault(logger)
	return nil
}

// logger returns the configured logger, or the slog default when the
// command runs without the root command's setup.
func (o *RootOptions) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// formatter returns an OutputFormatter writing to the command's streams.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}

// dbPath returns the database from the --db flag, falling back to the
// configured store path. Empty means none was given.
func (o *RootOptions) dbPath(flag string) string {
	if flag != "" {
		return flag
	}
	if o.Config != nil {
		return o.Config.Store.Path
	}
	return ""
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
