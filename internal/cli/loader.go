package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/roach88/featuregraph/internal/compiler"
	"github.com/roach88/featuregraph/internal/document"
	"github.com/roach88/featuregraph/internal/engine"
	"github.com/roach88/featuregraph/internal/features"
	"github.com/roach88/featuregraph/internal/ir"
	"github.com/roach88/featuregraph/internal/store"
)

// loadDefinition reads a YAML or CUE definition, reporting failures through f.
func loadDefinition(f *OutputFormatter, path string) (*ir.DocumentSpec, error) {
	spec, err := compiler.Load(path)
	if err != nil {
		return nil, f.Fail(ExitCommandError, CodeLoad, "failed to load definition", err)
	}
	f.VerboseLog("Loaded %s: document %s, %d object(s)", path, spec.Name, len(spec.Objects))
	return spec, nil
}

// buildDocument loads and builds a definition against the feature registry.
// The returned document has every object touched.
func buildDocument(opts *RootOptions, f *OutputFormatter, path string) (*document.Document, error) {
	spec, err := loadDefinition(f, path)
	if err != nil {
		return nil, err
	}
	doc, err := compiler.Build(spec, features.NewRegistry(), document.WithLogger(opts.logger()))
	if err != nil {
		return nil, f.Fail(ExitCommandError, CodeBuild, "failed to build document", err)
	}
	return doc, nil
}

// recomputedDocument builds a definition and runs its first pass.
func recomputedDocument(ctx context.Context, opts *RootOptions, f *OutputFormatter, path string) (*document.Document, *engine.Report, error) {
	doc, err := buildDocument(opts, f, path)
	if err != nil {
		return nil, nil, err
	}
	report, err := engine.New(engine.WithLogger(opts.logger())).Recompute(ctx, doc)
	if err != nil {
		return nil, nil, f.Fail(ExitCommandError, CodeRecompute, "recompute failed", err)
	}
	return doc, report, nil
}

// openStore opens the database named by the --db flag or the configuration.
func openStore(opts *RootOptions, f *OutputFormatter, flag string) (*store.Store, error) {
	path := opts.dbPath(flag)
	if path == "" {
		return nil, f.Fail(ExitCommandError, CodeStore, "no database: pass --db or set store.path", nil)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, f.Fail(ExitCommandError, CodeStore, "failed to open database", err)
	}
	f.VerboseLog("Opened database %s", path)
	return st, nil
}

// isDefinitionPath reports whether arg names an existing file or directory
// rather than a stored document.
func isDefinitionPath(arg string) bool {
	_, err := os.Stat(arg)
	return err == nil
}

// restoreDocument loads a stored snapshot and rebuilds the document from it.
func restoreDocument(ctx context.Context, opts *RootOptions, f *OutputFormatter, st *store.Store, name string) (*document.Document, error) {
	snap, err := st.LoadSnapshot(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return nil, f.Fail(ExitCommandError, CodeNotFound, fmt.Sprintf("document %s is not stored", name), nil)
	}
	if err != nil {
		return nil, f.Fail(ExitCommandError, CodeStore, "failed to load snapshot", err)
	}
	doc, err := document.Restore(snap, features.NewRegistry(), document.WithLogger(opts.logger()))
	if err != nil {
		return nil, f.Fail(ExitCommandError, CodeBuild, "failed to restore document", err)
	}
	return doc, nil
}
