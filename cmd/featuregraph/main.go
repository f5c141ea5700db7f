// Command featuregraph builds, recomputes and stores parametric feature
// documents.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/featuregraph/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "featuregraph:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
