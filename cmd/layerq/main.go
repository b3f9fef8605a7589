// Command layerq queries, filters and generates layers from a SQLite
// layer catalog.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/layerq/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		// Commands report their own errors; flag and usage errors are not.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
