// Command writegood normalizes, validates, edits and exports rich-text
// documents.
package main

import (
	"fmt"
	"os"

	"github.com/travisjeffery/writegood/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
