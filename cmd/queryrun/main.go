// Command queryrun is the process bootstrap for the query engine: it reads a
// JSON plan, rewrites it, builds a query graph, executes it, and reports the
// row/byte counts the terminal kernel produced.
package main

import (
	"fmt"
	"os"

	"github.com/mlahir1/blazingsql/cmd/queryrun/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
