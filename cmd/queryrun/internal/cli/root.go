// Package cli assembles the queryrun command tree with spf13/cobra, matching
// the package-level *cobra.Command variable style the teacher's own CLI
// (pkg/cli) uses throughout.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/mlahir1/blazingsql/qlog"
)

var rootCmd = &cobra.Command{
	Use:   "queryrun",
	Short: "compile and execute a distributed SQL physical plan",
	Long: `queryrun reads a logical-operator JSON plan, rewrites SORT/AGGREGATE/JOIN
nodes into their multi-stage distributed kernel chains, builds a query graph
of streaming kernels connected by cache channels, and runs it to completion,
reporting the batch/row/byte counts the terminal kernel produced.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		qlog.SetVerbosity(verbosity)
	},
}

var verbosity int

func init() {
	rootCmd.PersistentFlags().IntVar(&verbosity, "verbosity", 0, "log verbosity level for VEventf-gated messages")
	rootCmd.AddCommand(runCmd)
}

// Execute runs the queryrun command tree.
func Execute() error {
	defer qlog.Sync()
	return rootCmd.Execute()
}
