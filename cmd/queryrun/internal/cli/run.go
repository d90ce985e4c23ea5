package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/mlahir1/blazingsql/batch"
	"github.com/mlahir1/blazingsql/execctx"
	"github.com/mlahir1/blazingsql/kernel/kernels"
	"github.com/mlahir1/blazingsql/loader"
	"github.com/mlahir1/blazingsql/plan"
	"github.com/mlahir1/blazingsql/planbuild"
	"github.com/mlahir1/blazingsql/qlog"
	"github.com/mlahir1/blazingsql/xport"
)

var (
	runNodes           int32
	runNodeID          int32
	runOptions         []string
	runRowsPerBatch    int
	runBatchesPerTable int
)

var runCmd = &cobra.Command{
	Use:   "run <plan.json>",
	Short: "rewrite, build, and execute a plan against synthetic table data",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

func init() {
	runCmd.Flags().Int32Var(&runNodes, "nodes", 1, "total node count in the simulated cluster")
	runCmd.Flags().Int32Var(&runNodeID, "node-id", 0, "this process's node id, in [0, nodes)")
	runCmd.Flags().StringArrayVar(&runOptions, "option", nil, "KEY=VALUE execution context option, may be repeated")
	runCmd.Flags().IntVar(&runRowsPerBatch, "rows-per-batch", 1000, "synthetic loader rows per batch")
	runCmd.Flags().IntVar(&runBatchesPerTable, "batches-per-table", 4, "synthetic loader batch count per scanned table")
}

func runRun(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return errors.Wrapf(err, "reading plan file %q", args[0])
	}
	tree, err := plan.Parse(data)
	if err != nil {
		return err
	}

	options, err := parseOptions(runOptions)
	if err != nil {
		return err
	}
	execCtx := execctx.New(runNodes, runNodeID, options)

	rewritten := plan.Rewrite(tree, runNodes)
	qlog.Infof(cmd.Context(), "rewritten plan leaf scans: %v", plan.LeafScans(rewritten))

	loopback := xport.NewLoopback(runNodes)
	inbox := loopback.Queue(runNodeID)
	loaderFor := syntheticLoaderFor(runRowsPerBatch, runBatchesPerTable)

	builder := planbuild.NewBuilder(execCtx, kernels.Default(), loaderFor, loopback, inbox)
	g, _, terminal, err := builder.Build(rewritten)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if err := g.Execute(ctx); err != nil {
		return err
	}

	var numBatches, totalRows int
	var totalBytes int64
	for {
		b, ok, err := terminal.Pull(0)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		numBatches++
		totalRows += b.NumRows()
		totalBytes += b.ByteSize()
	}
	fmt.Fprintf(cmd.OutOrStdout(), "batches=%d rows=%d bytes=%d\n", numBatches, totalRows, totalBytes)
	return nil
}

func parseOptions(raw []string) (map[string]string, error) {
	out := map[string]string{}
	for _, kv := range raw {
		i := strings.IndexByte(kv, '=')
		if i < 0 {
			return nil, errors.Newf("--option %q is not in KEY=VALUE form", kv)
		}
		out[kv[:i]] = kv[i+1:]
	}
	return out, nil
}

// syntheticLoaderFor builds the reference loader.DataLoader used by the CLI
// standalone demo path: batchesPerTable batches of rowsPerBatch rows each,
// per scanned table. A real deployment supplies its own planbuild.LoaderFor
// backed by filesystem or object-store I/O (out of the core's scope).
func syntheticLoaderFor(rowsPerBatch, batchesPerTable int) planbuild.LoaderFor {
	return func(table string) loader.DataLoader {
		batches := make([]batch.RecordBatch, batchesPerTable)
		for i := range batches {
			batches[i] = batch.Slice{Rows: rowsPerBatch, Bytes: int64(rowsPerBatch * 64)}
		}
		return loader.NewSliceLoader(table, batches)
	}
}
