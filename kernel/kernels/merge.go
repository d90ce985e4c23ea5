package kernels

import (
	"context"

	"github.com/mlahir1/blazingsql/batch"
	"github.com/mlahir1/blazingsql/execctx"
	"github.com/mlahir1/blazingsql/kernel"
)

// KindMergeStream is the catalog kind tag (spec.md §4.4).
const KindMergeStream kernel.Kind = "MergeStream"

// MergeStream k-way merges pre-sorted partition streams arriving on its
// FOR_EACH input port.
type MergeStream struct {
	kernel.Base
	numPartitions int
	merge         MergeFunc
}

var _ kernel.Kernel = (*MergeStream)(nil)

// NewMergeStream constructs a MergeStream kernel. numPartitions must match
// the NumPartitions of the FOR_EACH channel bound to its input port.
func NewMergeStream(expr string, ctx *execctx.Context, numPartitions int, merge MergeFunc) *MergeStream {
	return &MergeStream{Base: kernel.NewBase(KindMergeStream, expr, ctx), numPartitions: numPartitions, merge: merge}
}

// CanThrottleInputs implements kernel.Kernel. A merge must consume every
// partition in lockstep to preserve order, so it must not throttle: an
// upstream partition with no data to offer this round must not be made to
// block, or the other partitions would starve it (spec.md §4.7 rationale).
func (m *MergeStream) CanThrottleInputs() bool { return false }

// Run implements kernel.Kernel.
func (m *MergeStream) Run(ctx context.Context) (kernel.Status, error) {
	defer m.SentinelAllOutputs()
	in := m.InputPort(kernel.PortInput)
	out := m.OutputPort(kernel.PortOutput)

	live := make([]bool, m.numPartitions)
	for i := range live {
		live[i] = true
	}

	for {
		if err := ctx.Err(); err != nil {
			return kernel.Stopped, nil
		}
		var round []batch.RecordBatch
		anyLive := false
		for idx, ok := range live {
			if !ok {
				continue
			}
			anyLive = true
			b, pullOk, err := in.Pull(idx)
			if err != nil {
				return kernel.Error, err
			}
			if !pullOk {
				live[idx] = false
				continue
			}
			round = append(round, b)
		}
		if !anyLive {
			return kernel.OK, nil
		}
		if len(round) == 0 {
			continue
		}
		merged, err := m.merge(round)
		if err != nil {
			return kernel.Error, err
		}
		if err := out.Push(merged, 0); err != nil {
			return kernel.Error, err
		}
	}
}
