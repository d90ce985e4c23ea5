package kernels

import (
	"context"

	"github.com/mlahir1/blazingsql/batch"
	"github.com/mlahir1/blazingsql/execctx"
	"github.com/mlahir1/blazingsql/kernel"
)

// KindPartition, KindPartitionSingleNode are the catalog kind tags
// (spec.md §4.4).
const (
	KindPartition           kernel.Kind = "Partition"
	KindPartitionSingleNode kernel.Kind = "PartitionSingleNode"
)

// Partition uses sampled pivots to split sorted input into NumPartitions
// streams, addressed by index on its single FOR_EACH output port.
type Partition struct {
	kernel.Base
	numPartitions int
	partition     PartitionFunc
}

var _ kernel.Kernel = (*Partition)(nil)

// NewPartition constructs a distributed-variant Partition kernel.
func NewPartition(expr string, ctx *execctx.Context, numPartitions int, fn PartitionFunc) *Partition {
	return &Partition{Base: kernel.NewBase(KindPartition, expr, ctx), numPartitions: numPartitions, partition: fn}
}

// NewPartitionSingleNode constructs the single-node variant.
func NewPartitionSingleNode(expr string, ctx *execctx.Context, numPartitions int, fn PartitionFunc) *Partition {
	return &Partition{Base: kernel.NewBase(KindPartitionSingleNode, expr, ctx), numPartitions: numPartitions, partition: fn}
}

// CanThrottleInputs implements kernel.Kernel.
func (p *Partition) CanThrottleInputs() bool { return true }

// Run implements kernel.Kernel. It first drains input_b (the sample stream)
// to completion to form the full pivot set, then partitions each input_a
// batch against those pivots, routing the pieces to the indexed partition of
// its single output port.
func (p *Partition) Run(ctx context.Context) (kernel.Status, error) {
	defer p.SentinelAllOutputs()
	sortedIn := p.InputPort(kernel.PortInputA)
	samplesIn := p.InputPort(kernel.PortInputB)
	out := p.OutputPort(kernel.PortOutput)

	var pivots []batch.RecordBatch
	for {
		s, ok, err := samplesIn.Pull(0)
		if err != nil {
			return kernel.Error, err
		}
		if !ok {
			break
		}
		pivots = append(pivots, s)
	}

	for {
		if err := ctx.Err(); err != nil {
			return kernel.Stopped, nil
		}
		b, ok, err := sortedIn.Pull(0)
		if err != nil {
			return kernel.Error, err
		}
		if !ok {
			return kernel.OK, nil
		}
		parts, err := p.partition(b, pivots, p.numPartitions)
		if err != nil {
			return kernel.Error, err
		}
		for idx, part := range parts {
			if part == nil || part.NumRows() == 0 {
				continue
			}
			if err := out.Push(part, idx); err != nil {
				return kernel.Error, err
			}
		}
	}
}
