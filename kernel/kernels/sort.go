package kernels

import (
	"context"

	"github.com/mlahir1/blazingsql/execctx"
	"github.com/mlahir1/blazingsql/kernel"
)

// KindSortAndSample, KindSortAndSampleSingleNode are the catalog kind tags
// (spec.md §4.4). The single-node variant behaves identically within the
// kernel itself; the distinction matters to the Graph Builder when choosing
// topology (spec.md §4.6) and to Partition/PartitionSingleNode pairing
// (spec.md §4.7 rule 2).
const (
	KindSortAndSample           kernel.Kind = "SortAndSample"
	KindSortAndSampleSingleNode kernel.Kind = "SortAndSampleSingleNode"
)

// SortAndSample sorts each batch and emits both the sorted output and a
// sampling stream used downstream to pick partition boundaries.
type SortAndSample struct {
	kernel.Base
	sort   RowFunc
	sample SampleFunc
}

var _ kernel.Kernel = (*SortAndSample)(nil)

// NewSortAndSample constructs a distributed-variant SortAndSample kernel.
func NewSortAndSample(expr string, ctx *execctx.Context, sort RowFunc, sample SampleFunc) *SortAndSample {
	return &SortAndSample{Base: kernel.NewBase(KindSortAndSample, expr, ctx), sort: sort, sample: sample}
}

// NewSortAndSampleSingleNode constructs the single-node variant.
func NewSortAndSampleSingleNode(expr string, ctx *execctx.Context, sort RowFunc, sample SampleFunc) *SortAndSample {
	return &SortAndSample{Base: kernel.NewBase(KindSortAndSampleSingleNode, expr, ctx), sort: sort, sample: sample}
}

// CanThrottleInputs implements kernel.Kernel.
func (s *SortAndSample) CanThrottleInputs() bool { return true }

// Run implements kernel.Kernel.
func (s *SortAndSample) Run(ctx context.Context) (kernel.Status, error) {
	defer s.SentinelAllOutputs()
	in := s.InputPort(kernel.PortInput)
	outA := s.OutputPort(kernel.PortOutputA)
	outB := s.OutputPort(kernel.PortOutputB)

	for {
		if err := ctx.Err(); err != nil {
			return kernel.Stopped, nil
		}
		b, ok, err := in.Pull(0)
		if err != nil {
			return kernel.Error, err
		}
		if !ok {
			return kernel.OK, nil
		}
		sorted, err := s.sort(b)
		if err != nil {
			return kernel.Error, err
		}
		sample, err := s.sample(sorted)
		if err != nil {
			return kernel.Error, err
		}
		if err := outA.Push(sorted, 0); err != nil {
			return kernel.Error, err
		}
		if err := outB.Push(sample, 0); err != nil {
			return kernel.Error, err
		}
	}
}
