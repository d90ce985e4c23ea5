package kernels

import (
	"context"

	"github.com/mlahir1/blazingsql/batch"
	"github.com/mlahir1/blazingsql/execctx"
	"github.com/mlahir1/blazingsql/kernel"
)

// KindLimit is the catalog kind tag (spec.md §4.4).
const KindLimit kernel.Kind = "Limit"

// Limit emits at most N rows across its inputs, then stops.
type Limit struct {
	kernel.Base
	n int
}

var _ kernel.Kernel = (*Limit)(nil)

// NewLimit constructs a Limit kernel, extracting N from expr (e.g.
// "LogicalLimit(10)").
func NewLimit(expr string, ctx *execctx.Context) (*Limit, error) {
	n, err := limitCount(expr)
	if err != nil {
		return nil, err
	}
	return &Limit{Base: kernel.NewBase(KindLimit, expr, ctx), n: n}, nil
}

// CanThrottleInputs implements kernel.Kernel. Limit may stop consuming well
// before its input is exhausted, so it must not cause upstream to block
// indefinitely waiting for it: reports false.
func (l *Limit) CanThrottleInputs() bool { return false }

// Run implements kernel.Kernel.
func (l *Limit) Run(ctx context.Context) (kernel.Status, error) {
	defer l.SentinelAllOutputs()
	in := l.InputPort(kernel.PortInput)
	out := l.OutputPort(kernel.PortOutput)

	remaining := l.n
	for remaining > 0 {
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
		take := b
		if b.NumRows() > remaining {
			frac := float64(remaining) / float64(b.NumRows())
			take = batch.Slice{Rows: remaining, Bytes: int64(float64(b.ByteSize()) * frac)}
		}
		if err := out.Push(take, 0); err != nil {
			return kernel.Error, err
		}
		remaining -= take.NumRows()
	}
	return kernel.Stopped, nil
}
