package kernels

import (
	"context"

	"github.com/mlahir1/blazingsql/execctx"
	"github.com/mlahir1/blazingsql/kernel"
)

// KindProjection, KindFilter are the catalog kind tags (spec.md §4.4).
const (
	KindProjection kernel.Kind = "Projection"
	KindFilter     kernel.Kind = "Filter"
)

// Projection evaluates a projection expression on each input batch.
type Projection struct {
	kernel.Base
	eval RowFunc
}

var _ kernel.Kernel = (*Projection)(nil)

// NewProjection constructs a Projection kernel; eval implements the
// projection expression, delegated to the relational-expression layer.
func NewProjection(expr string, ctx *execctx.Context, eval RowFunc) *Projection {
	return &Projection{Base: kernel.NewBase(KindProjection, expr, ctx), eval: eval}
}

// CanThrottleInputs implements kernel.Kernel. A projection consumes its
// input at its own pace and can safely block upstream.
func (p *Projection) CanThrottleInputs() bool { return true }

// Run implements kernel.Kernel.
func (p *Projection) Run(ctx context.Context) (kernel.Status, error) {
	defer p.SentinelAllOutputs()
	return pipeSingle(ctx, p.InputPort(kernel.PortInput), p.OutputPort(kernel.PortOutput), p.eval)
}

// Filter drops rows failing a predicate.
type Filter struct {
	kernel.Base
	eval RowFunc
}

var _ kernel.Kernel = (*Filter)(nil)

// NewFilter constructs a Filter kernel; eval implements the predicate,
// returning a (possibly smaller, possibly nil) batch for each input batch.
func NewFilter(expr string, ctx *execctx.Context, eval RowFunc) *Filter {
	return &Filter{Base: kernel.NewBase(KindFilter, expr, ctx), eval: eval}
}

// CanThrottleInputs implements kernel.Kernel.
func (f *Filter) CanThrottleInputs() bool { return true }

// Run implements kernel.Kernel.
func (f *Filter) Run(ctx context.Context) (kernel.Status, error) {
	defer f.SentinelAllOutputs()
	return pipeSingle(ctx, f.InputPort(kernel.PortInput), f.OutputPort(kernel.PortOutput), f.eval)
}
