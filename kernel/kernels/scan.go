package kernels

import (
	"context"

	"github.com/mlahir1/blazingsql/batch"
	"github.com/mlahir1/blazingsql/execctx"
	"github.com/mlahir1/blazingsql/kernel"
	"github.com/mlahir1/blazingsql/loader"
)

// KindTableScan, KindBindableTableScan are the catalog kind tags for the two
// scan variants (spec.md §4.4).
const (
	KindTableScan         kernel.Kind = "TableScan"
	KindBindableTableScan kernel.Kind = "BindableTableScan"
)

// TableScan produces batches from a data loader against a schema. It has no
// input ports; its single output port is "output".
type TableScan struct {
	kernel.Base
	loader loader.DataLoader
}

var _ kernel.Kernel = (*TableScan)(nil)

// NewTableScan constructs a TableScan kernel. l is typically
// loader.DataLoader.Clone()'d by the caller per spec.md §6's "each clone is
// independently iterable" contract.
func NewTableScan(expr string, ctx *execctx.Context, l loader.DataLoader) *TableScan {
	return &TableScan{Base: kernel.NewBase(KindTableScan, expr, ctx), loader: l}
}

// CanThrottleInputs implements kernel.Kernel. A scan has no inputs to
// throttle; reports false, matching the original engine's loader kernels.
func (t *TableScan) CanThrottleInputs() bool { return false }

// Run implements kernel.Kernel.
func (t *TableScan) Run(ctx context.Context) (kernel.Status, error) {
	defer t.SentinelAllOutputs()
	out := t.OutputPort(kernel.PortOutput)
	for {
		if err := ctx.Err(); err != nil {
			return kernel.Stopped, nil
		}
		b, ok, err := t.loader.Load(ctx)
		if err != nil {
			return kernel.Error, err
		}
		if !ok {
			return kernel.OK, nil
		}
		if err := out.Push(b, 0); err != nil {
			return kernel.Error, err
		}
	}
}

// BindableTableScan is a TableScan with pushdown of a projection/filter
// expression, applied to each batch before it is pushed downstream.
type BindableTableScan struct {
	kernel.Base
	loader loader.DataLoader
	bind   RowFunc
}

var _ kernel.Kernel = (*BindableTableScan)(nil)

// NewBindableTableScan constructs a BindableTableScan kernel. bind implements
// the pushed-down projection/filter; pass ops.Project, ops.Filter, or a
// composition of both.
func NewBindableTableScan(expr string, ctx *execctx.Context, l loader.DataLoader, bind RowFunc) *BindableTableScan {
	return &BindableTableScan{Base: kernel.NewBase(KindBindableTableScan, expr, ctx), loader: l, bind: bind}
}

// CanThrottleInputs implements kernel.Kernel.
func (t *BindableTableScan) CanThrottleInputs() bool { return false }

// Run implements kernel.Kernel.
func (t *BindableTableScan) Run(ctx context.Context) (kernel.Status, error) {
	defer t.SentinelAllOutputs()
	out := t.OutputPort(kernel.PortOutput)
	for {
		if err := ctx.Err(); err != nil {
			return kernel.Stopped, nil
		}
		b, ok, err := t.loader.Load(ctx)
		if err != nil {
			return kernel.Error, err
		}
		if !ok {
			return kernel.OK, nil
		}
		var nb batch.RecordBatch = b
		if t.bind != nil {
			nb, err = t.bind(b)
			if err != nil {
				return kernel.Error, err
			}
		}
		if nb == nil {
			continue
		}
		if err := out.Push(nb, 0); err != nil {
			return kernel.Error, err
		}
	}
}
