package kernels

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/mlahir1/blazingsql/batch"
	"github.com/mlahir1/blazingsql/execctx"
	"github.com/mlahir1/blazingsql/kernel"
	"github.com/mlahir1/blazingsql/msgqueue"
	"github.com/mlahir1/blazingsql/xport"
)

// KindComputeAggregate, KindDistributeAggregate, KindMergeAggregate are the
// catalog kind tags (spec.md §4.4).
const (
	KindComputeAggregate    kernel.Kind = "ComputeAggregate"
	KindDistributeAggregate kernel.Kind = "DistributeAggregate"
	KindMergeAggregate      kernel.Kind = "MergeAggregate"
)

// ComputeAggregate performs per-batch local aggregation.
type ComputeAggregate struct {
	kernel.Base
	compute RowFunc
}

var _ kernel.Kernel = (*ComputeAggregate)(nil)

// NewComputeAggregate constructs a ComputeAggregate kernel.
func NewComputeAggregate(expr string, ctx *execctx.Context, compute RowFunc) *ComputeAggregate {
	return &ComputeAggregate{Base: kernel.NewBase(KindComputeAggregate, expr, ctx), compute: compute}
}

// CanThrottleInputs implements kernel.Kernel.
func (c *ComputeAggregate) CanThrottleInputs() bool { return true }

// Run implements kernel.Kernel.
func (c *ComputeAggregate) Run(ctx context.Context) (kernel.Status, error) {
	defer c.SentinelAllOutputs()
	return pipeSingle(ctx, c.InputPort(kernel.PortInput), c.OutputPort(kernel.PortOutput), c.compute)
}

// DistributeAggregate hash-routes partial aggregates across nodes: batches
// that hash to this node are passed straight through, others are handed to
// Transport addressed by a token derived from this kernel's id (stable
// across nodes because every node builds the identical rewritten plan) so
// the peer's corresponding DistributeAggregate instance can receive them via
// its msgqueue.Queue.
type DistributeAggregate struct {
	kernel.Base
	transport xport.Transport
	inbox     *msgqueue.Queue
	route     RouteFunc
}

var _ kernel.Kernel = (*DistributeAggregate)(nil)

// NewDistributeAggregate constructs a DistributeAggregate kernel. inbox is
// this node's receiving queue for cross-node messages (spec.md §4.1/§6).
func NewDistributeAggregate(
	expr string, ctx *execctx.Context, transport xport.Transport, inbox *msgqueue.Queue, route RouteFunc,
) *DistributeAggregate {
	return &DistributeAggregate{Base: kernel.NewBase(KindDistributeAggregate, expr, ctx), transport: transport, inbox: inbox, route: route}
}

// CanThrottleInputs implements kernel.Kernel.
func (d *DistributeAggregate) CanThrottleInputs() bool { return true }

func (d *DistributeAggregate) token() string {
	return fmt.Sprintf("distribute-aggregate-%d", d.ID())
}

// Run implements kernel.Kernel.
func (d *DistributeAggregate) Run(ctx context.Context) (kernel.Status, error) {
	defer d.SentinelAllOutputs()
	in := d.InputPort(kernel.PortInput)
	out := d.OutputPort(kernel.PortOutput)
	self := d.Context().NodeID
	total := d.Context().TotalNodes
	tok := d.token()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for {
			if err := gctx.Err(); err != nil {
				return nil
			}
			b, ok, err := in.Pull(0)
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			target, err := d.route(b, total)
			if err != nil {
				return err
			}
			if target == self {
				if err := out.Push(b, 0); err != nil {
					return err
				}
				continue
			}
			if err := d.transport.Send(gctx, target, tok, b); err != nil {
				return err
			}
		}
		for peer := int32(0); peer < total; peer++ {
			if peer == self {
				continue
			}
			if err := d.transport.SendSentinel(gctx, peer, tok); err != nil {
				return err
			}
		}
		return nil
	})
	g.Go(func() error {
		remaining := int(total) - 1
		for remaining > 0 {
			payload, sentinel := d.inbox.Get(tok)
			if sentinel {
				remaining--
				continue
			}
			b, ok := payload.(batch.RecordBatch)
			if !ok {
				continue
			}
			if err := out.Push(b, 0); err != nil {
				return err
			}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return kernel.Error, err
	}
	return kernel.OK, nil
}

// MergeAggregate performs the final merge of partial aggregates: it
// accumulates every input batch until end-of-stream, then emits a single
// merged result (a aggregation's final answer cannot be produced before all
// partials are seen).
type MergeAggregate struct {
	kernel.Base
	merge MergeFunc
}

var _ kernel.Kernel = (*MergeAggregate)(nil)

// NewMergeAggregate constructs a MergeAggregate kernel.
func NewMergeAggregate(expr string, ctx *execctx.Context, merge MergeFunc) *MergeAggregate {
	return &MergeAggregate{Base: kernel.NewBase(KindMergeAggregate, expr, ctx), merge: merge}
}

// CanThrottleInputs implements kernel.Kernel. A final merge must see every
// upstream partial before it can emit, so it cannot throttle selectively.
func (m *MergeAggregate) CanThrottleInputs() bool { return false }

// Run implements kernel.Kernel.
func (m *MergeAggregate) Run(ctx context.Context) (kernel.Status, error) {
	defer m.SentinelAllOutputs()
	in := m.InputPort(kernel.PortInput)
	out := m.OutputPort(kernel.PortOutput)

	var partials []batch.RecordBatch
	for {
		if err := ctx.Err(); err != nil {
			return kernel.Stopped, nil
		}
		b, ok, err := in.Pull(0)
		if err != nil {
			return kernel.Error, err
		}
		if !ok {
			break
		}
		partials = append(partials, b)
	}
	if len(partials) == 0 {
		return kernel.OK, nil
	}
	merged, err := m.merge(partials)
	if err != nil {
		return kernel.Error, err
	}
	if err := out.Push(merged, 0); err != nil {
		return kernel.Error, err
	}
	return kernel.OK, nil
}
