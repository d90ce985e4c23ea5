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

// KindPartwiseJoin, KindJoinPartitionKind are the catalog kind tags
// (spec.md §4.4).
const (
	KindPartwiseJoin      kernel.Kind = "PartwiseJoin"
	KindJoinPartitionKind kernel.Kind = "JoinPartition"
)

// PartwiseJoin joins two already co-partitioned streams. It builds the
// input_a side fully in memory, then probes it once per input_b batch,
// mirroring a classic build/probe hash join (spec.md §4.4).
type PartwiseJoin struct {
	kernel.Base
	join  JoinFunc
	merge MergeFunc
}

var _ kernel.Kernel = (*PartwiseJoin)(nil)

// NewPartwiseJoin constructs a PartwiseJoin kernel. merge concatenates the
// build-side batches into a single probe-able batch.
func NewPartwiseJoin(expr string, ctx *execctx.Context, join JoinFunc, merge MergeFunc) *PartwiseJoin {
	return &PartwiseJoin{Base: kernel.NewBase(KindPartwiseJoin, expr, ctx), join: join, merge: merge}
}

// CanThrottleInputs implements kernel.Kernel. The build side must be fully
// drained before any probing can happen, so this kernel cannot throttle
// selectively between its two inputs.
func (j *PartwiseJoin) CanThrottleInputs() bool { return false }

// Run implements kernel.Kernel.
func (j *PartwiseJoin) Run(ctx context.Context) (kernel.Status, error) {
	defer j.SentinelAllOutputs()
	buildIn := j.InputPort(kernel.PortInputA)
	probeIn := j.InputPort(kernel.PortInputB)
	out := j.OutputPort(kernel.PortOutput)

	var buildBatches []batch.RecordBatch
	for {
		b, ok, err := buildIn.Pull(0)
		if err != nil {
			return kernel.Error, err
		}
		if !ok {
			break
		}
		buildBatches = append(buildBatches, b)
	}
	var build batch.RecordBatch
	if len(buildBatches) > 0 {
		merged, err := j.merge(buildBatches)
		if err != nil {
			return kernel.Error, err
		}
		build = merged
	} else {
		build = batch.Slice{}
	}

	for {
		if err := ctx.Err(); err != nil {
			return kernel.Stopped, nil
		}
		probe, ok, err := probeIn.Pull(0)
		if err != nil {
			return kernel.Error, err
		}
		if !ok {
			return kernel.OK, nil
		}
		joined, err := j.join(build, probe)
		if err != nil {
			return kernel.Error, err
		}
		if joined == nil || joined.NumRows() == 0 {
			continue
		}
		if err := out.Push(joined, 0); err != nil {
			return kernel.Error, err
		}
	}
}

// JoinPartitionKernel co-partitions two inputs across nodes by join-key hash
// so that every row pair that could match ends up on the same node, handing
// the result to downstream PartwiseJoin kernels on output_a/output_b. It
// runs the same hash-routing protocol as DistributeAggregate independently
// for each side, distinguished by a per-side token suffix.
type JoinPartitionKernel struct {
	kernel.Base
	transport  xport.Transport
	inbox      *msgqueue.Queue
	routeLeft  RouteFunc
	routeRight RouteFunc
}

var _ kernel.Kernel = (*JoinPartitionKernel)(nil)

// NewJoinPartitionKernel constructs a JoinPartition kernel.
func NewJoinPartitionKernel(
	expr string, ctx *execctx.Context, transport xport.Transport, inbox *msgqueue.Queue, routeLeft, routeRight RouteFunc,
) *JoinPartitionKernel {
	return &JoinPartitionKernel{
		Base:       kernel.NewBase(KindJoinPartitionKind, expr, ctx),
		transport:  transport,
		inbox:      inbox,
		routeLeft:  routeLeft,
		routeRight: routeRight,
	}
}

// CanThrottleInputs implements kernel.Kernel.
func (jp *JoinPartitionKernel) CanThrottleInputs() bool { return true }

func (jp *JoinPartitionKernel) token(side string) string {
	return fmt.Sprintf("join-partition-%d-%s", jp.ID(), side)
}

// Run implements kernel.Kernel. The two sides route independently and
// concurrently; each side's goroutines mirror DistributeAggregate.Run.
func (jp *JoinPartitionKernel) Run(ctx context.Context) (kernel.Status, error) {
	defer jp.SentinelAllOutputs()
	total := jp.Context().TotalNodes

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return jp.runSide(gctx, kernel.PortInputA, kernel.PortOutputA, "a", jp.routeLeft, total)
	})
	g.Go(func() error {
		return jp.runSide(gctx, kernel.PortInputB, kernel.PortOutputB, "b", jp.routeRight, total)
	})
	if err := g.Wait(); err != nil {
		return kernel.Error, err
	}
	return kernel.OK, nil
}

func (jp *JoinPartitionKernel) runSide(
	ctx context.Context, inName, outName, side string, route RouteFunc, total int32,
) error {
	in := jp.InputPort(inName)
	out := jp.OutputPort(outName)
	self := jp.Context().NodeID
	tok := jp.token(side)

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
			target, err := route(b, total)
			if err != nil {
				return err
			}
			if target == self {
				if err := out.Push(b, 0); err != nil {
					return err
				}
				continue
			}
			if err := jp.transport.Send(gctx, target, tok, b); err != nil {
				return err
			}
		}
		for peer := int32(0); peer < total; peer++ {
			if peer == self {
				continue
			}
			if err := jp.transport.SendSentinel(gctx, peer, tok); err != nil {
				return err
			}
		}
		return nil
	})
	g.Go(func() error {
		remaining := int(total) - 1
		for remaining > 0 {
			payload, sentinel := jp.inbox.Get(tok)
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
	return g.Wait()
}
