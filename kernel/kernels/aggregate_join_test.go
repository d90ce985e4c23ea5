package kernels

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mlahir1/blazingsql/batch"
	"github.com/mlahir1/blazingsql/cache"
	"github.com/mlahir1/blazingsql/execctx"
	"github.com/mlahir1/blazingsql/kernel"
	"github.com/mlahir1/blazingsql/xport"
)

func TestComputeAggregatePassesThroughViaCompute(t *testing.T) {
	root := execctx.New(1, 0, nil)
	sumRows := func(b batch.RecordBatch) (batch.RecordBatch, error) {
		return batch.Slice{Rows: 1, Bytes: b.ByteSize()}, nil
	}
	a := NewComputeAggregate("LogicalComputeAggregate(sum(x))", root.Clone(), sumRows)

	in := cache.New(cache.Config{Kind: cache.Simple})
	out := cache.New(cache.Config{Kind: cache.Simple})
	a.SetInputPort(kernel.PortInput, in)
	a.SetOutputPort(kernel.PortOutput, out)

	require.NoError(t, in.Push(batch.Slice{Rows: 9, Bytes: 900}, 0))
	in.PushSentinel()

	status, err := a.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, kernel.OK, status)

	b, ok, err := out.Pull(0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, b.NumRows())
	require.Equal(t, int64(900), b.ByteSize())
}

func TestMergeAggregateWaitsForAllPartialsBeforeEmitting(t *testing.T) {
	root := execctx.New(1, 0, nil)
	m := NewMergeAggregate("LogicalMergeAggregate(sum(x))", root.Clone(), batch.ConcatSlices)

	in := cache.New(cache.Config{Kind: cache.Simple})
	out := cache.New(cache.Config{Kind: cache.Simple})
	m.SetInputPort(kernel.PortInput, in)
	m.SetOutputPort(kernel.PortOutput, out)

	require.NoError(t, in.Push(batch.Slice{Rows: 1}, 0))
	require.NoError(t, in.Push(batch.Slice{Rows: 2}, 0))
	in.PushSentinel()

	status, err := m.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, kernel.OK, status)

	b, ok, err := out.Pull(0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 3, b.NumRows())

	_, ok, err = out.Pull(0)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDistributeAggregateSingleNodeLoopsBackLocally(t *testing.T) {
	root := execctx.New(1, 0, nil)
	loopback := xport.NewLoopback(1)
	inbox := loopback.Queue(0)
	toNode0 := func(batch.RecordBatch, int32) (int32, error) { return 0, nil }

	d := NewDistributeAggregate("LogicalDistributeAggregate(sum(x))", root.Clone(), loopback, inbox, toNode0)

	in := cache.New(cache.Config{Kind: cache.Simple})
	out := cache.New(cache.Config{Kind: cache.Simple})
	d.SetInputPort(kernel.PortInput, in)
	d.SetOutputPort(kernel.PortOutput, out)

	require.NoError(t, in.Push(batch.Slice{Rows: 5}, 0))
	in.PushSentinel()

	status, err := d.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, kernel.OK, status)

	b, ok, err := out.Pull(0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 5, b.NumRows())
}

func TestDistributeAggregateTwoNodesRoutesAcrossTransport(t *testing.T) {
	loopback := xport.NewLoopback(2)

	root0 := execctx.New(2, 0, nil)
	root1 := execctx.New(2, 1, nil)

	// Both kernels must share the same id for the token to line up, mirroring
	// every node building the identical rewritten plan.
	kctx0 := root0.Clone()
	kctx1 := root1.Clone()
	kctx1.KernelID = kctx0.KernelID

	routeToOne := func(batch.RecordBatch, int32) (int32, error) { return 1, nil }

	d0 := NewDistributeAggregate("LogicalDistributeAggregate(sum(x))", kctx0, loopback, loopback.Queue(0), routeToOne)
	d1 := NewDistributeAggregate("LogicalDistributeAggregate(sum(x))", kctx1, loopback, loopback.Queue(1), routeToOne)

	in0 := cache.New(cache.Config{Kind: cache.Simple})
	out0 := cache.New(cache.Config{Kind: cache.Simple})
	d0.SetInputPort(kernel.PortInput, in0)
	d0.SetOutputPort(kernel.PortOutput, out0)

	in1 := cache.New(cache.Config{Kind: cache.Simple})
	out1 := cache.New(cache.Config{Kind: cache.Simple})
	d1.SetInputPort(kernel.PortInput, in1)
	d1.SetOutputPort(kernel.PortOutput, out1)

	require.NoError(t, in0.Push(batch.Slice{Rows: 7}, 0))
	in0.PushSentinel()
	in1.PushSentinel()

	done0 := make(chan error, 1)
	done1 := make(chan error, 1)
	go func() { _, err := d0.Run(context.Background()); done0 <- err }()
	go func() { _, err := d1.Run(context.Background()); done1 <- err }()

	require.NoError(t, <-done0)
	require.NoError(t, <-done1)

	_, ok, err := out0.Pull(0)
	require.NoError(t, err)
	require.False(t, ok, "node 0 kept nothing since everything routes to node 1")

	b, ok, err := out1.Pull(0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 7, b.NumRows())
}

func TestPartwiseJoinBuildsThenProbes(t *testing.T) {
	root := execctx.New(1, 0, nil)
	joinFn := func(left, right batch.RecordBatch) (batch.RecordBatch, error) {
		return batch.Slice{Rows: minInt(left.NumRows(), right.NumRows())}, nil
	}
	j := NewPartwiseJoin("LogicalPartwiseJoin(a=b)", root.Clone(), joinFn, batch.ConcatSlices)

	build := cache.New(cache.Config{Kind: cache.Simple})
	probe := cache.New(cache.Config{Kind: cache.Simple})
	out := cache.New(cache.Config{Kind: cache.Simple})
	j.SetInputPort(kernel.PortInputA, build)
	j.SetInputPort(kernel.PortInputB, probe)
	j.SetOutputPort(kernel.PortOutput, out)

	require.NoError(t, build.Push(batch.Slice{Rows: 3}, 0))
	require.NoError(t, build.Push(batch.Slice{Rows: 4}, 0))
	build.PushSentinel()
	require.NoError(t, probe.Push(batch.Slice{Rows: 5}, 0))
	probe.PushSentinel()

	status, err := j.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, kernel.OK, status)

	b, ok, err := out.Pull(0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 5, b.NumRows())
}

func TestJoinPartitionKernelRoutesBothSidesIndependently(t *testing.T) {
	root := execctx.New(1, 0, nil)
	loopback := xport.NewLoopback(1)
	toNode0 := func(batch.RecordBatch, int32) (int32, error) { return 0, nil }

	jp := NewJoinPartitionKernel("LogicalJoinPartition(a=b)", root.Clone(), loopback, loopback.Queue(0), toNode0, toNode0)

	inA := cache.New(cache.Config{Kind: cache.Simple})
	inB := cache.New(cache.Config{Kind: cache.Simple})
	outA := cache.New(cache.Config{Kind: cache.Simple})
	outB := cache.New(cache.Config{Kind: cache.Simple})
	jp.SetInputPort(kernel.PortInputA, inA)
	jp.SetInputPort(kernel.PortInputB, inB)
	jp.SetOutputPort(kernel.PortOutputA, outA)
	jp.SetOutputPort(kernel.PortOutputB, outB)

	require.NoError(t, inA.Push(batch.Slice{Rows: 1}, 0))
	inA.PushSentinel()
	require.NoError(t, inB.Push(batch.Slice{Rows: 2}, 0))
	inB.PushSentinel()

	status, err := jp.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, kernel.OK, status)

	a, ok, err := outA.Pull(0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, a.NumRows())

	b, ok, err := outB.Pull(0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 2, b.NumRows())
}
