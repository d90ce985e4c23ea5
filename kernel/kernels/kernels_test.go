package kernels

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mlahir1/blazingsql/batch"
	"github.com/mlahir1/blazingsql/cache"
	"github.com/mlahir1/blazingsql/execctx"
	"github.com/mlahir1/blazingsql/kernel"
	"github.com/mlahir1/blazingsql/loader"
)

func newRootCtx(totalNodes, nodeID int32) *execctx.Context {
	return execctx.New(totalNodes, nodeID, nil)
}

func TestTableScanEmitsBatchesThenSentinel(t *testing.T) {
	root := newRootCtx(1, 0)
	l := loader.NewSliceLoader("t", []batch.RecordBatch{
		batch.Slice{Rows: 5}, batch.Slice{Rows: 7},
	})
	scan := NewTableScan("LogicalTableScan(t)", root.Clone(), l)
	out := cache.New(cache.Config{Kind: cache.Simple})
	scan.SetOutputPort(kernel.PortOutput, out)

	status, err := scan.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, kernel.OK, status)

	b, ok, err := out.Pull(0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 5, b.NumRows())

	b, ok, err = out.Pull(0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 7, b.NumRows())

	_, ok, err = out.Pull(0)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestLimitTruncatesFinalBatch(t *testing.T) {
	root := newRootCtx(1, 0)
	lim, err := NewLimit("LogicalLimit(10)", root.Clone())
	require.NoError(t, err)

	in := cache.New(cache.Config{Kind: cache.Simple})
	out := cache.New(cache.Config{Kind: cache.Simple})
	lim.SetInputPort(kernel.PortInput, in)
	lim.SetOutputPort(kernel.PortOutput, out)

	require.NoError(t, in.Push(batch.Slice{Rows: 6, Bytes: 60}, 0))
	require.NoError(t, in.Push(batch.Slice{Rows: 6, Bytes: 60}, 0))
	in.PushSentinel()

	status, err := lim.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, kernel.Stopped, status)

	b, ok, err := out.Pull(0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 6, b.NumRows())

	b, ok, err = out.Pull(0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 4, b.NumRows())

	_, ok, err = out.Pull(0)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestUnionConcatenatesAllInputs(t *testing.T) {
	root := newRootCtx(1, 0)
	u := NewUnion("LogicalUnion()", root.Clone())

	inA := cache.New(cache.Config{Kind: cache.Simple})
	inB := cache.New(cache.Config{Kind: cache.Simple})
	out := cache.New(cache.Config{Kind: cache.Simple})
	u.SetInputPort(kernel.PortInputA, inA)
	u.SetInputPort(kernel.PortInputB, inB)
	u.SetOutputPort(kernel.PortOutput, out)

	require.NoError(t, inA.Push(batch.Slice{Rows: 1}, 0))
	inA.PushSentinel()
	require.NoError(t, inB.Push(batch.Slice{Rows: 2}, 0))
	inB.PushSentinel()

	status, err := u.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, kernel.OK, status)

	var total int
	for {
		b, ok, err := out.Pull(0)
		require.NoError(t, err)
		if !ok {
			break
		}
		total += b.NumRows()
	}
	require.Equal(t, 3, total)
}

func TestFilterDropsNilBatches(t *testing.T) {
	root := newRootCtx(1, 0)
	dropEven := func(b batch.RecordBatch) (batch.RecordBatch, error) {
		if b.NumRows()%2 == 0 {
			return nil, nil
		}
		return b, nil
	}
	f := NewFilter("LogicalFilter(odd)", root.Clone(), dropEven)
	in := cache.New(cache.Config{Kind: cache.Simple})
	out := cache.New(cache.Config{Kind: cache.Simple})
	f.SetInputPort(kernel.PortInput, in)
	f.SetOutputPort(kernel.PortOutput, out)

	require.NoError(t, in.Push(batch.Slice{Rows: 2}, 0))
	require.NoError(t, in.Push(batch.Slice{Rows: 3}, 0))
	in.PushSentinel()

	status, err := f.Run(context.Background())
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

func TestMergeStreamKWayMergesForEachPartitions(t *testing.T) {
	root := newRootCtx(1, 0)
	m := NewMergeStream("LogicalMerge(order=a)", root.Clone(), 2, func(bs []batch.RecordBatch) (batch.RecordBatch, error) {
		return batch.ConcatSlices(bs)
	})

	in := cache.New(cache.Config{Kind: cache.ForEach, NumPartitions: 2})
	out := cache.New(cache.Config{Kind: cache.Simple})
	m.SetInputPort(kernel.PortInput, in)
	m.SetOutputPort(kernel.PortOutput, out)

	require.NoError(t, in.Push(batch.Slice{Rows: 1}, 0))
	require.NoError(t, in.Push(batch.Slice{Rows: 2}, 1))
	in.PushSentinel()

	status, err := m.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, kernel.OK, status)

	var total int
	for {
		b, ok, err := out.Pull(0)
		require.NoError(t, err)
		if !ok {
			break
		}
		total += b.NumRows()
	}
	require.Equal(t, 3, total)
}

func TestPartitionDrainsSamplesBeforeSortedInput(t *testing.T) {
	root := newRootCtx(1, 0)
	p := NewPartitionSingleNode("LogicalSingleNodePartition(order=a)", root.Clone(), 2, Default().Partition)

	sorted := cache.New(cache.Config{Kind: cache.Simple})
	samples := cache.New(cache.Config{Kind: cache.Simple})
	out := cache.New(cache.Config{Kind: cache.ForEach, NumPartitions: 2})
	p.SetInputPort(kernel.PortInputA, sorted)
	p.SetInputPort(kernel.PortInputB, samples)
	p.SetOutputPort(kernel.PortOutput, out)

	require.NoError(t, sorted.Push(batch.Slice{Rows: 4}, 0))
	sorted.PushSentinel()
	samples.PushSentinel()

	status, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, kernel.OK, status)

	b, ok, err := out.Pull(0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 4, b.NumRows())
}
