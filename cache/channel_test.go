package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mlahir1/blazingsql/batch"
	"github.com/mlahir1/blazingsql/execctx"
)

func TestSimplePushPullFIFO(t *testing.T) {
	c := New(Config{Kind: Simple})
	require.NoError(t, c.Push(batch.Slice{Rows: 1}, 0))
	require.NoError(t, c.Push(batch.Slice{Rows: 2}, 0))
	c.PushSentinel()

	b, ok, err := c.Pull(0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, b.NumRows())

	b, ok, err = c.Pull(0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 2, b.NumRows())

	_, ok, err = c.Pull(0)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPushAfterCloseErrors(t *testing.T) {
	c := New(Config{Kind: Simple})
	c.PushSentinel()
	err := c.Push(batch.Slice{Rows: 1}, 0)
	require.Error(t, err)
}

func TestBackpressureNeverExceedsThreshold(t *testing.T) {
	c := New(Config{Kind: Simple, BatchesThreshold: 2})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 5; i++ {
			require.NoError(t, c.Push(batch.Slice{Rows: i}, 0))
			require.LessOrEqual(t, c.Depth(0), 2)
		}
		c.PushSentinel()
	}()

	for i := 0; i < 5; i++ {
		time.Sleep(5 * time.Millisecond)
		require.LessOrEqual(t, c.Depth(0), 2)
		_, _, err := c.Pull(0)
		require.NoError(t, err)
	}
	wg.Wait()
}

func TestThirdPushBlocksUntilConsumerPulls(t *testing.T) {
	c := New(Config{Kind: Simple, BatchesThreshold: 2})
	require.NoError(t, c.Push(batch.Slice{Rows: 1}, 0))
	require.NoError(t, c.Push(batch.Slice{Rows: 2}, 0))

	pushed := make(chan struct{})
	go func() {
		require.NoError(t, c.Push(batch.Slice{Rows: 3}, 0))
		close(pushed)
	}()

	select {
	case <-pushed:
		t.Fatal("third push completed before consumer freed capacity")
	case <-time.After(20 * time.Millisecond):
	}

	_, _, err := c.Pull(0)
	require.NoError(t, err)

	select {
	case <-pushed:
	case <-time.After(time.Second):
		t.Fatal("third push did not unblock after a pull")
	}
}

func TestZeroThresholdMeansNeverBlock(t *testing.T) {
	c := New(Config{Kind: Simple, BatchesThreshold: 0, BytesThreshold: 0})
	for i := 0; i < 100; i++ {
		require.NoError(t, c.Push(batch.Slice{Rows: 1}, 0))
	}
	require.Equal(t, 100, c.Depth(0))
}

func TestMaxThresholdMeansUnlimited(t *testing.T) {
	c := New(Config{Kind: Simple, BatchesThreshold: execctx.MaxBatchesThreshold})
	for i := 0; i < 50; i++ {
		require.NoError(t, c.Push(batch.Slice{Rows: 1}, 0))
	}
	require.Equal(t, 50, c.Depth(0))
}

func TestConcatenatingPullMergesQueuedBatches(t *testing.T) {
	c := New(Config{
		Kind:           Concatenating,
		BytesThreshold: 100,
		Concat:         batch.ConcatSlices,
	})
	require.NoError(t, c.Push(batch.Slice{Rows: 1, Bytes: 10}, 0))
	require.NoError(t, c.Push(batch.Slice{Rows: 2, Bytes: 20}, 0))
	require.NoError(t, c.Push(batch.Slice{Rows: 3, Bytes: 90}, 0))
	c.PushSentinel()

	merged, ok, err := c.Pull(0)
	require.NoError(t, err)
	require.True(t, ok)
	// First two batches fit under the 100 byte threshold together (30); the
	// third (90 bytes) would push the running total to 120 so it waits for
	// the next pull.
	require.Equal(t, 3, merged.NumRows())
	require.Equal(t, int64(30), merged.ByteSize())

	merged, ok, err = c.Pull(0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 3, merged.NumRows())
	require.Equal(t, int64(90), merged.ByteSize())

	_, ok, err = c.Pull(0)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestConcatenatingDegeneratesToSimpleWhenBytesThresholdZero(t *testing.T) {
	c := New(Config{Kind: Concatenating, BytesThreshold: 0})
	require.NoError(t, c.Push(batch.Slice{Rows: 1, Bytes: 10}, 0))
	require.NoError(t, c.Push(batch.Slice{Rows: 2, Bytes: 20}, 0))
	c.PushSentinel()

	b, ok, err := c.Pull(0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, b.NumRows())

	b, ok, err = c.Pull(0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 2, b.NumRows())
}

func TestForEachPartitionsAreIndependent(t *testing.T) {
	c := New(Config{Kind: ForEach, NumPartitions: 3})
	require.NoError(t, c.Push(batch.Slice{Rows: 1}, 0))
	require.NoError(t, c.Push(batch.Slice{Rows: 2}, 2))
	c.PushSentinel()

	b, ok, err := c.Pull(0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, b.NumRows())
	_, ok, err = c.Pull(0)
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = c.Pull(1)
	require.NoError(t, err)
	require.False(t, ok)

	b, ok, err = c.Pull(2)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 2, b.NumRows())
}

func TestChannelClosesOnlyAfterAllProducerSentinels(t *testing.T) {
	c := New(Config{Kind: Simple, NumProducers: 2})
	c.PushSentinel()

	done := make(chan struct{})
	go func() {
		_, ok, err := c.Pull(0)
		require.NoError(t, err)
		require.False(t, ok)
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("channel closed after only one of two producer sentinels")
	case <-time.After(20 * time.Millisecond):
	}

	c.PushSentinel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("channel did not close after the second producer sentinel")
	}
}
