// Package cache implements the bounded, typed batch queues that connect
// kernels (spec.md §4.2): SIMPLE pass-through FIFOs, CONCATENATING channels
// that coalesce small producer outputs into byte-bounded merged batches, and
// FOR_EACH channels that fan out into independent per-partition sub-queues.
//
// Grounded on distsql/base.go's RowChannel/MultiplexedRowChannel (bounded,
// backpressured, multi-producer channel with a sentinel-counted close) and
// rowflow/routers.go's routerOutput (per-consumer buffered output gated by a
// sync.Cond), generalized to the three-kind, two-axis-threshold design
// spec.md §4.2 specifies.
package cache

import (
	"sync"

	"github.com/mlahir1/blazingsql/batch"
	"github.com/mlahir1/blazingsql/execctx"
	"github.com/mlahir1/blazingsql/qerrors"
)

// Kind selects a Channel's backing policy.
type Kind int

const (
	// Simple is a single FIFO; entries pass through untouched.
	Simple Kind = iota
	// Concatenating buffers entries and, on Pull, returns a single batch
	// that is the concatenation of the queued batches, bounded by
	// BytesThreshold.
	Concatenating
	// ForEach maintains NumPartitions independent FIFOs addressed by index.
	ForEach
)

// Concatenator merges a run of queued batches into one, for Concatenating
// channels. The real engine plugs in the GPU concatenation kernel here; the
// core itself never inspects batch contents, so this is supplied by the
// caller rather than implemented against a concrete batch representation.
type Concatenator func(batches []batch.RecordBatch) (batch.RecordBatch, error)

// Config describes a Channel's policy, chosen per-edge by the Graph Builder
// (spec.md §4.7).
type Config struct {
	Kind Kind
	// NumPartitions is 1 for Simple/Concatenating, >=1 for ForEach.
	NumPartitions int
	// BatchesThreshold: 0 disables this axis, execctx.MaxBatchesThreshold
	// means unlimited.
	BatchesThreshold uint32
	// BytesThreshold: 0 disables this axis (and, for Concatenating,
	// degenerates it to Simple), execctx.MaxBytesThreshold means unlimited.
	BytesThreshold uint64
	// NumProducers is the number of PushSentinel/Close calls expected before
	// the channel transitions to closed. Defaults to 1 if zero.
	NumProducers int
	// Concat is required when Kind == Concatenating.
	Concat Concatenator
}

type partitionQueue struct {
	entries []batch.RecordBatch
	nextSeq uint64
	bytes   int64
}

// Channel is a bounded, thread-safe batch queue. Producers and consumers may
// run on distinct goroutines. The zero value is not usable; construct with
// New.
type Channel struct {
	cfg Config

	mu   sync.Mutex
	cond *sync.Cond

	partitions []partitionQueue

	sentinelsReceived int
	closed            bool
}

// New constructs a Channel from cfg. NumPartitions defaults to 1 for
// non-ForEach kinds; NumProducers defaults to 1.
func New(cfg Config) *Channel {
	if cfg.Kind != ForEach {
		cfg.NumPartitions = 1
	}
	if cfg.NumPartitions < 1 {
		cfg.NumPartitions = 1
	}
	if cfg.NumProducers < 1 {
		cfg.NumProducers = 1
	}
	c := &Channel{
		cfg:        cfg,
		partitions: make([]partitionQueue, cfg.NumPartitions),
	}
	c.cond = sync.NewCond(&c.mu)
	return c
}

func (c *Channel) blocksOn(depth int, bytes int64) bool {
	bt := c.cfg.BatchesThreshold
	if bt != 0 && bt != execctx.MaxBatchesThreshold && uint32(depth) >= bt {
		return true
	}
	byt := c.cfg.BytesThreshold
	if byt != 0 && byt != execctx.MaxBytesThreshold && uint64(bytes) >= byt {
		return true
	}
	return false
}

// Push enqueues b onto the given partition (0 for Simple/Concatenating). It
// blocks while the partition's depth or byte-weight has reached a configured,
// finite, non-zero threshold; see spec.md §4.2 for the exact flow-control
// rule. Returns an error if the channel is already closed.
func (c *Channel) Push(b batch.RecordBatch, partitionIdx int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := &c.partitions[partitionIdx]
	for c.blocksOn(len(p.entries), p.bytes) {
		c.cond.Wait()
	}
	if c.closed {
		return qerrors.InvalidAlgebraf("push on closed cache channel")
	}
	p.entries = append(p.entries, b)
	p.bytes += b.ByteSize()
	p.nextSeq++
	c.cond.Broadcast()
	return nil
}

// PushSentinel records one producer's completion. Once NumProducers sentinels
// have been received, the channel transitions to closed and pending Pulls
// drain remaining entries before returning end-of-stream.
func (c *Channel) PushSentinel() {
	c.mu.Lock()
	c.sentinelsReceived++
	if c.sentinelsReceived >= c.cfg.NumProducers {
		c.closed = true
	}
	c.mu.Unlock()
	c.cond.Broadcast()
}

// Close is an alias for PushSentinel, matching spec.md §4.2's
// "push_sentinel()/close()" naming.
func (c *Channel) Close() { c.PushSentinel() }

// Pull blocks until an entry is available on the given partition, or the
// channel is closed and that partition is empty. ok is false on end-of-stream.
func (c *Channel) Pull(partitionIdx int) (b batch.RecordBatch, ok bool, err error) {
	switch c.cfg.Kind {
	case Concatenating:
		return c.pullConcatenating(partitionIdx)
	default:
		return c.pullSimple(partitionIdx)
	}
}

func (c *Channel) pullSimple(partitionIdx int) (batch.RecordBatch, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := &c.partitions[partitionIdx]
	for len(p.entries) == 0 && !c.closed {
		c.cond.Wait()
	}
	if len(p.entries) == 0 {
		return nil, false, nil
	}
	b := p.entries[0]
	p.entries = p.entries[1:]
	p.bytes -= b.ByteSize()
	c.cond.Broadcast()
	return b, true, nil
}

func (c *Channel) pullConcatenating(partitionIdx int) (batch.RecordBatch, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := &c.partitions[partitionIdx]
	for len(p.entries) == 0 && !c.closed {
		c.cond.Wait()
	}
	if len(p.entries) == 0 {
		return nil, false, nil
	}

	threshold := c.cfg.BytesThreshold
	if threshold == 0 {
		// Degenerates to SIMPLE per spec.md §4.2.
		b := p.entries[0]
		p.entries = p.entries[1:]
		p.bytes -= b.ByteSize()
		c.cond.Broadcast()
		return b, true, nil
	}

	var take []batch.RecordBatch
	var total int64
	for len(p.entries) > 0 {
		next := p.entries[0]
		if len(take) > 0 && threshold != execctx.MaxBytesThreshold && total+next.ByteSize() > int64(threshold) {
			break
		}
		take = append(take, next)
		total += next.ByteSize()
		p.entries = p.entries[1:]
	}
	p.bytes -= total
	c.cond.Broadcast()

	if c.cfg.Concat == nil {
		return nil, false, qerrors.InvalidAlgebraf("concatenating cache channel has no Concatenator configured")
	}
	merged, err := c.cfg.Concat(take)
	if err != nil {
		return nil, false, err
	}
	return merged, true, nil
}

// Depth returns the current entry count on the given partition, for tests
// asserting the backpressure invariant (spec.md §8 property 3).
func (c *Channel) Depth(partitionIdx int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.partitions[partitionIdx].entries)
}

// NumPartitions returns the channel's partition count.
func (c *Channel) NumPartitions() int { return c.cfg.NumPartitions }

// Kind returns the channel's backing policy.
func (c *Channel) Kind() Kind { return c.cfg.Kind }
