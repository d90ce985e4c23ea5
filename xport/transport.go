// Package xport defines the cross-node transport interface DistributeAggregate
// and JoinPartitionKernel publish through (spec.md §6: "delivers messages
// tagged by a string token into the Message Queue") and an in-process
// loopback implementation used when the whole cluster is simulated within a
// single process (tests, the CLI single-node/multi-simulated-node mode).
package xport

import (
	"context"

	"github.com/mlahir1/blazingsql/batch"
	"github.com/mlahir1/blazingsql/msgqueue"
)

// Transport delivers a batch to peerNodeID, tagged with token, so that the
// receiving node's msgqueue.Queue.Get(token) call observes it. Real network
// transport of byte buffers between nodes is out of the core's scope per
// spec.md §1; the core only ever sees this interface.
type Transport interface {
	Send(ctx context.Context, peerNodeID int32, token string, b batch.RecordBatch) error
	// SendSentinel signals end-of-stream for token on peerNodeID.
	SendSentinel(ctx context.Context, peerNodeID int32, token string) error
}

// Loopback is an in-process Transport that feeds a shared set of per-node
// msgqueue.Queues directly, simulating a cluster of numNodes processes
// within one Go process. Used by tests exercising DistributeAggregate/
// JoinPartitionKernel without real network I/O.
type Loopback struct {
	queues []*msgqueue.Queue
}

var _ Transport = (*Loopback)(nil)

// NewLoopback constructs a Loopback with one inbound queue per node.
func NewLoopback(numNodes int32) *Loopback {
	queues := make([]*msgqueue.Queue, numNodes)
	for i := range queues {
		queues[i] = msgqueue.New()
	}
	return &Loopback{queues: queues}
}

// Queue returns the inbound queue for nodeID, for that node's kernels to
// Get() from.
func (l *Loopback) Queue(nodeID int32) *msgqueue.Queue { return l.queues[nodeID] }

// Send implements Transport.
func (l *Loopback) Send(_ context.Context, peerNodeID int32, token string, b batch.RecordBatch) error {
	l.queues[peerNodeID].Put(msgqueue.Entry{Token: token, Payload: b})
	return nil
}

// SendSentinel implements Transport.
func (l *Loopback) SendSentinel(_ context.Context, peerNodeID int32, token string) error {
	l.queues[peerNodeID].Put(msgqueue.Entry{Token: token, Sentinel: true})
	return nil
}
