// Package execctx holds the execution-wide configuration shared by every
// kernel in a query: cluster cardinality, the local node id, and the
// string-keyed options map. It mirrors the original engine's notion of a
// context that is cloned once per kernel so each kernel gets its own
// identity while sharing the same read-only configuration.
package execctx

import "sync/atomic"

// Option keys recognized by the graph builder (spec.md §6). Defaults below.
const (
	OptFlowControlBatchesThreshold   = "FLOW_CONTROL_BATCHES_THRESHOLD"
	OptFlowControlBytesThreshold     = "FLOW_CONTROL_BYTES_THRESHOLD"
	OptMaxNumOrderByPartitionsPerNode = "MAX_NUM_ORDER_BY_PARTITIONS_PER_NODE"
	OptMaxDataLoadConcatCacheBytesSize = "MAX_DATA_LOAD_CONCAT_CACHE_BYTES_SIZE"
)

// DefaultMaxOrderByPartitions is the default for OptMaxNumOrderByPartitionsPerNode.
const DefaultMaxOrderByPartitions = 8

// DefaultMaxDataLoadConcatBytes is the default for OptMaxDataLoadConcatCacheBytesSize.
const DefaultMaxDataLoadConcatBytes = 400_000_000

// Context is shared, read-only execution configuration for a single query.
// Clone assigns each kernel a fresh, stable id drawn from a counter shared by
// every clone derived from the same root Context.
type Context struct {
	// TotalNodes is the number of nodes participating in the cluster running
	// this query. TotalNodes == 1 selects single-node kernel variants.
	TotalNodes int32
	// NodeID is this process's position in the cluster.
	NodeID int32
	// Options is the read-only, string-keyed configuration map. It must not
	// be mutated after the root Context is constructed.
	Options map[string]string

	// KernelID is this clone's assigned kernel id; zero on the root Context
	// before any Clone call.
	KernelID int64

	counter *int64
}

// New constructs a root Context. Options may be nil, meaning every key takes
// its documented default.
func New(totalNodes, nodeID int32, options map[string]string) *Context {
	if options == nil {
		options = map[string]string{}
	}
	var counter int64
	return &Context{
		TotalNodes: totalNodes,
		NodeID:     nodeID,
		Options:    options,
		counter:    &counter,
	}
}

// Clone returns a new Context sharing this Context's configuration but with a
// freshly assigned KernelID. Every clone descended from the same root shares
// the same counter, so kernel ids are unique per query.
func (c *Context) Clone() *Context {
	id := atomic.AddInt64(c.counter, 1)
	clone := *c
	clone.KernelID = id
	return &clone
}
