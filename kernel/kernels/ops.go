// Package kernels is the concrete kernel catalog of spec.md §4.4: the set of
// streaming operator implementations the Graph Builder instantiates while
// walking a rewritten plan tree.
//
// Row-level and expression evaluation (projection lists, predicates, sort
// keys, aggregate functions, join conditions) is out of the core's scope per
// spec.md §1 ("the GPU compute kernels that evaluate projections/filters/
// joins ... invoked by kernel bodies" are external collaborators). Each
// kernel that needs such evaluation accepts it as an injected function via
// Ops, grounded on the same "expression string carries parameters, parsing
// delegated to the relational-expression layer" split spec.md §4.4 describes.
package kernels

import "github.com/mlahir1/blazingsql/batch"

// RowFunc transforms one batch into another (projection, local aggregation,
// per-batch sort). It is the generic hook for "evaluate this kernel's
// expression against a batch."
type RowFunc func(batch.RecordBatch) (batch.RecordBatch, error)

// MergeFunc combines several (already compatible) batches into one,
// preserving whatever order the caller requires — used by MergeStream's
// k-way merge and MergeAggregate's final combination.
type MergeFunc func([]batch.RecordBatch) (batch.RecordBatch, error)

// SampleFunc derives a (typically small) sampling batch from an input batch,
// used by SortAndSample to produce partition-boundary candidates.
type SampleFunc func(batch.RecordBatch) (batch.RecordBatch, error)

// RouteFunc assigns a batch to a destination node in [0, totalNodes), used by
// DistributeAggregate and JoinPartitionKernel to hash-route rows across the
// cluster.
type RouteFunc func(b batch.RecordBatch, totalNodes int32) (int32, error)

// PartitionFunc splits a batch into up to numPartitions batches using
// previously collected pivot samples, used by Partition/PartitionSingleNode.
type PartitionFunc func(b batch.RecordBatch, pivots []batch.RecordBatch, numPartitions int) ([]batch.RecordBatch, error)

// JoinFunc computes the join of two already co-partitioned batches.
type JoinFunc func(left, right batch.RecordBatch) (batch.RecordBatch, error)

// Ops bundles every injectable evaluation hook a catalog kernel may need.
// Default returns an Ops whose hooks are identity/pass-through
// implementations sufficient for tests and the CLI reference loader; a real
// deployment overrides these with the relational-expression layer's compiled
// evaluators.
type Ops struct {
	Project  RowFunc
	Filter   RowFunc
	Sort     RowFunc
	Sample   SampleFunc
	Merge    MergeFunc
	Compute  RowFunc
	Route    RouteFunc
	Partition PartitionFunc
	Join     JoinFunc
}

// Default returns an Ops of conservative pass-through behaviors: Project,
// Filter, Sort, and Compute are identity; Merge is batch.ConcatSlices; Sample
// returns a batch of at most one row carrying the input's per-row byte size;
// Route always targets node 0; Partition puts everything in partition 0.
func Default() Ops {
	identity := func(b batch.RecordBatch) (batch.RecordBatch, error) { return b, nil }
	return Ops{
		Project: identity,
		Filter:  identity,
		Sort:    identity,
		Compute: identity,
		Sample: func(b batch.RecordBatch) (batch.RecordBatch, error) {
			return batch.Slice{Rows: minInt(b.NumRows(), 1), Bytes: b.ByteSize() / int64(maxInt(b.NumRows(), 1))}, nil
		},
		Merge: batch.ConcatSlices,
		Route: func(batch.RecordBatch, int32) (int32, error) { return 0, nil },
		Partition: func(b batch.RecordBatch, _ []batch.RecordBatch, numPartitions int) ([]batch.RecordBatch, error) {
			out := make([]batch.RecordBatch, numPartitions)
			for i := range out {
				out[i] = batch.Slice{}
			}
			out[0] = b
			return out, nil
		},
		Join: func(left, right batch.RecordBatch) (batch.RecordBatch, error) {
			return batch.Slice{Rows: minInt(left.NumRows(), right.NumRows())}, nil
		},
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
