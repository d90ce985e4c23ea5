// Package planbuild implements the Graph Builder: it walks a rewritten plan
// tree, instantiates a kernel per node from the catalog, and wires edges
// with the per-(child-kind, parent-kind) cache policy of spec.md §4.7.
//
// Grounded on the edge-selection rule ordering (n-ary ports first, then the
// paired output_a/output_b edges, then the FOR_EACH Partition->MergeStream
// edge, then the CONCATENATING scan edge, then the SIMPLE fallback) of
// original_source/.../PhysicalPlanGenerator.h's build_batch_graph/visit.
package planbuild

import (
	"github.com/mlahir1/blazingsql/batch"
	"github.com/mlahir1/blazingsql/cache"
	"github.com/mlahir1/blazingsql/execctx"
	"github.com/mlahir1/blazingsql/graph"
	"github.com/mlahir1/blazingsql/kernel"
	"github.com/mlahir1/blazingsql/kernel/kernels"
	"github.com/mlahir1/blazingsql/loader"
	"github.com/mlahir1/blazingsql/msgqueue"
	"github.com/mlahir1/blazingsql/plan"
	"github.com/mlahir1/blazingsql/qerrors"
	"github.com/mlahir1/blazingsql/xport"
)

// LoaderFor resolves a table name (as it appears in a TableScan/
// BindableTableScan expression) to a fresh, independently iterable
// loader.DataLoader for one scan kernel.
type LoaderFor func(table string) loader.DataLoader

// Builder holds everything the Graph Builder needs beyond the plan tree
// itself: the query's execution context, the injected evaluation hooks, the
// table-to-loader resolver, and the cross-node transport used by
// DistributeAggregate and JoinPartition.
type Builder struct {
	ctx       *execctx.Context
	ops       kernels.Ops
	loaderFor LoaderFor
	transport xport.Transport
	inbox     *msgqueue.Queue

	graph *graph.Graph
}

// NewBuilder constructs a Builder. transport/inbox may be nil if the tree is
// known not to contain DistributeAggregate or JoinPartition (e.g. a
// single-node rewrite).
func NewBuilder(ctx *execctx.Context, ops kernels.Ops, loaderFor LoaderFor, transport xport.Transport, inbox *msgqueue.Queue) *Builder {
	return &Builder{ctx: ctx, ops: ops, loaderFor: loaderFor, transport: transport, inbox: inbox}
}

// Build walks root (already passed through plan.Rewrite) and returns the
// populated Graph, the root's kernel, and a terminal cache channel bound to
// the root kernel's output port for the caller to collect result batches
// from.
func (b *Builder) Build(root *plan.Node) (*graph.Graph, kernel.Kernel, *cache.Channel, error) {
	b.graph = graph.New()
	rootKernel, err := b.buildNode(root)
	if err != nil {
		return nil, nil, nil, err
	}
	terminal := cache.New(cache.Config{Kind: cache.Simple})
	b.graph.BindOutput(rootKernel, kernel.PortOutput, terminal)
	return b.graph, rootKernel, terminal, nil
}

func (b *Builder) buildNode(n *plan.Node) (kernel.Kernel, error) {
	k, err := b.newKernel(n)
	if err != nil {
		return nil, err
	}

	children := make([]kernel.Kernel, len(n.Children))
	for i, c := range n.Children {
		ck, err := b.buildNode(c)
		if err != nil {
			return nil, err
		}
		children[i] = ck
	}

	b.graph.AddNode(k)
	for i, ck := range children {
		if err := b.wireEdge(ck, k, i, len(children)); err != nil {
			return nil, err
		}
	}
	return k, nil
}

func (b *Builder) newKernel(n *plan.Node) (kernel.Kernel, error) {
	token := plan.Token(n.Expr)
	switch token {
	case "LogicalProject":
		return kernels.NewProjection(n.Expr, b.ctx.Clone(), b.ops.Project), nil
	case "LogicalFilter":
		return kernels.NewFilter(n.Expr, b.ctx.Clone(), b.ops.Filter), nil
	case "LogicalTableScan":
		return kernels.NewTableScan(n.Expr, b.ctx.Clone(), b.loaderFor(plan.TableName(n.Expr))), nil
	case "BindableTableScan":
		bind := composeRowFuncs(b.ops.Filter, b.ops.Project)
		return kernels.NewBindableTableScan(n.Expr, b.ctx.Clone(), b.loaderFor(plan.TableName(n.Expr)), bind), nil
	case "LogicalUnion":
		return kernels.NewUnion(n.Expr, b.ctx.Clone()), nil
	case "LogicalLimit":
		return kernels.NewLimit(n.Expr, b.ctx.Clone())
	case "LogicalMerge":
		numPartitions, err := b.ctx.MaxOrderByPartitions()
		if err != nil {
			return nil, err
		}
		return kernels.NewMergeStream(n.Expr, b.ctx.Clone(), numPartitions, b.ops.Merge), nil
	case "LogicalPartition":
		numPartitions, err := b.ctx.MaxOrderByPartitions()
		if err != nil {
			return nil, err
		}
		return kernels.NewPartition(n.Expr, b.ctx.Clone(), numPartitions, b.ops.Partition), nil
	case "LogicalSingleNodePartition":
		numPartitions, err := b.ctx.MaxOrderByPartitions()
		if err != nil {
			return nil, err
		}
		return kernels.NewPartitionSingleNode(n.Expr, b.ctx.Clone(), numPartitions, b.ops.Partition), nil
	case "LogicalSortAndSample":
		return kernels.NewSortAndSample(n.Expr, b.ctx.Clone(), b.ops.Sort, b.ops.Sample), nil
	case "LogicalSingleNodeSortAndSample":
		return kernels.NewSortAndSampleSingleNode(n.Expr, b.ctx.Clone(), b.ops.Sort, b.ops.Sample), nil
	case "LogicalComputeAggregate":
		return kernels.NewComputeAggregate(n.Expr, b.ctx.Clone(), b.ops.Compute), nil
	case "LogicalDistributeAggregate":
		return kernels.NewDistributeAggregate(n.Expr, b.ctx.Clone(), b.transport, b.inbox, b.ops.Route), nil
	case "LogicalMergeAggregate":
		return kernels.NewMergeAggregate(n.Expr, b.ctx.Clone(), b.ops.Merge), nil
	case "LogicalPartwiseJoin":
		return kernels.NewPartwiseJoin(n.Expr, b.ctx.Clone(), b.ops.Join, b.ops.Merge), nil
	case "LogicalJoinPartition":
		return kernels.NewJoinPartitionKernel(n.Expr, b.ctx.Clone(), b.transport, b.inbox, b.ops.Route, b.ops.Route), nil
	default:
		return nil, qerrors.InvalidAlgebra(n.Expr)
	}
}

// composeRowFuncs chains first and then second, skipping whichever is nil
// and short-circuiting once either stage yields a nil batch (a dropped row
// group need not be passed on).
func composeRowFuncs(first, second kernels.RowFunc) kernels.RowFunc {
	return func(b batch.RecordBatch) (batch.RecordBatch, error) {
		var err error
		if first != nil {
			b, err = first(b)
			if err != nil || b == nil {
				return b, err
			}
		}
		if second != nil {
			b, err = second(b)
			if err != nil {
				return nil, err
			}
		}
		return b, nil
	}
}

func (b *Builder) wireEdge(child, parent kernel.Kernel, index, numChildren int) error {
	if numChildren > 1 {
		cfg, err := b.simpleConfig(parent.CanThrottleInputs())
		if err != nil {
			return err
		}
		b.graph.Link(child, kernel.PortOutput, parent, kernel.InputPortName(index), cfg)
		return nil
	}

	if isPairEdge(child.Kind(), parent.Kind()) {
		cfgA, err := b.simpleConfig(parent.CanThrottleInputs())
		if err != nil {
			return err
		}
		cfgB, err := b.simpleConfig(parent.CanThrottleInputs())
		if err != nil {
			return err
		}
		b.graph.Link(child, kernel.PortOutputA, parent, kernel.PortInputA, cfgA)
		b.graph.Link(child, kernel.PortOutputB, parent, kernel.PortInputB, cfgB)
		return nil
	}

	if isPartitionKind(child.Kind()) && parent.Kind() == kernels.KindMergeStream {
		numPartitions, err := b.ctx.MaxOrderByPartitions()
		if err != nil {
			return err
		}
		cfg, err := b.forEachConfig(numPartitions, parent.CanThrottleInputs())
		if err != nil {
			return err
		}
		b.graph.Link(child, kernel.PortOutput, parent, kernel.PortInput, cfg)
		return nil
	}

	if child.Kind() == kernels.KindTableScan || child.Kind() == kernels.KindBindableTableScan {
		cfg, err := b.concatenatingConfig()
		if err != nil {
			return err
		}
		b.graph.Link(child, kernel.PortOutput, parent, kernel.PortInput, cfg)
		return nil
	}

	cfg, err := b.simpleConfig(parent.CanThrottleInputs())
	if err != nil {
		return err
	}
	b.graph.Link(child, kernel.PortOutput, parent, kernel.PortInput, cfg)
	return nil
}

func isPairEdge(childKind, parentKind kernel.Kind) bool {
	if childKind == kernels.KindJoinPartitionKind && parentKind == kernels.KindPartwiseJoin {
		return true
	}
	return isSortAndSampleKind(childKind) && isPartitionKind(parentKind)
}

func isSortAndSampleKind(k kernel.Kind) bool {
	return k == kernels.KindSortAndSample || k == kernels.KindSortAndSampleSingleNode
}

func isPartitionKind(k kernel.Kind) bool {
	return k == kernels.KindPartition || k == kernels.KindPartitionSingleNode
}

// simpleConfig returns a SIMPLE cache config: throttled per
// execctx.DefaultThrottledThresholds when throttle is true, unlimited
// otherwise.
func (b *Builder) simpleConfig(throttle bool) (cache.Config, error) {
	if !throttle {
		return cache.Config{Kind: cache.Simple}, nil
	}
	batches, bytes, err := b.ctx.DefaultThrottledThresholds()
	if err != nil {
		return cache.Config{}, err
	}
	return cache.Config{Kind: cache.Simple, BatchesThreshold: batches, BytesThreshold: bytes}, nil
}

// forEachConfig returns a FOR_EACH cache config with numPartitions
// partitions, throttled per execctx.DefaultThrottledThresholds when throttle
// is true.
func (b *Builder) forEachConfig(numPartitions int, throttle bool) (cache.Config, error) {
	cfg := cache.Config{Kind: cache.ForEach, NumPartitions: numPartitions}
	if throttle {
		batches, bytes, err := b.ctx.DefaultThrottledThresholds()
		if err != nil {
			return cache.Config{}, err
		}
		cfg.BatchesThreshold = batches
		cfg.BytesThreshold = bytes
	}
	return cfg, nil
}

// concatenatingConfig returns the CONCATENATING config used for scan edges:
// bytes bounded by MAX_DATA_LOAD_CONCAT_CACHE_BYTES_SIZE, batches bounded by
// FLOW_CONTROL_BATCHES_THRESHOLD if explicitly set, else 0 (spec.md §4.7
// rule 4).
func (b *Builder) concatenatingConfig() (cache.Config, error) {
	bytesLimit, err := b.ctx.MaxDataLoadConcatBytes()
	if err != nil {
		return cache.Config{}, err
	}
	var batches uint32
	if _, set := b.ctx.Options[execctx.OptFlowControlBatchesThreshold]; set {
		batches, err = b.ctx.BatchesThreshold()
		if err != nil {
			return cache.Config{}, err
		}
	}
	return cache.Config{
		Kind:             cache.Concatenating,
		BatchesThreshold: batches,
		BytesThreshold:   bytesLimit,
		Concat:           cache.Concatenator(b.ops.Merge),
	}, nil
}
