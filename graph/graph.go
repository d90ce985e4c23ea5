// Package graph implements the query graph: the concurrently-running
// collection of kernels wired together by cache channels that a query
// executes against (spec.md §4.5/§4.6).
//
// Grounded on flowinfra/flow_scheduler.go's FlowScheduler (concurrent flow
// lifecycle management, start-all-then-wait execution) generalized from
// CockroachDB's single-flow-per-goroutine model to this package's
// one-goroutine-per-kernel model via golang.org/x/sync/errgroup.
package graph

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mlahir1/blazingsql/cache"
	"github.com/mlahir1/blazingsql/kernel"
	"github.com/mlahir1/blazingsql/qerrors"
	"github.com/mlahir1/blazingsql/qlog"
)

// Graph is a query's acyclic network of kernels and the cache channels
// connecting their ports. The zero value is not usable; construct with New.
type Graph struct {
	mu       sync.Mutex
	nodes    map[int64]kernel.Kernel
	order    []int64
	channels []*cache.Channel
}

// New constructs an empty Graph.
func New() *Graph {
	return &Graph{nodes: map[int64]kernel.Kernel{}}
}

// AddNode registers k with the graph. It is idempotent: adding the same
// kernel id twice is a no-op.
func (g *Graph) AddNode(k kernel.Kernel) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.nodes[k.ID()]; exists {
		return
	}
	g.nodes[k.ID()] = k
	g.order = append(g.order, k.ID())
}

// Node looks up a registered kernel by id.
func (g *Graph) Node(id int64) kernel.Kernel {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.nodes[id]
}

// Nodes returns every registered kernel, in registration order.
func (g *Graph) Nodes() []kernel.Kernel {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]kernel.Kernel, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}

// Link creates a cache channel per cfg, binds it to producer's outPort and
// consumer's inPort, registers both endpoints as nodes, and returns the new
// channel. This is the sole edge-construction primitive the Graph Builder
// uses to implement the rules of spec.md §4.7.
func (g *Graph) Link(producer kernel.Kernel, outPort string, consumer kernel.Kernel, inPort string, cfg cache.Config) *cache.Channel {
	g.AddNode(producer)
	g.AddNode(consumer)

	ch := cache.New(cfg)
	producer.SetOutputPort(outPort, ch)
	consumer.SetInputPort(inPort, ch)

	g.mu.Lock()
	g.channels = append(g.channels, ch)
	g.mu.Unlock()
	return ch
}

// BindOutput registers ch as producer's outPort without a paired consumer,
// for the terminal output of the graph (the Graph Builder's root).
func (g *Graph) BindOutput(producer kernel.Kernel, outPort string, ch *cache.Channel) {
	g.AddNode(producer)
	producer.SetOutputPort(outPort, ch)
	g.mu.Lock()
	g.channels = append(g.channels, ch)
	g.mu.Unlock()
}

// Execute runs every registered kernel concurrently to completion. If any
// kernel returns Status == Error, Execute cancels the remaining kernels'
// context and force-closes every channel in the graph so kernels blocked on
// cache.Channel.Push/Pull (which do not themselves observe ctx) unblock and
// exit instead of deadlocking, then returns the first error encountered.
func (g *Graph) Execute(ctx context.Context) error {
	nodes := g.Nodes()
	eg, egctx := errgroup.WithContext(ctx)
	for _, k := range nodes {
		k := k
		eg.Go(func() error {
			st, err := k.Run(egctx)
			if err != nil {
				return qerrors.KernelRuntime(k.ID(), string(k.Kind()), err)
			}
			if st == kernel.Error {
				return qerrors.KernelRuntime(k.ID(), string(k.Kind()), egctx.Err())
			}
			qlog.VEventf(2, egctx, "kernel %d (%s) finished with status %s", k.ID(), k.Kind(), st)
			return nil
		})
	}
	go func() {
		<-egctx.Done()
		g.floodClose()
	}()
	return eg.Wait()
}

// floodClose force-closes every channel in the graph. Safe to call even on
// already-closed channels: PushSentinel is idempotent past NumProducers.
func (g *Graph) floodClose() {
	g.mu.Lock()
	channels := append([]*cache.Channel(nil), g.channels...)
	g.mu.Unlock()
	for _, ch := range channels {
		ch.Close()
	}
}
