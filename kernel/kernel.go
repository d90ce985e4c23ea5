// Package kernel defines the abstract streaming operator contract of
// spec.md §4.3: named input/output ports bound to cache.Channels, a Run
// method that must emit exactly one sentinel per output port before
// returning, and a CanThrottleInputs capability bit the Graph Builder
// consults when choosing per-edge flow control (spec.md §4.7).
//
// Grounded on distsqlrun/processors.go's processor interface
// (Run(wg *sync.WaitGroup)) and the original engine's ral::cache::kernel base
// (original_source/.../PhysicalPlanGenerator.h's make_kernel dispatch).
package kernel

import (
	"context"

	"github.com/mlahir1/blazingsql/cache"
	"github.com/mlahir1/blazingsql/execctx"
)

// Status is a kernel's terminal outcome, per spec.md §4.3.
type Status int

const (
	// OK indicates the kernel ran to completion normally.
	OK Status = iota
	// Stopped indicates the kernel exited early without error (e.g. a Limit
	// kernel that has already emitted enough rows).
	Stopped
	// Error indicates the kernel failed; the caller should consult the
	// accompanying error value.
	Error
)

func (s Status) String() string {
	switch s {
	case OK:
		return "OK"
	case Stopped:
		return "STOPPED"
	case Error:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Kind identifies a kernel's catalog entry (spec.md §4.4).
type Kind string

// Standard port names used by n-ary kernels (spec.md §4.7 rule 1) and the
// paired-output kernels (rule 2).
const (
	PortInput   = "input"
	PortInputA  = "input_a"
	PortInputB  = "input_b"
	PortOutput  = "output"
	PortOutputA = "output_a"
	PortOutputB = "output_b"
)

// InputPortName returns the n-ary input port name for the index-th child of
// a parent with more than one child: "input_a", "input_b", "input_c", ...
func InputPortName(index int) string {
	return PortInput + "_" + string(rune('a'+index))
}

// Kernel is the abstract streaming operator contract every catalog kernel
// implements.
type Kernel interface {
	// Run pulls from input ports, produces on output ports, and must emit a
	// sentinel on every output port before returning. It returns the
	// terminal status and, for Status == Error, the causing error.
	Run(ctx context.Context) (Status, error)

	ID() int64
	Kind() Kind
	Expression() string

	InputPort(name string) *cache.Channel
	OutputPort(name string) *cache.Channel
	SetInputPort(name string, ch *cache.Channel)
	SetOutputPort(name string, ch *cache.Channel)
	InputPortNames() []string
	OutputPortNames() []string

	// CanThrottleInputs reports whether this kernel can safely cause
	// upstream producers to block. Kernels that must consume all inputs in
	// lockstep (e.g. a merge) must report false to avoid deadlock.
	CanThrottleInputs() bool
}

// Base implements the bookkeeping common to every concrete kernel: id, kind,
// expression, execution context, and port maps. Concrete kernels embed Base
// and implement Run and CanThrottleInputs themselves.
type Base struct {
	id          int64
	kind        Kind
	expr        string
	ctx         *execctx.Context
	inputs      map[string]*cache.Channel
	outputs     map[string]*cache.Channel
	inputOrder  []string
	outputOrder []string
}

// NewBase constructs a Base from a cloned execctx.Context (its KernelID
// becomes this kernel's id, per spec.md §4.8/§9's "arena owned by the graph,
// tree and edges carry integer kernel ids" strategy).
func NewBase(kind Kind, expr string, ctx *execctx.Context) Base {
	return Base{
		id:      ctx.KernelID,
		kind:    kind,
		expr:    expr,
		ctx:     ctx,
		inputs:  map[string]*cache.Channel{},
		outputs: map[string]*cache.Channel{},
	}
}

// ID implements Kernel.
func (b *Base) ID() int64 { return b.id }

// Kind implements Kernel.
func (b *Base) Kind() Kind { return b.kind }

// Expression implements Kernel.
func (b *Base) Expression() string { return b.expr }

// Context returns the kernel's individualized execution context.
func (b *Base) Context() *execctx.Context { return b.ctx }

// InputPort implements Kernel.
func (b *Base) InputPort(name string) *cache.Channel { return b.inputs[name] }

// OutputPort implements Kernel.
func (b *Base) OutputPort(name string) *cache.Channel { return b.outputs[name] }

// SetInputPort implements Kernel.
func (b *Base) SetInputPort(name string, ch *cache.Channel) {
	if _, exists := b.inputs[name]; !exists {
		b.inputOrder = append(b.inputOrder, name)
	}
	b.inputs[name] = ch
}

// SetOutputPort implements Kernel.
func (b *Base) SetOutputPort(name string, ch *cache.Channel) {
	if _, exists := b.outputs[name]; !exists {
		b.outputOrder = append(b.outputOrder, name)
	}
	b.outputs[name] = ch
}

// InputPortNames implements Kernel.
func (b *Base) InputPortNames() []string { return append([]string(nil), b.inputOrder...) }

// OutputPortNames implements Kernel.
func (b *Base) OutputPortNames() []string { return append([]string(nil), b.outputOrder...) }

// SentinelAllOutputs pushes a sentinel on every registered output port,
// implementing the termination protocol every kernel must honor (spec.md
// §4.3): "every kernel, on normal exit or error, emits exactly one sentinel
// per output port."
func (b *Base) SentinelAllOutputs() {
	for _, name := range b.outputOrder {
		b.outputs[name].PushSentinel()
	}
}
