package kernels

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/mlahir1/blazingsql/execctx"
	"github.com/mlahir1/blazingsql/kernel"
)

// KindUnion is the catalog kind tag (spec.md §4.4).
const KindUnion kernel.Kind = "Union"

// Union concatenates inputs into output. Each input is drained concurrently
// since spec.md §5 guarantees no cross-input ordering for a Union.
type Union struct {
	kernel.Base
}

var _ kernel.Kernel = (*Union)(nil)

// NewUnion constructs a Union kernel.
func NewUnion(expr string, ctx *execctx.Context) *Union {
	return &Union{Base: kernel.NewBase(KindUnion, expr, ctx)}
}

// CanThrottleInputs implements kernel.Kernel.
func (u *Union) CanThrottleInputs() bool { return true }

// Run implements kernel.Kernel.
func (u *Union) Run(ctx context.Context) (kernel.Status, error) {
	defer u.SentinelAllOutputs()
	out := u.OutputPort(kernel.PortOutput)

	g, gctx := errgroup.WithContext(ctx)
	for _, name := range u.InputPortNames() {
		in := u.InputPort(name)
		g.Go(func() error {
			for {
				if err := gctx.Err(); err != nil {
					return nil
				}
				b, ok, err := in.Pull(0)
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}
				if err := out.Push(b, 0); err != nil {
					return err
				}
			}
		})
	}
	if err := g.Wait(); err != nil {
		return kernel.Error, err
	}
	return kernel.OK, nil
}
