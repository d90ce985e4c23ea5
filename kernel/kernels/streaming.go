package kernels

import (
	"context"

	"github.com/mlahir1/blazingsql/cache"
	"github.com/mlahir1/blazingsql/kernel"
)

// pipeSingle pulls batches from in, applies f to each, and pushes the result
// to out, until in reaches end-of-stream. If f returns a nil batch (and no
// error), the input batch is dropped rather than forwarded — used by Filter.
// Shared by every single-input/single-output kernel in this catalog.
func pipeSingle(ctx context.Context, in, out *cache.Channel, f RowFunc) (kernel.Status, error) {
	for {
		if err := ctx.Err(); err != nil {
			return kernel.Stopped, nil
		}
		b, ok, err := in.Pull(0)
		if err != nil {
			return kernel.Error, err
		}
		if !ok {
			return kernel.OK, nil
		}
		nb, err := f(b)
		if err != nil {
			return kernel.Error, err
		}
		if nb == nil {
			continue
		}
		if err := out.Push(nb, 0); err != nil {
			return kernel.Error, err
		}
	}
}
