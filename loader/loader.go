// Package loader defines the data-loader interface TableScan/BindableTableScan
// kernels pull from (spec.md §6: "a clonable handle returning batches lazily
// over a schema; each clone is independently iterable") and a minimal
// in-memory reference implementation used by tests and the CLI.
//
// Grounded on distsql/base.go's RowSource abstraction (lazily-pulled,
// NextRow()-style iteration) and the original engine's ral::io::data_loader
// clone-per-scan-kernel convention (original_source/.../PhysicalPlanGenerator.h's
// make_kernel: "this->input_loaders[table_index].clone()").
package loader

import (
	"context"

	"github.com/mlahir1/blazingsql/batch"
)

// Schema is an opaque handle to a table's column schema; the core never
// inspects it.
type Schema interface{}

// DataLoader produces batches lazily over a schema. Real deployments back
// this with filesystem or object-store I/O (out of scope per spec.md §1);
// the core only ever sees this interface.
type DataLoader interface {
	// Clone returns an independently-iterable copy of this loader, used
	// because the same logical scan may be instantiated into more than one
	// TableScan kernel (e.g. under different plan subtrees).
	Clone() DataLoader
	// Schema returns this loader's schema handle.
	Schema() Schema
	// Load returns the next batch, or ok == false when exhausted.
	Load(ctx context.Context) (b batch.RecordBatch, ok bool, err error)
}

// SliceLoader is an in-memory reference DataLoader that hands out a
// pre-built list of batches, then signals exhaustion. Used by tests and the
// CLI.
type SliceLoader struct {
	schema  Schema
	batches []batch.RecordBatch
	idx     int
}

var _ DataLoader = (*SliceLoader)(nil)

// NewSliceLoader constructs a SliceLoader that will yield batches in order.
func NewSliceLoader(schema Schema, batches []batch.RecordBatch) *SliceLoader {
	return &SliceLoader{schema: schema, batches: batches}
}

// Clone implements DataLoader. The clone starts from the beginning of the
// same underlying batch list.
func (s *SliceLoader) Clone() DataLoader {
	return &SliceLoader{schema: s.schema, batches: s.batches}
}

// Schema implements DataLoader.
func (s *SliceLoader) Schema() Schema { return s.schema }

// Load implements DataLoader.
func (s *SliceLoader) Load(ctx context.Context) (batch.RecordBatch, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if s.idx >= len(s.batches) {
		return nil, false, nil
	}
	b := s.batches[s.idx]
	s.idx++
	return b, true, nil
}
