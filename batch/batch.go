// Package batch defines the unit of data that flows through cache channels
// and kernels: an opaque columnar table fragment. The core never inspects
// column contents; it only needs a row count and a byte-size estimate for
// flow control.
package batch

// RecordBatch is an opaque handle to a columnar table fragment. Consumers may
// not mutate a batch they didn't produce themselves.
type RecordBatch interface {
	// NumRows returns the number of rows in the batch.
	NumRows() int
	// ByteSize returns the approximate in-memory size of the batch, used for
	// byte-based flow control thresholds.
	ByteSize() int64
}

// Slice is a minimal RecordBatch backed by an in-memory row count and a
// caller-supplied byte estimate. It is the reference batch implementation
// used by tests, the CLI, and the in-memory data loader; real deployments
// would back RecordBatch with device/host memory managed by an allocator.
type Slice struct {
	Rows  int
	Bytes int64
}

var _ RecordBatch = Slice{}

// NumRows implements RecordBatch.
func (s Slice) NumRows() int { return s.Rows }

// ByteSize implements RecordBatch.
func (s Slice) ByteSize() int64 { return s.Bytes }

// ConcatSlices concatenates a run of Slice batches into one by summing rows
// and bytes. It is the reference cache.Concatenator used by tests and the
// CLI; a real deployment would instead invoke the GPU concatenation kernel
// here, since the core never inspects batch contents itself.
func ConcatSlices(batches []RecordBatch) (RecordBatch, error) {
	var rows int
	var bytes int64
	for _, b := range batches {
		rows += b.NumRows()
		bytes += b.ByteSize()
	}
	return Slice{Rows: rows, Bytes: bytes}, nil
}
