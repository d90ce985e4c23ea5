// Package alloc defines the allocator interface record batches are consumed
// through (spec.md §6: "Three memory pools: device, pinned host, disk
// spill. Policy selection and limits are provided by the surrounding
// bootstrap and are opaque to the core.") and a no-op reference
// implementation, since this module represents batches as plain Go values
// and has no device/host/spill memory of its own to manage.
package alloc

// Pool selects which memory pool an allocation request targets.
type Pool int

const (
	// Device is GPU device memory.
	Device Pool = iota
	// PinnedHost is pinned host (CPU) memory.
	PinnedHost
	// Disk is spill-to-disk storage.
	Disk
)

// Allocator is consumed by kernels that need to size a batch allocation; the
// core never implements the allocation itself, only requests it.
type Allocator interface {
	// Reserve requests nBytes from pool, returning an error (e.g.
	// qerrors.ResourceExhaustion) if the request cannot be satisfied.
	Reserve(pool Pool, nBytes int64) error
	// Release returns a previous Reserve's bytes to pool.
	Release(pool Pool, nBytes int64)
}

// NopAllocator is a reference Allocator that always succeeds and does no
// bookkeeping; allocation policy and limits are out of the core's scope per
// spec.md §1.
type NopAllocator struct{}

var _ Allocator = NopAllocator{}

// Reserve implements Allocator.
func (NopAllocator) Reserve(Pool, int64) error { return nil }

// Release implements Allocator.
func (NopAllocator) Release(Pool, int64) {}
