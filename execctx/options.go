package execctx

import (
	"math"
	"strconv"

	"github.com/cockroachdb/errors"
)

// MaxBatchesThreshold / MaxBytesThreshold are the "unlimited" sentinels for
// the two flow-control axes (spec.md §3: "MAX means unlimited").
const (
	MaxBatchesThreshold uint32 = math.MaxUint32
	MaxBytesThreshold   uint64 = math.MaxUint64
)

// BatchesThreshold returns the parsed value of OptFlowControlBatchesThreshold,
// or MaxBatchesThreshold if unset.
func (c *Context) BatchesThreshold() (uint32, error) {
	v, ok := c.Options[OptFlowControlBatchesThreshold]
	if !ok {
		return MaxBatchesThreshold, nil
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "parsing %s=%q", OptFlowControlBatchesThreshold, v)
	}
	return uint32(n), nil
}

// BytesThreshold returns the parsed value of OptFlowControlBytesThreshold, or
// MaxBytesThreshold if unset.
func (c *Context) BytesThreshold() (uint64, error) {
	v, ok := c.Options[OptFlowControlBytesThreshold]
	if !ok {
		return MaxBytesThreshold, nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "parsing %s=%q", OptFlowControlBytesThreshold, v)
	}
	return n, nil
}

// MaxOrderByPartitions returns the parsed value of
// OptMaxNumOrderByPartitionsPerNode, or DefaultMaxOrderByPartitions if unset.
func (c *Context) MaxOrderByPartitions() (int, error) {
	v, ok := c.Options[OptMaxNumOrderByPartitionsPerNode]
	if !ok {
		return DefaultMaxOrderByPartitions, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Wrapf(err, "parsing %s=%q", OptMaxNumOrderByPartitionsPerNode, v)
	}
	return n, nil
}

// MaxDataLoadConcatBytes returns the parsed value of
// OptMaxDataLoadConcatCacheBytesSize, or DefaultMaxDataLoadConcatBytes if unset.
func (c *Context) MaxDataLoadConcatBytes() (uint64, error) {
	v, ok := c.Options[OptMaxDataLoadConcatCacheBytesSize]
	if !ok {
		return DefaultMaxDataLoadConcatBytes, nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "parsing %s=%q", OptMaxDataLoadConcatCacheBytesSize, v)
	}
	return n, nil
}

// DefaultThrottledThresholds applies spec.md §4.7's zero-forcing rule: if
// exactly one of the two flow-control axes is explicitly configured, the
// other axis is forced to 0 rather than left at MAX; cache.Channel never
// blocks on a zero threshold, so only the configured axis governs. If neither
// is configured, both stay at MAX (no limit on either axis). Preserved exactly as the original engine implements it even though
// spec.md §9 calls the rule counter-intuitive.
func (c *Context) DefaultThrottledThresholds() (batches uint32, bytes uint64, err error) {
	_, batchesSet := c.Options[OptFlowControlBatchesThreshold]
	_, bytesSet := c.Options[OptFlowControlBytesThreshold]

	batches, err = c.BatchesThreshold()
	if err != nil {
		return 0, 0, err
	}
	bytes, err = c.BytesThreshold()
	if err != nil {
		return 0, 0, err
	}

	if batchesSet || bytesSet {
		if !batchesSet {
			batches = 0
		}
		if !bytesSet {
			bytes = 0
		}
	}
	return batches, bytes, nil
}
