// Package qerrors defines the typed error taxonomy of spec.md §7:
// InvalidAlgebra at graph-build time, and KernelRuntime (with
// ResourceExhaustion/Transport as distinguishing causes) at execution time.
package qerrors

import "github.com/cockroachdb/errors"

// sentinel markers used with errors.Is; they carry no data of their own, the
// wrapped error supplies the message.
var (
	resourceExhaustionMarker = errors.New("resource exhaustion")
	transportMarker          = errors.New("transport failure")
)

// InvalidAlgebra reports an unrecognized operator token or malformed plan
// JSON, detected while the Graph Builder walks the plan tree. The graph is
// never started when this error occurs.
func InvalidAlgebra(expr string) error {
	return errors.Newf("invalid algebra: unsupported expression %q", expr)
}

// InvalidAlgebraf is like InvalidAlgebra but with a caller-supplied message,
// for malformed-JSON cases where there is no single offending expression.
func InvalidAlgebraf(format string, args ...interface{}) error {
	return errors.Newf("invalid algebra: "+format, args...)
}

// KernelRuntime wraps a kernel body failure (I/O error, expression
// evaluation error) with the failing kernel's id and kind, per spec.md §7.
func KernelRuntime(kernelID int64, kind string, cause error) error {
	return errors.Wrapf(cause, "kernel %d (%s) failed", kernelID, kind)
}

// ResourceExhaustion wraps an allocator failure as a KernelRuntime error,
// marked so callers can distinguish it with qerrors.IsResourceExhaustion(err).
func ResourceExhaustion(kernelID int64, kind string, cause error) error {
	return KernelRuntime(kernelID, kind, errors.Mark(cause, resourceExhaustionMarker))
}

// Transport wraps a remote-peer-unreachable failure as a KernelRuntime error,
// marked so callers can distinguish it with qerrors.IsTransport(err).
func Transport(kernelID int64, kind string, cause error) error {
	return KernelRuntime(kernelID, kind, errors.Mark(cause, transportMarker))
}

// IsResourceExhaustion reports whether err (or a cause in its chain) was
// produced by ResourceExhaustion.
func IsResourceExhaustion(err error) bool {
	return errors.Is(err, resourceExhaustionMarker)
}

// IsTransport reports whether err (or a cause in its chain) was produced by
// Transport.
func IsTransport(err error) bool {
	return errors.Is(err, transportMarker)
}
