// Package qlog is a thin, zap-backed logging facade matching the call-site
// idiom every grounding file in the teacher uses against its own (much
// heavier, non-third-party) util/log package: Infof/Errorf for unconditional
// messages, VEventf for verbosity-gated ones.
package qlog

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

var (
	once   sync.Once
	logger *zap.SugaredLogger
	level  int
)

func base() *zap.SugaredLogger {
	once.Do(func() {
		l, err := zap.NewProduction()
		if err != nil {
			l = zap.NewNop()
		}
		logger = l.Sugar()
	})
	return logger
}

// SetVerbosity sets the threshold used by VEventf; events at or below v are
// emitted. Defaults to 0 (only VEventf(0, ...) calls are emitted).
func SetVerbosity(v int) { level = v }

// Infof logs an unconditional informational message.
func Infof(_ context.Context, format string, args ...interface{}) {
	base().Infof(format, args...)
}

// Errorf logs an unconditional error message.
func Errorf(_ context.Context, format string, args ...interface{}) {
	base().Errorf(format, args...)
}

// VEventf logs format/args if v is at or below the current verbosity
// threshold, mirroring the teacher's log.VEventf(ctx, level, format, args...)
// used throughout flowinfra/flow_scheduler.go and rowflow/routers.go.
func VEventf(v int, _ context.Context, format string, args ...interface{}) {
	if v > level {
		return
	}
	base().Infof(format, args...)
}

// Sync flushes any buffered log entries. Safe to call at process exit.
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}
