// Package logx is the one place the analysis engine touches a logging
// library. It mirrors the teacher's single compilerDebug switch in
// main.go, but backs it with structured logging the way the rest of the
// corpus does (go.uber.org/zap).
package logx

import (
	"sync"

	"go.uber.org/zap"
)

var (
	once   sync.Once
	logger *zap.SugaredLogger
)

// L returns the process-wide logger, building a sane default on first use.
func L() *zap.SugaredLogger {
	once.Do(func() {
		z, err := zap.NewProduction()
		if err != nil {
			z = zap.NewNop()
		}
		logger = z.Sugar()
	})
	return logger
}

// SetDebug swaps in a development logger (console encoder, debug level)
// when config.Debug is set. Call once during analysis_prepare.
func SetDebug(debug bool) {
	var z *zap.Logger
	var err error
	if debug {
		z, err = zap.NewDevelopment()
	} else {
		z, err = zap.NewProduction()
	}
	if err != nil {
		z = zap.NewNop()
	}
	logger = z.Sugar()
}

// Sync flushes buffered log entries; call during analysis_cleanup.
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}
