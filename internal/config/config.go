// Package config collects the process-wide knobs the teacher kept as
// package-level globals (targetGOOS, targetBackend, compilerDebug, ...)
// into one struct, populated once per process and threaded explicitly
// instead of read from statics.
package config

import (
	"os"
	"strconv"
)

// Empirical limits preserved verbatim from the source project (§9 Open
// Questions: "the escape limit ... is empirical; preserve as configuration
// constants").
const (
	DefaultFunPtrEscapeLimit    = 100
	DefaultArithmeticEscapeLimit = 50
	DefaultStageCount           = 5
	DefaultCompressThreshold    = 4096
	DefaultFlushBatchSize       = 256
)

// Config is the single source of truth for analysis-wide settings. A
// zero Config is usable: Defaults() fills in the numbers above.
type Config struct {
	// Debug turns on source-tagged refcounting in the interning tables
	// (§4.1, §9: "sources should be preserved in debug builds only").
	Debug bool

	// ReferenceBreakpoint is XGILL_REFERENCE: the allocation stamp that
	// should trigger a breakpoint when reached. Zero means disabled.
	ReferenceBreakpoint uint64

	// FunPtrEscapeLimit bounds backward escape propagation for indirect
	// calls (§4.7).
	FunPtrEscapeLimit int

	// ArithmeticEscapeLimit bounds the arithmetic-escape pre-pass used by
	// buffer-overflow summary inference (§4.9).
	ArithmeticEscapeLimit int

	// StageCount is the default number of callgraph stages (§4.11).
	StageCount int

	// EnableOverflowChecks toggles integer-overflow assertion generation,
	// disabled by default per §4.9/§9.
	EnableOverflowChecks bool

	// CompressThreshold is the byte size above which wire buffers are
	// snappy-compressed before being stored (§4.2, §6).
	CompressThreshold int

	// FlushBatchSize bounds how many dirty keys a merge-cache flush
	// writes in one transaction (§4.6).
	FlushBatchSize int

	// WorkingDir / BaseDir are used by path normalization (§6).
	WorkingDir string
	BaseDir    string
}

// Defaults returns a Config with every documented constant filled in.
func Defaults() Config {
	return Config{
		FunPtrEscapeLimit:     DefaultFunPtrEscapeLimit,
		ArithmeticEscapeLimit: DefaultArithmeticEscapeLimit,
		StageCount:            DefaultStageCount,
		EnableOverflowChecks:  false,
		CompressThreshold:     DefaultCompressThreshold,
		FlushBatchSize:        DefaultFlushBatchSize,
	}
}

// FromEnv overlays environment-sourced settings onto a Config, mirroring
// the single environment knob named in spec §6.
func FromEnv(c Config) Config {
	if v := os.Getenv("XGILL_REFERENCE"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			c.ReferenceBreakpoint = n
		}
	}
	if v := os.Getenv("XGILL_DEBUG"); v != "" {
		c.Debug = v != "0"
	}
	return c
}
