package core

import (
	"log/slog"
	"sync/atomic"
)

// The package logger is swappable at runtime via SetLogger so embedding
// programs can route chainenv output into their own slog handler. Reads
// and writes go through atomic pointers, no locking on the read path.
//
// logger holds the caller-provided logger; nil when none has been set.
// Named "logger" rather than "log" to keep the stdlib log package
// importable here.
var logger atomic.Pointer[slog.Logger]

// defaultLogger memoizes the fallback, slog.Default() plus the component
// attribute, so Logger() does not allocate on every call. The memo means a
// later slog.SetDefault() is not picked up automatically; SetLogger(nil)
// drops the memo and the next Logger() call rebuilds from the then-current
// default.
var defaultLogger atomic.Pointer[slog.Logger]

// Logger returns the logger chainenv currently logs through: the one set
// via SetLogger, or the memoized default. Safe for concurrent use.
func Logger() *slog.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	if l := defaultLogger.Load(); l != nil {
		return l
	}
	l := slog.Default().With("component", "chainenv")
	// CompareAndSwap so a concurrent caller's memo is not overwritten.
	if defaultLogger.CompareAndSwap(nil, l) {
		return l
	}
	// Lost the race; prefer the winner's memo. It can still be nil if a
	// concurrent SetLogger cleared it, in which case the local logger is
	// returned so callers never see nil.
	if l2 := defaultLogger.Load(); l2 != nil {
		return l2
	}
	return l
}

// SetLogger replaces the logger used by all chainenv components. Passing
// nil resets to the default derived from slog.Default(), re-evaluated on
// the next Logger() call.
//
// SetLogger is safe to call concurrently with other chainenv operations.
func SetLogger(l *slog.Logger) {
	logger.Store(l)
	defaultLogger.Store(nil)
}
