package chainenv

import (
	"fmt"
	"log/slog"
)

// requireNonEmpty panics if s is empty with a descriptive message.
func requireNonEmpty(name, s string) {
	if s == "" {
		panic(fmt.Sprintf("chainenv: %s must not be empty", name))
	}
}

// Option configures the Supervisor during construction via New.
//
// Several With* functions panic on invalid input (nil collaborators, empty
// paths). These panics are intentional: option values are typically
// compile-time constants or package-level variables, so an invalid value
// indicates a programmer error rather than a runtime condition. The
// pattern mirrors [regexp.MustCompile] and fails fast during
// initialization instead of returning errors that would be universally
// fatal anyway.
type Option func(*supervisorConfig)

// WithClient sets the RPC client collaborator. Without one, Launch skips
// the connection check and all control operations fail with ErrNoClient.
// Panics if c is nil.
func WithClient(c Client) Option {
	if c == nil {
		panic("chainenv: client must not be nil")
	}
	return func(cfg *supervisorConfig) {
		cfg.client = c
	}
}

// WithObserver sets the observer notified of session transitions.
// Panics if o is nil.
func WithObserver(o NetworkObserver) Option {
	if o == nil {
		panic("chainenv: observer must not be nil")
	}
	return func(cfg *supervisorConfig) {
		cfg.observer = o
	}
}

// WithLogger sets the logger used by this supervisor instance. Unlike the
// package-wide SetLogger, this affects only the supervisor built by New.
// Panics if l is nil.
func WithLogger(l *slog.Logger) Option {
	if l == nil {
		panic("chainenv: logger must not be nil")
	}
	return func(cfg *supervisorConfig) {
		cfg.logger = l
	}
}

// WithDataDir sets the directory for backend log files (OutputFile mode).
// If not set, defaults to a "chainenv" directory under the system temp dir.
// Panics if dir is empty.
func WithDataDir(dir string) Option {
	requireNonEmpty("data directory", dir)
	return func(cfg *supervisorConfig) {
		cfg.dataDir = dir
	}
}

// WithLockDir sets the directory for per-endpoint session lock files.
// All processes coordinating on the same endpoint must agree on this
// directory. If not set, defaults to the system temp dir.
// Panics if dir is empty.
func WithLockDir(dir string) Option {
	requireNonEmpty("lock directory", dir)
	return func(cfg *supervisorConfig) {
		cfg.lockDir = dir
	}
}

// WithoutExitHook disables the SIGINT/SIGTERM handler that kills a
// launched backend before the program dies. Useful when the embedding
// program owns signal handling and calls Close itself.
func WithoutExitHook() Option {
	return func(cfg *supervisorConfig) {
		cfg.exitHook = false
	}
}
