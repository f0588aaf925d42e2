package chainenv

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/giantswarm/chainenv/internal/backend"
	"github.com/giantswarm/chainenv/internal/core"
	"github.com/giantswarm/chainenv/internal/process"
)

// Singleton state for New. The first call creates the supervisor;
// subsequent calls return the same instance and log a warning.
//
// singletonMu protects both singletonSup and singletonOnce so that
// resetForTesting (used in tests) is concurrency-safe with New.
var (
	singletonMu   sync.Mutex
	singletonSup  Supervisor
	singletonOnce sync.Once
)

// Compile-time interface satisfaction checks.
var (
	_ Supervisor = (*supervisorWrapper)(nil)
	_ Controller = (*controllerWrapper)(nil)
)

// OutputMode selects what happens to the backend's stdout and stderr.
type OutputMode int

const (
	// OutputInherit forwards the backend's output to this program's
	// stdout/stderr.
	OutputInherit OutputMode = iota
	// OutputPipe captures output into pipes. The caller is responsible
	// for draining them; an undrained pipe eventually blocks a chatty
	// backend.
	OutputPipe
	// OutputDiscard silently discards all output.
	OutputDiscard
	// OutputFile writes output to per-process log files under the data
	// directory.
	OutputFile
)

// LaunchOptions configure how the backend command line is turned into a
// child process.
type LaunchOptions struct {
	// Output selects the fate of the backend's stdout and stderr.
	// The zero value inherits this program's streams.
	Output OutputMode

	// Dir is the backend's working directory; empty means inherit.
	Dir string

	// Env holds extra KEY=VALUE entries appended to the environment.
	Env []string

	// ExtraArgs are appended after the launch command's own arguments.
	ExtraArgs []string

	// DataDir overrides the supervisor's data directory for this
	// launch's log files (OutputFile mode only).
	DataDir string
}

// toBackend converts to the internal representation. The OutputMode
// constants are declared in the same order on both sides.
func (o LaunchOptions) toBackend() backend.LaunchOptions {
	return backend.LaunchOptions{
		Output:    process.OutputMode(o.Output),
		Dir:       o.Dir,
		Env:       o.Env,
		ExtraArgs: o.ExtraArgs,
		DataDir:   o.DataDir,
	}
}

// supervisorConfig collects the options applied by New.
type supervisorConfig struct {
	client   Client
	observer NetworkObserver
	logger   *slog.Logger
	dataDir  string
	lockDir  string
	exitHook bool
}

// defaultSupervisorConfig returns a supervisorConfig populated with all
// default values. Both New and test helpers use this to avoid duplicating
// the default field assignments.
func defaultSupervisorConfig() supervisorConfig {
	return supervisorConfig{
		dataDir:  filepath.Join(os.TempDir(), DefaultDataDirName),
		exitHook: true,
	}
}

// toCoreConfig converts to the internal representation. The interface
// fields satisfy their internal counterparts structurally; nil interfaces
// must stay nil across the conversion, hence the explicit checks.
func (c supervisorConfig) toCoreConfig() core.Config {
	cfg := core.Config{
		Logger:   c.logger,
		DataDir:  c.dataDir,
		LockDir:  c.lockDir,
		ExitHook: c.exitHook,
	}
	if c.client != nil {
		cfg.Client = c.client
	}
	if c.observer != nil {
		cfg.Observer = c.observer
	}
	return cfg
}

// supervisorWrapper wraps core.Supervisor to implement the Supervisor
// interface. The core supervisor is stored as a named (unexported) field
// rather than embedded to prevent callers from using type assertions to
// reach internal methods that are not part of the public interface.
type supervisorWrapper struct {
	sup *core.Supervisor

	// log is the WithLogger-configured logger; nil falls back to the
	// package logger at call time, so SetLogger keeps working for
	// supervisors built without WithLogger.
	log *slog.Logger
}

// Launch implements Supervisor.
func (w *supervisorWrapper) Launch(ctx context.Context, cmd string, opts LaunchOptions) error {
	return w.sup.Launch(ctx, cmd, opts.toBackend())
}

// Attach implements Supervisor.
func (w *supervisorWrapper) Attach(ctx context.Context, addr string) error {
	return w.sup.Attach(ctx, addr)
}

// AttachTCP implements Supervisor.
func (w *supervisorWrapper) AttachTCP(ctx context.Context, host string, port int) error {
	return w.sup.AttachTCP(ctx, host, port)
}

// Kill implements Supervisor.
func (w *supervisorWrapper) Kill(ctx context.Context, strict bool) error {
	return w.sup.Kill(ctx, strict)
}

// IsActive implements Supervisor.
func (w *supervisorWrapper) IsActive() bool { return w.sup.IsActive() }

// IsChild implements Supervisor.
func (w *supervisorWrapper) IsChild() bool { return w.sup.IsChild() }

// PID implements Supervisor.
func (w *supervisorWrapper) PID() int32 { return w.sup.PID() }

// BackendName implements Supervisor.
func (w *supervisorWrapper) BackendName() string { return w.sup.BackendName() }

// warnDirectCall logs the direct-use warning for control operations on the
// supervisor's own logger. Higher-level code is expected to route chain
// control through Controller(); calling the supervisor directly still works.
func (w *supervisorWrapper) warnDirectCall(op string) {
	log := w.log
	if log == nil {
		log = core.Logger()
	}
	log.Warn("control operation called directly on the supervisor, use Controller() instead", "op", op)
}

// Sleep implements Supervisor.
func (w *supervisorWrapper) Sleep(ctx context.Context, seconds uint64) (uint64, error) {
	w.warnDirectCall("Sleep")
	return w.sup.Sleep(ctx, seconds)
}

// Mine implements Supervisor.
func (w *supervisorWrapper) Mine(ctx context.Context, blocks int) (uint64, error) {
	w.warnDirectCall("Mine")
	return w.sup.Mine(ctx, blocks)
}

// Snapshot implements Supervisor.
func (w *supervisorWrapper) Snapshot(ctx context.Context) (int64, error) {
	w.warnDirectCall("Snapshot")
	return w.sup.Snapshot(ctx)
}

// Revert implements Supervisor.
func (w *supervisorWrapper) Revert(ctx context.Context, id int64) (uint64, error) {
	w.warnDirectCall("Revert")
	return w.sup.Revert(ctx, id)
}

// UnlockAccount implements Supervisor.
func (w *supervisorWrapper) UnlockAccount(ctx context.Context, address string) error {
	w.warnDirectCall("UnlockAccount")
	return w.sup.UnlockAccount(ctx, address)
}

// Controller implements Supervisor.
//
//nolint:ireturn // Returns Controller interface by design for testability (mockable).
func (w *supervisorWrapper) Controller() Controller {
	return &controllerWrapper{sup: w.sup}
}

// Close implements Supervisor.
func (w *supervisorWrapper) Close() { w.sup.Close() }

// controllerWrapper is the warning-free control surface handed to chain
// abstractions.
type controllerWrapper struct {
	sup *core.Supervisor
}

// Sleep implements Controller.
func (c *controllerWrapper) Sleep(ctx context.Context, seconds uint64) (uint64, error) {
	return c.sup.Sleep(ctx, seconds)
}

// Mine implements Controller.
func (c *controllerWrapper) Mine(ctx context.Context, blocks int) (uint64, error) {
	return c.sup.Mine(ctx, blocks)
}

// Snapshot implements Controller.
func (c *controllerWrapper) Snapshot(ctx context.Context) (int64, error) {
	return c.sup.Snapshot(ctx)
}

// Revert implements Controller.
func (c *controllerWrapper) Revert(ctx context.Context, id int64) (uint64, error) {
	return c.sup.Revert(ctx, id)
}

// UnlockAccount implements Controller.
func (c *controllerWrapper) UnlockAccount(ctx context.Context, address string) error {
	return c.sup.UnlockAccount(ctx, address)
}

// resetForTesting resets the singleton state so that the next call to New
// creates a fresh supervisor. This follows the Go stdlib pattern (e.g.,
// net/http/internal) for enabling test isolation within a single binary.
// It must only be called from tests.
func resetForTesting() {
	singletonMu.Lock()
	defer singletonMu.Unlock()

	singletonSup = nil
	singletonOnce = sync.Once{}
}

// New returns the process-level singleton Supervisor.
//
// The first call creates the supervisor with the given options and stores
// it. Subsequent calls return the same instance; options are ignored and a
// warning is logged. This performs no I/O; the backend process is created
// by Launch.
//
// Panics if any option receives an invalid value. See the individual
// With* functions for constraints.
//
//nolint:ireturn // Returns Supervisor interface by design for testability (mockable).
func New(opts ...Option) Supervisor {
	singletonMu.Lock()
	defer singletonMu.Unlock()

	// created is written inside the Do closure and read after Do returns.
	// sync.Once guarantees the closure completes (happens-before) Do
	// returns, so the write is visible here without extra synchronization.
	created := false
	singletonOnce.Do(func() {
		cfg := defaultSupervisorConfig()
		for _, opt := range opts {
			opt(&cfg)
		}
		singletonSup = &supervisorWrapper{
			sup: core.New(cfg.toCoreConfig()),
			log: cfg.logger,
		}
		created = true
	})
	if !created {
		core.Logger().Warn("New called more than once; returning existing singleton (options ignored)")
	}
	return singletonSup
}
