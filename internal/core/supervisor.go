package core

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"github.com/giantswarm/chainenv/internal/backend"
	"github.com/giantswarm/chainenv/internal/netutil"
	"github.com/giantswarm/chainenv/internal/process"
	"github.com/giantswarm/chainenv/internal/procfind"
)

// Client is the RPC collaborator the supervisor polls for readiness and
// hands to backend adapters for control operations.
type Client interface {
	backend.Caller

	// IsConnected reports whether the endpoint currently answers RPC.
	IsConnected(ctx context.Context) bool

	// ClientVersion returns the node's reported version string
	// (web3_clientVersion).
	ClientVersion(ctx context.Context) (string, error)

	// EndpointURI returns the endpoint the client targets. Empty means no
	// endpoint is configured and readiness cannot be verified.
	EndpointURI() string

	// BlockNumber returns the current chain height.
	BlockNumber(ctx context.Context) (uint64, error)
}

// NetworkObserver receives session transitions: NetworkConnected after a
// launch or attach succeeds, NetworkDisconnected after the session ends.
type NetworkObserver interface {
	NetworkConnected()
	NetworkDisconnected()
}

type noopObserver struct{}

func (noopObserver) NetworkConnected()    {}
func (noopObserver) NetworkDisconnected() {}

// Config carries the supervisor's collaborators and directories. Zero
// values select defaults; see New.
type Config struct {
	Client   Client
	Observer NetworkObserver
	Logger   *slog.Logger
	DataDir  string
	LockDir  string
	ExitHook bool
}

// Supervisor manages at most one backend process session at a time. All
// lifecycle methods are safe for concurrent use; control operations are
// straight pass-throughs to the active adapter.
type Supervisor struct {
	mu sync.Mutex

	client   Client
	observer NetworkObserver
	log      *slog.Logger
	dataDir  string
	lockDir  string

	backends *backend.Registry
	adapter  backend.Backend

	handle    *process.Handle
	lock      *flock.Flock
	launchCmd string

	connectAttempts uint
	connectInterval time.Duration

	stopHook func()
	exitOnce sync.Once
}

// New creates a supervisor. A nil Config.Observer is replaced with a no-op;
// a nil Config.Logger falls back to the package logger. Config.Client may
// be nil, in which case launches run in no-verify mode and control
// operations fail with ErrNoClient.
func New(cfg Config) *Supervisor {
	log := cfg.Logger
	if log == nil {
		log = Logger()
	}
	obs := cfg.Observer
	if obs == nil {
		obs = noopObserver{}
	}
	lockDir := cfg.LockDir
	if lockDir == "" {
		lockDir = os.TempDir()
	}

	reg := backend.NewRegistry(log)
	s := &Supervisor{
		client:          cfg.Client,
		observer:        obs,
		log:             log,
		dataDir:         cfg.DataDir,
		lockDir:         lockDir,
		backends:        reg,
		adapter:         reg.Default(),
		connectAttempts: defaultConnectAttempts,
		connectInterval: defaultConnectInterval,
	}
	if cfg.ExitHook {
		s.registerExitHook()
	}
	return s
}

// Launch spawns a backend process from cmd and, when the client has an
// endpoint, polls until the endpoint answers. On a dead process or an
// exhausted connect budget the process tree is killed before the error is
// returned, so a failed Launch never leaks a child.
func (s *Supervisor) Launch(ctx context.Context, cmd string, opts backend.LaunchOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isActiveLocked() {
		return ErrAlreadyActive
	}
	s.resetStaleLocked()

	s.adapter = s.backends.SelectByCommand(cmd)

	endpoint := ""
	if s.client != nil {
		endpoint = s.client.EndpointURI()
	}
	if endpoint != "" {
		fl, err := acquireSessionLock(s.lockDir, endpoint)
		if err != nil {
			return err
		}
		s.lock = fl
	}

	if opts.DataDir == "" {
		opts.DataDir = s.dataDir
	}

	s.log.Info("launching rpc client", "cmd", cmd, "backend", s.adapter.Name())
	h, err := s.adapter.Launch(cmd, opts)
	if err != nil {
		s.releaseLockLocked()
		return fmt.Errorf("launch backend: %w", err)
	}
	s.handle = h
	s.launchCmd = cmd

	if endpoint == "" {
		// No endpoint to verify against. The process keeps running and
		// the session counts as disconnected until killed.
		s.log.Warn("no rpc endpoint configured, skipping connection check", "cmd", cmd)
		s.observer.NetworkDisconnected()
		return nil
	}

	if err := s.waitConnected(ctx, cmd, endpoint); err != nil {
		s.killLocked(ctx)
		return err
	}

	s.observer.NetworkConnected()
	s.adapter.OnConnection(ctx, s.client)
	s.log.Info("rpc client connected", "endpoint", endpoint, "pid", h.PID())
	return nil
}

// Attach adopts an already running backend process listening on rawAddr,
// which may be a URI ("http://127.0.0.1:8545") or a bare "host:port" pair.
// The process is discovered by its socket address; no readiness polling is
// performed since the endpoint already exists.
func (s *Supervisor) Attach(ctx context.Context, rawAddr string) error {
	hp, err := netutil.ParseAddress(rawAddr)
	if err != nil {
		return err
	}
	return s.attach(ctx, hp)
}

// AttachTCP is Attach with a pre-split host and port.
func (s *Supervisor) AttachTCP(ctx context.Context, host string, port int) error {
	if port <= 0 || port > 65535 {
		return fmt.Errorf("port %d out of range: %w", port, netutil.ErrNoPort)
	}
	return s.attach(ctx, netutil.HostPort{Host: host, Port: uint32(port)})
}

func (s *Supervisor) attach(ctx context.Context, hp netutil.HostPort) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isActiveLocked() {
		return ErrAlreadyActive
	}
	s.resetStaleLocked()

	resolved, err := netutil.Resolve(ctx, hp)
	if err != nil {
		return err
	}
	pid, err := procfind.PIDForAddress(ctx, resolved, s.log)
	if err != nil {
		return err
	}
	h, err := process.Attach(pid, s.log)
	if err != nil {
		// Vanished between discovery and adoption.
		return fmt.Errorf("%w: pid %d: %v", procfind.ErrProcessNotFound, pid, err)
	}
	s.handle = h
	s.log.Info("attached to rpc client", "address", hp.String(), "pid", pid)

	if s.client != nil {
		if version, verr := s.client.ClientVersion(ctx); verr == nil {
			s.adapter = s.backends.SelectByClientVersion(version, s.adapter)
		} else {
			s.log.Debug("query client version", "error", verr)
		}
	}

	s.observer.NetworkConnected()
	if s.client != nil {
		s.adapter.OnConnection(ctx, s.client)
	}
	return nil
}

// Kill terminates the active session's process tree, children first, and
// releases the session lock. With strict set, killing an inactive session
// is an ErrNotActive error; otherwise it is a no-op.
func (s *Supervisor) Kill(ctx context.Context, strict bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isActiveLocked() {
		if strict {
			return ErrNotActive
		}
		return nil
	}
	s.log.Info("terminating rpc client", "pid", s.handle.PID())
	s.killLocked(ctx)
	return nil
}

// killLocked tears the session down unconditionally. Kill errors are
// logged, not returned: by contract the session is over either way.
func (s *Supervisor) killLocked(ctx context.Context) {
	if h := s.handle; h != nil {
		if err := h.KillTree(ctx); err != nil {
			s.log.Warn("kill rpc client", "pid", h.PID(), "error", err)
		}
		h.CloseStreams()
	}
	s.handle = nil
	s.launchCmd = ""
	s.releaseLockLocked()
	s.observer.NetworkDisconnected()
}

// resetStaleLocked clears the remnants of a session whose process died on
// its own: the handle stays set when a process exits outside Kill, and the
// held session lock would otherwise block a relaunch. Any surviving
// children of the dead process are reaped.
func (s *Supervisor) resetStaleLocked() {
	if s.handle == nil {
		return
	}
	s.log.Debug("clearing stale session", "pid", s.handle.PID())
	if err := s.handle.KillTree(context.Background()); err != nil {
		s.log.Debug("reap stale session", "error", err)
	}
	s.handle.CloseStreams()
	s.handle = nil
	s.launchCmd = ""
	s.releaseLockLocked()
}

func (s *Supervisor) releaseLockLocked() {
	releaseSessionLock(s.log, s.lock)
	s.lock = nil
}

// IsActive reports whether a session exists and its process is alive.
func (s *Supervisor) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isActiveLocked()
}

func (s *Supervisor) isActiveLocked() bool {
	return s.handle != nil && s.handle.IsRunning()
}

// IsChild reports whether the active process is a direct child of this
// program. Always false without an active session.
func (s *Supervisor) IsChild() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isChildLocked()
}

func (s *Supervisor) isChildLocked() bool {
	if !s.isActiveLocked() {
		return false
	}
	ppid, err := s.handle.ParentPID()
	if err != nil {
		return false
	}
	return ppid == int32(os.Getpid())
}

// PID returns the active process id, or 0 without an active session.
func (s *Supervisor) PID() int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle == nil {
		return 0
	}
	return s.handle.PID()
}

// LaunchCmd returns the command line of the launched session, or empty for
// attached and inactive sessions.
func (s *Supervisor) LaunchCmd() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.launchCmd
}

// BackendName returns the name of the currently selected backend adapter.
func (s *Supervisor) BackendName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.adapter.Name()
}

// session snapshots the collaborators a control operation needs. The only
// guard is a configured client; whether the backend is actually reachable
// is left to the RPC call itself, whose transport error is more useful
// than a preflight check.
func (s *Supervisor) session() (Client, backend.Backend, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil, nil, ErrNoClient
	}
	return s.client, s.adapter, nil
}

// Sleep advances simulated chain time by the given number of seconds and
// returns the backend-confirmed advancement.
func (s *Supervisor) Sleep(ctx context.Context, seconds uint64) (uint64, error) {
	client, adapter, err := s.session()
	if err != nil {
		return 0, err
	}
	return adapter.Sleep(ctx, client, seconds)
}

// Mine produces the given number of blocks and returns the resulting chain
// height.
func (s *Supervisor) Mine(ctx context.Context, blocks int) (uint64, error) {
	client, adapter, err := s.session()
	if err != nil {
		return 0, err
	}
	if err := adapter.Mine(ctx, client, blocks); err != nil {
		return 0, err
	}
	return client.BlockNumber(ctx)
}

// Snapshot checkpoints chain state and returns the snapshot id. Ids are
// only valid against the process instance that issued them.
func (s *Supervisor) Snapshot(ctx context.Context) (int64, error) {
	client, adapter, err := s.session()
	if err != nil {
		return 0, err
	}
	return adapter.Snapshot(ctx, client)
}

// Revert restores chain state to a snapshot and returns the resulting
// chain height.
func (s *Supervisor) Revert(ctx context.Context, id int64) (uint64, error) {
	client, adapter, err := s.session()
	if err != nil {
		return 0, err
	}
	if err := adapter.Revert(ctx, client, id); err != nil {
		return 0, err
	}
	return client.BlockNumber(ctx)
}

// UnlockAccount asks the backend to unlock an account for unsigned
// transaction submission.
func (s *Supervisor) UnlockAccount(ctx context.Context, address string) error {
	client, adapter, err := s.session()
	if err != nil {
		return err
	}
	return adapter.UnlockAccount(ctx, client, address)
}

// registerExitHook installs a signal handler that kills a launched child
// before the program dies to SIGINT or SIGTERM. Attached processes are
// never killed at exit.
func (s *Supervisor) registerExitHook() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig, ok := <-ch
		if !ok {
			return
		}
		s.ExitCleanup()
		signal.Stop(ch)
		// Re-raise with the default disposition restored so the exit
		// status reflects the signal.
		if p, err := os.FindProcess(os.Getpid()); err == nil {
			p.Signal(sig) //nolint:errcheck
		}
	}()

	var stop sync.Once
	s.stopHook = func() {
		stop.Do(func() {
			signal.Stop(ch)
			close(ch)
		})
	}
}

// ExitCleanup force-kills the active process tree if this program launched
// it, flushing captured output first. Idempotent; intended for exit paths
// where errors can no longer be acted on.
func (s *Supervisor) ExitCleanup() {
	s.exitOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.isChildLocked() {
			return
		}
		s.killLocked(context.Background())
	})
}

// Close uninstalls the exit hook and runs the exit cleanup. Safe to call
// multiple times; meant for defer in tests and main functions.
func (s *Supervisor) Close() {
	if s.stopHook != nil {
		s.stopHook()
	}
	s.ExitCleanup()
}
