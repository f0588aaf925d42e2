package chainenv

import "context"

// Supervisor manages at most one backend process session at a time.
//
// Callers follow this lifecycle ordering:
//
//	New → Launch or Attach → control operations (repeatable) → Kill
//
// The control operations are also available directly on the Supervisor
// for parity with Controller, but calling them here logs a warning;
// higher-level code is expected to go through Controller(). All methods
// are safe for concurrent use.
type Supervisor interface {
	// Launch spawns a backend process from the given command line and,
	// when an RPC client with an endpoint is configured, polls until the
	// endpoint answers (100 attempts, 100ms apart). The backend dialect
	// is selected from the command's leading token; unrecognized
	// commands get the ganache dialect.
	//
	// Returns ErrAlreadyActive while a session is active. On a dead
	// process (*ProcessExitedError) or an exhausted connect budget
	// (*ConnectionTimeoutError) the process tree has already been killed.
	Launch(ctx context.Context, cmd string, opts LaunchOptions) error

	// Attach adopts an already-running backend process discovered through
	// its listening socket. addr may be a URI ("http://127.0.0.1:8545")
	// or a bare "host:port" pair.
	//
	// Returns ErrInvalidAddress when addr carries no usable port,
	// ErrProcessNotFound when no process owns the address, and
	// ErrAlreadyActive while a session is active.
	Attach(ctx context.Context, addr string) error

	// AttachTCP is Attach with a pre-split host and port.
	AttachTCP(ctx context.Context, host string, port int) error

	// Kill terminates the active session's process tree, children first.
	// With strict set, killing an inactive session returns ErrNotActive;
	// otherwise it is a no-op. Using defer sup.Kill(ctx, false) is safe.
	Kill(ctx context.Context, strict bool) error

	// IsActive reports whether a session exists and its process is alive.
	IsActive() bool

	// IsChild reports whether the active process was launched by this
	// program, as opposed to attached. Always false without an active
	// session.
	IsChild() bool

	// PID returns the active process id, or 0 without an active session.
	PID() int32

	// BackendName returns the name of the selected backend dialect
	// ("ganache" or "geth").
	BackendName() string

	// Sleep advances simulated chain time. See Controller.Sleep.
	Sleep(ctx context.Context, seconds uint64) (uint64, error)

	// Mine produces blocks. See Controller.Mine.
	Mine(ctx context.Context, blocks int) (uint64, error)

	// Snapshot checkpoints chain state. See Controller.Snapshot.
	Snapshot(ctx context.Context) (int64, error)

	// Revert restores chain state. See Controller.Revert.
	Revert(ctx context.Context, id int64) (uint64, error)

	// UnlockAccount unlocks an account. See Controller.UnlockAccount.
	UnlockAccount(ctx context.Context, address string) error

	// Controller returns the chain control surface without the
	// direct-call warning.
	Controller() Controller

	// Close uninstalls the exit hook and, if the active process was
	// launched by this program, kills it. Safe to call multiple times.
	Close()
}

// Controller is the chain control surface of an active session. All
// operations are pass-throughs to the backend's RPC dialect: they return
// ErrNoClient without a configured RPC client, and otherwise surface the
// client's own transport error when the backend is unreachable.
type Controller interface {
	// Sleep advances simulated chain time by the given number of seconds
	// and returns the backend-confirmed advancement. Returns
	// ErrNotSupported on geth-style backends.
	Sleep(ctx context.Context, seconds uint64) (uint64, error)

	// Mine produces the given number of blocks and returns the resulting
	// chain height. Returns ErrNotSupported on geth-style backends.
	Mine(ctx context.Context, blocks int) (uint64, error)

	// Snapshot checkpoints chain state and returns the snapshot id. Ids
	// are only valid against the process instance that issued them; a
	// relaunch invalidates them all. Returns ErrNotSupported on
	// geth-style backends.
	Snapshot(ctx context.Context) (int64, error)

	// Revert restores chain state to a snapshot and returns the resulting
	// chain height. Returns ErrUnknownSnapshot for unknown or stale ids
	// and ErrNotSupported on geth-style backends.
	Revert(ctx context.Context, id int64) (uint64, error)

	// UnlockAccount asks the backend to unlock an account for unsigned
	// transaction submission.
	UnlockAccount(ctx context.Context, address string) error
}

// Client is the RPC collaborator: chainenv supervises the process and
// delegates all protocol work to this interface. Implementations wrap
// whatever JSON-RPC client the test suite already uses.
type Client interface {
	// Call issues a JSON-RPC request. A nil result discards the response.
	Call(ctx context.Context, result any, method string, params ...any) error

	// IsConnected reports whether the endpoint currently answers RPC.
	IsConnected(ctx context.Context) bool

	// ClientVersion returns the node's reported version string
	// (web3_clientVersion).
	ClientVersion(ctx context.Context) (string, error)

	// EndpointURI returns the endpoint the client targets. Empty means no
	// endpoint is configured; Launch then skips the connection check.
	EndpointURI() string

	// BlockNumber returns the current chain height.
	BlockNumber(ctx context.Context) (uint64, error)
}

// NetworkObserver receives session transitions: NetworkConnected after a
// launch or attach succeeds, NetworkDisconnected after the session ends.
// Test frameworks hook cache invalidation here.
type NetworkObserver interface {
	NetworkConnected()
	NetworkDisconnected()
}
