package chainenv

import (
	"github.com/giantswarm/chainenv/internal/backend"
	"github.com/giantswarm/chainenv/internal/core"
	"github.com/giantswarm/chainenv/internal/netutil"
	"github.com/giantswarm/chainenv/internal/procfind"
)

// Sentinel errors returned by chainenv operations. Matched with errors.Is
// through wrapped error chains.
const (
	// ErrAlreadyActive is returned by Launch and Attach while a session is
	// active, and by Launch when another process holds the session lock
	// for the same endpoint. Recoverable: kill the active session first.
	ErrAlreadyActive = core.ErrAlreadyActive

	// ErrNotActive is returned by Kill in strict mode when no session is
	// active.
	ErrNotActive = core.ErrNotActive

	// ErrNoClient is returned by control operations when no RPC client
	// was configured via WithClient.
	ErrNoClient = core.ErrNoClient

	// ErrInvalidAddress is returned by Attach for addresses without a
	// usable port.
	ErrInvalidAddress = netutil.ErrNoPort

	// ErrProcessNotFound is returned by Attach when no running process
	// owns the given address.
	ErrProcessNotFound = procfind.ErrProcessNotFound

	// ErrNotSupported is returned by control operations the active
	// backend has no dialect for (e.g. time travel on geth).
	ErrNotSupported = backend.ErrNotSupported

	// ErrUnknownSnapshot is returned by Revert for snapshot ids the
	// backend does not recognize, including ids issued by a previous
	// process instance.
	ErrUnknownSnapshot = backend.ErrUnknownSnapshot
)

// ProcessExitedError reports a launched backend that exited before its RPC
// endpoint became reachable. Match with errors.As.
type ProcessExitedError = core.ProcessExitedError

// ConnectionTimeoutError reports a backend that stayed alive but never
// exposed a working RPC endpoint within the connect budget. Match with
// errors.As.
type ConnectionTimeoutError = core.ConnectionTimeoutError
