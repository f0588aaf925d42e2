package core

import (
	"fmt"

	"github.com/giantswarm/chainenv/internal/sentinel"
)

// Sentinel errors for the session lifecycle. Matched with errors.Is through
// wrapped error chains.
const (
	// ErrAlreadyActive is returned by Launch and Attach while a session is
	// active. Recoverable: kill the active session first.
	ErrAlreadyActive = sentinel.Error("rpc session is already active")

	// ErrNotActive is returned by Kill in strict mode when no session is
	// active.
	ErrNotActive = sentinel.Error("rpc session is not active")

	// ErrNoClient is returned by control operations when no RPC client
	// collaborator was configured.
	ErrNoClient = sentinel.Error("no rpc client is configured")
)

// ProcessExitedError reports a launched backend that exited before its RPC
// endpoint became reachable. The process has already been cleaned up by the
// time this error surfaces.
type ProcessExitedError struct {
	Cmd      string
	Endpoint string
}

// Error implements the error interface.
func (e *ProcessExitedError) Error() string {
	return fmt.Sprintf("backend process exited before its rpc endpoint became reachable (cmd %q, endpoint %q)", e.Cmd, e.Endpoint)
}

// ConnectionTimeoutError reports a backend that stayed alive but never
// exposed a working RPC endpoint within the connect budget. The process has
// already been killed by the time this error surfaces.
type ConnectionTimeoutError struct {
	Cmd      string
	PID      int32
	Endpoint string
}

// Error implements the error interface.
func (e *ConnectionTimeoutError) Error() string {
	return fmt.Sprintf("backend process (pid %d) never exposed a working rpc endpoint (cmd %q, endpoint %q)", e.PID, e.Cmd, e.Endpoint)
}
