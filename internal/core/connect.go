package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/giantswarm/chainenv/internal/sentinel"
)

// Connect budget for a freshly launched backend: 100 attempts at 100ms
// apart, roughly ten seconds of wall time.
const (
	defaultConnectAttempts = 100
	defaultConnectInterval = 100 * time.Millisecond
)

// errNotConnected drives the retry loop while the endpoint is still coming
// up. Never escapes waitConnected.
const errNotConnected = sentinel.Error("rpc endpoint not reachable yet")

// waitConnected polls the RPC endpoint until it answers, the process dies,
// the attempt budget runs out, or ctx is cancelled. Callers own cleanup of
// the process on error.
func (s *Supervisor) waitConnected(ctx context.Context, cmd, endpoint string) error {
	h := s.handle
	err := retry.Do(
		func() error {
			if s.client.IsConnected(ctx) {
				return nil
			}
			// Only check liveness after a failed connect so a process
			// that answers and exits immediately still counts as seen.
			if !h.IsRunning() {
				return retry.Unrecoverable(&ProcessExitedError{Cmd: cmd, Endpoint: endpoint})
			}
			return errNotConnected
		},
		retry.Context(ctx),
		retry.Attempts(s.connectAttempts),
		retry.Delay(s.connectInterval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if err == nil {
		return nil
	}

	var exited *ProcessExitedError
	if errors.As(err, &exited) {
		return exited
	}
	if ctx.Err() != nil {
		return fmt.Errorf("wait for rpc connection: %w", ctx.Err())
	}
	return &ConnectionTimeoutError{Cmd: cmd, PID: h.PID(), Endpoint: endpoint}
}
