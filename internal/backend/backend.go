package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/giantswarm/chainenv/internal/process"
	"github.com/giantswarm/chainenv/internal/sentinel"
)

// ErrNotSupported is returned for control operations the active backend has
// no dialect for (e.g. time travel on geth).
const ErrNotSupported = sentinel.Error("operation not supported by this backend")

// ErrUnknownSnapshot is returned by Revert when the backend rejects the
// snapshot id as unknown or stale. Snapshot ids are only valid against the
// process instance that issued them.
const ErrUnknownSnapshot = sentinel.Error("unknown or stale snapshot id")

// Caller issues JSON-RPC requests against the active backend's endpoint.
// It is the adapter-facing slice of the RPC client collaborator: adapters
// format dialect-specific requests, the collaborator owns protocol framing.
// A nil result discards the response body.
type Caller interface {
	Call(ctx context.Context, result any, method string, params ...any) error
}

// LaunchOptions are the enumerated process-creation settings forwarded
// verbatim to the spawned backend.
type LaunchOptions struct {
	Output    process.OutputMode
	Dir       string   // working directory
	Env       []string // extra KEY=VALUE environment entries
	ExtraArgs []string // appended after the launch command's own arguments
	DataDir   string   // log directory for process.OutputFile
}

// Backend is one blockchain test-node client dialect. Launch spawns the
// client and returns a live handle immediately; awaiting RPC readiness is
// the supervisor's job. The remaining operations assume an active process
// and surface the RPC collaborator's own error when there is none.
type Backend interface {
	// Name identifies the adapter in logs.
	Name() string

	// Launch spawns the backend process from the given command line.
	Launch(cmdline string, opts LaunchOptions) (*process.Handle, error)

	// Sleep advances simulated chain time by the requested number of
	// seconds and returns what the backend confirms was applied.
	Sleep(ctx context.Context, c Caller, seconds uint64) (uint64, error)

	// Mine produces n new blocks.
	Mine(ctx context.Context, c Caller, blocks int) error

	// Snapshot checkpoints chain state and returns the opaque snapshot id.
	Snapshot(ctx context.Context, c Caller) (int64, error)

	// Revert restores chain state to a previously taken snapshot.
	Revert(ctx context.Context, c Caller, id int64) error

	// UnlockAccount asks the backend to unlock an account for unsigned
	// transaction submission.
	UnlockAccount(ctx context.Context, c Caller, address string) error

	// OnConnection runs backend-specific initialization once per
	// successful launch or attach (e.g. version-quirk sniffing).
	OnConnection(ctx context.Context, c Caller)
}

// parseQuantity decodes a JSON-RPC quantity that may arrive as a plain JSON
// number or as a quoted hex/decimal string, depending on the backend
// generation (legacy testrpc returns numbers, ganache v7 returns hex
// strings).
func parseQuantity(raw json.RawMessage) (int64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, fmt.Errorf("empty quantity")
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, fmt.Errorf("decode quantity %s: %w", raw, err)
		}
		if rest, ok := strings.CutPrefix(s, "0x"); ok {
			n, err := strconv.ParseInt(rest, 16, 64)
			if err != nil {
				return 0, fmt.Errorf("decode hex quantity %q: %w", s, err)
			}
			return n, nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("decode quantity %q: %w", s, err)
		}
		return n, nil
	}

	n, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		// Some clients report integral quantities as JSON floats.
		f, ferr := strconv.ParseFloat(string(raw), 64)
		if ferr != nil {
			return 0, fmt.Errorf("decode quantity %s: %w", raw, err)
		}
		return int64(f), nil
	}
	return n, nil
}
