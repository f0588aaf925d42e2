package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/giantswarm/chainenv/internal/process"
)

// Ganache is the adapter for ganache-style clients (ganache, the older
// ethereumjs testrpc). This is the richest dialect: it supports the full
// control surface including time travel and state snapshots, which is why
// it is the default adapter for unrecognized launch commands.
type Ganache struct {
	log *slog.Logger

	// major is the client's major version, sniffed in OnConnection.
	// Zero means unknown; v7 changed the unlock dialect.
	major atomic.Int32
}

// NewGanache returns a ganache adapter logging through the given logger.
func NewGanache(log *slog.Logger) *Ganache {
	if log == nil {
		log = slog.Default()
	}
	return &Ganache{log: log}
}

// Name implements Backend.
func (g *Ganache) Name() string { return "ganache" }

// Launch implements Backend.
func (g *Ganache) Launch(cmdline string, opts LaunchOptions) (*process.Handle, error) {
	return process.Spawn(cmdline, process.SpawnConfig{
		Output:    opts.Output,
		Dir:       opts.Dir,
		Env:       opts.Env,
		ExtraArgs: opts.ExtraArgs,
		DataDir:   opts.DataDir,
		Name:      g.Name(),
		Logger:    g.log,
	})
}

// Sleep implements Backend via evm_increaseTime. The backend reports the
// total applied offset; the confirmed value is returned so callers can
// track drift between requested and applied time.
func (g *Ganache) Sleep(ctx context.Context, c Caller, seconds uint64) (uint64, error) {
	var raw json.RawMessage
	if err := c.Call(ctx, &raw, "evm_increaseTime", seconds); err != nil {
		return 0, fmt.Errorf("evm_increaseTime: %w", err)
	}
	n, err := parseQuantity(raw)
	if err != nil {
		return 0, fmt.Errorf("evm_increaseTime result: %w", err)
	}
	if n < 0 {
		return 0, fmt.Errorf("evm_increaseTime returned negative offset %d", n)
	}
	return uint64(n), nil
}

// Mine implements Backend. Ganache mines exactly one block per evm_mine
// call, so n blocks take n round trips.
func (g *Ganache) Mine(ctx context.Context, c Caller, blocks int) error {
	for i := 0; i < blocks; i++ {
		if err := c.Call(ctx, nil, "evm_mine"); err != nil {
			return fmt.Errorf("evm_mine: %w", err)
		}
	}
	return nil
}

// Snapshot implements Backend via evm_snapshot.
func (g *Ganache) Snapshot(ctx context.Context, c Caller) (int64, error) {
	var raw json.RawMessage
	if err := c.Call(ctx, &raw, "evm_snapshot"); err != nil {
		return 0, fmt.Errorf("evm_snapshot: %w", err)
	}
	id, err := parseQuantity(raw)
	if err != nil {
		return 0, fmt.Errorf("evm_snapshot result: %w", err)
	}
	return id, nil
}

// Revert implements Backend via evm_revert. Ganache reports an unknown or
// already-consumed id by returning false rather than an RPC error.
func (g *Ganache) Revert(ctx context.Context, c Caller, id int64) error {
	var ok bool
	if err := c.Call(ctx, &ok, "evm_revert", fmt.Sprintf("0x%x", id)); err != nil {
		return fmt.Errorf("evm_revert: %w", err)
	}
	if !ok {
		return fmt.Errorf("evm_revert %d: %w", id, ErrUnknownSnapshot)
	}
	return nil
}

// UnlockAccount implements Backend. Ganache v7 replaced the personal
// namespace with evm_unlockUnknownAccount; older clients keep the geth-style
// personal_unlockAccount. When the version is unknown the v7 dialect is
// tried first with a fallback to the legacy one.
func (g *Ganache) UnlockAccount(ctx context.Context, c Caller, address string) error {
	major := g.major.Load()
	switch {
	case major >= 7:
		if err := c.Call(ctx, nil, "evm_unlockUnknownAccount", address); err != nil {
			return fmt.Errorf("evm_unlockUnknownAccount: %w", err)
		}
		return nil
	case major > 0:
		return g.legacyUnlock(ctx, c, address)
	default:
		if err := c.Call(ctx, nil, "evm_unlockUnknownAccount", address); err == nil {
			return nil
		}
		return g.legacyUnlock(ctx, c, address)
	}
}

// legacyUnlock unlocks an account on pre-v7 clients.
func (g *Ganache) legacyUnlock(ctx context.Context, c Caller, address string) error {
	if err := c.Call(ctx, nil, "personal_unlockAccount", address, "", 0); err != nil {
		return fmt.Errorf("personal_unlockAccount: %w", err)
	}
	return nil
}

// OnConnection implements Backend. It sniffs the client's major version so
// later calls can pick the right unlock dialect. Failures are logged and
// ignored; version knowledge is a quirk optimization, not a requirement.
func (g *Ganache) OnConnection(ctx context.Context, c Caller) {
	var version string
	if err := c.Call(ctx, &version, "web3_clientVersion"); err != nil {
		g.log.Debug("query client version", "backend", g.Name(), "error", err)
		return
	}
	major := majorVersion(version)
	g.major.Store(major)
	g.log.Debug("backend connected", "backend", g.Name(), "version", version, "major", major)
}

// majorVersion extracts the major version from a client-version string such
// as "Ganache/v7.9.1/ethereum/js" or "EthereumJS TestRPC/v2.13.2/ethereum/js".
// Returns 0 when no version segment is recognized.
func majorVersion(version string) int32 {
	_, rest, ok := strings.Cut(version, "/v")
	if !ok {
		return 0
	}
	num, _, _ := strings.Cut(rest, ".")
	n, err := strconv.ParseInt(num, 10, 32)
	if err != nil {
		return 0
	}
	return int32(n)
}
