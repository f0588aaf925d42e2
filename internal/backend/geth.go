package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/giantswarm/chainenv/internal/process"
)

// Geth is the adapter for geth-style clients running in dev mode. Geth has
// no simulated-time or state-checkpoint dialect, so the test-isolation
// operations report ErrNotSupported; only process launch and account
// unlocking are available.
type Geth struct {
	log *slog.Logger
}

// NewGeth returns a geth adapter logging through the given logger.
func NewGeth(log *slog.Logger) *Geth {
	if log == nil {
		log = slog.Default()
	}
	return &Geth{log: log}
}

// Name implements Backend.
func (g *Geth) Name() string { return "geth" }

// Launch implements Backend.
func (g *Geth) Launch(cmdline string, opts LaunchOptions) (*process.Handle, error) {
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

// Sleep implements Backend. Geth cannot travel in time.
func (g *Geth) Sleep(_ context.Context, _ Caller, _ uint64) (uint64, error) {
	return 0, fmt.Errorf("geth: time travel: %w", ErrNotSupported)
}

// Mine implements Backend. Geth dev mode mines on demand as transactions
// arrive; there is no dialect for producing empty blocks.
func (g *Geth) Mine(_ context.Context, _ Caller, _ int) error {
	return fmt.Errorf("geth: explicit mining: %w", ErrNotSupported)
}

// Snapshot implements Backend.
func (g *Geth) Snapshot(_ context.Context, _ Caller) (int64, error) {
	return 0, fmt.Errorf("geth: state snapshot: %w", ErrNotSupported)
}

// Revert implements Backend.
func (g *Geth) Revert(_ context.Context, _ Caller, _ int64) error {
	return fmt.Errorf("geth: state revert: %w", ErrNotSupported)
}

// UnlockAccount implements Backend via personal_unlockAccount with an empty
// passphrase and no auto-relock, matching dev-mode accounts.
func (g *Geth) UnlockAccount(ctx context.Context, c Caller, address string) error {
	if err := c.Call(ctx, nil, "personal_unlockAccount", address, "", 0); err != nil {
		return fmt.Errorf("personal_unlockAccount: %w", err)
	}
	return nil
}

// OnConnection implements Backend. Geth needs no post-connect setup; the
// reported version is logged for troubleshooting.
func (g *Geth) OnConnection(ctx context.Context, c Caller) {
	var version string
	if err := c.Call(ctx, &version, "web3_clientVersion"); err != nil {
		g.log.Debug("query client version", "backend", g.Name(), "error", err)
		return
	}
	g.log.Debug("backend connected", "backend", g.Name(), "version", version)
}
