package chainenv

import (
	"log/slog"

	"github.com/giantswarm/chainenv/internal/core"
)

// SetLogger replaces the logger used by all chainenv components. If l is
// nil, logging resets to slog.Default() with a chainenv component
// attribute. Safe to call concurrently with other chainenv operations.
func SetLogger(l *slog.Logger) {
	core.SetLogger(l)
}
