package backend

import (
	"log/slog"
	"strings"
)

// launchEntry maps a launch-command prefix to an adapter. Entries are
// matched in declaration order; first match wins.
type launchEntry struct {
	prefix  string
	backend Backend
}

// versionEntry maps a reported client-version prefix to an adapter.
type versionEntry struct {
	prefix  string
	backend Backend
}

// Registry resolves backend adapters from launch commands and client
// version strings. Matching is case-insensitive against the start of the
// input, in fixed priority order; unmatched launch commands fall back to
// the default adapter (ganache), unmatched version strings leave the
// current adapter unchanged.
type Registry struct {
	launch  []launchEntry
	version []versionEntry
	def     Backend
}

// NewRegistry builds the registry with the known adapters.
func NewRegistry(log *slog.Logger) *Registry {
	ganache := NewGanache(log)
	geth := NewGeth(log)
	return &Registry{
		launch: []launchEntry{
			{prefix: "ganache", backend: ganache},
			{prefix: "ethnode", backend: geth},
			{prefix: "geth", backend: geth},
		},
		version: []versionEntry{
			{prefix: "ethereumjs testrpc", backend: ganache},
			{prefix: "ganache", backend: ganache},
			{prefix: "geth", backend: geth},
		},
		def: ganache,
	}
}

// Default returns the default adapter.
func (r *Registry) Default() Backend { return r.def }

// SelectByCommand resolves the adapter for a launch command by its leading
// token.
func (r *Registry) SelectByCommand(cmd string) Backend {
	lower := strings.ToLower(cmd)
	for _, e := range r.launch {
		if strings.HasPrefix(lower, e.prefix) {
			return e.backend
		}
	}
	return r.def
}

// SelectByClientVersion resolves the adapter for an attached client from
// its reported version string. When nothing matches, the current adapter
// is kept.
func (r *Registry) SelectByClientVersion(version string, current Backend) Backend {
	lower := strings.ToLower(version)
	for _, e := range r.version {
		if strings.HasPrefix(lower, e.prefix) {
			return e.backend
		}
	}
	return current
}
