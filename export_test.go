package chainenv

// ResetForTesting resets the singleton supervisor state so that the next
// call to New creates a fresh instance. This is exported only for use in
// test packages (package chainenv_test).
func ResetForTesting() { resetForTesting() }

// ConfigSnapshot holds a copy of supervisorConfig fields for test
// assertions. Exported only via export_test.go so that the _test package
// can verify option closures actually mutate the config without accessing
// internals.
type ConfigSnapshot struct {
	HasClient   bool
	HasObserver bool
	HasLogger   bool
	DataDir     string
	LockDir     string
	ExitHook    bool
}

// ApplyOptionsForTesting creates a default supervisorConfig, applies the
// given options, and returns a ConfigSnapshot of the result. This tests
// the option closures directly without touching the singleton.
func ApplyOptionsForTesting(opts ...Option) ConfigSnapshot {
	cfg := defaultSupervisorConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return ConfigSnapshot{
		HasClient:   cfg.client != nil,
		HasObserver: cfg.observer != nil,
		HasLogger:   cfg.logger != nil,
		DataDir:     cfg.dataDir,
		LockDir:     cfg.lockDir,
		ExitHook:    cfg.exitHook,
	}
}
