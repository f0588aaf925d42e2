package chainenv_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/giantswarm/chainenv"
)

// panicTestCase defines a test case for option validation panic tests.
type panicTestCase struct {
	name     string
	panics   bool
	panicMsg string
	fn       func()
}

// requirePanics calls fn and verifies it panics (or not) with the expected message.
func requirePanics(t *testing.T, shouldPanic bool, wantMsg string, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if shouldPanic && r == nil {
			t.Fatal("expected panic but didn't get one")
		}
		if !shouldPanic && r != nil {
			t.Fatalf("unexpected panic: %v", r)
		}
		if shouldPanic && r != nil {
			msg := fmt.Sprint(r)
			if msg != wantMsg {
				t.Fatalf("expected panic message %q, got %q", wantMsg, msg)
			}
		}
	}()
	fn()
}

// runPanicTests runs a slice of panic test cases using requirePanics.
func runPanicTests(t *testing.T, tests []panicTestCase) {
	t.Helper()
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			requirePanics(t, tt.panics, tt.panicMsg, tt.fn)
		})
	}
}

// nopClient is a minimal Client implementation for option tests.
type nopClient struct{}

func (nopClient) Call(context.Context, any, string, ...any) error { return nil }
func (nopClient) IsConnected(context.Context) bool                { return false }
func (nopClient) ClientVersion(context.Context) (string, error)   { return "", nil }
func (nopClient) EndpointURI() string                             { return "" }
func (nopClient) BlockNumber(context.Context) (uint64, error)     { return 0, nil }

// nopObserver is a minimal NetworkObserver implementation for option tests.
type nopObserver struct{}

func (nopObserver) NetworkConnected()    {}
func (nopObserver) NetworkDisconnected() {}

func TestWithClientPanicsOnNil(t *testing.T) {
	t.Parallel()
	runPanicTests(t, []panicTestCase{
		{
			name:     "nil",
			panics:   true,
			panicMsg: "chainenv: client must not be nil",
			fn:       func() { chainenv.WithClient(nil) },
		},
		{name: "valid", fn: func() { chainenv.WithClient(nopClient{}) }},
	})
}

func TestWithObserverPanicsOnNil(t *testing.T) {
	t.Parallel()
	runPanicTests(t, []panicTestCase{
		{
			name:     "nil",
			panics:   true,
			panicMsg: "chainenv: observer must not be nil",
			fn:       func() { chainenv.WithObserver(nil) },
		},
		{name: "valid", fn: func() { chainenv.WithObserver(nopObserver{}) }},
	})
}

func TestWithLoggerPanicsOnNil(t *testing.T) {
	t.Parallel()
	runPanicTests(t, []panicTestCase{
		{
			name:     "nil",
			panics:   true,
			panicMsg: "chainenv: logger must not be nil",
			fn:       func() { chainenv.WithLogger(nil) },
		},
		{name: "valid", fn: func() { chainenv.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))) }},
	})
}

func TestWithEmptyStringOptionsPanic(t *testing.T) {
	t.Parallel()
	runPanicTests(t, []panicTestCase{
		{
			name:     "dataDir",
			panics:   true,
			panicMsg: "chainenv: data directory must not be empty",
			fn:       func() { chainenv.WithDataDir("") },
		},
		{
			name:     "lockDir",
			panics:   true,
			panicMsg: "chainenv: lock directory must not be empty",
			fn:       func() { chainenv.WithLockDir("") },
		},
	})
}

func TestOptionApplicationDefaults(t *testing.T) {
	t.Parallel()

	snap := chainenv.ApplyOptionsForTesting()
	wantDataDir := filepath.Join(os.TempDir(), chainenv.DefaultDataDirName)

	if snap.HasClient {
		t.Error("HasClient = true, want no client by default")
	}
	if snap.HasObserver {
		t.Error("HasObserver = true, want no observer by default")
	}
	if snap.DataDir != wantDataDir {
		t.Errorf("DataDir = %q, want %q", snap.DataDir, wantDataDir)
	}
	if snap.LockDir != "" {
		t.Errorf("LockDir = %q, want empty (system temp dir chosen internally)", snap.LockDir)
	}
	if !snap.ExitHook {
		t.Error("ExitHook = false, want enabled by default")
	}
}

func TestOptionApplicationOverrides(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		opt    chainenv.Option
		verify func(t *testing.T, snap chainenv.ConfigSnapshot)
	}{
		"WithClient": {
			opt: chainenv.WithClient(nopClient{}),
			verify: func(t *testing.T, snap chainenv.ConfigSnapshot) {
				t.Helper()
				if !snap.HasClient {
					t.Error("HasClient = false, want true")
				}
			},
		},
		"WithObserver": {
			opt: chainenv.WithObserver(nopObserver{}),
			verify: func(t *testing.T, snap chainenv.ConfigSnapshot) {
				t.Helper()
				if !snap.HasObserver {
					t.Error("HasObserver = false, want true")
				}
			},
		},
		"WithLogger": {
			opt: chainenv.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
			verify: func(t *testing.T, snap chainenv.ConfigSnapshot) {
				t.Helper()
				if !snap.HasLogger {
					t.Error("HasLogger = false, want true")
				}
			},
		},
		"WithDataDir": {
			opt: chainenv.WithDataDir("/custom/data"),
			verify: func(t *testing.T, snap chainenv.ConfigSnapshot) {
				t.Helper()
				if snap.DataDir != "/custom/data" {
					t.Errorf("DataDir = %q, want %q", snap.DataDir, "/custom/data")
				}
			},
		},
		"WithLockDir": {
			opt: chainenv.WithLockDir("/custom/locks"),
			verify: func(t *testing.T, snap chainenv.ConfigSnapshot) {
				t.Helper()
				if snap.LockDir != "/custom/locks" {
					t.Errorf("LockDir = %q, want %q", snap.LockDir, "/custom/locks")
				}
			},
		},
		"WithoutExitHook": {
			opt: chainenv.WithoutExitHook(),
			verify: func(t *testing.T, snap chainenv.ConfigSnapshot) {
				t.Helper()
				if snap.ExitHook {
					t.Error("ExitHook = true, want disabled")
				}
			},
		},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			snap := chainenv.ApplyOptionsForTesting(tc.opt)
			tc.verify(t, snap)
		})
	}
}

func TestOptionApplicationLastWriteWins(t *testing.T) {
	t.Parallel()

	snap := chainenv.ApplyOptionsForTesting(
		chainenv.WithDataDir("/first"),
		chainenv.WithDataDir("/second"),
	)

	if snap.DataDir != "/second" {
		t.Errorf("DataDir = %q, want %q (last write wins)", snap.DataDir, "/second")
	}
}
