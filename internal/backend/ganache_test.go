package backend

import (
	"context"
	"errors"
	"testing"
)

func TestGanache_Sleep(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		result  string
		want    uint64
		wantErr bool
	}{
		"legacy integer result": {result: "3600", want: 3600},
		"hex string result":     {result: `"0xe10"`, want: 3600},
		"decimal string result": {result: `"3600"`, want: 3600},
		"float result":          {result: "3600.0", want: 3600},
		"negative offset":       {result: "-1", wantErr: true},
		"garbage result":        {result: `"zzz"`, wantErr: true},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			c := newFakeCaller()
			c.results["evm_increaseTime"] = tc.result

			got, err := NewGanache(nil).Sleep(context.Background(), c, 3600)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("Sleep = %d, want error", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Sleep error = %v", err)
			}
			if got != tc.want {
				t.Errorf("Sleep = %d, want %d", got, tc.want)
			}

			calls := c.callsFor("evm_increaseTime")
			if len(calls) != 1 {
				t.Fatalf("evm_increaseTime called %d times, want 1", len(calls))
			}
			if calls[0].params[0] != uint64(3600) {
				t.Errorf("evm_increaseTime param = %v, want 3600", calls[0].params[0])
			}
		})
	}
}

func TestGanache_Mine(t *testing.T) {
	t.Parallel()

	c := newFakeCaller()
	if err := NewGanache(nil).Mine(context.Background(), c, 3); err != nil {
		t.Fatalf("Mine error = %v", err)
	}
	if got := len(c.callsFor("evm_mine")); got != 3 {
		t.Errorf("evm_mine called %d times, want 3", got)
	}
}

func TestGanache_Snapshot(t *testing.T) {
	t.Parallel()

	c := newFakeCaller()
	c.results["evm_snapshot"] = `"0x2a"`

	id, err := NewGanache(nil).Snapshot(context.Background(), c)
	if err != nil {
		t.Fatalf("Snapshot error = %v", err)
	}
	if id != 42 {
		t.Errorf("Snapshot = %d, want 42", id)
	}
}

func TestGanache_Revert(t *testing.T) {
	t.Parallel()

	t.Run("accepted", func(t *testing.T) {
		t.Parallel()

		c := newFakeCaller()
		c.results["evm_revert"] = "true"

		if err := NewGanache(nil).Revert(context.Background(), c, 42); err != nil {
			t.Fatalf("Revert error = %v", err)
		}
		calls := c.callsFor("evm_revert")
		if len(calls) != 1 {
			t.Fatalf("evm_revert called %d times, want 1", len(calls))
		}
		if calls[0].params[0] != "0x2a" {
			t.Errorf("evm_revert param = %v, want 0x2a", calls[0].params[0])
		}
	})

	t.Run("unknown snapshot", func(t *testing.T) {
		t.Parallel()

		c := newFakeCaller()
		c.results["evm_revert"] = "false"

		err := NewGanache(nil).Revert(context.Background(), c, 7)
		if !errors.Is(err, ErrUnknownSnapshot) {
			t.Fatalf("Revert error = %v, want ErrUnknownSnapshot", err)
		}
	})
}

func TestGanache_UnlockAccount(t *testing.T) {
	t.Parallel()

	const addr = "0x66aB6D9362d4F35596279692F0251Db635165871"

	t.Run("v7 uses modern dialect", func(t *testing.T) {
		t.Parallel()

		c := newFakeCaller()
		c.results["web3_clientVersion"] = `"Ganache/v7.9.1/ethereum/js"`

		g := NewGanache(nil)
		g.OnConnection(context.Background(), c)
		if err := g.UnlockAccount(context.Background(), c, addr); err != nil {
			t.Fatalf("UnlockAccount error = %v", err)
		}
		if len(c.callsFor("evm_unlockUnknownAccount")) != 1 {
			t.Error("expected evm_unlockUnknownAccount call")
		}
		if len(c.callsFor("personal_unlockAccount")) != 0 {
			t.Error("did not expect personal_unlockAccount call")
		}
	})

	t.Run("legacy uses personal namespace", func(t *testing.T) {
		t.Parallel()

		c := newFakeCaller()
		c.results["web3_clientVersion"] = `"EthereumJS TestRPC/v2.13.2/ethereum/js"`

		g := NewGanache(nil)
		g.OnConnection(context.Background(), c)
		if err := g.UnlockAccount(context.Background(), c, addr); err != nil {
			t.Fatalf("UnlockAccount error = %v", err)
		}
		if len(c.callsFor("personal_unlockAccount")) != 1 {
			t.Error("expected personal_unlockAccount call")
		}
	})

	t.Run("unknown version falls back", func(t *testing.T) {
		t.Parallel()

		c := newFakeCaller()
		c.errs["evm_unlockUnknownAccount"] = errors.New("method not found")

		if err := NewGanache(nil).UnlockAccount(context.Background(), c, addr); err != nil {
			t.Fatalf("UnlockAccount error = %v", err)
		}
		if len(c.callsFor("evm_unlockUnknownAccount")) != 1 {
			t.Error("expected modern dialect attempt")
		}
		if len(c.callsFor("personal_unlockAccount")) != 1 {
			t.Error("expected legacy fallback")
		}
	})
}

func TestMajorVersion(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		version string
		want    int32
	}{
		"ganache v7":     {version: "Ganache/v7.9.1/ethereum/js", want: 7},
		"testrpc v2":     {version: "EthereumJS TestRPC/v2.13.2/ethereum/js", want: 2},
		"geth":           {version: "Geth/v1.11.5-stable/linux-amd64/go1.20.2", want: 1},
		"no version":     {version: "mystery client", want: 0},
		"empty":          {version: "", want: 0},
		"garbage number": {version: "Client/vX.1", want: 0},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if got := majorVersion(tc.version); got != tc.want {
				t.Errorf("majorVersion(%q) = %d, want %d", tc.version, got, tc.want)
			}
		})
	}
}
