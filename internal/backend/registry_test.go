package backend

import "testing"

func TestRegistry_SelectByCommand(t *testing.T) {
	t.Parallel()

	r := NewRegistry(nil)

	tests := map[string]struct {
		cmd  string
		want string
	}{
		"ganache":            {cmd: "ganache --port 8545", want: "ganache"},
		"ganache-cli":        {cmd: "ganache-cli -a 10", want: "ganache"},
		"uppercase ganache":  {cmd: "Ganache --chain.chainId 1337", want: "ganache"},
		"geth":               {cmd: "geth --dev --http", want: "geth"},
		"uppercase geth":     {cmd: "Geth --dev", want: "geth"},
		"ethnode":            {cmd: "ethnode --workdir .", want: "geth"},
		"unknown gets default": {cmd: "npx hardhat node", want: "ganache"},
		"empty gets default":   {cmd: "", want: "ganache"},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if got := r.SelectByCommand(tc.cmd); got.Name() != tc.want {
				t.Errorf("SelectByCommand(%q) = %q, want %q", tc.cmd, got.Name(), tc.want)
			}
		})
	}
}

func TestRegistry_SelectByClientVersion(t *testing.T) {
	t.Parallel()

	r := NewRegistry(nil)

	tests := map[string]struct {
		version string
		current string
		want    string
	}{
		"legacy testrpc": {
			version: "EthereumJS TestRPC/v2.13.2/ethereum/js",
			current: "geth",
			want:    "ganache",
		},
		"modern ganache": {
			version: "Ganache/v7.9.1/ethereum/js",
			current: "geth",
			want:    "ganache",
		},
		"geth": {
			version: "Geth/v1.11.5-stable/linux-amd64/go1.20.2",
			current: "ganache",
			want:    "geth",
		},
		"unknown keeps current": {
			version: "anvil 0.2.0",
			current: "ganache",
			want:    "ganache",
		},
		"empty keeps current": {
			version: "",
			current: "geth",
			want:    "geth",
		},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			current := r.SelectByCommand(tc.current)
			if got := r.SelectByClientVersion(tc.version, current); got.Name() != tc.want {
				t.Errorf("SelectByClientVersion(%q) = %q, want %q", tc.version, got.Name(), tc.want)
			}
		})
	}
}

func TestRegistry_Default(t *testing.T) {
	t.Parallel()

	if got := NewRegistry(nil).Default().Name(); got != "ganache" {
		t.Errorf("Default() = %q, want %q", got, "ganache")
	}
}
