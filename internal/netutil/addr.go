package netutil

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/giantswarm/chainenv/internal/sentinel"
)

// ErrNoPort is returned when an attach address does not carry a port.
// A backend's RPC endpoint is identified by its (host, port) pair, so an
// address without a port cannot be matched against socket tables.
const ErrNoPort = sentinel.Error("attach address has no port")

// HostPort is a listening address. Host is a hostname or IP literal before
// Resolve, and a concrete IP after.
type HostPort struct {
	Host string
	Port uint32
}

// String returns the address in "host:port" form.
func (hp HostPort) String() string {
	return net.JoinHostPort(hp.Host, strconv.FormatUint(uint64(hp.Port), 10))
}

// ParseAddress parses an attach address given as a string. Both URI form
// ("http://127.0.0.1:8545") and bare "host:port" form are accepted.
// Returns ErrNoPort if the address carries no port.
func ParseAddress(raw string) (HostPort, error) {
	if strings.Contains(raw, "//") {
		u, err := url.Parse(raw)
		if err != nil {
			return HostPort{}, fmt.Errorf("parse attach address %q: %w", raw, err)
		}
		if u.Port() == "" {
			return HostPort{}, fmt.Errorf("attach address %q: %w", raw, ErrNoPort)
		}
		return hostPort(u.Hostname(), u.Port(), raw)
	}

	host, port, err := net.SplitHostPort(raw)
	if err != nil || port == "" {
		return HostPort{}, fmt.Errorf("attach address %q: %w", raw, ErrNoPort)
	}
	return hostPort(host, port, raw)
}

// hostPort builds a HostPort from split host and port strings.
func hostPort(host, port, raw string) (HostPort, error) {
	n, err := strconv.ParseUint(port, 10, 16)
	if err != nil {
		return HostPort{}, fmt.Errorf("attach address %q: invalid port %q: %w", raw, port, err)
	}
	return HostPort{Host: host, Port: uint32(n)}, nil
}

// Resolve resolves the address's host to a concrete IP using the standard
// resolver. IPv4 addresses are preferred because backends bind their RPC
// listeners to IPv4 loopback by default; an IPv6-only host resolves to its
// first IPv6 address.
func Resolve(ctx context.Context, hp HostPort) (HostPort, error) {
	if ip := net.ParseIP(hp.Host); ip != nil {
		return hp, nil
	}

	addrs, err := net.DefaultResolver.LookupIPAddr(ctx, hp.Host)
	if err != nil {
		return HostPort{}, fmt.Errorf("resolve attach host %q: %w", hp.Host, err)
	}
	if len(addrs) == 0 {
		return HostPort{}, fmt.Errorf("resolve attach host %q: no addresses", hp.Host)
	}

	for _, a := range addrs {
		if v4 := a.IP.To4(); v4 != nil {
			return HostPort{Host: v4.String(), Port: hp.Port}, nil
		}
	}
	return HostPort{Host: addrs[0].IP.String(), Port: hp.Port}, nil
}
