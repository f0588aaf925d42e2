package procfind

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	gsnet "github.com/shirou/gopsutil/v4/net"
	gsproc "github.com/shirou/gopsutil/v4/process"
	"golang.org/x/sync/errgroup"

	"github.com/giantswarm/chainenv/internal/netutil"
	"github.com/giantswarm/chainenv/internal/sentinel"
)

// ErrProcessNotFound is returned when no OS process owns a socket at the
// attach address. The remediation is caller-driven: terminate the running
// client manually and let the tool launch its own child instead.
const ErrProcessNotFound = sentinel.Error(
	"could not find the rpc process; if this persists, kill the rpc client and let chainenv launch it as a child process")

// scanParallelism bounds the number of processes inspected concurrently.
// Connection-table reads are cheap syscalls, but an unbounded fan-out over
// a large process table wastes file descriptors for no gain.
const scanParallelism = 8

// errMatchFound aborts the scan group early once a matching process is seen.
const errMatchFound = sentinel.Error("match found")

// PIDForAddress returns the pid of the process bound to the resolved
// address. The address host must already be a concrete IP (see
// netutil.Resolve); socket tables report IPs, not hostnames.
func PIDForAddress(ctx context.Context, addr netutil.HostPort, log *slog.Logger) (int32, error) {
	if log == nil {
		log = slog.Default()
	}

	if pid, ok := scanProcesses(ctx, addr, log); ok {
		return pid, nil
	}
	if pid, ok := scanConnections(ctx, addr, log); ok {
		return pid, nil
	}
	return 0, ErrProcessNotFound
}

// scanProcesses walks the process table and inspects each process's open
// connections for a local address equal to addr. Inspection failures are
// logged at debug and treated as "not a match".
func scanProcesses(ctx context.Context, addr netutil.HostPort, log *slog.Logger) (int32, bool) {
	procs, err := gsproc.ProcessesWithContext(ctx)
	if err != nil {
		log.Debug("enumerate processes", "error", err)
		return 0, false
	}

	var found atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(scanParallelism)

	for _, p := range procs {
		p := p
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return nil
			default:
			}
			conns, connErr := p.ConnectionsWithContext(gctx)
			if connErr != nil {
				// Permission denied, zombie, or exited mid-scan.
				return nil
			}
			for _, conn := range conns {
				if conn.Laddr.IP == addr.Host && conn.Laddr.Port == addr.Port {
					found.CompareAndSwap(0, p.Pid)
					return errMatchFound
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, errMatchFound) {
		log.Debug("process scan", "error", err)
	}
	if pid := found.Load(); pid != 0 {
		return pid, true
	}
	return 0, false
}

// scanConnections is the fallback over the system-wide TCP table, not
// grouped by process. It returns the owner of the first connection whose
// local or remote address matches; entries without an attributable pid are
// skipped.
func scanConnections(ctx context.Context, addr netutil.HostPort, log *slog.Logger) (int32, bool) {
	conns, err := gsnet.ConnectionsWithContext(ctx, "tcp")
	if err != nil {
		log.Debug("enumerate tcp connections", "error", err)
		return 0, false
	}

	for _, conn := range conns {
		if conn.Pid == 0 {
			continue
		}
		if matches(conn.Laddr, addr) || matches(conn.Raddr, addr) {
			return conn.Pid, true
		}
	}
	return 0, false
}

// matches reports whether a socket address equals the attach address.
func matches(a gsnet.Addr, addr netutil.HostPort) bool {
	return a.IP == addr.Host && a.Port == addr.Port
}
