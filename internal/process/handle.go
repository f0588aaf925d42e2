package process

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	gsproc "github.com/shirou/gopsutil/v4/process"
)

// killDrainTimeout is the hard upper bound for waiting on process exit after
// SIGKILL. The signal cannot be caught, so the process should disappear
// almost immediately; this is a safety net against stuck I/O or kernel
// issues, not an expected code path.
const killDrainTimeout = 10 * time.Second

// exitPollInterval is the interval used to re-check an attached (foreign)
// process for termination after it has been killed. There is no Wait channel
// for a process this program did not spawn, so exit is observed by polling
// the OS.
const exitPollInterval = 50 * time.Millisecond

// Handle identifies the OS process backing the RPC client. It is created by
// Spawn for launched processes or Attach for foreign ones, owned exclusively
// by the supervisor, and discarded after KillTree.
type Handle struct {
	proc *gsproc.Process // process table view; nil only if the entry vanished instantly
	cmd  *exec.Cmd       // set only for processes spawned by this program

	waitDone <-chan error    // receives the single cmd.Wait result
	exited   <-chan struct{} // closed when a spawned process exits

	logs               LogFiles
	stdout, stderr     *os.File // pipe read ends (OutputPipe)
	stdoutW, stderrW   *os.File // parent copies of pipe write ends
	closeOnce          sync.Once
	writeEndsCloseOnce sync.Once

	log *slog.Logger
}

// Attach builds a Handle for an already-running process that this program
// did not spawn. The error is the OS lookup failure when no process with the
// given pid exists.
func Attach(pid int32, logger *slog.Logger) (*Handle, error) {
	if logger == nil {
		logger = slog.Default()
	}
	proc, err := gsproc.NewProcess(pid)
	if err != nil {
		return nil, fmt.Errorf("attach to process %d: %w", pid, err)
	}
	return &Handle{proc: proc, log: logger}, nil
}

// PID returns the process id.
func (h *Handle) PID() int32 {
	if h.proc != nil {
		return h.proc.Pid
	}
	return int32(h.cmd.Process.Pid)
}

// ParentPID returns the parent process id, re-queried from the OS.
func (h *Handle) ParentPID() (int32, error) {
	if h.proc == nil {
		// A spawned process whose table entry is already gone; the parent
		// is by construction this program.
		return int32(os.Getpid()), nil
	}
	ppid, err := h.proc.Ppid()
	if err != nil {
		return 0, fmt.Errorf("query parent of process %d: %w", h.PID(), err)
	}
	return ppid, nil
}

// IsOwned reports whether this program spawned the process, as opposed to
// attaching to a foreign one.
func (h *Handle) IsOwned() bool {
	return h.cmd != nil
}

// IsRunning reports whether the OS considers the process alive. The status
// is re-queried on every call rather than cached, because the process can
// die outside this program's control at any time. For spawned processes the
// Wait goroutine reaps the child, so the exited channel is authoritative.
func (h *Handle) IsRunning() bool {
	if h.exited != nil {
		select {
		case <-h.exited:
			return false
		default:
		}
	}
	if h.proc == nil {
		// Spawned but never observed in the process table; the exited
		// channel above is the only truth available.
		return h.cmd != nil
	}
	running, err := h.proc.IsRunning()
	if err != nil {
		return false
	}
	return running
}

// Stdout returns the captured stdout read end, or nil unless the process was
// spawned with OutputPipe.
func (h *Handle) Stdout() io.ReadCloser { return readCloserOrNil(h.stdout) }

// Stderr returns the captured stderr read end, or nil unless the process was
// spawned with OutputPipe.
func (h *Handle) Stderr() io.ReadCloser { return readCloserOrNil(h.stderr) }

// readCloserOrNil avoids handing callers a typed-nil io.ReadCloser.
func readCloserOrNil(f *os.File) io.ReadCloser {
	if f == nil {
		return nil
	}
	return f
}

// KillTree force-terminates the whole process tree: every child first, then
// the main process, then waits for the main process to fully exit. A child
// that vanishes between enumeration and kill is success, not failure; the
// only error returned is the pathological case where the main process still
// exists after the drain timeout.
func (h *Handle) KillTree(ctx context.Context) error {
	if h.proc != nil {
		children, err := h.proc.ChildrenWithContext(ctx)
		if err != nil {
			// No children, or the tree cannot be enumerated; either way
			// there is nothing more to do for descendants.
			h.log.Debug("enumerate children", "pid", h.PID(), "error", err)
		}
		for _, child := range children {
			if killErr := child.KillWithContext(ctx); killErr != nil {
				h.log.Debug("kill child", "pid", child.Pid, "error", killErr)
			}
		}
	}

	if err := h.killMain(ctx); err != nil {
		h.log.Debug("kill process", "pid", h.PID(), "error", err)
	}
	return h.waitExit(ctx)
}

// killMain sends the kill signal to the main process.
func (h *Handle) killMain(ctx context.Context) error {
	if h.proc != nil {
		return h.proc.KillWithContext(ctx)
	}
	if h.cmd != nil && h.cmd.Process != nil {
		return h.cmd.Process.Kill()
	}
	return nil
}

// waitExit blocks until the main process has fully exited. Spawned processes
// are drained through the Wait goroutine; attached processes are polled.
func (h *Handle) waitExit(ctx context.Context) error {
	if h.waitDone != nil {
		t := time.NewTimer(killDrainTimeout)
		defer t.Stop()
		select {
		case <-h.waitDone:
			return nil
		case <-t.C:
			return fmt.Errorf("process %d did not exit after kill", h.PID())
		case <-ctx.Done():
			return fmt.Errorf("wait for process %d exit: %w", h.PID(), ctx.Err())
		}
	}

	deadline := time.Now().Add(killDrainTimeout)
	ticker := time.NewTicker(exitPollInterval)
	defer ticker.Stop()
	for {
		running, err := h.proc.IsRunning()
		if err != nil || !running {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("process %d did not exit after kill", h.PID())
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return fmt.Errorf("wait for process %d exit: %w", h.PID(), ctx.Err())
		}
	}
}

// closeWriteEnds closes the parent's copies of the pipe write ends after the
// child has been started. Idempotent.
func (h *Handle) closeWriteEnds() {
	h.writeEndsCloseOnce.Do(func() {
		if h.stdoutW != nil {
			_ = h.stdoutW.Close()
		}
		if h.stderrW != nil {
			_ = h.stderrW.Close()
		}
	})
}

// CloseStreams closes captured output resources (log files or pipe ends)
// exactly once. Safe to call from both an explicit kill and the exit hook;
// whichever runs second is a no-op.
func (h *Handle) CloseStreams() {
	h.closeOnce.Do(func() {
		h.closeStreamsNow()
	})
}

// closeStreamsNow closes all stream resources without the once guard.
// Used directly on the spawn failure path, before the Handle escapes.
func (h *Handle) closeStreamsNow() {
	h.logs.Close()
	h.closeWriteEnds()
	if h.stdout != nil {
		_ = h.stdout.Close()
	}
	if h.stderr != nil {
		_ = h.stderr.Close()
	}
}
