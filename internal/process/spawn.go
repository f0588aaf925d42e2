package process

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	gsproc "github.com/shirou/gopsutil/v4/process"
)

// OutputMode selects what happens to the backend's stdout and stderr.
type OutputMode int

const (
	// OutputInherit forwards the backend's output to this program's
	// stdout/stderr.
	OutputInherit OutputMode = iota
	// OutputPipe captures output into pipes exposed via Handle.Stdout and
	// Handle.Stderr. The caller is responsible for draining them; an
	// undrained pipe eventually blocks a chatty backend.
	OutputPipe
	// OutputDiscard silently discards all output.
	OutputDiscard
	// OutputFile writes output to per-process log files under the data
	// directory.
	OutputFile
)

// SpawnConfig configures how a backend command line is turned into a child
// process. All fields are forwarded verbatim to process creation.
type SpawnConfig struct {
	Output    OutputMode
	Dir       string   // working directory; empty means inherit
	Env       []string // extra KEY=VALUE entries appended to the environment
	ExtraArgs []string // appended after the command line's own arguments
	DataDir   string   // log file directory, required for OutputFile
	Name      string   // process name used for log files and logging
	Logger    *slog.Logger
}

// Spawn starts the given command line as a child process and returns a live
// Handle immediately; it does not wait for the process to become ready.
// The command line is split on whitespace, matching how the launch command
// is assembled by the configuration layer.
//
// The exec.Cmd deliberately carries no context: the child's lifetime is
// owned by the supervisor's kill path, not by the launch call's context.
func Spawn(cmdline string, cfg SpawnConfig) (*Handle, error) {
	tokens := strings.Fields(cmdline)
	if len(tokens) == 0 {
		return nil, fmt.Errorf("empty launch command")
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	cmd := exec.Command(tokens[0], append(tokens[1:], cfg.ExtraArgs...)...)
	cmd.Dir = cfg.Dir
	if len(cfg.Env) > 0 {
		cmd.Env = append(os.Environ(), cfg.Env...)
	}
	configureSysProcAttr(cmd)

	h := &Handle{cmd: cmd, log: log}
	if err := h.setupOutput(cfg); err != nil {
		return nil, err
	}

	if err := cmd.Start(); err != nil {
		h.closeStreamsNow()
		return nil, fmt.Errorf("start %s process: %w", cfg.Name, err)
	}

	// Close parent copies of the pipe write ends so the read ends see EOF
	// when the child exits.
	h.closeWriteEnds()

	// Start the single cmd.Wait goroutine. cmd.Wait must be called exactly
	// once per started process; the buffered done channel is consumed by
	// the kill path, and exited broadcasts termination to liveness checks.
	done := make(chan error, 1)
	exited := make(chan struct{})
	go func() {
		done <- cmd.Wait()
		close(exited)
	}()
	h.waitDone = done
	h.exited = exited

	// The process table entry can already be gone for a command that exits
	// instantly; Handle degrades to cmd-only observation in that case.
	if proc, err := gsproc.NewProcess(int32(cmd.Process.Pid)); err == nil {
		h.proc = proc
	} else {
		log.Debug("no process table entry after start", "name", cfg.Name,
			"pid", cmd.Process.Pid, "error", err)
	}

	return h, nil
}

// setupOutput wires cmd stdout/stderr according to the configured mode.
func (h *Handle) setupOutput(cfg SpawnConfig) error {
	switch cfg.Output {
	case OutputInherit:
		h.cmd.Stdout = os.Stdout
		h.cmd.Stderr = os.Stderr
	case OutputDiscard:
		// exec treats nil as the null device.
	case OutputPipe:
		stdoutR, stdoutW, err := os.Pipe()
		if err != nil {
			return fmt.Errorf("create stdout pipe: %w", err)
		}
		stderrR, stderrW, err := os.Pipe()
		if err != nil {
			_ = stdoutR.Close()
			_ = stdoutW.Close()
			return fmt.Errorf("create stderr pipe: %w", err)
		}
		h.cmd.Stdout = stdoutW
		h.cmd.Stderr = stderrW
		h.stdout, h.stderr = stdoutR, stderrR
		h.stdoutW, h.stderrW = stdoutW, stderrW
	case OutputFile:
		if cfg.DataDir == "" {
			return fmt.Errorf("output mode file requires a data directory")
		}
		logs, err := NewLogFiles(cfg.DataDir, cfg.Name)
		if err != nil {
			return fmt.Errorf("create %s logs: %w", cfg.Name, err)
		}
		h.logs = logs
		h.cmd.Stdout = logs.stdoutFile
		h.cmd.Stderr = logs.stderrFile
	default:
		return fmt.Errorf("unknown output mode %d", cfg.Output)
	}
	return nil
}
