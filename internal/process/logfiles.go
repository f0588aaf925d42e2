package process

import (
	"fmt"
	"os"
	"path/filepath"
)

// LogFiles manages stdout/stderr file handles for a captured backend process.
type LogFiles struct {
	stdoutFile *os.File
	stderrFile *os.File
	dataDir    string
	stdoutName string // e.g. "ganache-stdout.log"
	stderrName string // e.g. "geth-stderr.log"
}

// create creates stdout and stderr log files.
// Both files are assigned to the struct only after both creates succeed.
func (l *LogFiles) create() error {
	stdoutFile, err := os.Create(l.StdoutPath())
	if err != nil {
		return fmt.Errorf("create stdout log: %w", err)
	}
	stderrFile, err := os.Create(l.StderrPath())
	if err != nil {
		_ = stdoutFile.Close()
		return fmt.Errorf("create stderr log: %w", err)
	}
	l.stdoutFile = stdoutFile
	l.stderrFile = stderrFile
	return nil
}

// Close closes both log file handles and nils them to prevent double-close.
func (l *LogFiles) Close() {
	if l.stdoutFile != nil {
		_ = l.stdoutFile.Close()
		l.stdoutFile = nil
	}
	if l.stderrFile != nil {
		_ = l.stderrFile.Close()
		l.stderrFile = nil
	}
}

// StdoutPath returns the absolute path to the stdout log file.
func (l *LogFiles) StdoutPath() string {
	return filepath.Join(l.dataDir, l.stdoutName)
}

// StderrPath returns the absolute path to the stderr log file.
func (l *LogFiles) StderrPath() string {
	return filepath.Join(l.dataDir, l.stderrName)
}

// NewLogFiles creates and initializes log files for a backend process.
// The processName seeds the file names (e.g. "ganache" -> "ganache-stdout.log").
// The data directory is created if it does not exist.
func NewLogFiles(dataDir, processName string) (LogFiles, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return LogFiles{}, fmt.Errorf("create data directory %s: %w", dataDir, err)
	}
	l := LogFiles{
		dataDir:    dataDir,
		stdoutName: processName + "-stdout.log",
		stderrName: processName + "-stderr.log",
	}
	if err := l.create(); err != nil {
		return LogFiles{}, err
	}
	return l, nil
}
