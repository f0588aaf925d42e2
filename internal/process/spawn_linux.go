//go:build linux

package process

import (
	"os/exec"
	"syscall"
)

// configureSysProcAttr sets Linux-specific process attributes on cmd.
// Pdeathsig delivers SIGKILL to the backend when its parent dies, so a
// launched node does not outlive an abruptly killed test run even when the
// exit hook never gets a chance to run. Teardown is always force-kill,
// never graceful, hence SIGKILL and not SIGTERM.
func configureSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Pdeathsig: syscall.SIGKILL,
	}
}
