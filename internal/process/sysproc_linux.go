//go:build linux

package process

import (
	"os/exec"
	"syscall"
)

// configureSysProcAttr makes the child receive SIGTERM when this process
// dies, so an interrupted run does not leave compose invocations behind.
func configureSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Pdeathsig: syscall.SIGTERM,
	}
}
