//go:build unix

package sandbox

import (
	"os/exec"
	"syscall"
)

// isolateProcessGroup starts cmd in its own process group so that a timeout
// also kills anything the script spawned.
func isolateProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return killProcessGroup(cmd)
	}
}

func killProcessGroup(cmd *exec.Cmd) error {
	return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
}
