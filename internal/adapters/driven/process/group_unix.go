//go:build !windows

package process

import (
	"os/exec"
	"syscall"
)

// setProcessGroup puts the child in a new process group led by itself.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// terminateTree signals the whole process group.
func terminateTree(pid int) error {
	return syscall.Kill(-pid, syscall.SIGTERM)
}

func killTree(pid int) error {
	return syscall.Kill(-pid, syscall.SIGKILL)
}
