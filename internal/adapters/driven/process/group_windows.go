//go:build windows

package process

import (
	"os/exec"
	"strconv"
)

func setProcessGroup(*exec.Cmd) {}

// terminateTree force-kills the process and its children.
func terminateTree(pid int) error {
	return exec.Command("taskkill", "/pid", strconv.Itoa(pid), "/f", "/t").Run()
}

func killTree(pid int) error {
	return terminateTree(pid)
}
