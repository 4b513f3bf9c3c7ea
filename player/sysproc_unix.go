//go:build !windows

package player

import (
	"os/exec"
	"syscall"
)

// sysProcAttr puts mpv in its own process group so terminal signals aimed at us don't reach it.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

// killProcess kills mpv together with any helper processes in its group.
func killProcess(cmd *exec.Cmd) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	return cmd.Process.Kill()
}
