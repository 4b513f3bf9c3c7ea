//go:build windows

package player

import (
	"os/exec"
	"syscall"
)

// sysProcAttr hides the console window mpv would otherwise open.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{CreationFlags: 0x08000000}
}

func killProcess(cmd *exec.Cmd) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}
