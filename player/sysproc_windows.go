//go:build windows

package player

import (
	"os/exec"
	"syscall"
	"time"
)

// sysProcAttr detaches mpv from the console's Ctrl+C handling.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP}
}

// terminate kills the process. There is no polite stop for a windowed child, so grace is unused.
func terminate(cmd *exec.Cmd, exited <-chan struct{}, _ time.Duration) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	select {
	case <-exited:
		return nil
	default:
	}
	return cmd.Process.Kill()
}
