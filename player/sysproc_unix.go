//go:build !windows

package player

import (
	"os/exec"
	"syscall"
	"time"
)

// sysProcAttr puts mpv in its own process group so terminal signals aimed at
// anistream do not reach it, and the group can be stopped as a whole.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

// terminate sends SIGTERM to the process group and SIGKILL if it is still alive after grace.
func terminate(cmd *exec.Cmd, exited <-chan struct{}, grace time.Duration) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}

	group := -cmd.Process.Pid
	if grace > 0 && syscall.Kill(group, syscall.SIGTERM) == nil {
		select {
		case <-exited:
			return nil
		case <-time.After(grace):
		}
	}

	_ = syscall.Kill(group, syscall.SIGKILL)
	return cmd.Process.Kill()
}
