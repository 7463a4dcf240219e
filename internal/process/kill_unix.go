//go:build !windows

// Package process terminates browser process trees left behind at shutdown.
package process

import "syscall"

// KillTree sends SIGKILL to the process group led by pid.
// Chromium forks renderer and GPU helpers into the same group, so killing the
// group reaps them together. Non-positive pids are ignored.
func KillTree(pid int) {
	if pid <= 0 {
		return
	}
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
