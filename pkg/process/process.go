// Package process provides a PID liveness probe used by the pidfile guard
// and the session status report.
package process

import (
	"os"
	"syscall"
)

// IsProcessAlive reports whether a process with the given PID exists.
// Signal 0 probes existence without delivering anything: nil means alive,
// EPERM means alive but owned by someone else, ESRCH means gone.
func IsProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}

	// FindProcess never fails on Unix; the signal is the real check.
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	err = process.Signal(syscall.Signal(0))
	return err == nil || os.IsPermission(err)
}
