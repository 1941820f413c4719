package errors

import (
	"fmt"
)

// SpawnFailed creates a primary-process spawn failure error. Launchers lists
// every launcher name that was attempted before giving up.
func SpawnFailed(script string, launchers []string, err error) *KineraError {
	return Wrap(err, ErrCodeSpawnFailed,
		fmt.Sprintf("failed to launch CV pipeline %s", script)).
		WithDetail("script", script).
		WithDetail("launchers", launchers)
}

// StateWriteFailed creates a state-file write failure error
func StateWriteFailed(path string, err error) *KineraError {
	return Wrap(err, ErrCodeStateWriteFailed,
		fmt.Sprintf("failed to write state file: %s", path)).
		WithDetail("path", path)
}

// DaemonNotRunning creates a daemon unavailable error
func DaemonNotRunning(socket string) *KineraError {
	return New(ErrCodeDaemonNotRunning,
		"kinera daemon is not running").
		WithDetail("socket", socket)
}

// DaemonAlreadyRunning creates a duplicate daemon error
func DaemonAlreadyRunning(pid int) *KineraError {
	return New(ErrCodeDaemonAlreadyRunning,
		fmt.Sprintf("daemon already running with PID %d", pid)).
		WithDetail("pid", pid)
}

// ConfigNotFound creates a configuration not found error
func ConfigNotFound(path string) *KineraError {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("configuration file not found: %s", path)).
		WithDetail("path", path)
}

// ConfigInvalid creates an invalid configuration error
func ConfigInvalid(reason string) *KineraError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason))
}

// Internal creates an internal invariant violation error
func Internal(reason string) *KineraError {
	return New(ErrCodeInternal, reason)
}
