// Package paths resolves the filesystem layout shared by kinera and the
// external CV pipeline.
//
// Two roots are involved:
//  1. The session root: where session_config.json, workout_id.json, and the
//     cv/ state files live. The CV pipeline runs out of this directory.
//  2. The kinera home: XDG-style config/state/runtime directories for the
//     daemon socket, pidfile, and logs.
package paths

import (
	"os"
	"path/filepath"
)

// SessionRoot returns the directory the CV pipeline treats as its working
// root. KINERA_ROOT overrides; otherwise the current working directory is
// used, matching how the pipeline itself resolves its files.
func SessionRoot() string {
	if root := os.Getenv("KINERA_ROOT"); root != "" {
		return root
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return cwd
}

// SessionConfigPath returns the path to session_config.json.
func SessionConfigPath() string {
	return filepath.Join(SessionRoot(), "session_config.json")
}

// WorkoutIDPath returns the path to workout_id.json, the command channel
// consumed by the CV pipeline.
func WorkoutIDPath() string {
	return filepath.Join(SessionRoot(), "workout_id.json")
}

// RepsLogPath returns the path to the append-only rep log written by the
// CV pipeline.
func RepsLogPath() string {
	return filepath.Join(SessionRoot(), "cv", "reps_log.jsonl")
}

// LiveMetricsPath returns the path to the live metrics snapshot written by
// the CV pipeline.
func LiveMetricsPath() string {
	return filepath.Join(SessionRoot(), "cv", "session_live.json")
}

// CVScriptPath returns the path to the frame-producing pipeline script.
func CVScriptPath() string {
	return filepath.Join(SessionRoot(), "cv", "cv_stdout_frames.py")
}

func getConfigHome() string {
	if home := os.Getenv("KINERA_HOME"); home != "" {
		return filepath.Join(home, "config")
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return xdg
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".config")
	}
	return ""
}

func getStateHome() string {
	if home := os.Getenv("KINERA_HOME"); home != "" {
		return filepath.Join(home, "state")
	}
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return xdg
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".local", "state")
	}
	return ""
}

// ConfigDir returns the kinera configuration directory (kinera.yml,
// daemon.toml).
func ConfigDir() string {
	base := getConfigHome()
	if base == "" {
		return ""
	}
	return filepath.Join(base, "kinera")
}

// StateDir returns the kinera state directory, used for logs and runtime
// fallbacks.
func StateDir() string {
	base := getStateHome()
	if base == "" {
		return ""
	}
	return filepath.Join(base, "kinera")
}

// RuntimeDir returns the directory for sockets and pidfiles. Uses
// XDG_RUNTIME_DIR when available, falling back to StateDir on systems
// without it.
func RuntimeDir() string {
	if home := os.Getenv("KINERA_HOME"); home != "" {
		return filepath.Join(home, "run")
	}
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "kinera")
	}
	return StateDir()
}

// SocketPath returns the path to the daemon unix socket.
func SocketPath() string {
	return filepath.Join(RuntimeDir(), "kinerad.sock")
}

// PidFilePath returns the path to the daemon pidfile.
func PidFilePath() string {
	return filepath.Join(RuntimeDir(), "kinerad.pid")
}

// LogDir returns the directory for component log files.
func LogDir() string {
	return filepath.Join(StateDir(), "logs")
}
