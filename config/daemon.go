package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/knivier/kinera/pkg/paths"
	"github.com/pelletier/go-toml/v2"
)

const daemonConfigFileName = "daemon.toml"

// DaemonConfig holds tuning knobs for the kinera daemon, read from
// daemon.toml in the config directory. Everything has a default; the file
// is optional.
type DaemonConfig struct {
	// StreamBuffer is the per-subscriber event channel capacity. Slow
	// subscribers drop events once their buffer fills.
	StreamBuffer int `toml:"stream_buffer"`

	// WatchDebounceMS is how long the state-file watcher waits before
	// coalescing rapid writes into one notification.
	WatchDebounceMS int `toml:"watch_debounce_ms"`

	// ShutdownTimeoutSeconds bounds graceful HTTP shutdown on exit.
	ShutdownTimeoutSeconds int `toml:"shutdown_timeout_seconds"`
}

// DefaultDaemonConfig returns the built-in daemon tuning values.
func DefaultDaemonConfig() *DaemonConfig {
	return &DaemonConfig{
		StreamBuffer:           100,
		WatchDebounceMS:        250,
		ShutdownTimeoutSeconds: 5,
	}
}

// WatchDebounce returns the debounce interval as a Duration.
func (d *DaemonConfig) WatchDebounce() time.Duration {
	return time.Duration(d.WatchDebounceMS) * time.Millisecond
}

// ShutdownTimeout returns the shutdown bound as a Duration.
func (d *DaemonConfig) ShutdownTimeout() time.Duration {
	return time.Duration(d.ShutdownTimeoutSeconds) * time.Second
}

// LoadDaemonConfig reads daemon.toml from the config directory. A missing
// file yields defaults with a nil error; a malformed file yields defaults
// plus the parse error so the caller can log it and keep going.
func LoadDaemonConfig() (*DaemonConfig, error) {
	cfg := DefaultDaemonConfig()

	configDir := paths.ConfigDir()
	if configDir == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(filepath.Join(configDir, daemonConfigFileName))
	if err != nil {
		return cfg, nil
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return DefaultDaemonConfig(), err
	}

	if cfg.StreamBuffer <= 0 {
		cfg.StreamBuffer = DefaultDaemonConfig().StreamBuffer
	}
	if cfg.WatchDebounceMS <= 0 {
		cfg.WatchDebounceMS = DefaultDaemonConfig().WatchDebounceMS
	}
	if cfg.ShutdownTimeoutSeconds <= 0 {
		cfg.ShutdownTimeoutSeconds = DefaultDaemonConfig().ShutdownTimeoutSeconds
	}

	return cfg, nil
}
