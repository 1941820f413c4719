package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, configFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "version: \"1\"\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "cv/cv_stdout_frames.py", cfg.Session.Script)
	assert.Equal(t, []string{"python3", "python"}, cfg.Session.Launchers)
}

func TestLoadSessionOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
version: "1"
session:
  script: cv/alt_pipeline.py
  launchers: ["python3.12"]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "cv/alt_pipeline.py", cfg.Session.Script)
	assert.Equal(t, []string{"python3.12"}, cfg.Session.Launchers)
}

func TestLoadMalformed(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "session: [not a mapping\n")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestFindConfigFileWalksUp(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "version: \"1\"\n")
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))

	found, err := FindConfigFile(nested)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, configFileName), found)
}

func TestUnmarshalExtension(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
version: "1"
logging:
  level: debug
  report_caller: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	var logCfg struct {
		Level        string `yaml:"level"`
		ReportCaller bool   `yaml:"report_caller"`
	}
	require.NoError(t, cfg.UnmarshalExtension("logging", &logCfg))
	assert.Equal(t, "debug", logCfg.Level)
	assert.True(t, logCfg.ReportCaller)

	// Unknown key leaves the target zero-valued without erroring.
	var unknown struct {
		Anything string `yaml:"anything"`
	}
	require.NoError(t, cfg.UnmarshalExtension("missing", &unknown))
	assert.Empty(t, unknown.Anything)
}

func TestLoadDaemonConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("KINERA_HOME", home)

	// No file: defaults, no error.
	cfg, err := LoadDaemonConfig()
	require.NoError(t, err)
	assert.Equal(t, DefaultDaemonConfig().StreamBuffer, cfg.StreamBuffer)

	// Valid file: values honored.
	configDir := filepath.Join(home, "config", "kinera")
	require.NoError(t, os.MkdirAll(configDir, 0755))
	require.NoError(t, os.WriteFile(
		filepath.Join(configDir, daemonConfigFileName),
		[]byte("stream_buffer = 16\nwatch_debounce_ms = 50\n"), 0644))

	cfg, err = LoadDaemonConfig()
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.StreamBuffer)
	assert.Equal(t, 50, cfg.WatchDebounceMS)
	assert.Equal(t, DefaultDaemonConfig().ShutdownTimeoutSeconds, cfg.ShutdownTimeoutSeconds)

	// Malformed file: defaults plus an error for the caller to log.
	require.NoError(t, os.WriteFile(
		filepath.Join(configDir, daemonConfigFileName),
		[]byte("stream_buffer = = nope"), 0644))

	cfg, err = LoadDaemonConfig()
	assert.Error(t, err)
	assert.Equal(t, DefaultDaemonConfig().StreamBuffer, cfg.StreamBuffer)
}
