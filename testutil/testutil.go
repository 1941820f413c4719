// Package testutil provides shared helpers for building fake session roots
// in tests.
package testutil

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// NewSessionRoot creates a temp directory shaped like a session root: a cv/
// subdirectory and a pipeline script launched with sh. Returns the root.
func NewSessionRoot(t *testing.T, script string) string {
	t.Helper()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "cv"), 0755))
	WritePipelineScript(t, root, script)
	return root
}

// WritePipelineScript writes cv/pipeline.sh under the root.
func WritePipelineScript(t *testing.T, root, script string) {
	t.Helper()

	path := filepath.Join(root, "cv", "pipeline.sh")
	require.NoError(t, os.WriteFile(path, []byte(script), 0755))
}

// WriteSessionConfig writes session_config.json with the given script lines.
func WriteSessionConfig(t *testing.T, root string, scripts []string) {
	t.Helper()

	data, err := json.Marshal(map[string][]string{"session_scripts": scripts})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, "session_config.json"), data, 0644))
}

// WriteRepsLog writes cv/reps_log.jsonl with one line per entry, verbatim.
func WriteRepsLog(t *testing.T, root string, lines []string) {
	t.Helper()

	var content string
	for _, line := range lines {
		content += line + "\n"
	}
	path := filepath.Join(root, "cv", "reps_log.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// WriteLiveMetrics writes cv/session_live.json.
func WriteLiveMetrics(t *testing.T, root, payload string) {
	t.Helper()

	path := filepath.Join(root, "cv", "session_live.json")
	require.NoError(t, os.WriteFile(path, []byte(payload), 0644))
}

// RandomString generates a random hex string of the specified length.
func RandomString(length int) string {
	bytes := make([]byte, length/2+1)
	if _, err := rand.Read(bytes); err != nil {
		panic(err)
	}
	return hex.EncodeToString(bytes)[:length]
}
