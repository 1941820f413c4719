package statefiles

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/knivier/kinera/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadRepCountMissingFile(t *testing.T) {
	result := ReadRepCount(filepath.Join(t.TempDir(), "reps_log.jsonl"))

	assert.Zero(t, result.Count)
	assert.Nil(t, result.LastSummary)
	assert.Empty(t, result.RepTimestamps)
	assert.NotNil(t, result.RepTimestamps, "timestamps should be an empty list, not null")
}

func TestReadRepCountParsing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reps_log.jsonl")
	log := `{"timestamp_ms":100}
not json at all
{"timestamp_ms":200,"summary":{"ok":true}}
`
	require.NoError(t, os.WriteFile(path, []byte(log), 0644))

	result := ReadRepCount(path)

	// Every non-empty line counts, including the malformed one.
	assert.Equal(t, uint32(3), result.Count)
	assert.Equal(t, []uint64{100, 200}, result.RepTimestamps)
	assert.JSONEq(t, `{"ok":true}`, string(result.LastSummary))
}

func TestReadRepCountLastLineWithoutSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reps_log.jsonl")
	log := `{"timestamp_ms":100,"summary":{"depth":0.9}}
{"timestamp_ms":200}
`
	require.NoError(t, os.WriteFile(path, []byte(log), 0644))

	result := ReadRepCount(path)

	// Last summary comes from the final line only, even when an earlier
	// line had one.
	assert.Equal(t, uint32(2), result.Count)
	assert.Nil(t, result.LastSummary)
}

func TestReadRepCountMalformedLastLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reps_log.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{\"timestamp_ms\":100}\n{broken\n"), 0644))

	result := ReadRepCount(path)
	assert.Equal(t, uint32(2), result.Count)
	assert.Equal(t, []uint64{100}, result.RepTimestamps)
	assert.Nil(t, result.LastSummary)
}

func TestReadLiveMetrics(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session_live.json")

	// Missing file: no data, no error.
	assert.Nil(t, ReadLiveMetrics(path))

	// Garbage (e.g. mid-write): no data.
	require.NoError(t, os.WriteFile(path, []byte(`{"Depth": 0.`), 0644))
	assert.Nil(t, ReadLiveMetrics(path))

	// Valid snapshot passes through opaquely.
	require.NoError(t, os.WriteFile(path, []byte(`{"Depth":0.93,"Knees":"ok"}`), 0644))
	metrics := ReadLiveMetrics(path)
	require.NotNil(t, metrics)
	assert.JSONEq(t, `{"Depth":0.93,"Knees":"ok"}`, string(metrics))
}

func TestWriteWorkoutID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workout_id.json")

	require.NoError(t, WriteWorkoutID(path, "squat", "ON"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, byte('\n'), data[len(data)-1], "file should end with a newline")

	var record WorkoutIDRecord
	require.NoError(t, json.Unmarshal(data, &record))
	assert.Equal(t, "squat", record.WorkoutID)
	assert.Equal(t, "on", record.Session)

	// Overwrite, not append.
	require.NoError(t, WriteWorkoutID(path, "pushups", "paused"))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &record))
	assert.Equal(t, "pushups", record.WorkoutID)
	assert.Equal(t, "off", record.Session)
}

func TestWriteWorkoutIDFailureSurfaced(t *testing.T) {
	err := WriteWorkoutID(filepath.Join(t.TempDir(), "missing", "workout_id.json"), "squat", "on")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeStateWriteFailed, errors.GetCode(err))
}

func TestNormalizeSessionFlag(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"on", "on"},
		{"ON", "on"},
		{"On", "on"},
		{"off", "off"},
		{"", "off"},
		{"yes", "off"},
		{"true", "off"},
	}

	for _, tt := range tests {
		if got := NormalizeSessionFlag(tt.input); got != tt.want {
			t.Errorf("NormalizeSessionFlag(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
