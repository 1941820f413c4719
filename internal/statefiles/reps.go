// Package statefiles reads and writes the JSON files shared with the CV
// pipeline: the append-only rep log and live metrics snapshot it writes,
// and the workout-id file it consumes. Every call is a stateless pass over
// the current file contents.
package statefiles

import (
	"encoding/json"
	"os"
	"strings"
)

// RepLogEntry is one line of reps_log.jsonl. Both fields are optional; the
// summary shape is owned by the CV pipeline and passed through opaquely.
type RepLogEntry struct {
	TimestampMS *uint64         `json:"timestamp_ms,omitempty"`
	Summary     json.RawMessage `json:"summary,omitempty"`
}

// RepCountResult aggregates the rep log for the front end.
type RepCountResult struct {
	Count         uint32          `json:"count"`
	LastSummary   json.RawMessage `json:"last_summary,omitempty"`
	RepTimestamps []uint64        `json:"rep_timestamps"`
}

// ReadRepCount reads the rep log at path. A missing file means a session
// that has not produced reps yet, so it returns a zero result rather than
// an error. The count is the number of non-empty lines; timestamps come
// from the lines that parse, and the last summary from the final line if
// it parses and carries one.
func ReadRepCount(path string) RepCountResult {
	result := RepCountResult{RepTimestamps: []uint64{}}

	content, err := os.ReadFile(path)
	if err != nil {
		return result
	}

	var lines []string
	for _, line := range strings.Split(string(content), "\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}

	result.Count = uint32(len(lines))
	for _, line := range lines {
		var entry RepLogEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			// Malformed lines still count; they just contribute no
			// timestamp.
			continue
		}
		if entry.TimestampMS != nil {
			result.RepTimestamps = append(result.RepTimestamps, *entry.TimestampMS)
		}
	}

	if len(lines) > 0 {
		var last RepLogEntry
		if err := json.Unmarshal([]byte(lines[len(lines)-1]), &last); err == nil {
			result.LastSummary = last.Summary
		}
	}

	return result
}
