package statefiles

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/knivier/kinera/errors"
)

// WorkoutIDRecord is the single-line command file consumed by the CV
// pipeline: which workout is selected and whether the session is on.
type WorkoutIDRecord struct {
	WorkoutID string `json:"workout_id"`
	Session   string `json:"session"`
}

// NormalizeSessionFlag maps any input to exactly "on" or "off". Only a
// case-insensitive "on" turns the session on.
func NormalizeSessionFlag(flag string) string {
	if strings.EqualFold(flag, "on") {
		return "on"
	}
	return "off"
}

// WriteWorkoutID overwrites the workout-id file with one JSON line. This is
// the one state-file operation whose failure is surfaced: the CV pipeline
// cannot see a workout selection that never hit disk.
func WriteWorkoutID(path, workoutID, sessionFlag string) error {
	record := WorkoutIDRecord{
		WorkoutID: workoutID,
		Session:   NormalizeSessionFlag(sessionFlag),
	}

	data, err := json.Marshal(record)
	if err != nil {
		return errors.StateWriteFailed(path, err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return errors.StateWriteFailed(path, err)
	}
	return nil
}
