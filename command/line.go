package command

import (
	"fmt"
	"regexp"
	"strings"
)

// SplitLine splits a shell-style command line into a program name and its
// arguments on whitespace. No quoting or escaping is interpreted; session
// script lines are plain "program arg arg" strings.
func SplitLine(line string) (string, []string, bool) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return "", nil, false
	}
	return parts[0], parts[1:], true
}

var validWorkoutID = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)

// ValidateWorkoutID ensures a workout identifier is safe to pass through to
// the CV pipeline's state file.
func ValidateWorkoutID(id string) error {
	if id == "" {
		return fmt.Errorf("workout id cannot be empty")
	}
	if !validWorkoutID.MatchString(id) {
		return fmt.Errorf("invalid workout id: %s (must contain only letters, digits, underscores, and hyphens)", id)
	}
	if len(id) > 63 {
		return fmt.Errorf("workout id too long: %s (max 63 characters)", id)
	}
	return nil
}
