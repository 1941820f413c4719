package errors

import (
	"fmt"
	"testing"
)

func TestKineraError(t *testing.T) {
	// Test basic error creation
	err := New(ErrCodeSpawnFailed, "spawn failed")
	if err.Code != ErrCodeSpawnFailed {
		t.Errorf("expected code %s, got %s", ErrCodeSpawnFailed, err.Code)
	}

	// Test error wrapping
	cause := fmt.Errorf("underlying error")
	wrapped := Wrap(cause, ErrCodeStateWriteFailed, "write failed")

	if wrapped.Unwrap() != cause {
		t.Error("Unwrap should return the cause")
	}

	// Test Is function
	if !Is(wrapped, ErrCodeStateWriteFailed) {
		t.Error("Is should return true for matching code")
	}

	if Is(wrapped, ErrCodeSpawnFailed) {
		t.Error("Is should return false for non-matching code")
	}

	// Test WithDetail
	detailed := err.WithDetail("script", "cv_stdout_frames.py").WithDetail("attempts", 2)
	if detailed.Details["script"] != "cv_stdout_frames.py" {
		t.Error("WithDetail should add details")
	}
}

func TestErrorConstructors(t *testing.T) {
	// Test SpawnFailed
	err := SpawnFailed("cv/cv_stdout_frames.py", []string{"python3", "python"}, fmt.Errorf("no such file"))
	if err.Code != ErrCodeSpawnFailed {
		t.Errorf("expected code %s, got %s", ErrCodeSpawnFailed, err.Code)
	}
	if err.Details["script"] != "cv/cv_stdout_frames.py" {
		t.Error("SpawnFailed should include script detail")
	}

	// Test DaemonAlreadyRunning
	err = DaemonAlreadyRunning(4242)
	if err.Code != ErrCodeDaemonAlreadyRunning {
		t.Errorf("expected code %s, got %s", ErrCodeDaemonAlreadyRunning, err.Code)
	}
	if err.Details["pid"] != 4242 {
		t.Error("DaemonAlreadyRunning should include pid detail")
	}

	// Test StateWriteFailed wraps the cause
	cause := fmt.Errorf("permission denied")
	err = StateWriteFailed("/tmp/workout_id.json", cause)
	if err.Unwrap() != cause {
		t.Error("StateWriteFailed should wrap the cause")
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(nil); got != "" {
		t.Errorf("GetCode(nil) = %q, want empty", got)
	}

	err := DaemonNotRunning("/run/kinera/kinerad.sock")
	if got := GetCode(err); got != ErrCodeDaemonNotRunning {
		t.Errorf("GetCode = %s, want %s", got, ErrCodeDaemonNotRunning)
	}

	wrapped := fmt.Errorf("outer: %w", err)
	if got := GetCode(wrapped); got != ErrCodeDaemonNotRunning {
		t.Errorf("GetCode through wrap = %s, want %s", got, ErrCodeDaemonNotRunning)
	}
}
