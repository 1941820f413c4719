package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	// Session lifecycle errors
	ErrCodeSpawnFailed      ErrorCode = "SPAWN_FAILED"
	ErrCodeSessionNotActive ErrorCode = "SESSION_NOT_ACTIVE"

	// Daemon errors
	ErrCodeDaemonNotRunning     ErrorCode = "DAEMON_NOT_RUNNING"
	ErrCodeDaemonAlreadyRunning ErrorCode = "DAEMON_ALREADY_RUNNING"

	// Configuration errors
	ErrCodeConfigNotFound ErrorCode = "CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  ErrorCode = "CONFIG_INVALID"

	// State file errors
	ErrCodeStateWriteFailed ErrorCode = "STATE_WRITE_FAILED"

	// General errors
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// KineraError represents a structured error with context.
//
// Only caller-visible contracts construct these: session start, workout-id
// writes, daemon lifecycle. Best-effort reads (rep log, live metrics,
// session config) degrade silently instead of producing errors.
type KineraError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *KineraError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *KineraError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error
func (e *KineraError) WithDetail(key string, value interface{}) *KineraError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithCause attaches the underlying error
func (e *KineraError) WithCause(err error) *KineraError {
	e.Cause = err
	return e
}

// ToJSON converts the error to JSON
func (e *KineraError) ToJSON() string {
	data, _ := json.MarshalIndent(e, "", "  ")
	return string(data)
}

// New creates a new KineraError
func New(code ErrorCode, message string) *KineraError {
	return &KineraError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a KineraError
func Wrap(err error, code ErrorCode, message string) *KineraError {
	return &KineraError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Is checks if an error is a specific KineraError code
func Is(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}

	kerr, ok := err.(*KineraError)
	if !ok {
		if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
			return Is(unwrapper.Unwrap(), code)
		}
		return false
	}

	return kerr.Code == code
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	if err == nil {
		return ""
	}

	kerr, ok := err.(*KineraError)
	if !ok {
		if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
			return GetCode(unwrapper.Unwrap())
		}
		return ""
	}

	return kerr.Code
}
