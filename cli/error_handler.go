package cli

import (
	"fmt"
	"os"

	"github.com/knivier/kinera/errors"
)

// ErrorHandler provides user-friendly error messages
type ErrorHandler struct {
	Verbose bool
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(verbose bool) *ErrorHandler {
	return &ErrorHandler{
		Verbose: verbose,
	}
}

// Handle provides user-friendly error messages based on error type
func (h *ErrorHandler) Handle(err error) error {
	switch errors.GetCode(err) {
	case errors.ErrCodeDaemonNotRunning:
		fmt.Fprintf(os.Stderr, "❌ The kinera daemon is not running. Start it with 'kinera daemon start'.\n")
		return err

	case errors.ErrCodeDaemonAlreadyRunning:
		if kerr, ok := err.(*errors.KineraError); ok {
			fmt.Fprintf(os.Stderr, "❌ A kinera daemon is already running (pid %v)\n", kerr.Details["pid"])
			fmt.Fprintf(os.Stderr, "Stop it with 'kinera daemon stop' first.\n")
		}
		return err

	case errors.ErrCodeSpawnFailed:
		if kerr, ok := err.(*errors.KineraError); ok {
			fmt.Fprintf(os.Stderr, "❌ Could not launch the CV pipeline '%v'\n", kerr.Details["script"])
			fmt.Fprintf(os.Stderr, "Tried launchers: %v. Is python installed and on PATH?\n", kerr.Details["launchers"])
		}
		return err

	case errors.ErrCodeConfigNotFound:
		fmt.Fprintf(os.Stderr, "❌ Configuration not found. Create a kinera.yml in your session directory.\n")
		return err

	case errors.ErrCodeConfigInvalid:
		if kerr, ok := err.(*errors.KineraError); ok {
			fmt.Fprintf(os.Stderr, "❌ Invalid configuration: %s\n", kerr.Message)
		}
		return err

	case errors.ErrCodeStateWriteFailed:
		if kerr, ok := err.(*errors.KineraError); ok {
			fmt.Fprintf(os.Stderr, "❌ Could not write state file '%v'\n", kerr.Details["path"])
			fmt.Fprintf(os.Stderr, "Check permissions on the session directory.\n")
		}
		return err

	case errors.ErrCodeInvalidInput:
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		return err

	default:
		fmt.Fprintf(os.Stderr, "❌ Error: %v\n", err)

		if h.Verbose {
			if kerr, ok := err.(*errors.KineraError); ok {
				fmt.Fprintf(os.Stderr, "\nError details:\n%s\n", kerr.ToJSON())
			}
		}
		return err
	}
}
