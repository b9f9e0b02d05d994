package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klytics/sheetai/cmd/version"
)

// Exit codes for consistent error reporting.
const (
	ExitOK          = 0 // success
	ExitUserError   = 1 // bad flags, missing file, bad address
	ExitSystemError = 2 // network failure, IO error, provider error
)

// JSONResult is the standard JSON output envelope for all commands.
type JSONResult struct {
	OK      bool        `json:"ok"`
	Command string      `json:"command"`
	Version string      `json:"version"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    int         `json:"code,omitempty"`
}

// ExitError carries the process exit code for an error.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }

func (e *ExitError) Unwrap() error { return e.Err }

// SystemError marks err as a failure outside the user's control.
func SystemError(err error) error {
	if err == nil {
		return nil
	}
	return &ExitError{Code: ExitSystemError, Err: err}
}

// ExitCode returns the exit code for err. Unmarked errors are user errors.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ExitUserError
}

// PrintJSON writes a standard success JSON result to stdout.
func PrintJSON(cmd string, data interface{}) error {
	return FprintJSON(os.Stdout, cmd, data)
}

// FprintJSON writes a standard success JSON result to w.
func FprintJSON(w io.Writer, cmd string, data interface{}) error {
	result := JSONResult{
		OK:      true,
		Command: cmd,
		Version: version.Version,
		Data:    data,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// PrintJSONError writes a standard error JSON result to stdout.
func PrintJSONError(cmd string, err error, code int) error {
	return FprintJSONError(os.Stdout, cmd, err, code)
}

// FprintJSONError writes a standard error JSON result to w.
func FprintJSONError(w io.Writer, cmd string, err error, code int) error {
	result := JSONResult{
		OK:      false,
		Command: cmd,
		Version: version.Version,
		Error:   err.Error(),
		Code:    code,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(result); encErr != nil {
		return fmt.Errorf("could not encode JSON error: %w", encErr)
	}
	return nil
}
