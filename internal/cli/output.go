package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/JonMunkholm/refsync/internal/core"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Validation failure or parity mismatch
	ExitCommandError = 2 // Store, config or usage error
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int    // ExitFailure or ExitCommandError
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitSuccess for nil and ExitCommandError for any other error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitCommandError
}

// pipelineError classifies an error from the core pipeline: validation
// failures exit 1, everything else exits 2.
func pipelineError(message string, err error) error {
	if errors.Is(err, core.ErrValidation) {
		return WrapExitError(ExitFailure, message, err)
	}
	return WrapExitError(ExitCommandError, message, err)
}

// CLIResponse is the JSON envelope written in --format json mode.
type CLIResponse struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError is the error part of a CLIResponse.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Details any    `json:"details,omitempty"`
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeOK writes data in a success envelope.
func writeOK(w io.Writer, data any) error {
	return writeJSON(w, CLIResponse{Status: "ok", Data: data})
}

// reportFailure writes the error envelope for a failed command. The command
// error wins over a failed write, which is only logged.
func reportFailure(w io.Writer, err error, data any) {
	if werr := writeFailure(w, err, data); werr != nil {
		slog.Warn("json output write failed", "error", werr)
	}
}

// writeFailure writes err in an error envelope, with data alongside when the
// command produced a partial result.
func writeFailure(w io.Writer, err error, data any) error {
	msg := core.MapError(err)
	return writeJSON(w, CLIResponse{
		Status: "error",
		Data:   data,
		Error: &CLIError{
			Code:    msg.Code,
			Message: err.Error(),
			Action:  msg.Action,
		},
	})
}

// writeIssues prints validation issues one per line.
func writeIssues(w io.Writer, issues []core.ValidationIssue) {
	for _, issue := range issues {
		fmt.Fprintf(w, "  %s\n", issue)
	}
}
