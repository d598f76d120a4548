package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation is matched by every *ValidationFailedError.
	ErrValidation = errors.New("validation failed")
	// ErrNotWired is matched by a *ConfigError for a table with no columns.
	ErrNotWired = errors.New("table not wired for sync")
	// ErrUnknownTable is returned when a table key is not registered.
	ErrUnknownTable = errors.New("unknown table")
)

// ValidationFailedError aborts a seed run before any store call.
type ValidationFailedError struct {
	Issues []ValidationIssue
}

func (e *ValidationFailedError) Error() string {
	errs := Errors(e.Issues)
	lines := make([]string, len(errs))
	for i, issue := range errs {
		lines[i] = issue.String()
	}
	return fmt.Sprintf("validation failed with %d error(s):\n  - %s", len(errs), strings.Join(lines, "\n  - "))
}

func (e *ValidationFailedError) Is(target error) bool {
	return target == ErrValidation
}

// StoreError wraps a driver error raised while writing a table. The enclosing
// transaction has been rolled back by the time it is returned.
type StoreError struct {
	Table string // Table key
	Op    string // upsert, deprecate, version, begin, commit, read
	RowID string // Set for upsert failures
	Err   error
}

func (e *StoreError) Error() string {
	switch {
	case e.Table == "":
		return fmt.Sprintf("store %s: %v", e.Op, e.Err)
	case e.RowID != "":
		return fmt.Sprintf("store %s %s row %q: %v", e.Op, e.Table, e.RowID, e.Err)
	default:
		return fmt.Sprintf("store %s %s: %v", e.Op, e.Table, e.Err)
	}
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// ConfigError reports a registry or wiring problem.
type ConfigError struct {
	Table  string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	msg := "config error: " + e.Reason
	if e.Table != "" {
		msg = fmt.Sprintf("config error: table %s: %s", e.Table, e.Reason)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// SourceError reports a source file that exists but could not be read.
type SourceError struct {
	Table string
	Err   error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source error: table %s: %v", e.Table, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}
