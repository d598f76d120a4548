package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/refsync/internal/core"
	"github.com/JonMunkholm/refsync/internal/logging"
)

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"plain error", errors.New("boom"), ExitCommandError},
		{"failure", NewExitError(ExitFailure, "parity failed"), ExitFailure},
		{"wrapped", fmt.Errorf("outer: %w", WrapExitError(ExitCommandError, "store", errors.New("x"))), ExitCommandError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestPipelineError(t *testing.T) {
	vErr := &core.ValidationFailedError{Issues: []core.ValidationIssue{
		{Table: "motions", Message: "duplicate id \"a\"", Severity: core.SeverityError},
	}}
	assert.Equal(t, ExitFailure, GetExitCode(pipelineError("seed failed", vErr)))

	sErr := &core.StoreError{Table: "motions", Op: "upsert", Err: errors.New("connection refused")}
	assert.Equal(t, ExitCommandError, GetExitCode(pipelineError("seed failed", sErr)))

	// The core error stays reachable for message mapping.
	assert.Equal(t, "DB004", core.MapError(pipelineError("seed failed", sErr)).Code)
}

func TestExitError_Message(t *testing.T) {
	assert.Equal(t, "parity failed", NewExitError(ExitFailure, "parity failed").Error())
	assert.Equal(t, "open: disk full", WrapExitError(ExitCommandError, "open", errors.New("disk full")).Error())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("stdout closed")
}

func TestReportFailure(t *testing.T) {
	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(logging.New(&logs, "info", "text"))
	t.Cleanup(func() { slog.SetDefault(prev) })

	t.Run("writes envelope", func(t *testing.T) {
		var out bytes.Buffer
		reportFailure(&out, fmt.Errorf("seed: %w", core.ErrUnknownTable), nil)

		var resp CLIResponse
		require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
		assert.Equal(t, "error", resp.Status)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "CFG002", resp.Error.Code)
		assert.Empty(t, logs.String())
	})

	t.Run("logs write errors", func(t *testing.T) {
		reportFailure(failingWriter{}, errors.New("boom"), nil)
		assert.Contains(t, logs.String(), "json output write failed")
		assert.Contains(t, logs.String(), "stdout closed")
	})
}
