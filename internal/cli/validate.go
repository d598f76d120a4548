package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/refsync/internal/core"
	"github.com/JonMunkholm/refsync/internal/source"
)

// ValidationResult is the JSON payload of the validate command.
type ValidationResult struct {
	Valid  bool                   `json:"valid"`
	Errors int                    `json:"errors"`
	Issues []core.ValidationIssue `json:"issues,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the source files without touching the store",
		Long: `Load every registered table and report missing or duplicate ids and
references to ids that do not exist. Exits 1 if any error is found; warnings
alone do not fail.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, rootOpts)
		},
	}
	return cmd
}

func runValidate(cmd *cobra.Command, opts *RootOptions) error {
	loader := source.New(opts.cfg.Source.DataDir)
	rows, err := core.LoadAll(cmd.Context(), loader, opts.registry.ForEachInTierOrder())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load source files", err)
	}

	issues := core.Validate(opts.registry, rows)
	errCount, warnCount := core.CountBySeverity(issues)
	w := cmd.OutOrStdout()

	if opts.Format == "json" {
		if err := writeOK(w, ValidationResult{Valid: errCount == 0, Errors: errCount, Issues: issues}); err != nil {
			return err
		}
	} else {
		if errCount == 0 {
			fmt.Fprintf(w, "✓ %d tables valid", opts.registry.Len())
		} else {
			fmt.Fprint(w, "✗ Validation failed")
		}
		fmt.Fprintf(w, " (%d error(s), %d warning(s))\n", errCount, warnCount)
		writeIssues(w, issues)
	}

	if errCount > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", errCount))
	}
	return nil
}
