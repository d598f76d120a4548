package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/refsync/internal/core"
	"github.com/JonMunkholm/refsync/internal/source"
)

// NewParityCommand creates the parity command.
func NewParityCommand(rootOpts *RootOptions) *cobra.Command {
	var tableKeys []string

	cmd := &cobra.Command{
		Use:   "parity",
		Short: "Prove the store matches the source files",
		Long: `Normalize the source files and the active store rows and compare them
table by table. Nothing is written. Exits 1 if any table differs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParity(cmd, rootOpts, tableKeys)
		},
	}

	cmd.Flags().StringSliceVarP(&tableKeys, "table", "t", nil, "restrict the check to these tables")

	return cmd
}

func runParity(cmd *cobra.Command, opts *RootOptions, tableKeys []string) error {
	cfg := opts.cfg
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Sync.SeedTimeout)
	defer cancel()

	store, closeStore, err := openStore(ctx, cfg, opts.registry)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open store", err)
	}
	defer closeStore()

	parity := core.NewParity(opts.registry, source.New(cfg.Source.DataDir), store, core.ParityConfig{
		Format: core.FormatOptions{MaxRows: cfg.Diff.MaxRows, MaxFields: cfg.Diff.MaxFields},
		Tables: tableKeys,
	})

	w := cmd.OutOrStdout()
	text := w
	if opts.Format == "json" {
		text = io.Discard
	}

	result, err := parity.Run(ctx, text)
	if err != nil {
		return WrapExitError(ExitCommandError, "parity could not run", err)
	}

	if opts.Format == "json" {
		if err := writeOK(w, result); err != nil {
			return err
		}
	}
	if !result.OK() {
		return NewExitError(ExitFailure, fmt.Sprintf("parity failed for %d table(s)", result.Failed))
	}
	return nil
}
