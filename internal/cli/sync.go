package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/refsync/internal/core"
	"github.com/JonMunkholm/refsync/internal/source"
)

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync <table>...",
		Short: "Re-apply individual tables after editing their source files",
		Long: `Apply each named table in its own transaction. Tables are synced in the
order given; a failure stops the command but leaves already-synced tables
committed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, rootOpts, args)
		},
	}
	return cmd
}

func runSync(cmd *cobra.Command, opts *RootOptions, keys []string) error {
	for _, key := range keys {
		if _, ok := opts.registry.Get(key); !ok {
			return WrapExitError(ExitCommandError, "cannot sync",
				fmt.Errorf("%w: %s", core.ErrUnknownTable, key))
		}
	}

	cfg := opts.cfg
	store, closeStore, err := openStore(cmd.Context(), cfg, opts.registry)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open store", err)
	}
	defer closeStore()

	syncer := core.NewSyncer(opts.registry, source.New(cfg.Source.DataDir), store, cfg.Sync.Provenance)
	w := cmd.OutOrStdout()

	var results []core.TableResult
	for _, key := range keys {
		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Sync.SyncTimeout)
		result, err := syncer.SyncTable(ctx, key)
		cancel()
		if err != nil {
			if opts.Format == "json" {
				reportFailure(w, err, results)
			}
			return pipelineError("sync "+key+" failed", err)
		}
		results = append(results, result)

		if opts.Format == "text" {
			if result.Skipped {
				fmt.Fprintf(w, "skipped %s (%s)\n", key, result.SkipReason)
			} else {
				fmt.Fprintf(w, "synced %s: %d rows, %d deprecated (version %d)\n",
					key, result.Rows, result.Deprecated, result.Version)
			}
		}
	}

	if opts.Format == "json" {
		return writeOK(w, results)
	}
	return nil
}
