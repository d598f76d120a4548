package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gosuri/uiprogress"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/refsync/internal/core"
	"github.com/JonMunkholm/refsync/internal/logging"
	"github.com/JonMunkholm/refsync/internal/source"
)

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	var dryRun, progress bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Apply every source file to the store in one transaction",
		Long: `Load and validate every registered table, then upsert all of them in
tier order inside a single transaction. Rows that disappeared from a source
file are soft-deleted. Any validation error aborts before the store is touched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, rootOpts, dryRun, progress)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate only, write nothing")
	cmd.Flags().BoolVar(&progress, "progress", false, "show a progress bar")

	return cmd
}

func runSeed(cmd *cobra.Command, opts *RootOptions, dryRun, progress bool) error {
	cfg := opts.cfg
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Sync.SeedTimeout)
	defer cancel()

	var store core.Store
	if !dryRun {
		s, closeStore, err := openStore(ctx, cfg, opts.registry)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open store", err)
		}
		defer closeStore()
		store = s
	}

	seedCfg := core.SeedConfig{Provenance: cfg.Sync.Provenance, DryRun: dryRun}

	var bar *uiprogress.Bar
	if progress && !dryRun && opts.Format == "text" {
		uiprogress.Start()
		bar = uiprogress.AddBar(opts.registry.Len()).AppendCompleted().PrependElapsed()
		bar.PrependFunc(func(b *uiprogress.Bar) string {
			return "Seeding: "
		})
		seedCfg.OnTable = func(core.TableResult) { bar.Incr() }
	}

	seeder := core.NewSeeder(opts.registry, source.New(cfg.Source.DataDir), store, seedCfg)
	result, err := seeder.Run(ctx)

	if bar != nil {
		uiprogress.Stop()
	}

	w := cmd.OutOrStdout()
	if err != nil {
		if opts.Format == "json" {
			reportFailure(w, err, issuesOf(err))
		} else {
			var vErr *core.ValidationFailedError
			if errors.As(err, &vErr) {
				fmt.Fprintln(w, "Validation failed, store untouched:")
				writeIssues(w, vErr.Issues)
			}
		}
		return pipelineError("seed failed", err)
	}

	logging.WithFields(ctx, "run_id", result.RunID).Debug("seed summary written",
		"tables", len(result.Tables), "rows", result.TotalRows(), "format", opts.Format)

	if opts.Format == "json" {
		return writeOK(w, result)
	}
	WriteSeedSummary(w, result)
	return nil
}

func issuesOf(err error) []core.ValidationIssue {
	var vErr *core.ValidationFailedError
	if errors.As(err, &vErr) {
		return vErr.Issues
	}
	return nil
}

// WriteSeedSummary prints the per-table outcome of a seed run followed by
// any warnings and the totals.
func WriteSeedSummary(w io.Writer, r core.SeedRunResult) {
	header := "Seed run " + r.RunID
	if r.DryRun {
		header += " (dry run)"
	}
	fmt.Fprintln(w, header)

	for _, t := range r.Tables {
		if t.Skipped {
			fmt.Fprintf(w, "  %-22s skipped (%s)\n", t.Key, t.SkipReason)
			continue
		}
		fmt.Fprintf(w, "  %-22s %5d rows  %4d deprecated  version %d\n",
			t.Key, t.Rows, t.Deprecated, t.Version)
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintf(w, "\n%d warning(s):\n", len(r.Warnings))
		writeIssues(w, r.Warnings)
	}

	fmt.Fprintf(w, "\n%d rows across %d tables, %d deprecated (%s)\n",
		r.TotalRows(), len(r.Tables), r.TotalDeprecated(), r.Elapsed.Round(time.Millisecond))
}
