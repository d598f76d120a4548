package core

// seed.go implements the full seed pipeline.
//
// A run loads every registered table, validates the whole set and only then
// opens a single transaction covering all tables. Either every table is
// applied and committed, or the transaction is rolled back and nothing
// changes. Validation failures never reach the store.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// DefaultProvenance tags rows written by the seed pipeline and sync.
const DefaultProvenance = "seed"

// SeedConfig controls a Seeder.
type SeedConfig struct {
	Provenance string // Provenance tag; DefaultProvenance when empty
	DryRun     bool   // Stop after validation

	// OnTable, if set, is called after each table is applied or skipped.
	OnTable func(TableResult)
}

// Seeder runs the full seed pipeline.
type Seeder struct {
	reg    *Registry
	loader SourceLoader
	store  Store
	cfg    SeedConfig
}

// NewSeeder creates a Seeder.
func NewSeeder(reg *Registry, loader SourceLoader, store Store, cfg SeedConfig) *Seeder {
	if cfg.Provenance == "" {
		cfg.Provenance = DefaultProvenance
	}
	return &Seeder{reg: reg, loader: loader, store: store, cfg: cfg}
}

// Run executes one seed. It returns a *ConfigError for unwired tables, a
// *SourceError for unreadable files, a *ValidationFailedError when the source
// has errors, and a *StoreError after rolling back a failed transaction.
func (s *Seeder) Run(ctx context.Context) (SeedRunResult, error) {
	start := time.Now()
	result := SeedRunResult{RunID: uuid.NewString(), DryRun: s.cfg.DryRun}
	logger := slog.With("run_id", result.RunID, "provenance", s.cfg.Provenance)

	tables := s.reg.ForEachInTierOrder()
	for _, desc := range tables {
		if !desc.Wired() {
			return result, &ConfigError{Table: desc.Key, Reason: "no declared columns", Err: ErrNotWired}
		}
	}

	rows, err := LoadAll(ctx, s.loader, tables)
	if err != nil {
		return result, err
	}

	issues := Validate(s.reg, rows)
	result.Warnings = Warnings(issues)
	for _, w := range result.Warnings {
		logger.Warn("validation warning", "issue", w.String())
	}
	if HasErrors(issues) {
		errCount, _ := CountBySeverity(issues)
		logger.Error("validation failed, store untouched", "errors", errCount)
		result.Elapsed = time.Since(start)
		return result, &ValidationFailedError{Issues: issues}
	}

	if s.cfg.DryRun {
		for _, desc := range tables {
			result.Tables = append(result.Tables, TableResult{
				Key: desc.Key, TargetTable: desc.TargetTable, Rows: len(rows[desc.Key]),
				Skipped: true, SkipReason: "dry run",
			})
		}
		result.Elapsed = time.Since(start)
		logger.Info("dry run complete", "tables", len(tables), "rows", result.TotalRows())
		return result, nil
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return result, &StoreError{Op: "begin", Err: err}
	}

	for _, desc := range tables {
		tableRows := rows[desc.Key]
		if len(tableRows) == 0 {
			tr := TableResult{Key: desc.Key, TargetTable: desc.TargetTable, Skipped: true, SkipReason: "no source rows"}
			result.Tables = append(result.Tables, tr)
			s.notify(tr)
			logger.Debug("table skipped", "table", desc.Key, "reason", tr.SkipReason)
			continue
		}

		tr, err := ApplyTable(ctx, tx, desc, tableRows, s.cfg.Provenance)
		if err != nil {
			s.rollback(ctx, tx, logger)
			logger.Error("seed aborted", "table", desc.Key, "error", err)
			result.Elapsed = time.Since(start)
			return result, err
		}
		result.Tables = append(result.Tables, tr)
		s.notify(tr)
		logger.Info("table applied",
			"table", desc.Key,
			"rows", tr.Rows,
			"deprecated", tr.Deprecated,
		)
	}

	if err := tx.Commit(ctx); err != nil {
		s.rollback(ctx, tx, logger)
		result.Elapsed = time.Since(start)
		return result, &StoreError{Op: "commit", Err: err}
	}

	versions, err := s.store.Versions(ctx, s.reg.TargetTables())
	if err != nil {
		logger.Warn("could not read version sequences", "error", err)
	}
	for i := range result.Tables {
		result.Tables[i].Version = versions[result.Tables[i].TargetTable]
	}

	result.Elapsed = time.Since(start)
	logger.Info("seed complete",
		"tables", len(result.Tables),
		"rows", result.TotalRows(),
		"deprecated", result.TotalDeprecated(),
		"duration_ms", result.Elapsed.Milliseconds(),
	)
	return result, nil
}

func (s *Seeder) notify(tr TableResult) {
	if s.cfg.OnTable != nil {
		s.cfg.OnTable(tr)
	}
}

// rollback runs on a context detached from cancellation so a cancelled run
// still releases its transaction.
func (s *Seeder) rollback(ctx context.Context, tx Tx, logger *slog.Logger) {
	if err := tx.Rollback(context.WithoutCancel(ctx)); err != nil {
		logger.Error("rollback failed", "error", err)
	}
}

// LoadAll reads the source rows of every table in tables, keyed by table key.
func LoadAll(ctx context.Context, loader SourceLoader, tables []TableDescriptor) (map[string][]Row, error) {
	rows := make(map[string][]Row, len(tables))
	for _, desc := range tables {
		r, err := loader.Load(ctx, desc)
		if err != nil {
			var srcErr *SourceError
			if errors.As(err, &srcErr) {
				return nil, err
			}
			return nil, &SourceError{Table: desc.Key, Err: fmt.Errorf("load %s: %w", desc.SourceFile, err)}
		}
		rows[desc.Key] = r
	}
	return rows, nil
}
