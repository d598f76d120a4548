package core

import (
	"context"
	"log/slog"
	"sync"
)

// Syncer applies a single table after an edit to its source file. Each call
// runs in its own transaction and touches no other table.
//
// Calls for the same table key are serialized; calls for different keys run
// concurrently.
type Syncer struct {
	reg        *Registry
	loader     SourceLoader
	store      Store
	provenance string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewSyncer creates a Syncer. An empty provenance means DefaultProvenance.
func NewSyncer(reg *Registry, loader SourceLoader, store Store, provenance string) *Syncer {
	if provenance == "" {
		provenance = DefaultProvenance
	}
	return &Syncer{
		reg:        reg,
		loader:     loader,
		store:      store,
		provenance: provenance,
		locks:      make(map[string]*sync.Mutex),
	}
}

func (s *Syncer) lockFor(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}

// SyncTable re-applies the table registered under key.
//
// Unknown and unwired tables are logged and skipped without error so edits
// to tables outside the sync scope are never blocked. A table with no source
// rows is skipped rather than deprecated wholesale. Store failures roll back
// this table's transaction and are returned as *StoreError.
func (s *Syncer) SyncTable(ctx context.Context, key string) (TableResult, error) {
	logger := slog.With("table", key)

	desc, ok := s.reg.Get(key)
	if !ok {
		logger.Warn("sync skipped: table not registered")
		return TableResult{Key: key, Skipped: true, SkipReason: "not registered"}, nil
	}
	if !desc.Wired() {
		logger.Warn("sync skipped: table has no declared columns")
		return TableResult{Key: key, TargetTable: desc.TargetTable, Skipped: true, SkipReason: "not wired"}, nil
	}

	l := s.lockFor(key)
	l.Lock()
	defer l.Unlock()

	rows, err := s.loader.Load(ctx, desc)
	if err != nil {
		return TableResult{Key: key, TargetTable: desc.TargetTable}, &SourceError{Table: key, Err: err}
	}
	if len(rows) == 0 {
		logger.Info("sync skipped: no source rows")
		return TableResult{Key: key, TargetTable: desc.TargetTable, Skipped: true, SkipReason: "no source rows"}, nil
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return TableResult{Key: key, TargetTable: desc.TargetTable}, &StoreError{Table: key, Op: "begin", Err: err}
	}

	result, err := ApplyTable(ctx, tx, desc, rows, s.provenance)
	if err != nil {
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			logger.Error("rollback failed", "error", rbErr)
		}
		logger.Error("sync failed", "error", err)
		return result, err
	}

	if err := tx.Commit(ctx); err != nil {
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			logger.Error("rollback failed", "error", rbErr)
		}
		return result, &StoreError{Table: key, Op: "commit", Err: err}
	}

	if versions, err := s.store.Versions(ctx, []string{desc.TargetTable}); err == nil {
		result.Version = versions[desc.TargetTable]
	}

	logger.Info("table synced",
		"rows", result.Rows,
		"deprecated", result.Deprecated,
		"version", result.Version,
	)
	return result, nil
}
