package core

import "context"

// SourceLoader reads the current rows of one table from the source of truth.
// A missing source file yields an empty slice and a nil error.
type SourceLoader interface {
	Load(ctx context.Context, desc TableDescriptor) ([]Row, error)
}

// Store is the relational store holding the synchronized tables.
//
// Every target table has an id primary key, the declared columns, an
// is_active flag and a source provenance tag.
type Store interface {
	// Begin opens a transaction for writes.
	Begin(ctx context.Context) (Tx, error)
	// ReadActive returns the active rows of desc ordered by sort key.
	ReadActive(ctx context.Context, desc TableDescriptor) ([]Row, error)
	// Versions returns the version sequence for each target table. Tables
	// that were never written are absent from the map.
	Versions(ctx context.Context, targets []string) (map[string]int64, error)
}

// Tx is one store transaction.
type Tx interface {
	// Upsert inserts row or updates it in place by id, marks it active and
	// stamps it with provenance.
	Upsert(ctx context.Context, desc TableDescriptor, row Row, provenance string) error
	// Deprecate marks inactive every active row stamped with provenance whose
	// id is not in keepIDs, returning the number of rows changed.
	Deprecate(ctx context.Context, desc TableDescriptor, keepIDs []string, provenance string) (int64, error)
	// BumpVersion increments the version sequence of target.
	BumpVersion(ctx context.Context, target string) error
	Commit(ctx context.Context) error
	// Rollback aborts the transaction. It returns nil if the transaction was
	// already committed or rolled back.
	Rollback(ctx context.Context) error
}
