// Package sqlite implements the reference data store on SQLite. It backs
// local development and the pipeline tests.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/JonMunkholm/refsync/internal/core"
)

//go:embed schema.sql
var schemaSQL string

// Store is a core.Store backed by a SQLite database.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path and applies the pragmas and
// the version table schema. It is idempotent.
//
// The database is configured with:
//   - WAL mode for reads during writes
//   - NORMAL synchronous mode
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to execute schema: %w", err)
	}

	return &Store{db: db}, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Bootstrap creates every table of reg that does not exist yet. It is meant
// for local stores and tests; it never alters an existing table.
func (s *Store) Bootstrap(ctx context.Context, reg *core.Registry) error {
	for _, desc := range reg.ForEachInTierOrder() {
		if _, err := s.db.ExecContext(ctx, CreateTableSQL(desc)); err != nil {
			return fmt.Errorf("create %s: %w", desc.TargetTable, err)
		}
	}
	return nil
}

// Begin implements core.Store.
func (s *Store) Begin(ctx context.Context) (core.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// ReadActive implements core.Store.
func (s *Store) ReadActive(ctx context.Context, desc core.TableDescriptor) ([]core.Row, error) {
	rows, err := s.db.QueryContext(ctx, SelectActiveSQL(desc))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", desc.TargetTable, err)
	}
	defer rows.Close()

	var out []core.Row
	for rows.Next() {
		dest := make([]any, len(desc.Columns)+1)
		ptrs := make([]any, len(dest))
		for i := range dest {
			ptrs[i] = &dest[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", desc.TargetTable, err)
		}

		row := core.Row{"id": asString(dest[0])}
		for i, col := range desc.Columns {
			row[col.Name] = fromColumn(col, dest[i+1])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", desc.TargetTable, err)
	}
	return out, nil
}

// ReadAll returns every row of desc including inactive ones, with is_active
// and source. Used to inspect soft-deleted rows.
func (s *Store) ReadAll(ctx context.Context, desc core.TableDescriptor) ([]core.Row, error) {
	query := fmt.Sprintf(`SELECT %s, "is_active", "source" FROM %s ORDER BY "id"`,
		selectList(desc), quote(desc.TargetTable))
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", desc.TargetTable, err)
	}
	defer rows.Close()

	var out []core.Row
	for rows.Next() {
		dest := make([]any, len(desc.Columns)+3)
		ptrs := make([]any, len(dest))
		for i := range dest {
			ptrs[i] = &dest[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", desc.TargetTable, err)
		}
		row := core.Row{"id": asString(dest[0])}
		for i, col := range desc.Columns {
			row[col.Name] = fromColumn(col, dest[i+1])
		}
		n := len(desc.Columns)
		row["is_active"] = fromColumn(core.BoolCol("is_active"), dest[n+1])
		row["source"] = asString(dest[n+2])
		out = append(out, row)
	}
	return out, rows.Err()
}

// Versions implements core.Store.
func (s *Store) Versions(ctx context.Context, targets []string) (map[string]int64, error) {
	out := make(map[string]int64, len(targets))
	if len(targets) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(targets)), ",")
	args := make([]any, len(targets))
	for i, t := range targets {
		args[i] = t
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT table_name, version_seq FROM reference_data_versions WHERE table_name IN (`+placeholders+`)`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("read versions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var seq int64
		if err := rows.Scan(&name, &seq); err != nil {
			return nil, fmt.Errorf("scan versions: %w", err)
		}
		out[name] = seq
	}
	return out, rows.Err()
}

// Tx is a core.Tx over a SQLite transaction.
type Tx struct {
	tx *sql.Tx
}

// Upsert implements core.Tx.
func (t *Tx) Upsert(ctx context.Context, desc core.TableDescriptor, row core.Row, provenance string) error {
	args := make([]any, 0, len(desc.Columns)+2)
	args = append(args, row["id"])
	for _, col := range desc.Columns {
		v, err := core.ColumnValue(col, row[col.Name])
		if err != nil {
			return err
		}
		v, err = toColumn(col, v)
		if err != nil {
			return err
		}
		args = append(args, v)
	}
	args = append(args, provenance)

	_, err := t.tx.ExecContext(ctx, UpsertSQL(desc), args...)
	return err
}

// Deprecate implements core.Tx.
func (t *Tx) Deprecate(ctx context.Context, desc core.TableDescriptor, keepIDs []string, provenance string) (int64, error) {
	if keepIDs == nil {
		keepIDs = []string{}
	}
	ids, err := marshalJSON(keepIDs)
	if err != nil {
		return 0, err
	}
	res, err := t.tx.ExecContext(ctx, DeprecateSQL(desc), provenance, ids)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// BumpVersion implements core.Tx.
func (t *Tx) BumpVersion(ctx context.Context, target string) error {
	_, err := t.tx.ExecContext(ctx, bumpVersionSQL, target)
	return err
}

// Commit implements core.Tx.
func (t *Tx) Commit(ctx context.Context) error {
	return t.tx.Commit()
}

// Rollback implements core.Tx. Rolling back a finished transaction is a
// no-op.
func (t *Tx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}
