// Package postgres implements the reference data store on PostgreSQL using
// a pgx connection pool.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/refsync/internal/core"
)

// PoolConfig holds connection pool settings.
type PoolConfig struct {
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Store is a core.Store backed by a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

// New wraps an existing pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Connect opens a pool for url and verifies it with a ping.
func Connect(ctx context.Context, url string, cfg PoolConfig) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Begin implements core.Store.
func (s *Store) Begin(ctx context.Context) (core.Tx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// ReadActive implements core.Store.
func (s *Store) ReadActive(ctx context.Context, desc core.TableDescriptor) ([]core.Row, error) {
	rows, err := s.pool.Query(ctx, SelectActiveSQL(desc))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", desc.TargetTable, err)
	}
	defer rows.Close()

	var out []core.Row
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan %s: %w", desc.TargetTable, err)
		}
		var row core.Row
		if err := json.Unmarshal(raw, &row); err != nil {
			return nil, fmt.Errorf("decode %s row: %w", desc.TargetTable, err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", desc.TargetTable, err)
	}
	return out, nil
}

// Versions implements core.Store.
func (s *Store) Versions(ctx context.Context, targets []string) (map[string]int64, error) {
	out := make(map[string]int64, len(targets))
	rows, err := s.pool.Query(ctx, versionsSQL, targets)
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

// Tx is a core.Tx over a pgx transaction.
type Tx struct {
	tx pgx.Tx
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
		args = append(args, v)
	}
	args = append(args, provenance)

	_, err := t.tx.Exec(ctx, UpsertSQL(desc), args...)
	return err
}

// Deprecate implements core.Tx.
func (t *Tx) Deprecate(ctx context.Context, desc core.TableDescriptor, keepIDs []string, provenance string) (int64, error) {
	if keepIDs == nil {
		keepIDs = []string{}
	}
	tag, err := t.tx.Exec(ctx, DeprecateSQL(desc), provenance, keepIDs)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// BumpVersion implements core.Tx.
func (t *Tx) BumpVersion(ctx context.Context, target string) error {
	_, err := t.tx.Exec(ctx, bumpVersionSQL, target)
	return err
}

// Commit implements core.Tx.
func (t *Tx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

// Rollback implements core.Tx. Rolling back a finished transaction is a
// no-op.
func (t *Tx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return err
	}
	return nil
}
