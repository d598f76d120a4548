package core

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
	"testing"
)

// memLoader serves rows from memory, keyed by table key.
type memLoader struct {
	rows map[string][]Row
	errs map[string]error
}

func (l *memLoader) Load(_ context.Context, desc TableDescriptor) ([]Row, error) {
	if err := l.errs[desc.Key]; err != nil {
		return nil, err
	}
	return slices.Clone(l.rows[desc.Key]), nil
}

type storedRow struct {
	fields Row
	active bool
	source string
}

// memStore is an in-memory Store that records every call. Writes become
// visible only on commit.
type memStore struct {
	mu       sync.Mutex
	tables   map[string]map[string]*storedRow
	versions map[string]int64

	begins, commits, rollbacks int
	upserts                    []string // "target/id" in call order
	deprecates                 int

	// failUpsert fails the upsert of the given "target/id".
	failUpsert map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		tables:     make(map[string]map[string]*storedRow),
		versions:   make(map[string]int64),
		failUpsert: make(map[string]error),
	}
}

func (s *memStore) writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.upserts) + s.deprecates
}

func (s *memStore) Begin(context.Context) (Tx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.begins++
	return &memTx{store: s, tables: cloneTables(s.tables), versions: maps.Clone(s.versions)}, nil
}

func (s *memStore) ReadActive(_ context.Context, desc TableDescriptor) ([]Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Row
	for _, r := range s.tables[desc.TargetTable] {
		if r.active {
			out = append(out, maps.Clone(r.fields))
		}
	}
	return out, nil
}

func (s *memStore) Versions(_ context.Context, targets []string) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int64)
	for _, t := range targets {
		if v, ok := s.versions[t]; ok {
			out[t] = v
		}
	}
	return out, nil
}

// row returns the stored row regardless of its active flag.
func (s *memStore) row(target, id string) (*storedRow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.tables[target][id]
	return r, ok
}

func cloneTables(in map[string]map[string]*storedRow) map[string]map[string]*storedRow {
	out := make(map[string]map[string]*storedRow, len(in))
	for t, rows := range in {
		out[t] = make(map[string]*storedRow, len(rows))
		for id, r := range rows {
			cp := *r
			cp.fields = maps.Clone(r.fields)
			out[t][id] = &cp
		}
	}
	return out
}

type memTx struct {
	store    *memStore
	tables   map[string]map[string]*storedRow
	versions map[string]int64
	done     bool
}

var errTxDone = errors.New("transaction already closed")

func (t *memTx) Upsert(_ context.Context, desc TableDescriptor, row Row, provenance string) error {
	if t.done {
		return errTxDone
	}
	id, _ := row["id"].(string)
	key := desc.TargetTable + "/" + id

	t.store.mu.Lock()
	t.store.upserts = append(t.store.upserts, key)
	failErr := t.store.failUpsert[key]
	t.store.mu.Unlock()
	if failErr != nil {
		return failErr
	}

	fields := Row{"id": id}
	for _, c := range desc.Columns {
		if v, ok := row[c.Name]; ok {
			fields[c.Name] = v
		}
	}
	if t.tables[desc.TargetTable] == nil {
		t.tables[desc.TargetTable] = make(map[string]*storedRow)
	}
	t.tables[desc.TargetTable][id] = &storedRow{fields: fields, active: true, source: provenance}
	return nil
}

func (t *memTx) Deprecate(_ context.Context, desc TableDescriptor, keepIDs []string, provenance string) (int64, error) {
	if t.done {
		return 0, errTxDone
	}
	t.store.mu.Lock()
	t.store.deprecates++
	t.store.mu.Unlock()

	var n int64
	for id, r := range t.tables[desc.TargetTable] {
		if r.source == provenance && r.active && !slices.Contains(keepIDs, id) {
			r.active = false
			n++
		}
	}
	return n, nil
}

func (t *memTx) BumpVersion(_ context.Context, target string) error {
	if t.done {
		return errTxDone
	}
	t.versions[target]++
	return nil
}

func (t *memTx) Commit(context.Context) error {
	if t.done {
		return errTxDone
	}
	t.done = true
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	t.store.commits++
	t.store.tables = t.tables
	t.store.versions = t.versions
	return nil
}

func (t *memTx) Rollback(context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	t.store.rollbacks++
	return nil
}

// testRegistry builds the three-table registry used across pipeline tests.
func testRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := NewRegistry(
		TableDescriptor{
			Key: "categories", SourceFile: "categories.json", TargetTable: "categories", Tier: 0,
			Columns: []Column{TextCol("label"), NumberCol("sort_order")},
		},
		TableDescriptor{
			Key: "motions", SourceFile: "motions.json", TargetTable: "motions", Tier: 1,
			SelfRefColumn: "parent_id",
			Columns:       []Column{TextCol("label"), TextCol("parent_id"), TextArrayCol("common_names")},
		},
		TableDescriptor{
			Key: "equipment", SourceFile: "equipment.json", TargetTable: "equipment", Tier: 3,
			ForeignKeys: []ForeignKey{{Column: "category_id", RefTable: "categories"}},
			Columns:     []Column{TextCol("label"), TextCol("category_id"), NumberCol("weight")},
		},
	)
	if err != nil {
		t.Fatalf("NewRegistry() failed: %v", err)
	}
	return reg
}

func validSource() map[string][]Row {
	return map[string][]Row{
		"categories": {
			{"id": "BARBELL", "label": "Barbell", "sort_order": float64(1)},
			{"id": "MACHINE", "label": "Machine", "sort_order": float64(2)},
		},
		"motions": {
			{"id": "INCLINE_PRESS", "label": "Incline Press", "parent_id": "PRESS"},
			{"id": "PRESS", "label": "Press", "parent_id": nil, "common_names": []any{"Push", "Bench"}},
		},
		"equipment": {
			{"id": "OLYMPIC_BAR", "label": "Olympic Bar", "category_id": "BARBELL", "weight": float64(20)},
		},
	}
}
