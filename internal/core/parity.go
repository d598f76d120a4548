package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// ParityConfig controls a Parity run.
type ParityConfig struct {
	Format FormatOptions
	Tables []string // Table keys to check; all tables when empty
}

// ParityReport is the outcome of one parity run.
type ParityReport struct {
	Diffs   []TableDiff       `json:"diffs"`
	Errors  map[string]string `json:"errors,omitempty"` // Tables that could not be compared
	Passed  int               `json:"passed"`
	Failed  int               `json:"failed"`
	Elapsed time.Duration     `json:"elapsed"`
}

// OK reports whether every checked table matched.
func (r ParityReport) OK() bool {
	return r.Failed == 0
}

// Parity compares the source files against the active store rows. It never
// writes to the store.
type Parity struct {
	reg    *Registry
	loader SourceLoader
	store  Store
	cfg    ParityConfig
}

// NewParity creates a Parity harness.
func NewParity(reg *Registry, loader SourceLoader, store Store, cfg ParityConfig) *Parity {
	return &Parity{reg: reg, loader: loader, store: store, cfg: cfg}
}

// Run checks every selected table in tier order and writes the per-table
// result and a summary to w. A table that cannot be read counts as failed and
// the run continues. Run returns an error only for an unknown table filter.
func (p *Parity) Run(ctx context.Context, w io.Writer) (ParityReport, error) {
	start := time.Now()
	var report ParityReport

	tables, err := p.selected()
	if err != nil {
		return report, err
	}

	for _, desc := range tables {
		diff, err := p.checkTable(ctx, desc)
		if err != nil {
			slog.Error("parity check failed", "table", desc.Key, "error", err)
			if report.Errors == nil {
				report.Errors = make(map[string]string)
			}
			report.Errors[desc.Key] = err.Error()
			report.Failed++
			fmt.Fprintf(w, "ERROR %s: %v\n", desc.Key, err)
			continue
		}

		report.Diffs = append(report.Diffs, diff)
		if diff.Match {
			report.Passed++
		} else {
			report.Failed++
		}
		fmt.Fprint(w, FormatDiff(diff, p.cfg.Format))
	}

	report.Elapsed = time.Since(start)
	fmt.Fprintf(w, "\n%d passed, %d failed (%s)\n", report.Passed, report.Failed, report.Elapsed.Round(time.Millisecond))
	return report, nil
}

func (p *Parity) selected() ([]TableDescriptor, error) {
	all := p.reg.ForEachInTierOrder()
	if len(p.cfg.Tables) == 0 {
		return all, nil
	}
	want := make(map[string]bool, len(p.cfg.Tables))
	for _, key := range p.cfg.Tables {
		if _, ok := p.reg.Get(key); !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTable, key)
		}
		want[key] = true
	}
	var out []TableDescriptor
	for _, desc := range all {
		if want[desc.Key] {
			out = append(out, desc)
		}
	}
	return out, nil
}

func (p *Parity) checkTable(ctx context.Context, desc TableDescriptor) (TableDiff, error) {
	if !desc.Wired() {
		return TableDiff{}, &ConfigError{Table: desc.Key, Reason: "no declared columns", Err: ErrNotWired}
	}
	source, err := p.loader.Load(ctx, desc)
	if err != nil {
		return TableDiff{}, &SourceError{Table: desc.Key, Err: err}
	}
	stored, err := p.store.ReadActive(ctx, desc)
	if err != nil {
		return TableDiff{}, &StoreError{Table: desc.Key, Op: "read", Err: err}
	}

	expected := NormalizeTable(ProjectColumns(source, desc), desc.IsKeyValueMap)
	actual := NormalizeTable(stored, desc.IsKeyValueMap)
	return CompareTables(desc.Key, expected, actual), nil
}

// ProjectColumns keeps only the id and the declared columns of each row, the
// fields the store can hold.
func ProjectColumns(rows []Row, desc TableDescriptor) []Row {
	out := make([]Row, len(rows))
	for i, row := range rows {
		p := make(Row, len(desc.Columns)+1)
		if id, ok := row["id"]; ok {
			p["id"] = id
		}
		for _, col := range desc.Columns {
			if v, ok := row[col.Name]; ok {
				p[col.Name] = v
			}
		}
		out[i] = p
	}
	return out
}
