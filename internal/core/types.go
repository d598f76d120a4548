package core

import (
	"fmt"
	"time"
)

// Row is an untyped record as decoded from a source file or read back from
// the store. Key-value tables are reshaped to {"id": key, "value": v}.
type Row = map[string]any

// ForeignKey declares a cross-table reference from Column to the table whose
// target name is RefTable.
type ForeignKey struct {
	Column   string
	RefTable string
}

// TableDescriptor describes one synchronized reference table.
type TableDescriptor struct {
	Key           string       // Logical key: "motions"
	SourceFile    string       // Path relative to the data directory: "motions.json"
	TargetTable   string       // Store table name
	Tier          int          // Dependency tier, 0..3
	IsKeyValueMap bool         // Source file is an object keyed by id
	SelfRefColumn string       // Column referencing another row of the same table
	ForeignKeys   []ForeignKey // Cross-table references
	Columns       []Column     // Declared upsert columns, id excluded
}

// Wired reports whether the table has a declared column set.
func (d TableDescriptor) Wired() bool {
	return len(d.Columns) > 0
}

// ColumnNames returns the declared column names in declaration order.
func (d TableDescriptor) ColumnNames() []string {
	names := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Name
	}
	return names
}

// HasColumn reports whether name is a declared column.
func (d TableDescriptor) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

// Severity classifies a validation issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// ValidationIssue is one problem found in the loaded source rows.
type ValidationIssue struct {
	Table    string   `json:"table"`
	Row      *int     `json:"row,omitempty"` // 0-based index in the source file
	Field    string   `json:"field,omitempty"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

func (i ValidationIssue) String() string {
	loc := i.Table
	if i.Row != nil {
		loc = fmt.Sprintf("%s[%d]", loc, *i.Row)
	}
	if i.Field != "" {
		loc = fmt.Sprintf("%s.%s", loc, i.Field)
	}
	return fmt.Sprintf("[%s] %s: %s", i.Severity, loc, i.Message)
}

// NormalizedRow is a canonicalized source or store row. The id is held
// separately and never appears in Fields.
type NormalizedRow struct {
	ID     string
	Fields map[string]Value
}

// TableResult is the outcome of applying one table.
type TableResult struct {
	Key         string `json:"key"`
	TargetTable string `json:"target_table"`
	Rows        int    `json:"rows"`
	Upserted    int    `json:"upserted"`
	Deprecated  int64  `json:"deprecated"`
	Skipped     bool   `json:"skipped,omitempty"`
	SkipReason  string `json:"skip_reason,omitempty"`
	Version     int64  `json:"version"`
}

// SeedRunResult summarizes one seed pipeline invocation.
type SeedRunResult struct {
	RunID    string            `json:"run_id"`
	DryRun   bool              `json:"dry_run,omitempty"`
	Tables   []TableResult     `json:"tables"`
	Warnings []ValidationIssue `json:"warnings,omitempty"`
	Elapsed  time.Duration     `json:"elapsed"`
}

// TotalRows returns the number of source rows across all tables.
func (r SeedRunResult) TotalRows() int {
	n := 0
	for _, t := range r.Tables {
		n += t.Rows
	}
	return n
}

// TotalDeprecated returns the number of rows deprecated across all tables.
func (r SeedRunResult) TotalDeprecated() int64 {
	var n int64
	for _, t := range r.Tables {
		n += t.Deprecated
	}
	return n
}
