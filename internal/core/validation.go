package core

// validation.go provides the pre-flight check run on loaded source rows
// before anything is written to the store.
//
// Checks, per table in tier order:
//  1. Key-value tables: every entry has a non-empty string id. Entries whose
//     id is a foreign key to a loaded table must point at an existing row,
//     otherwise a warning is raised.
//  2. Record tables: every row has a non-empty string id, and ids are unique.
//     Only the second and later occurrences of an id are flagged.
//  3. The self-reference column, when set, names an id of the same table.
//  4. Every foreign key names an id of the referenced table. A referenced
//     table with no loaded rows is skipped so partial data sets validate.
//  5. Every declared column holds a value the store can return unchanged
//     (see CheckColumn).
//
// Validate never fails; it only reports.

import (
	"fmt"
	"strings"
)

// Validate checks rows (keyed by table key) against reg and returns every
// issue found. Tables absent from rows are treated as empty.
func Validate(reg *Registry, rows map[string][]Row) []ValidationIssue {
	ids := collectIDs(reg, rows)

	var issues []ValidationIssue
	for _, desc := range reg.ForEachInTierOrder() {
		tableRows := rows[desc.Key]
		issues = append(issues, validateColumns(desc, tableRows)...)
		if desc.IsKeyValueMap {
			issues = append(issues, validateKeyValue(reg, desc, tableRows, rows, ids)...)
			continue
		}
		issues = append(issues, validateRecords(reg, desc, tableRows, rows, ids)...)
	}
	return issues
}

// HasErrors reports whether any issue has error severity.
func HasErrors(issues []ValidationIssue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// CountBySeverity returns the number of errors and warnings in issues.
func CountBySeverity(issues []ValidationIssue) (errs, warnings int) {
	for _, i := range issues {
		switch i.Severity {
		case SeverityError:
			errs++
		case SeverityWarning:
			warnings++
		}
	}
	return errs, warnings
}

// Errors returns only the error-severity issues.
func Errors(issues []ValidationIssue) []ValidationIssue {
	var out []ValidationIssue
	for _, i := range issues {
		if i.Severity == SeverityError {
			out = append(out, i)
		}
	}
	return out
}

// Warnings returns only the warning-severity issues.
func Warnings(issues []ValidationIssue) []ValidationIssue {
	var out []ValidationIssue
	for _, i := range issues {
		if i.Severity == SeverityWarning {
			out = append(out, i)
		}
	}
	return out
}

func collectIDs(reg *Registry, rows map[string][]Row) map[string]map[string]struct{} {
	ids := make(map[string]map[string]struct{}, reg.Len())
	for _, desc := range reg.ForEachInTierOrder() {
		set := make(map[string]struct{}, len(rows[desc.Key]))
		for _, row := range rows[desc.Key] {
			if id, ok := rowID(row); ok {
				set[id] = struct{}{}
			}
		}
		ids[desc.Key] = set
	}
	return ids
}

func validateKeyValue(reg *Registry, desc TableDescriptor, tableRows []Row, rows map[string][]Row, ids map[string]map[string]struct{}) []ValidationIssue {
	var issues []ValidationIssue
	for i, row := range tableRows {
		id, ok := rowID(row)
		if !ok {
			issues = append(issues, issueAt(desc.Key, i, "id", "missing or empty id", SeverityError))
			continue
		}
		for _, fk := range desc.ForeignKeys {
			if fk.Column != "id" {
				continue
			}
			ref, found := reg.FindByTargetTable(fk.RefTable)
			if !found || len(rows[ref.Key]) == 0 {
				continue
			}
			if _, exists := ids[ref.Key][id]; !exists {
				issues = append(issues, issueAt(desc.Key, i, "id",
					fmt.Sprintf("orphaned entry: %q not found in %s", id, fk.RefTable), SeverityWarning))
			}
		}
	}
	return issues
}

func validateRecords(reg *Registry, desc TableDescriptor, tableRows []Row, rows map[string][]Row, ids map[string]map[string]struct{}) []ValidationIssue {
	var issues []ValidationIssue
	seen := make(map[string]struct{}, len(tableRows))

	for i, row := range tableRows {
		id, ok := rowID(row)
		if !ok {
			issues = append(issues, issueAt(desc.Key, i, "id", "missing or empty id", SeverityError))
		} else if _, dup := seen[id]; dup {
			issues = append(issues, issueAt(desc.Key, i, "id",
				fmt.Sprintf("duplicate id %q", id), SeverityError))
		} else {
			seen[id] = struct{}{}
		}

		if desc.SelfRefColumn != "" {
			if parent, set := refValue(ToValue(row[desc.SelfRefColumn])); set {
				if _, exists := ids[desc.Key][parent]; !exists {
					issues = append(issues, issueAt(desc.Key, i, desc.SelfRefColumn,
						fmt.Sprintf("references unknown %s id %q", desc.TargetTable, parent), SeverityError))
				}
			}
		}

		for _, fk := range desc.ForeignKeys {
			ref, found := reg.FindByTargetTable(fk.RefTable)
			if !found || len(rows[ref.Key]) == 0 {
				continue
			}
			for _, target := range refValues(row[fk.Column]) {
				if _, exists := ids[ref.Key][target]; !exists {
					issues = append(issues, issueAt(desc.Key, i, fk.Column,
						fmt.Sprintf("references unknown %s id %q", fk.RefTable, target), SeverityError))
				}
			}
		}
	}
	return issues
}

func validateColumns(desc TableDescriptor, tableRows []Row) []ValidationIssue {
	var issues []ValidationIssue
	for i, row := range tableRows {
		for _, col := range desc.Columns {
			raw, ok := row[col.Name]
			if !ok {
				continue
			}
			if err := CheckColumn(col, raw); err != nil {
				issues = append(issues, issueAt(desc.Key, i, col.Name,
					fmt.Sprintf("%s column: %v", col.Type, err), SeverityError))
			}
		}
	}
	return issues
}

func issueAt(table string, row int, field, msg string, sev Severity) ValidationIssue {
	return ValidationIssue{Table: table, Row: &row, Field: field, Message: msg, Severity: sev}
}

// rowID returns the row's id when it is a non-empty string.
func rowID(row Row) (string, bool) {
	id, ok := row["id"].(string)
	if !ok || strings.TrimSpace(id) == "" {
		return "", false
	}
	return id, true
}

// refValue returns a single reference value, treating null, "" and "null" as
// unset.
func refValue(v Value) (string, bool) {
	switch val := v.(type) {
	case nil, Null:
		return "", false
	case String:
		s := strings.TrimSpace(string(val))
		if s == "" || s == "null" {
			return "", false
		}
		return s, true
	default:
		return Encode(val), true
	}
}

// refValues expands a possibly list-valued reference field.
func refValues(raw any) []string {
	v := ToValue(raw)
	list, ok := v.(List)
	if !ok {
		if s, set := refValue(v); set {
			return []string{s}
		}
		return nil
	}
	var out []string
	for _, elem := range list {
		if s, set := refValue(elem); set {
			out = append(out, s)
		}
	}
	return out
}
