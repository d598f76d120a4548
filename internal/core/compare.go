package core

import (
	"math"
	"slices"
)

// NumberTolerance is the absolute difference below which two numbers are
// considered equal.
const NumberTolerance = 1e-4

// RowStatus classifies a divergent row.
type RowStatus string

const (
	StatusMissingInTarget RowStatus = "missing_in_target"
	StatusExtraInTarget   RowStatus = "extra_in_target"
	StatusFieldMismatch   RowStatus = "field_mismatch"
)

// FieldDiff is one field whose expected and actual values differ.
type FieldDiff struct {
	Field    string `json:"field"`
	Expected Value  `json:"expected"`
	Actual   Value  `json:"actual"`
}

// RowDiff describes one divergent row.
type RowDiff struct {
	ID     string      `json:"id"`
	Status RowStatus   `json:"status"`
	Fields []FieldDiff `json:"fields,omitempty"`
}

// TableDiff is the comparison result for one table.
type TableDiff struct {
	Table    string    `json:"table"`
	Match    bool      `json:"match"`
	Expected int       `json:"expected"`
	Actual   int       `json:"actual"`
	Rows     []RowDiff `json:"rows,omitempty"`
}

// CountByStatus returns how many row diffs have status s.
func (d TableDiff) CountByStatus(s RowStatus) int {
	n := 0
	for _, r := range d.Rows {
		if r.Status == s {
			n++
		}
	}
	return n
}

// CompareTables diffs the expected (source) rows against the actual (store)
// rows of one table. Missing rows are reported in expected order, extra rows
// in actual order.
func CompareTables(table string, expected, actual []NormalizedRow) TableDiff {
	diff := TableDiff{Table: table, Expected: len(expected), Actual: len(actual)}

	actualByID := make(map[string]NormalizedRow, len(actual))
	for _, r := range actual {
		actualByID[r.ID] = r
	}
	expectedIDs := make(map[string]struct{}, len(expected))

	for _, exp := range expected {
		expectedIDs[exp.ID] = struct{}{}
		act, ok := actualByID[exp.ID]
		if !ok {
			diff.Rows = append(diff.Rows, RowDiff{ID: exp.ID, Status: StatusMissingInTarget})
			continue
		}
		if fields := compareFields(exp.Fields, act.Fields); len(fields) > 0 {
			diff.Rows = append(diff.Rows, RowDiff{ID: exp.ID, Status: StatusFieldMismatch, Fields: fields})
		}
	}

	for _, act := range actual {
		if _, ok := expectedIDs[act.ID]; !ok {
			diff.Rows = append(diff.Rows, RowDiff{ID: act.ID, Status: StatusExtraInTarget})
		}
	}

	diff.Match = len(diff.Rows) == 0
	return diff
}

func compareFields(expected, actual map[string]Value) []FieldDiff {
	keys := make([]string, 0, len(expected)+len(actual))
	for k := range expected {
		keys = append(keys, k)
	}
	for k := range actual {
		if _, ok := expected[k]; !ok {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	var diffs []FieldDiff
	for _, k := range keys {
		if droppedFields[k] {
			continue
		}
		e, a := fieldOrNull(expected, k), fieldOrNull(actual, k)
		if !ValuesEqual(e, a) {
			diffs = append(diffs, FieldDiff{Field: k, Expected: e, Actual: a})
		}
	}
	return diffs
}

func fieldOrNull(m map[string]Value, k string) Value {
	if v, ok := m[k]; ok && v != nil {
		return v
	}
	return Null{}
}

// ValuesEqual is the tolerant structural equality used by the comparator.
func ValuesEqual(a, b Value) bool {
	if IsNullish(a) || IsNullish(b) {
		return IsNullish(a) && IsNullish(b)
	}

	switch av := a.(type) {
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Number:
		bv, ok := b.(Number)
		return ok && math.Abs(float64(av)-float64(bv)) < NumberTolerance
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	case List:
		bv, ok := b.(List)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !ValuesEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Map:
		bv, ok := b.(Map)
		if !ok {
			return false
		}
		for k, v := range av {
			if !ValuesEqual(v, fieldOrNull(bv, k)) {
				return false
			}
		}
		for k, v := range bv {
			if _, seen := av[k]; !seen && !IsNullish(v) {
				return false
			}
		}
		return true
	}
	return false
}
