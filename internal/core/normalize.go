package core

import (
	"cmp"
	"encoding/json"
	"slices"
	"strconv"
	"strings"
)

// unorderedFields lists list-valued fields whose element order carries no
// meaning. Their elements are sorted before comparison.
var unorderedFields = map[string]bool{
	"common_names": true,
	"parent_ids":   true,
}

// droppedFields are store bookkeeping columns never compared.
var droppedFields = map[string]bool{
	"is_active": true,
	"source":    true,
}

const internalFieldPrefix = "_"

// NormalizeValue canonicalizes v. fieldHint is the name of the field v was
// read from; it selects order-neutral list handling. The function is total
// and idempotent.
func NormalizeValue(v Value, fieldHint string) Value {
	switch val := v.(type) {
	case nil, Null:
		return Null{}
	case Bool, Number:
		return val
	case String:
		return normalizeString(string(val), fieldHint)
	case List:
		out := make(List, len(val))
		for i, elem := range val {
			out[i] = NormalizeValue(elem, "")
		}
		if unorderedFields[fieldHint] {
			slices.SortStableFunc(out, func(a, b Value) int {
				return strings.Compare(Encode(a), Encode(b))
			})
		}
		return out
	case Map:
		out := make(Map, len(val))
		for k, elem := range val {
			out[k] = NormalizeValue(elem, k)
		}
		return out
	default:
		return Null{}
	}
}

func normalizeString(s, fieldHint string) Value {
	trimmed := strings.TrimSpace(s)
	switch trimmed {
	case "", "null":
		return Null{}
	case "[]":
		return List{}
	case "{}":
		return Map{}
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	}

	if looksStructured(trimmed) {
		var decoded any
		if err := json.Unmarshal([]byte(trimmed), &decoded); err == nil {
			return NormalizeValue(ToValue(decoded), fieldHint)
		}
		return String(trimmed)
	}
	return String(s)
}

func looksStructured(s string) bool {
	return (strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]")) ||
		(strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}"))
}

// NormalizeRow canonicalizes one row. Bookkeeping and internal fields are
// dropped; for key-value tables only the value field is kept.
func NormalizeRow(row Row, isKeyValueMap bool) NormalizedRow {
	nr := NormalizedRow{Fields: make(map[string]Value, len(row))}
	if id, ok := row["id"]; ok && id != nil {
		nr.ID = idString(id)
	}

	for k, raw := range row {
		if k == "id" || droppedFields[k] || strings.HasPrefix(k, internalFieldPrefix) {
			continue
		}
		if isKeyValueMap && k != "value" {
			continue
		}
		nr.Fields[k] = NormalizeValue(ToValue(raw), k)
	}
	return nr
}

// NormalizeTable canonicalizes rows and sorts them by (sort_order, id).
// Missing or non-numeric sort_order counts as 0.
func NormalizeTable(rows []Row, isKeyValueMap bool) []NormalizedRow {
	out := make([]NormalizedRow, len(rows))
	for i, row := range rows {
		out[i] = NormalizeRow(row, isKeyValueMap)
	}
	slices.SortStableFunc(out, func(a, b NormalizedRow) int {
		if c := cmp.Compare(sortOrder(a), sortOrder(b)); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

func sortOrder(r NormalizedRow) float64 {
	switch v := r.Fields["sort_order"].(type) {
	case Number:
		return float64(v)
	case String:
		if f, err := strconv.ParseFloat(strings.TrimSpace(string(v)), 64); err == nil {
			return f
		}
	}
	return 0
}

func idString(v any) string {
	switch id := v.(type) {
	case string:
		return id
	default:
		return Encode(ToValue(id))
	}
}
