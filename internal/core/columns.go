package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ColumnType is the storage type of a declared column.
type ColumnType int

const (
	ColumnText ColumnType = iota
	ColumnNumber
	ColumnBool
	ColumnJSON
	ColumnTextArray
)

func (t ColumnType) String() string {
	switch t {
	case ColumnText:
		return "text"
	case ColumnNumber:
		return "number"
	case ColumnBool:
		return "bool"
	case ColumnJSON:
		return "json"
	case ColumnTextArray:
		return "text[]"
	default:
		return fmt.Sprintf("ColumnType(%d)", int(t))
	}
}

// Column is one declared upsert column.
type Column struct {
	Name string
	Type ColumnType
}

func TextCol(name string) Column { return Column{Name: name, Type: ColumnText} }

func NumberCol(name string) Column { return Column{Name: name, Type: ColumnNumber} }

func BoolCol(name string) Column { return Column{Name: name, Type: ColumnBool} }

func JSONCol(name string) Column { return Column{Name: name, Type: ColumnJSON} }

func TextArrayCol(name string) Column { return Column{Name: name, Type: ColumnTextArray} }

// ColumnValue coerces a raw source value into the Go value sent to the store
// for col. Missing and empty values become nil. JSON columns are sent as JSON
// text so both drivers store the same representation.
//
// Only values the store hands back unchanged are accepted: a number in a text
// column or a null inside a text array is an error, never a silent rewrite.
func ColumnValue(col Column, raw any) (any, error) {
	v, err := coerce(col, ToValue(raw))
	if err != nil {
		return nil, fmt.Errorf("column %s: %w", col.Name, err)
	}
	return v, nil
}

// CheckColumn reports whether raw can be stored in col. It is the check
// ColumnValue applies, without the column prefix on the error.
func CheckColumn(col Column, raw any) error {
	_, err := coerce(col, ToValue(raw))
	return err
}

func coerce(col Column, v Value) (any, error) {
	if IsNullish(v) {
		return nil, nil
	}
	if s, ok := v.(String); ok && strings.TrimSpace(string(s)) == "" && col.Type != ColumnText {
		return nil, nil
	}

	switch col.Type {
	case ColumnText:
		switch val := v.(type) {
		case String:
			return string(val), nil
		case List, Map:
			return Encode(val), nil
		default:
			return nil, fmt.Errorf("invalid text %s", Encode(val))
		}

	case ColumnNumber:
		if n, ok := v.(Number); ok {
			return float64(n), nil
		}
		return nil, fmt.Errorf("invalid number %s", Encode(v))

	case ColumnBool:
		switch val := v.(type) {
		case Bool:
			return bool(val), nil
		case String:
			switch strings.TrimSpace(string(val)) {
			case "true":
				return true, nil
			case "false":
				return false, nil
			}
		}
		return nil, fmt.Errorf("invalid bool %s", Encode(v))

	case ColumnJSON:
		if s, ok := v.(String); ok {
			trimmed := strings.TrimSpace(string(s))
			if isContainer(trimmed) && json.Valid([]byte(trimmed)) {
				return trimmed, nil
			}
		}
		return Encode(v), nil

	case ColumnTextArray:
		switch val := v.(type) {
		case List:
			return textArray(val)
		case String:
			trimmed := strings.TrimSpace(string(val))
			if !strings.HasPrefix(trimmed, "[") {
				return nil, fmt.Errorf("invalid text array %s", Encode(val))
			}
			var decoded []any
			if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
				return nil, fmt.Errorf("invalid text array %q", trimmed)
			}
			return textArray(ToValue(decoded).(List))
		default:
			return nil, fmt.Errorf("invalid text array %s", Encode(val))
		}
	}

	return nil, fmt.Errorf("unsupported type %s", col.Type)
}

// textArray accepts only string elements; anything else would come back from
// the store as a different value.
func textArray(list List) ([]string, error) {
	out := make([]string, len(list))
	for i, elem := range list {
		s, ok := elem.(String)
		if !ok {
			return nil, fmt.Errorf("invalid text array element %d: %s", i, Encode(elem))
		}
		out[i] = string(s)
	}
	return out, nil
}

// isContainer reports whether s looks like a JSON object or array. Scalar
// strings such as "12" stay strings.
func isContainer(s string) bool {
	return (strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}")) ||
		(strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]"))
}
