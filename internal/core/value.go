package core

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Value is the closed set of shapes a reference-data field can take once it
// crosses the validator/normalizer boundary. Only Null, Bool, Number, String,
// List and Map implement it.
type Value interface {
	value()
}

// Null is the canonical empty value.
type Null struct{}

func (Null) value() {}

// MarshalJSON implements json.Marshaler so Null renders as JSON null.
func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// Bool is a boolean field value.
type Bool bool

func (Bool) value() {}

// Number is a numeric field value. Integers and floats share one
// representation so that 3 read from a file and 3.0 read from the store are
// the same value.
type Number float64

func (Number) value() {}

// String is a text field value.
type String string

func (String) value() {}

// List is an ordered sequence of values.
type List []Value

func (List) value() {}

// Map is a keyed set of values. Key order is never semantic.
type Map map[string]Value

func (Map) value() {}

// ToValue converts a decoded Go value (from encoding/json, yaml.v3 or a
// database driver) into a Value. It is total: types it does not know are
// rendered with fmt and kept as String.
func ToValue(v any) Value {
	switch val := v.(type) {
	case nil:
		return Null{}
	case Value:
		return val
	case bool:
		return Bool(val)
	case string:
		return String(val)
	case []byte:
		return String(string(val))
	case float64:
		return Number(val)
	case float32:
		return Number(float64(val))
	case int:
		return Number(float64(val))
	case int8:
		return Number(float64(val))
	case int16:
		return Number(float64(val))
	case int32:
		return Number(float64(val))
	case int64:
		return Number(float64(val))
	case uint:
		return Number(float64(val))
	case uint8:
		return Number(float64(val))
	case uint16:
		return Number(float64(val))
	case uint32:
		return Number(float64(val))
	case uint64:
		return Number(float64(val))
	case json.Number:
		if f, err := val.Float64(); err == nil {
			return Number(f)
		}
		return String(val.String())
	case time.Time:
		return String(val.UTC().Format(time.RFC3339Nano))
	case []any:
		out := make(List, len(val))
		for i, elem := range val {
			out[i] = ToValue(elem)
		}
		return out
	case []string:
		out := make(List, len(val))
		for i, elem := range val {
			out[i] = String(elem)
		}
		return out
	case map[string]any:
		out := make(Map, len(val))
		for k, elem := range val {
			out[k] = ToValue(elem)
		}
		return out
	case map[any]any:
		out := make(Map, len(val))
		for k, elem := range val {
			out[fmt.Sprint(k)] = ToValue(elem)
		}
		return out
	default:
		return String(fmt.Sprint(val))
	}
}

// IsNullish reports whether v is absent or Null.
func IsNullish(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Null)
	return ok
}

// Encode renders v as compact JSON with sorted object keys. It is used as the
// sort key for order-neutral lists and for diff output, so it never fails.
func Encode(v Value) string {
	if v == nil {
		return "null"
	}
	if n, ok := v.(Number); ok {
		return formatNumber(float64(n))
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// formatNumber renders integral floats without a fractional part.
func formatNumber(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
