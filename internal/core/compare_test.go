package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nrow(id string, fields map[string]Value) NormalizedRow {
	return NormalizedRow{ID: id, Fields: fields}
}

func TestValuesEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"within tolerance", Number(1.00001), Number(1.00002), true},
		{"outside tolerance", Number(1.0), Number(1.001), false},
		{"null and nil", Null{}, nil, true},
		{"null and value", Null{}, String("x"), false},
		{"strings exact", String("a"), String("a"), true},
		{"strings differ", String("a"), String("A"), false},
		{"bools", Bool(true), Bool(true), true},
		{"type mismatch", String("1"), Number(1), false},
		{"lists element-wise", List{Number(1), String("x")}, List{Number(1.00001), String("x")}, true},
		{"list length", List{Number(1)}, List{Number(1), Number(2)}, false},
		{"list order matters", List{String("a"), String("b")}, List{String("b"), String("a")}, false},
		{"maps by key union", Map{"a": Number(1)}, Map{"a": Number(1), "b": Null{}}, true},
		{"maps differ", Map{"a": Number(1)}, Map{"a": Number(2)}, false},
		{"maps extra key", Map{"a": Number(1)}, Map{"a": Number(1), "b": String("x")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValuesEqual(tt.a, tt.b))
			assert.Equal(t, tt.want, ValuesEqual(tt.b, tt.a))
		})
	}
}

func TestCompareTables_Match(t *testing.T) {
	rows := []NormalizedRow{
		nrow("A", map[string]Value{"label": String("Alpha")}),
		nrow("B", map[string]Value{"label": String("Beta")}),
	}
	diff := CompareTables("t", rows, rows)
	assert.True(t, diff.Match)
	assert.Empty(t, diff.Rows)
	assert.Equal(t, 2, diff.Expected)
	assert.Equal(t, 2, diff.Actual)
}

func TestCompareTables_SingleFieldDrift(t *testing.T) {
	expected := []NormalizedRow{
		nrow("A", map[string]Value{"label": String("Alpha"), "weight": Number(20)}),
		nrow("X", map[string]Value{"label": String("Ex"), "weight": Number(10)}),
	}
	actual := []NormalizedRow{
		nrow("A", map[string]Value{"label": String("Alpha"), "weight": Number(20)}),
		nrow("X", map[string]Value{"label": String("Ex"), "weight": Number(12)}),
	}

	diff := CompareTables("t", expected, actual)
	assert.False(t, diff.Match)
	require.Len(t, diff.Rows, 1)
	assert.Equal(t, RowDiff{
		ID:     "X",
		Status: StatusFieldMismatch,
		Fields: []FieldDiff{{Field: "weight", Expected: Number(10), Actual: Number(12)}},
	}, diff.Rows[0])
}

func TestCompareTables_MissingAndExtra(t *testing.T) {
	expected := []NormalizedRow{nrow("A", nil), nrow("B", nil)}
	actual := []NormalizedRow{nrow("B", nil), nrow("C", nil)}

	diff := CompareTables("t", expected, actual)
	require.Len(t, diff.Rows, 2)
	assert.Equal(t, RowDiff{ID: "A", Status: StatusMissingInTarget}, diff.Rows[0])
	assert.Equal(t, RowDiff{ID: "C", Status: StatusExtraInTarget}, diff.Rows[1])
	assert.Equal(t, 1, diff.CountByStatus(StatusMissingInTarget))
	assert.Equal(t, 1, diff.CountByStatus(StatusExtraInTarget))
}

func TestCompareTables_MissingKeyEqualsNull(t *testing.T) {
	expected := []NormalizedRow{nrow("A", map[string]Value{"parent_id": Null{}})}
	actual := []NormalizedRow{nrow("A", map[string]Value{})}
	assert.True(t, CompareTables("t", expected, actual).Match)
}

func TestCompareTables_IgnoresSource(t *testing.T) {
	expected := []NormalizedRow{nrow("A", map[string]Value{"source": String("seed")})}
	actual := []NormalizedRow{nrow("A", map[string]Value{"source": String("manual")})}
	assert.True(t, CompareTables("t", expected, actual).Match)
}

func TestCompareTables_FieldsSorted(t *testing.T) {
	expected := []NormalizedRow{nrow("A", map[string]Value{"z": Number(1), "a": Number(1), "m": Number(1)})}
	actual := []NormalizedRow{nrow("A", map[string]Value{"z": Number(2), "a": Number(2), "m": Number(2)})}

	diff := CompareTables("t", expected, actual)
	require.Len(t, diff.Rows, 1)
	var fields []string
	for _, f := range diff.Rows[0].Fields {
		fields = append(fields, f.Field)
	}
	assert.Equal(t, []string{"a", "m", "z"}, fields)
}
