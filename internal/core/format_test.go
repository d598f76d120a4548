package core

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestFormatDiff(t *testing.T) {
	tests := []struct {
		name string
		diff TableDiff
		opts FormatOptions
	}{
		{
			name: "pass",
			diff: TableDiff{Table: "grips", Match: true, Expected: 3, Actual: 3},
			opts: DefaultFormatOptions(),
		},
		{
			name: "mixed",
			diff: TableDiff{
				Table: "motions", Expected: 3, Actual: 3,
				Rows: []RowDiff{
					{ID: "A", Status: StatusMissingInTarget},
					{ID: "C", Status: StatusExtraInTarget},
					{ID: "X", Status: StatusFieldMismatch, Fields: []FieldDiff{
						{Field: "common_names", Expected: List{String("a"), String("b")}, Actual: List{String("a")}},
						{Field: "label", Expected: String("Press"), Actual: String("Presss")},
						{Field: "parent_id", Expected: String("PRESS"), Actual: Null{}},
						{Field: "weight", Expected: Number(10), Actual: Number(12.5)},
					}},
				},
			},
			opts: DefaultFormatOptions(),
		},
		{
			name: "truncated",
			diff: TableDiff{
				Table: "big", Expected: 4, Actual: 1,
				Rows: []RowDiff{
					{ID: "R1", Status: StatusFieldMismatch, Fields: []FieldDiff{
						{Field: "f1", Expected: Number(1), Actual: Number(2)},
						{Field: "f2", Expected: Number(1), Actual: Number(2)},
						{Field: "f3", Expected: Number(1), Actual: Number(2)},
					}},
					{ID: "R2", Status: StatusMissingInTarget},
					{ID: "R3", Status: StatusMissingInTarget},
					{ID: "R4", Status: StatusMissingInTarget},
				},
			},
			opts: FormatOptions{MaxRows: 2, MaxFields: 2},
		},
	}

	g := newGoldie(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g.Assert(t, "format_"+tt.name, []byte(FormatDiff(tt.diff, tt.opts)))
		})
	}
}

func TestFormatDiff_DoesNotAffectMatch(t *testing.T) {
	diff := TableDiff{Table: "t", Rows: []RowDiff{{ID: "A", Status: StatusMissingInTarget}}}
	_ = FormatDiff(diff, FormatOptions{MaxRows: 1})
	assert.False(t, diff.Match)
	assert.Len(t, diff.Rows, 1)
}
