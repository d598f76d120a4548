package core

import (
	"fmt"
	"strings"
)

// FormatOptions bounds the size of a rendered diff.
type FormatOptions struct {
	MaxRows   int // Row diffs shown per table
	MaxFields int // Field diffs shown per row
}

// DefaultFormatOptions returns the standard report bounds.
func DefaultFormatOptions() FormatOptions {
	return FormatOptions{MaxRows: 10, MaxFields: 5}
}

// FormatDiff renders d for operator output. Matching tables render as a
// single PASS line. Rendering has no effect on d.Match.
func FormatDiff(d TableDiff, opts FormatOptions) string {
	if opts.MaxRows <= 0 {
		opts.MaxRows = DefaultFormatOptions().MaxRows
	}
	if opts.MaxFields <= 0 {
		opts.MaxFields = DefaultFormatOptions().MaxFields
	}

	if d.Match {
		return fmt.Sprintf("PASS %s (%d rows)\n", d.Table, d.Expected)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "FAIL %s (expected %d rows, actual %d rows): %d missing, %d extra, %d mismatched\n",
		d.Table, d.Expected, d.Actual,
		d.CountByStatus(StatusMissingInTarget),
		d.CountByStatus(StatusExtraInTarget),
		d.CountByStatus(StatusFieldMismatch))

	for i, row := range d.Rows {
		if i == opts.MaxRows {
			fmt.Fprintf(&b, "  ...and %d more\n", len(d.Rows)-opts.MaxRows)
			break
		}
		switch row.Status {
		case StatusMissingInTarget:
			fmt.Fprintf(&b, "  - %s (missing in target)\n", row.ID)
		case StatusExtraInTarget:
			fmt.Fprintf(&b, "  + %s (extra in target)\n", row.ID)
		case StatusFieldMismatch:
			fmt.Fprintf(&b, "  ~ %s\n", row.ID)
			for j, f := range row.Fields {
				if j == opts.MaxFields {
					fmt.Fprintf(&b, "      ...and %d more\n", len(row.Fields)-opts.MaxFields)
					break
				}
				fmt.Fprintf(&b, "      %s: expected %s, actual %s\n", f.Field, Encode(f.Expected), Encode(f.Actual))
			}
		}
	}
	return b.String()
}
