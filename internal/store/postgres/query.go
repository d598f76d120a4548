package postgres

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/refsync/internal/core"
)

const bumpVersionSQL = `INSERT INTO reference_data_versions (table_name, version_seq, updated_at)
VALUES ($1, 1, now())
ON CONFLICT (table_name) DO UPDATE SET
    version_seq = reference_data_versions.version_seq + 1,
    updated_at = now()`

const versionsSQL = `SELECT table_name, version_seq FROM reference_data_versions WHERE table_name = ANY($1)`

func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// UpsertSQL returns the insert-or-update statement for desc. Parameters are
// $1 id, then the declared columns in order, then the provenance tag.
func UpsertSQL(desc core.TableDescriptor) string {
	names := []string{ident("id")}
	values := []string{"$1"}
	updates := make([]string, 0, len(desc.Columns)+2)
	for i, c := range desc.Columns {
		col := ident(c.Name)
		names = append(names, col)
		values = append(values, placeholder(i+2, c))
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
	}
	n := len(desc.Columns) + 2
	names = append(names, ident("is_active"), ident("source"))
	values = append(values, "true", fmt.Sprintf("$%d", n))
	updates = append(updates, `"is_active" = true`, `"source" = EXCLUDED."source"`)

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (\"id\") DO UPDATE SET %s",
		ident(desc.TargetTable),
		strings.Join(names, ", "),
		strings.Join(values, ", "),
		strings.Join(updates, ", "))
}

// placeholder casts JSON columns so text parameters land in jsonb columns.
func placeholder(n int, c core.Column) string {
	if c.Type == core.ColumnJSON {
		return fmt.Sprintf("$%d::jsonb", n)
	}
	return fmt.Sprintf("$%d", n)
}

// DeprecateSQL returns the soft-delete sweep for desc. Parameters are $1 the
// provenance tag and $2 the ids to keep.
func DeprecateSQL(desc core.TableDescriptor) string {
	return fmt.Sprintf(`UPDATE %s SET "is_active" = false WHERE "source" = $1 AND "is_active" AND NOT ("id" = ANY($2))`,
		ident(desc.TargetTable))
}

// SelectActiveSQL returns a query yielding one JSON object per active row,
// ordered by sort key.
func SelectActiveSQL(desc core.TableDescriptor) string {
	cols := make([]string, 0, len(desc.Columns)+1)
	cols = append(cols, ident("id"))
	for _, c := range desc.Columns {
		cols = append(cols, ident(c.Name))
	}
	order := ident("id")
	if desc.HasColumn("sort_order") {
		order = ident("sort_order") + ", " + order
	}
	return fmt.Sprintf(`SELECT row_to_json(t) FROM (SELECT %s FROM %s WHERE "is_active" ORDER BY %s) t`,
		strings.Join(cols, ", "), ident(desc.TargetTable), order)
}
