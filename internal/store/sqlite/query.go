package sqlite

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/JonMunkholm/refsync/internal/core"
)

const bumpVersionSQL = `INSERT INTO reference_data_versions (table_name, version_seq, updated_at)
VALUES (?, 1, CURRENT_TIMESTAMP)
ON CONFLICT (table_name) DO UPDATE SET
    version_seq = reference_data_versions.version_seq + 1,
    updated_at = CURRENT_TIMESTAMP`

// quote returns a double-quoted SQLite identifier.
func quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func sqlType(t core.ColumnType) string {
	switch t {
	case core.ColumnNumber:
		return "REAL"
	case core.ColumnBool:
		return "INTEGER"
	default:
		return "TEXT"
	}
}

func selectList(desc core.TableDescriptor) string {
	cols := make([]string, 0, len(desc.Columns)+1)
	cols = append(cols, quote("id"))
	for _, c := range desc.Columns {
		cols = append(cols, quote(c.Name))
	}
	return strings.Join(cols, ", ")
}

// CreateTableSQL returns the DDL for desc's target table.
func CreateTableSQL(desc core.TableDescriptor) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n    %s TEXT PRIMARY KEY", quote(desc.TargetTable), quote("id"))
	for _, c := range desc.Columns {
		fmt.Fprintf(&b, ",\n    %s %s", quote(c.Name), sqlType(c.Type))
	}
	b.WriteString(",\n    \"is_active\" INTEGER NOT NULL DEFAULT 1")
	b.WriteString(",\n    \"source\" TEXT\n)")
	return b.String()
}

// UpsertSQL returns the insert-or-update statement for desc. Arguments are
// id, the declared columns in order, then the provenance tag.
func UpsertSQL(desc core.TableDescriptor) string {
	names := []string{quote("id")}
	values := []string{"?"}
	updates := make([]string, 0, len(desc.Columns)+2)
	for _, c := range desc.Columns {
		names = append(names, quote(c.Name))
		values = append(values, "?")
		updates = append(updates, fmt.Sprintf("%s = excluded.%s", quote(c.Name), quote(c.Name)))
	}
	names = append(names, quote("is_active"), quote("source"))
	values = append(values, "1", "?")
	updates = append(updates, `"is_active" = 1`, `"source" = excluded."source"`)

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (\"id\") DO UPDATE SET %s",
		quote(desc.TargetTable),
		strings.Join(names, ", "),
		strings.Join(values, ", "),
		strings.Join(updates, ", "))
}

// DeprecateSQL returns the soft-delete sweep for desc. Arguments are the
// provenance tag and a JSON array of ids to keep.
func DeprecateSQL(desc core.TableDescriptor) string {
	return fmt.Sprintf(`UPDATE %s SET "is_active" = 0 WHERE "source" = ? AND "is_active" = 1 AND "id" NOT IN (SELECT value FROM json_each(?))`,
		quote(desc.TargetTable))
}

// SelectActiveSQL returns the read of active rows ordered by sort key.
func SelectActiveSQL(desc core.TableDescriptor) string {
	order := quote("id")
	if desc.HasColumn("sort_order") {
		order = quote("sort_order") + ", " + order
	}
	return fmt.Sprintf(`SELECT %s FROM %s WHERE "is_active" = 1 ORDER BY %s`,
		selectList(desc), quote(desc.TargetTable), order)
}

func marshalJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// toColumn converts a coerced column value to what SQLite stores.
func toColumn(col core.Column, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if col.Type == core.ColumnTextArray {
		return marshalJSON(v)
	}
	return v, nil
}

// fromColumn converts a scanned SQLite value back to the shape encoding/json
// would produce for the column.
func fromColumn(col core.Column, v any) any {
	if v == nil {
		return nil
	}
	switch col.Type {
	case core.ColumnBool:
		switch b := v.(type) {
		case int64:
			return b != 0
		case bool:
			return b
		}
	case core.ColumnNumber:
		switch n := v.(type) {
		case float64:
			return n
		case int64:
			return float64(n)
		case string:
			if f, err := strconv.ParseFloat(n, 64); err == nil {
				return f
			}
		}
	case core.ColumnJSON, core.ColumnTextArray:
		s := asString(v)
		var decoded any
		if err := json.Unmarshal([]byte(s), &decoded); err == nil {
			return decoded
		}
		return s
	case core.ColumnText:
		return asString(v)
	}
	return v
}

func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return fmt.Sprint(s)
	}
}
