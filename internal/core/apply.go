package core

// apply.go is the write primitive shared by the seed pipeline and the
// incremental sync. It applies one table inside a transaction owned by the
// caller:
//
//  1. Order rows so self-reference roots come before their children
//  2. Upsert every row sequentially
//  3. Deprecate stored rows of the same provenance that left the source
//  4. Bump the table's version sequence
//
// Committing and rolling back are the caller's job.

import "context"

// ApplyTable writes rows for desc through tx. Any store failure is returned
// as a *StoreError; the transaction is left open for the caller to roll back.
func ApplyTable(ctx context.Context, tx Tx, desc TableDescriptor, rows []Row, provenance string) (TableResult, error) {
	result := TableResult{Key: desc.Key, TargetTable: desc.TargetTable, Rows: len(rows)}

	ordered := rows
	if desc.SelfRefColumn != "" {
		ordered = OrderRootsFirst(rows, desc.SelfRefColumn)
	}

	keep := make([]string, 0, len(ordered))
	for _, row := range ordered {
		if err := ctx.Err(); err != nil {
			return result, &StoreError{Table: desc.Key, Op: "upsert", Err: err}
		}
		id, _ := rowID(row)
		if err := tx.Upsert(ctx, desc, row, provenance); err != nil {
			return result, &StoreError{Table: desc.Key, Op: "upsert", RowID: id, Err: err}
		}
		keep = append(keep, id)
		result.Upserted++
	}

	n, err := tx.Deprecate(ctx, desc, keep, provenance)
	if err != nil {
		return result, &StoreError{Table: desc.Key, Op: "deprecate", Err: err}
	}
	result.Deprecated = n

	if err := tx.BumpVersion(ctx, desc.TargetTable); err != nil {
		return result, &StoreError{Table: desc.Key, Op: "version", Err: err}
	}
	return result, nil
}

// OrderRootsFirst returns rows reordered so that every row whose parent (the
// value of column) is in the set comes after that parent. Rows without a
// parent come first in source order, followed by each generation in turn.
// Rows whose parent never appears, including cycles, are appended last in
// source order.
func OrderRootsFirst(rows []Row, column string) []Row {
	out := make([]Row, 0, len(rows))
	placed := make(map[string]struct{}, len(rows))
	done := make([]bool, len(rows))

	for {
		var level []int
		for i, row := range rows {
			if done[i] {
				continue
			}
			parent, set := refValue(ToValue(row[column]))
			if !set {
				level = append(level, i)
				continue
			}
			if _, ok := placed[parent]; ok {
				level = append(level, i)
			}
		}
		if len(level) == 0 {
			break
		}
		for _, i := range level {
			done[i] = true
			out = append(out, rows[i])
		}
		for _, i := range level {
			if id, ok := rowID(rows[i]); ok {
				placed[id] = struct{}{}
			}
		}
	}

	for i, row := range rows {
		if !done[i] {
			out = append(out, row)
		}
	}
	return out
}
