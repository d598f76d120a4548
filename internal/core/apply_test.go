package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i], _ = r["id"].(string)
	}
	return out
}

func TestOrderRootsFirst(t *testing.T) {
	tests := []struct {
		name string
		rows []Row
		want []string
	}{
		{
			name: "child before parent in source",
			rows: []Row{{"id": "B", "parent_id": "A"}, {"id": "A", "parent_id": nil}},
			want: []string{"A", "B"},
		},
		{
			name: "three generations",
			rows: []Row{
				{"id": "C", "parent_id": "B"},
				{"id": "B", "parent_id": "A"},
				{"id": "X", "parent_id": ""},
				{"id": "A"},
			},
			want: []string{"X", "A", "B", "C"},
		},
		{
			name: "unknown parent and cycle go last in source order",
			rows: []Row{
				{"id": "P", "parent_id": "Q"},
				{"id": "ORPHAN", "parent_id": "GONE"},
				{"id": "Q", "parent_id": "P"},
				{"id": "ROOT", "parent_id": "null"},
			},
			want: []string{"ROOT", "P", "ORPHAN", "Q"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(OrderRootsFirst(tt.rows, "parent_id")))
		})
	}
}

func TestApplyTable(t *testing.T) {
	ctx := context.Background()
	reg := testRegistry(t)
	motions, _ := reg.Get("motions")
	store := newMemStore()

	tx, err := store.Begin(ctx)
	require.NoError(t, err)

	rows := []Row{
		{"id": "INCLINE_PRESS", "label": "Incline Press", "parent_id": "PRESS"},
		{"id": "PRESS", "label": "Press", "parent_id": nil},
	}
	result, err := ApplyTable(ctx, tx, motions, rows, "seed")
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))

	assert.Equal(t, []string{"motions/PRESS", "motions/INCLINE_PRESS"}, store.upserts)
	assert.Equal(t, TableResult{Key: "motions", TargetTable: "motions", Rows: 2, Upserted: 2}, result)
	assert.Equal(t, int64(1), store.versions["motions"])
}

func TestApplyTable_UpsertFailure(t *testing.T) {
	ctx := context.Background()
	reg := testRegistry(t)
	motions, _ := reg.Get("motions")
	store := newMemStore()
	boom := errors.New("violates foreign key constraint")
	store.failUpsert["motions/INCLINE_PRESS"] = boom

	tx, err := store.Begin(ctx)
	require.NoError(t, err)

	_, err = ApplyTable(ctx, tx, motions, []Row{
		{"id": "PRESS"},
		{"id": "INCLINE_PRESS", "parent_id": "PRESS"},
	}, "seed")

	var storeErr *StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "motions", storeErr.Table)
	assert.Equal(t, "upsert", storeErr.Op)
	assert.Equal(t, "INCLINE_PRESS", storeErr.RowID)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, store.deprecates)
}

func TestApplyTable_CancelledContext(t *testing.T) {
	reg := testRegistry(t)
	cats, _ := reg.Get("categories")
	store := newMemStore()
	tx, err := store.Begin(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = ApplyTable(ctx, tx, cats, []Row{{"id": "A"}}, "seed")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, store.upserts)
}
