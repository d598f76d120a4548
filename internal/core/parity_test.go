package core

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededStore(t *testing.T, reg *Registry, rows map[string][]Row) *memStore {
	t.Helper()
	store := newMemStore()
	_, err := NewSeeder(reg, &memLoader{rows: rows}, store, SeedConfig{}).Run(context.Background())
	require.NoError(t, err)
	return store
}

func TestParity_PassAfterSeed(t *testing.T) {
	reg := testRegistry(t)
	rows := validSource()
	store := seededStore(t, reg, rows)

	// A second seed over unchanged source keeps parity.
	_, err := NewSeeder(reg, &memLoader{rows: rows}, store, SeedConfig{}).Run(context.Background())
	require.NoError(t, err)

	var out bytes.Buffer
	report, err := NewParity(reg, &memLoader{rows: rows}, store, ParityConfig{}).Run(context.Background(), &out)
	require.NoError(t, err)

	assert.True(t, report.OK())
	assert.Equal(t, 3, report.Passed)
	assert.Contains(t, out.String(), "PASS categories (2 rows)")
	assert.Contains(t, out.String(), "PASS motions (2 rows)")
	assert.Contains(t, out.String(), "3 passed, 0 failed")
}

func TestParity_DetectsSingleFieldDrift(t *testing.T) {
	reg := testRegistry(t)
	rows := validSource()
	store := seededStore(t, reg, rows)
	store.tables["equipment"]["OLYMPIC_BAR"].fields["weight"] = float64(25)

	var out bytes.Buffer
	report, err := NewParity(reg, &memLoader{rows: rows}, store, ParityConfig{}).Run(context.Background(), &out)
	require.NoError(t, err)

	assert.False(t, report.OK())
	assert.Equal(t, 1, report.Failed)

	var failed []TableDiff
	for _, d := range report.Diffs {
		if !d.Match {
			failed = append(failed, d)
		}
	}
	require.Len(t, failed, 1)
	assert.Equal(t, "equipment", failed[0].Table)
	require.Len(t, failed[0].Rows, 1)
	assert.Equal(t, StatusFieldMismatch, failed[0].Rows[0].Status)
	assert.Equal(t, "OLYMPIC_BAR", failed[0].Rows[0].ID)
	assert.Contains(t, out.String(), "weight: expected 20, actual 25")
}

func TestParity_NumericNoiseIgnored(t *testing.T) {
	reg := testRegistry(t)
	rows := validSource()
	store := seededStore(t, reg, rows)
	store.tables["equipment"]["OLYMPIC_BAR"].fields["weight"] = 20.00001

	report, err := NewParity(reg, &memLoader{rows: rows}, store, ParityConfig{}).Run(context.Background(), &bytes.Buffer{})
	require.NoError(t, err)
	assert.True(t, report.OK())
}

func TestParity_SourceOnlyFieldsIgnored(t *testing.T) {
	reg := testRegistry(t)
	rows := validSource()
	store := seededStore(t, reg, rows)
	rows["categories"][0]["_note"] = "editor only"
	rows["categories"][0]["undeclared"] = "not stored"

	report, err := NewParity(reg, &memLoader{rows: rows}, store, ParityConfig{}).Run(context.Background(), &bytes.Buffer{})
	require.NoError(t, err)
	assert.True(t, report.OK())
}

func TestParity_TableFilter(t *testing.T) {
	reg := testRegistry(t)
	rows := validSource()
	store := newMemStore()

	var out bytes.Buffer
	report, err := NewParity(reg, &memLoader{rows: rows}, store, ParityConfig{Tables: []string{"categories"}}).Run(context.Background(), &out)
	require.NoError(t, err)
	require.Len(t, report.Diffs, 1)
	assert.Equal(t, 2, report.Diffs[0].CountByStatus(StatusMissingInTarget))

	_, err = NewParity(reg, &memLoader{}, store, ParityConfig{Tables: []string{"nope"}}).Run(context.Background(), &out)
	assert.ErrorIs(t, err, ErrUnknownTable)
}

func TestParity_NoWrites(t *testing.T) {
	reg := testRegistry(t)
	store := newMemStore()
	_, err := NewParity(reg, &memLoader{rows: validSource()}, store, ParityConfig{}).Run(context.Background(), &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 0, store.begins)
}
