package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry_TierOrder(t *testing.T) {
	reg, err := NewRegistry(
		TableDescriptor{Key: "equipment", TargetTable: "equipment", Tier: 3},
		TableDescriptor{Key: "muscles", TargetTable: "muscles", Tier: 0},
		TableDescriptor{Key: "motions", TargetTable: "motions", Tier: 1, SelfRefColumn: "parent_id"},
		TableDescriptor{Key: "grips", TargetTable: "grips", Tier: 0},
	)
	require.NoError(t, err)

	var keys []string
	for _, d := range reg.ForEachInTierOrder() {
		keys = append(keys, d.Key)
	}
	assert.Equal(t, []string{"muscles", "grips", "motions", "equipment"}, keys)
	assert.Equal(t, []string{"muscles", "grips", "motions", "equipment"}, reg.TargetTables())
	assert.Equal(t, 4, reg.Len())
}

func TestNewRegistry_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		descs   []TableDescriptor
		wantErr string
	}{
		{
			name: "foreign key to higher tier",
			descs: []TableDescriptor{
				{Key: "a", TargetTable: "a", Tier: 0, ForeignKeys: []ForeignKey{{Column: "b_id", RefTable: "b"}}},
				{Key: "b", TargetTable: "b", Tier: 2},
			},
			wantErr: "a: foreign key b_id references b in higher tier 2",
		},
		{
			name:    "self reference in tier 0",
			descs:   []TableDescriptor{{Key: "m", TargetTable: "m", Tier: 0, SelfRefColumn: "parent_id"}},
			wantErr: "m: self-referencing table must be tier >= 1",
		},
		{
			name: "duplicate key",
			descs: []TableDescriptor{
				{Key: "a", TargetTable: "a1"},
				{Key: "a", TargetTable: "a2"},
			},
			wantErr: "a: duplicate key",
		},
		{
			name: "duplicate target",
			descs: []TableDescriptor{
				{Key: "a", TargetTable: "t"},
				{Key: "b", TargetTable: "t"},
			},
			wantErr: `b: duplicate target table "t"`,
		},
		{
			name:    "tier out of range",
			descs:   []TableDescriptor{{Key: "a", TargetTable: "a", Tier: 4}},
			wantErr: "a: tier 4 out of range 0..3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.descs...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewRegistry_ReportsAllProblems(t *testing.T) {
	_, err := NewRegistry(
		TableDescriptor{Key: "a", TargetTable: "a", Tier: 9},
		TableDescriptor{Key: "b", TargetTable: "b", Tier: 0, SelfRefColumn: "parent_id"},
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tier 9 out of range")
	assert.Contains(t, err.Error(), "self-referencing table must be tier >= 1")
}

func TestNewRegistry_UnregisteredReferenceAllowed(t *testing.T) {
	_, err := NewRegistry(TableDescriptor{
		Key: "a", TargetTable: "a",
		ForeignKeys: []ForeignKey{{Column: "x_id", RefTable: "external"}},
	})
	assert.NoError(t, err)
}

func TestRegistry_Lookups(t *testing.T) {
	reg := testRegistry(t)

	d, ok := reg.FindByTargetTable("motions")
	require.True(t, ok)
	assert.Equal(t, "motions", d.Key)

	_, ok = reg.FindByTargetTable("nope")
	assert.False(t, ok)

	d, ok = reg.Get("equipment")
	require.True(t, ok)
	assert.Equal(t, 3, d.Tier)

	_, ok = reg.Get("nope")
	assert.False(t, ok)
}

func TestRegistry_Immutable(t *testing.T) {
	cols := []Column{TextCol("label")}
	reg, err := NewRegistry(TableDescriptor{Key: "a", TargetTable: "a", Columns: cols})
	require.NoError(t, err)

	cols[0] = TextCol("changed")
	got := reg.ForEachInTierOrder()
	got[0].Key = "mutated"

	d, ok := reg.Get("a")
	require.True(t, ok)
	assert.Equal(t, "a", d.Key)
	assert.Equal(t, "label", d.Columns[0].Name)
}
