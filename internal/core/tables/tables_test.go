package tables

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/refsync/internal/core"
)

func TestDefault_BuildsRegistry(t *testing.T) {
	reg := Default()
	require.Equal(t, len(Descriptors()), reg.Len())

	for _, desc := range reg.ForEachInTierOrder() {
		assert.True(t, desc.Wired(), "%s has no columns", desc.Key)
		assert.False(t, desc.HasColumn("id"), "%s declares id", desc.Key)
		assert.False(t, desc.HasColumn("is_active"), "%s declares is_active", desc.Key)
		assert.False(t, desc.HasColumn("source"), "%s declares source", desc.Key)
	}
}

func TestDefault_TierOrder(t *testing.T) {
	reg := Default()
	tiers := make(map[string]int)
	prev := -1
	for _, desc := range reg.ForEachInTierOrder() {
		require.GreaterOrEqual(t, desc.Tier, prev, "tables not in tier order at %s", desc.Key)
		prev = desc.Tier
		tiers[desc.TargetTable] = desc.Tier
	}

	for _, desc := range reg.ForEachInTierOrder() {
		for _, fk := range desc.ForeignKeys {
			refTier, ok := tiers[fk.RefTable]
			require.True(t, ok, "%s references unregistered %s", desc.Key, fk.RefTable)
			assert.LessOrEqual(t, refTier, desc.Tier, "%s.%s", desc.Key, fk.Column)
		}
	}
}

func TestDefault_MotionsSelfReference(t *testing.T) {
	desc, ok := Default().Get("motions")
	require.True(t, ok)
	assert.Equal(t, "parent_id", desc.SelfRefColumn)
	assert.GreaterOrEqual(t, desc.Tier, 1)
	assert.True(t, desc.HasColumn("parent_id"))
}

func TestDefault_KeyValueTables(t *testing.T) {
	reg := Default()
	for _, key := range []string{"motion_icons", "scoring_weights"} {
		desc, ok := reg.Get(key)
		require.True(t, ok, key)
		assert.True(t, desc.IsKeyValueMap, key)
		assert.Equal(t, []string{"value"}, desc.ColumnNames(), key)
	}
}

func TestDescriptors_FreshCopy(t *testing.T) {
	a := Descriptors()
	a[0].Columns[0] = core.TextCol("mutated")
	b := Descriptors()
	assert.NotEqual(t, "mutated", b[0].Columns[0].Name)
}
