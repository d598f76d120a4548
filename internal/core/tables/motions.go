package tables

import "github.com/JonMunkholm/refsync/internal/core"

func motionTables() []core.TableDescriptor {
	return []core.TableDescriptor{
		{
			Key:           "motions",
			SourceFile:    "motions.json",
			TargetTable:   "motions",
			Tier:          1,
			SelfRefColumn: "parent_id",
			Columns: []core.Column{
				core.TextCol("label"),
				core.TextCol("parent_id"),
				core.TextArrayCol("common_names"),
				core.JSONCol("muscle_targets"),
				core.TextCol("short_description"),
				core.NumberCol("sort_order"),
			},
		},
		{
			Key:         "motion_modifiers",
			SourceFile:  "motion_modifiers.json",
			TargetTable: "motion_modifiers",
			Tier:        2,
			ForeignKeys: []core.ForeignKey{
				{Column: "motion_id", RefTable: "motions"},
			},
			Columns: []core.Column{
				core.TextCol("motion_id"),
				core.TextCol("label"),
				core.JSONCol("delta_rules"),
				core.NumberCol("sort_order"),
			},
		},
		{
			// Keyed by motion id. Entries for unknown motions are tolerated
			// with a warning.
			Key:           "motion_icons",
			SourceFile:    "motion_icons.json",
			TargetTable:   "motion_icons",
			Tier:          2,
			IsKeyValueMap: true,
			ForeignKeys: []core.ForeignKey{
				{Column: "id", RefTable: "motions"},
			},
			Columns: []core.Column{
				core.TextCol("value"),
			},
		},
	}
}
