package tables

import "github.com/JonMunkholm/refsync/internal/core"

// lookupTables are the tier 0 tables. They reference nothing.
func lookupTables() []core.TableDescriptor {
	return []core.TableDescriptor{
		{
			Key:         "muscles",
			SourceFile:  "muscles.json",
			TargetTable: "muscles",
			Tier:        0,
			Columns: []core.Column{
				core.TextCol("label"),
				core.TextArrayCol("common_names"),
				core.TextArrayCol("parent_ids"),
				core.TextCol("icon"),
				core.NumberCol("sort_order"),
			},
		},
		{
			Key:         "equipment_categories",
			SourceFile:  "equipment_categories.json",
			TargetTable: "equipment_categories",
			Tier:        0,
			Columns:     labelColumns(),
		},
		{
			Key:         "grips",
			SourceFile:  "grips.json",
			TargetTable: "grips",
			Tier:        0,
			Columns: append(labelColumns(),
				core.TextArrayCol("common_names"),
				core.JSONCol("delta_rules"),
			),
		},
		{
			Key:         "grip_widths",
			SourceFile:  "grip_widths.json",
			TargetTable: "grip_widths",
			Tier:        0,
			Columns:     append(labelColumns(), core.JSONCol("delta_rules")),
		},
		{
			Key:         "stance_widths",
			SourceFile:  "stance_widths.json",
			TargetTable: "stance_widths",
			Tier:        0,
			Columns:     append(labelColumns(), core.JSONCol("delta_rules")),
		},
		{
			Key:         "torso_angles",
			SourceFile:  "torso_angles.json",
			TargetTable: "torso_angles",
			Tier:        0,
			Columns: append(labelColumns(),
				core.NumberCol("angle_degrees"),
				core.JSONCol("delta_rules"),
			),
		},
	}
}

// labelColumns is the column set shared by simple lookup tables.
func labelColumns() []core.Column {
	return []core.Column{
		core.TextCol("label"),
		core.TextCol("short_description"),
		core.NumberCol("sort_order"),
	}
}
