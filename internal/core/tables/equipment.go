package tables

import "github.com/JonMunkholm/refsync/internal/core"

func equipmentTables() []core.TableDescriptor {
	return []core.TableDescriptor{
		{
			Key:         "equipment",
			SourceFile:  "equipment.json",
			TargetTable: "equipment",
			Tier:        3,
			ForeignKeys: []core.ForeignKey{
				{Column: "category_id", RefTable: "equipment_categories"},
				{Column: "default_grip_id", RefTable: "grips"},
			},
			Columns: []core.Column{
				core.TextCol("label"),
				core.TextCol("category_id"),
				core.TextCol("default_grip_id"),
				core.TextArrayCol("common_names"),
				core.BoolCol("is_attachment"),
				core.NumberCol("sort_order"),
			},
		},
	}
}

func scoringTables() []core.TableDescriptor {
	return []core.TableDescriptor{
		{
			Key:           "scoring_weights",
			SourceFile:    "scoring_weights.json",
			TargetTable:   "scoring_weights",
			Tier:          3,
			IsKeyValueMap: true,
			Columns: []core.Column{
				core.JSONCol("value"),
			},
		},
	}
}
