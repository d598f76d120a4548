// Package core provides the reference data synchronization and parity engine.
//
// The package keeps a relational store consistent with a set of source files
// that are the editable source of truth. It is independent of any transport:
// the CLI, the sync hook server and tests all drive it through the same types.
//
// # Architecture
//
//   - Registry: the immutable, tier-ordered list of [TableDescriptor] values.
//   - Validator: [Validate] checks loaded rows for missing or duplicate ids and
//     broken references before anything is written.
//   - Normalizer: [NormalizeTable] and [NormalizeValue] turn source and store
//     rows into one canonical [Value] shape.
//   - Comparator: [CompareTables] produces a [TableDiff]; [FormatDiff] renders it.
//   - Seeder: [Seeder.Run] applies every table in one transaction.
//   - Syncer: [Syncer.SyncTable] applies one table in its own transaction.
//   - Parity: [Parity.Run] compares files and store without writing.
//
// # Table Registry
//
// Tables are declared once and passed explicitly:
//
//	reg, err := core.NewRegistry(
//	    core.TableDescriptor{Key: "motions", SourceFile: "motions.json",
//	        TargetTable: "motions", Tier: 1, SelfRefColumn: "parent_id",
//	        Columns: []core.Column{core.TextCol("label"), core.TextCol("parent_id")}},
//	)
//
// A table may only reference tables of the same or a lower tier, and a
// self-referencing table must be at least tier 1. [NewRegistry] rejects
// registries that break either rule.
//
// # Writes
//
// Both the seed pipeline and the incremental sync go through [ApplyTable]:
// roots of a self-referencing table are upserted before their children, rows
// that left the source are soft-deleted by clearing is_active, and the table's
// version sequence is bumped so consumers can poll for changes.
//
// # Error Handling
//
// The pipeline returns typed errors: [*ValidationFailedError],
// [*StoreError], [*ConfigError] and [*SourceError]. [MapError] converts any of
// them to an operator-facing [UserMessage] with a code:
//
//   - DB001-DB007: store errors (constraints, connectivity, missing tables)
//   - VAL001-VAL004: source validation errors
//   - SRC001-SRC002: unreadable source files
//   - CFG001-CFG002: registry and wiring problems
package core
