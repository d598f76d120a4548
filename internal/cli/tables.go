package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// TableInfo describes a registered table in the tables command output.
type TableInfo struct {
	Key         string   `json:"key"`
	Tier        int      `json:"tier"`
	SourceFile  string   `json:"source_file"`
	TargetTable string   `json:"target_table"`
	KeyValue    bool     `json:"key_value,omitempty"`
	SelfRef     string   `json:"self_ref,omitempty"`
	References  []string `json:"references,omitempty"`
	Columns     []string `json:"columns"`
}

// NewTablesCommand creates the tables command.
func NewTablesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "List registered tables in tier order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTables(cmd, rootOpts)
		},
	}
	return cmd
}

func runTables(cmd *cobra.Command, opts *RootOptions) error {
	var infos []TableInfo
	for _, d := range opts.registry.ForEachInTierOrder() {
		info := TableInfo{
			Key:         d.Key,
			Tier:        d.Tier,
			SourceFile:  d.SourceFile,
			TargetTable: d.TargetTable,
			KeyValue:    d.IsKeyValueMap,
			SelfRef:     d.SelfRefColumn,
			Columns:     d.ColumnNames(),
		}
		for _, fk := range d.ForeignKeys {
			info.References = append(info.References, fk.Column+"->"+fk.RefTable)
		}
		infos = append(infos, info)
	}

	w := cmd.OutOrStdout()
	if opts.Format == "json" {
		return writeOK(w, infos)
	}

	for _, info := range infos {
		fmt.Fprintf(w, "%d  %-22s %-26s %2d columns", info.Tier, info.Key, info.SourceFile, len(info.Columns))
		if info.KeyValue {
			fmt.Fprint(w, "  key-value")
		}
		if info.SelfRef != "" {
			fmt.Fprintf(w, "  self-ref %s", info.SelfRef)
		}
		if len(info.References) > 0 {
			fmt.Fprintf(w, "  refs %s", strings.Join(info.References, ", "))
		}
		fmt.Fprintln(w)
	}
	return nil
}
