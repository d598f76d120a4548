package cli

import (
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/refsync/internal/config"
	"github.com/JonMunkholm/refsync/internal/core"
	"github.com/JonMunkholm/refsync/internal/core/tables"
	"github.com/JonMunkholm/refsync/internal/logging"
)

// RootOptions holds global flags and the state shared by every command.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// Overrides for the matching environment variables.
	DataDir     string
	Driver      string
	DatabaseURL string
	SQLitePath  string

	getenv   func(string) string
	registry *core.Registry
	cfg      *config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the refsync root command using the process
// environment and the default table registry.
func NewRootCommand() *cobra.Command {
	return newRootCommand(os.Getenv, tables.Default())
}

func newRootCommand(getenv func(string) string, reg *core.Registry) *cobra.Command {
	opts := &RootOptions{getenv: getenv, registry: reg}

	cmd := &cobra.Command{
		Use:   "refsync",
		Short: "Keep reference tables in step with their source files",
		Long: `refsync seeds a relational store from structured source files, applies
single-table syncs after edits, and proves with a parity check that the
store matches the files.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}

			cfg, err := config.LoadFrom(opts.lookupEnv)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid configuration", err)
			}
			if opts.Verbose {
				cfg.Logging.Level = "debug"
			}
			logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
			opts.cfg = cfg
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	flags.StringVar(&opts.DataDir, "data-dir", "", "source file directory (overrides DATA_DIR)")
	flags.StringVar(&opts.Driver, "driver", "", "store driver: postgres or sqlite (overrides STORE_DRIVER)")
	flags.StringVar(&opts.DatabaseURL, "database-url", "", "PostgreSQL connection string (overrides DATABASE_URL)")
	flags.StringVar(&opts.SQLitePath, "sqlite-path", "", "SQLite database file (overrides SQLITE_PATH)")

	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewParityCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewTablesCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}

// lookupEnv resolves an environment variable, letting flags win.
func (o *RootOptions) lookupEnv(key string) string {
	var override string
	switch key {
	case "DATA_DIR":
		override = o.DataDir
	case "STORE_DRIVER":
		override = o.Driver
	case "DATABASE_URL":
		override = o.DatabaseURL
	case "SQLITE_PATH":
		override = o.SQLitePath
	}
	if override != "" {
		return override
	}
	return o.getenv(key)
}
