package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"db-ops-toolkit/internal/app"
	"db-ops-toolkit/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	EnvFile    string
	SchemaPath string
	Verbose    bool
	Format     string // "json" | "text"

	open Opener
}

// Opener builds the application for a command. withStore is false for
// commands that only read the schema.
type Opener func(opts *RootOptions, withStore bool) (*app.Application, error)

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the dbops CLI.
func NewRootCommand() *cobra.Command {
	return NewRootCommandWithOpener(OpenApplication)
}

// NewRootCommandWithOpener lets callers replace how config and the store are set up.
func NewRootCommandWithOpener(open Opener) *cobra.Command {
	opts := &RootOptions{open: open}

	cmd := &cobra.Command{
		Use:   "dbops",
		Short: "dbops - schema-aware database maintenance",
		Long: `Maintenance tools driven by the project's SQL schema.

Tables are processed in foreign-key order: bulk deletes remove dependent
rows before the rows they reference, restores load referenced rows first.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file with store credentials")
	cmd.PersistentFlags().StringVar(&opts.SchemaPath, "schema", "", "schema file (overrides SCHEMA_PATH)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewTablesCommand(opts))
	cmd.AddCommand(NewOrderCommand(opts))
	cmd.AddCommand(NewBackupCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewRestoreCommand(opts))

	return cmd
}

// OpenApplication loads configuration from the environment and the env file,
// sets up logging, and connects the configured store when withStore is set.
func OpenApplication(opts *RootOptions, withStore bool) (*app.Application, error) {
	cfg, err := config.Load(opts.EnvFile)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load configuration", err)
	}

	level := cfg.Log.Level
	if opts.Verbose {
		level = "debug"
	}
	config.InitLogger(os.Stderr, level)

	if opts.SchemaPath != "" {
		cfg.Schema.Path = opts.SchemaPath
	}

	// The catalog schema source needs a connection even for read-only commands.
	if !withStore && cfg.Schema.Source != "database" {
		return app.NewApplication(cfg, nil, nil), nil
	}

	if err := cfg.Validate(); err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	st, db, err := app.NewStore(cfg)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open store", err)
	}

	return app.NewApplication(cfg, db, st), nil
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// Execute runs the command tree and returns the process exit code.
func Execute(cmd *cobra.Command, args []string, stderr io.Writer) int {
	cmd.SetArgs(args)
	err := cmd.Execute()
	if err != nil && !IsReported(err) {
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return GetExitCode(err)
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
