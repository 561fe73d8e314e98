package cli

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"db-ops-toolkit/internal/services"
)

// NewBackupCommand creates the backup command.
func NewBackupCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Export every table to CSV under a timestamped backup directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackup(rootOpts, cmd)
		},
	}
}

func runBackup(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	application, err := opts.open(opts, true)
	if err != nil {
		return err
	}
	defer application.Close()

	manifest, err := application.BackupService.Backup(cmd.Context())
	if errors.Is(err, services.ErrNoTables) {
		return formatter.Success(noTablesMessage(application), nil, nil)
	}
	if err != nil {
		return formatter.Fail(ExitFailure, "Backup failed", err, nil)
	}

	return formatter.Success("", manifest, func(w io.Writer) {
		fmt.Fprintf(w, "Backing up to %s\n", manifest.Dir)
		for _, e := range manifest.Tables {
			fmt.Fprintf(w, "  %s: %d rows -> %s\n", e.Table, e.Rows, filepath.Join(manifest.Dir, e.File))
		}
	})
}
