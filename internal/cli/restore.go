package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"db-ops-toolkit/internal/models"
	"db-ops-toolkit/internal/services"
)

// RestoreSummary is what restore prints with --format json.
type RestoreSummary struct {
	Dir     string                  `json:"dir"`
	RunID   string                  `json:"run_id,omitempty"`
	Results []models.RestoreResult `json:"results"`
}

// NewRestoreCommand creates the restore command.
func NewRestoreCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <backup-dir>",
		Short: "Load a backup directory back into the store, referenced tables first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRestore(rootOpts, cmd, args[0])
		},
	}
}

func runRestore(opts *RootOptions, cmd *cobra.Command, dir string) error {
	formatter := newFormatter(opts, cmd)

	application, err := opts.open(opts, true)
	if err != nil {
		return err
	}
	defer application.Close()

	summary := RestoreSummary{Dir: dir}
	if manifest, err := services.ReadManifest(dir); err == nil {
		summary.RunID = manifest.RunID
		formatter.VerboseLog("Backup %s from %s, %d rows", manifest.RunID, manifest.CreatedAt.Format("2006-01-02 15:04:05"), manifest.TotalRows())
	}

	results, err := application.RestoreService.Restore(cmd.Context(), dir)
	summary.Results = results
	if errors.Is(err, services.ErrNoTables) {
		return formatter.Success(noTablesMessage(application), nil, nil)
	}
	if err != nil {
		if !formatter.JSON() {
			writeRestoreResults(formatter.Writer, results)
		}
		return formatter.Fail(ExitFailure, "Restore stopped: "+err.Error(), err, summary)
	}

	return formatter.Success("Done.", summary, func(w io.Writer) {
		fmt.Fprintf(w, "Restoring from %s\n\n", dir)
		writeRestoreResults(w, results)
		fmt.Fprintln(w, "\nDone.")
	})
}

func writeRestoreResults(w io.Writer, results []models.RestoreResult) {
	for _, r := range results {
		status := fmt.Sprintf("%d rows", r.Inserted)
		if r.Skipped {
			status = "skipped"
		}
		fmt.Fprintf(w, "  %-25s %s\n", r.TableName, status)
	}
}
