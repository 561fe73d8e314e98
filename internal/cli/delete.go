package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"db-ops-toolkit/internal/models"
	"db-ops-toolkit/internal/services"
	"db-ops-toolkit/internal/store"
)

type deleteOptions struct {
	dryRun bool
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &deleteOptions{}

	cmd := &cobra.Command{
		Use:   "delete <minutes>",
		Short: "Delete every row created in the last N minutes",
		Long: fmt.Sprintf(`Delete every row whose created_at falls within the last N minutes.

Tables are processed dependents first so foreign keys never block a delete.
Windows wider than %d minutes are refused; do those by hand.`, services.MaxDeleteMinutes),
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(rootOpts, opts, cmd, args)
		},
	}

	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "print the cutoff and table order without deleting")

	return cmd
}

func runDelete(rootOpts *RootOptions, opts *deleteOptions, cmd *cobra.Command, args []string) error {
	formatter := newFormatter(rootOpts, cmd)

	if len(args) != 1 {
		return formatter.Fail(ExitFailure, "Usage: dbops delete <minutes>", nil, nil)
	}
	minutes, err := strconv.Atoi(args[0])
	if err != nil {
		return formatter.Fail(ExitFailure, "Minutes must be a whole number.", err, nil)
	}

	// Refuse before any configuration or store is touched.
	switch err := services.ValidateWindow(minutes); {
	case errors.Is(err, services.ErrWindowTooLarge):
		return formatter.Fail(ExitFailure, fmt.Sprintf(
			"Refusing: %d > %d min. Do it manually to avoid accidents.", minutes, services.MaxDeleteMinutes), err, nil)
	case errors.Is(err, services.ErrWindowNotPositive):
		return formatter.Fail(ExitFailure, "Minutes must be positive.", err, nil)
	}

	application, err := rootOpts.open(rootOpts, !opts.dryRun)
	if err != nil {
		return err
	}
	defer application.Close()

	if opts.dryRun {
		report, err := application.CleanupService.Plan(cmd.Context(), minutes)
		if errors.Is(err, services.ErrNoTables) {
			return formatter.Success(noTablesMessage(application), nil, nil)
		}
		if err != nil {
			return formatter.Fail(ExitFailure, "Delete plan failed", err, nil)
		}
		return formatter.Success("Dry run, nothing deleted.", report, func(w io.Writer) {
			fmt.Fprintf(w, "Would delete rows created after %s (last %d min)\n\n", store.CutoffParam(report.Cutoff), minutes)
			for _, table := range report.Order {
				fmt.Fprintf(w, "  %s\n", table)
			}
			fmt.Fprintln(w, "\nDry run, nothing deleted.")
		})
	}

	report, err := application.CleanupService.DeleteRecent(cmd.Context(), minutes)
	if errors.Is(err, services.ErrNoTables) {
		return formatter.Success(noTablesMessage(application), nil, nil)
	}
	if err != nil && report == nil {
		return formatter.Fail(ExitFailure, "Delete failed", err, nil)
	}
	if err != nil {
		if !formatter.JSON() {
			writeDeleteResults(formatter.Writer, report)
			fmt.Fprintln(formatter.Writer)
		}
		return formatter.Fail(ExitFailure, "Delete stopped: "+err.Error(), err, report)
	}

	return formatter.Success("Done.", report, func(w io.Writer) {
		writeDeleteResults(w, report)
		fmt.Fprintln(w, "\nDone.")
	})
}

func writeDeleteResults(w io.Writer, report *models.DeleteReport) {
	fmt.Fprintf(w, "Deleting rows created after %s (last %d min)\n\n", store.CutoffParam(report.Cutoff), report.Minutes)
	for _, r := range report.Results {
		status := emptyCell
		if r.Deleted > 0 {
			status = fmt.Sprintf("%d deleted", r.Deleted)
		}
		fmt.Fprintf(w, "  %-25s %s\n", r.TableName, status)
	}
}
