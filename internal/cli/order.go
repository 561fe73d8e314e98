package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"db-ops-toolkit/internal/services"
)

type orderOptions struct {
	restore bool
}

// NewOrderCommand creates the order command.
func NewOrderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &orderOptions{}

	cmd := &cobra.Command{
		Use:   "order",
		Short: "Print the order tables are deleted in (or restored in, with --restore)",
		Long: `Print the foreign-key safe processing order.

By default tables that reference others come first, which is the order bulk
deletes use. With --restore referenced tables come first instead.
Circular references are reported and the remaining tables are appended in
declaration order.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrder(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.restore, "restore", false, "print the restore order (referenced tables first)")

	return cmd
}

func runOrder(rootOpts *RootOptions, opts *orderOptions, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)

	application, sch, err := openSchema(rootOpts, cmd, false)
	if err != nil {
		return err
	}
	defer application.Close()

	report := services.OrderReport(sch, opts.restore)
	if sch.Len() == 0 {
		return formatter.Success(noTablesMessage(application), report, nil)
	}

	formatter.VerboseLog("%d tables, %s order", len(report.Tables), report.Direction)

	message := ""
	if report.Fallback {
		message = fmt.Sprintf("Circular references between %s, order is best effort", strings.Join(report.Unresolved, ", "))
	}

	return formatter.Success(message, report, func(w io.Writer) {
		for _, t := range report.Tables {
			fmt.Fprintf(w, "%3d. %s\n", t.Position+1, t.TableName)
		}
		if message != "" {
			fmt.Fprintf(w, "\n%s\n", message)
		}
	})
}
