package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"db-ops-toolkit/internal/models"
	"db-ops-toolkit/internal/services"
)

const (
	unknownCount = "?"
	emptyCell    = "—"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	ruleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show row count and latest created_at for every table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(rootOpts, cmd)
		},
	}
}

func runStatus(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	application, err := opts.open(opts, true)
	if err != nil {
		return err
	}
	defer application.Close()

	rows, err := application.StatusService.Status(cmd.Context())
	if errors.Is(err, services.ErrNoTables) {
		return formatter.Success(noTablesMessage(application), []models.TableStatus{}, nil)
	}
	if err != nil {
		return formatter.Fail(ExitFailure, "Status failed", err, nil)
	}

	return formatter.Success("", rows, func(w io.Writer) {
		renderStatus(w, rows)
	})
}

func renderStatus(w io.Writer, rows []models.TableStatus) {
	cells := make([][3]string, 0, len(rows))
	widths := [3]int{len("Table"), len("Rows"), len("Latest")}

	for _, r := range rows {
		count := unknownCount
		if r.RowCount != nil {
			count = strconv.FormatInt(*r.RowCount, 10)
		}
		latest := emptyCell
		if r.LatestAt != nil {
			latest = r.LatestAt.Format("2006-01-02 15:04:05")
		}

		row := [3]string{r.TableName, count, latest}
		for i, c := range row {
			widths[i] = max(widths[i], lipgloss.Width(c))
		}
		cells = append(cells, row)
	}

	left := func(i int) lipgloss.Style { return lipgloss.NewStyle().Width(widths[i]) }
	right := func(i int) lipgloss.Style { return left(i).Align(lipgloss.Right) }

	line := func(a, b, c string) string {
		return "  " + a + "  " + b + "  " + c
	}

	fmt.Fprintln(w, headerStyle.Render(line(
		left(0).Render("Table"), right(1).Render("Rows"), left(2).Render("Latest"))))
	fmt.Fprintln(w, ruleStyle.Render(line(
		strings.Repeat("─", widths[0]), strings.Repeat("─", widths[1]), strings.Repeat("─", widths[2]))))

	for _, c := range cells {
		fmt.Fprintln(w, line(left(0).Render(c[0]), right(1).Render(c[1]), left(2).Render(c[2])))
	}
}
