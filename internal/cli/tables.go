package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"db-ops-toolkit/internal/app"
	"db-ops-toolkit/internal/schema"
)

// TableEntry is one declared table with the tables it references.
type TableEntry struct {
	Name      string   `json:"name"`
	DependsOn []string `json:"depends_on"`
}

// NewTablesCommand creates the tables command.
func NewTablesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List the tables declared in the schema and what they reference",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTables(rootOpts, cmd)
		},
	}
}

func runTables(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	application, sch, err := openSchema(opts, cmd, false)
	if err != nil {
		return err
	}
	defer application.Close()

	if sch.Len() == 0 {
		return formatter.Success(noTablesMessage(application), []TableEntry{}, nil)
	}

	entries := make([]TableEntry, 0, sch.Len())
	for _, name := range sch.TableList() {
		entries = append(entries, TableEntry{Name: name, DependsOn: sch.Dependencies(name)})
	}

	return formatter.Success("", entries, func(w io.Writer) {
		for _, e := range entries {
			if len(e.DependsOn) == 0 {
				fmt.Fprintf(w, "  %s\n", e.Name)
				continue
			}
			fmt.Fprintf(w, "  %-25s -> %s\n", e.Name, strings.Join(e.DependsOn, ", "))
		}
	})
}

// openSchema opens the application and loads a fresh schema snapshot.
func openSchema(opts *RootOptions, cmd *cobra.Command, withStore bool) (*app.Application, *schema.Schema, error) {
	application, err := opts.open(opts, withStore)
	if err != nil {
		return nil, nil, err
	}

	sch, err := application.SchemaService.Load(cmd.Context())
	if err != nil {
		application.Close()
		return nil, nil, WrapExitError(ExitCommandError, "failed to load schema", err)
	}

	return application, sch, nil
}

func noTablesMessage(application *app.Application) string {
	if application.Config.Schema.Source == "database" {
		return "No tables found in database"
	}
	return fmt.Sprintf("No tables found in %s", application.Config.Schema.Path)
}
