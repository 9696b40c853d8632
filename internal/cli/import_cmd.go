package cli

import (
	"fmt"
	"strings"

	"github.com/idia-astro/ilifudb/internal/db"
	"github.com/spf13/cobra"
)

func newImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Import users, projects and memberships from a YAML or JSON tree file",
		Long: `Import users, projects and memberships from a tree file.

Files ending in .json are read as JSON, anything else as YAML. The file is
validated as a whole first; the import then runs in a single transaction
and stores nothing if any record fails.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := app.Import.ImportFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d user(s), %d project(s), %d membership(s)\n",
				result.UserCount, result.ProjectCount, result.MemberCount)
			return nil
		},
	}
}

func newSchemaCmd(app *App, opts *GlobalOptions) *cobra.Command {
	var dialect string

	cmd := &cobra.Command{
		Use:         "schema",
		Short:       "Print the database schema DDL",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipSetup: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			driver := dialect
			if driver == "" {
				driver = string(app.Dialect)
			}
			if driver == "" {
				cfg, err := opts.Resolve()
				if err != nil {
					return err
				}
				driver = cfg.Database.Driver
			}
			d, err := db.ParseDialect(driver)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, stmt := range db.Schema(d) {
				fmt.Fprintf(out, "%s;\n\n", strings.TrimSpace(stmt))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dialect, "dialect", "", "sqlite or postgres (default: the configured driver)")

	return cmd
}
