package cli

import (
	"context"
	"database/sql"

	"github.com/idia-astro/ilifudb/internal/db"
	"github.com/idia-astro/ilifudb/internal/repository"
	"github.com/idia-astro/ilifudb/internal/service"
	"github.com/spf13/cobra"
)

// skipSetup marks commands that run without a database.
const skipSetup = "skip-setup"

// App holds references to all service interfaces used by CLI commands.
type App struct {
	Tree    service.ResourceTreeService
	Users   service.UserService
	Members service.MembershipService
	Import  service.ImportService
	Dialect db.Dialect

	// Setup wires the services from the global flags before a command
	// runs. Tests leave it nil and call Wire directly.
	Setup func(ctx context.Context, opts GlobalOptions) error

	IsInteractive func() bool
	// PromptPassword asks for a password on the terminal. Nil uses a huh form.
	PromptPassword func(title string) (string, error)
}

// Wire builds repositories and services over database.
func (a *App) Wire(database *sql.DB, dialect db.Dialect, observers ...service.UseCaseObserver) {
	conn := db.Bind(database, dialect)
	projects := repository.NewSQLProjectRepo(conn)
	users := repository.NewSQLUserRepo(conn)
	members := repository.NewSQLMembershipRepo(conn)
	uow := db.NewUnitOfWork(database, dialect)

	a.Dialect = dialect
	a.Tree = service.NewResourceTreeService(projects, uow, observers...)
	a.Users = service.NewUserService(users, projects, observers...)
	a.Members = service.NewMembershipService(members, observers...)
	a.Import = service.NewImportService(uow, observers...)
}

// NewRootCmd creates the top-level "ilifudb" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	opts := &GlobalOptions{}

	root := &cobra.Command{
		Use:           "ilifudb",
		Short:         "Manage Ilifu users, projects and the project resource tree",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if app.Setup == nil || cmd.Annotations[skipSetup] != "" {
				return nil
			}
			return app.Setup(cmd.Context(), *opts)
		},
	}
	opts.AddFlags(root.PersistentFlags())

	root.AddCommand(
		newProjectCmd(app),
		newUserCmd(app),
		newMemberCmd(app),
		newImportCmd(app),
		newSchemaCmd(app, opts),
		newConfigCmd(opts),
	)

	return root
}
