package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/idia-astro/ilifudb/internal/cli"
	"github.com/idia-astro/ilifudb/internal/db"
	"github.com/idia-astro/ilifudb/internal/service"
	"github.com/mattn/go-isatty"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var database *sql.DB
	defer func() {
		if database != nil {
			database.Close()
		}
	}()

	app := &cli.App{}

	// Services are wired once the global flags are parsed.
	app.Setup = func(ctx context.Context, opts cli.GlobalOptions) error {
		cfg, err := opts.Resolve()
		if err != nil {
			return err
		}
		logger := cfg.NewLogger(os.Stderr)

		var dialect db.Dialect
		database, dialect, err = db.Open(cfg.DB())
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		logger.Debug("database ready", "driver", dialect, "run_id", service.RunID(ctx))

		var observers []service.UseCaseObserver
		if cfg.Log.LogUseCases {
			observers = append(observers, service.NewSlogUseCaseObserver(logger))
		}
		app.Wire(database, dialect, observers...)
		return nil
	}

	// Detect an interactive terminal for password prompts.
	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	ctx := service.NewRunContext(context.Background())
	return cli.NewRootCmd(app).ExecuteContext(ctx)
}
