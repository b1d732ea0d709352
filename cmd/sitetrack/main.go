package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"

	"github.com/lbenicio/sitetrack/internal/cli"
	"github.com/lbenicio/sitetrack/internal/db"
	"github.com/lbenicio/sitetrack/internal/repository"
	"github.com/lbenicio/sitetrack/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// DB path: env var or default ~/.sitetrack/sitetrack.db
	dbPath := os.Getenv("SITETRACK_DB")
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("finding home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".sitetrack", "sitetrack.db")
	}

	database, err := db.OpenDB(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	projectRepo := repository.NewSQLiteProjectRepo(database)
	planRepo := repository.NewSQLitePlanRepo(database)
	lotRepo := repository.NewSQLiteLotRepo(database)
	taskRepo := repository.NewSQLiteTaskRepo(database)
	declRepo := repository.NewSQLiteDeclarationRepo(database)
	ledger := repository.NewSQLiteValidationLedger(database)

	uow := db.NewSQLiteUnitOfWork(database)

	var observer service.UseCaseObserver = service.NoopUseCaseObserver{}
	if os.Getenv("SITETRACK_LOG") != "" {
		observer = service.NewLogUseCaseObserver(os.Stderr)
	}
	var notifier service.Notifier = service.NoopNotifier{}
	if os.Getenv("SITETRACK_LOG") != "" {
		notifier = service.NewLogNotifier(os.Stderr)
	}

	app := &cli.App{
		Projects:     service.NewProjectService(projectRepo, planRepo, taskRepo, declRepo, notifier, observer),
		Plans:        service.NewPlanService(projectRepo, planRepo, lotRepo, taskRepo, uow, service.LocalTaskSyncer{}, notifier, observer),
		Declarations: service.NewDeclarationService(projectRepo, planRepo, taskRepo, declRepo, ledger, uow, notifier, observer),
		Progress:     service.NewProgressService(projectRepo, planRepo, taskRepo, declRepo, ledger),
	}

	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	rootCmd := cli.NewRootCmd(app)
	return rootCmd.Execute()
}
