package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lbenicio/sitetrack/internal/db"
	"github.com/lbenicio/sitetrack/internal/domain"
	"github.com/lbenicio/sitetrack/internal/repository"
	"github.com/lbenicio/sitetrack/internal/testutil"
)

var (
	manager    = domain.Actor{ID: "manager-1", Name: "Project Manager", Role: "manager"}
	supervisor = domain.Actor{ID: "supervisor-1", Name: "Works Supervisor", Role: "supervisor"}
)

// env bundles the full service stack over one test database.
type env struct {
	db           *sql.DB
	projects     ProjectService
	plans        PlanService
	declarations DeclarationService
	progress     ProgressService

	projectRepo repository.ProjectRepo
	planRepo    repository.PlanRepo
	lotRepo     repository.LotRepo
	taskRepo    repository.TaskRepo
	declRepo    repository.DeclarationRepo
	ledger      *repository.SQLiteValidationLedger
	uow         db.UnitOfWork
}

func newEnv(t *testing.T) *env {
	t.Helper()
	database := testutil.NewTestDB(t)
	uow := testutil.NewTestUoW(database)

	projectRepo := repository.NewSQLiteProjectRepo(database)
	planRepo := repository.NewSQLitePlanRepo(database)
	lotRepo := repository.NewSQLiteLotRepo(database)
	taskRepo := repository.NewSQLiteTaskRepo(database)
	declRepo := repository.NewSQLiteDeclarationRepo(database)
	ledger := repository.NewSQLiteValidationLedger(database)

	return &env{
		db:           database,
		projects:     NewProjectService(projectRepo, planRepo, taskRepo, declRepo, NoopNotifier{}),
		plans:        NewPlanService(projectRepo, planRepo, lotRepo, taskRepo, uow, LocalTaskSyncer{}, NoopNotifier{}),
		declarations: NewDeclarationService(projectRepo, planRepo, taskRepo, declRepo, ledger, uow, NoopNotifier{}),
		progress:     NewProgressService(projectRepo, planRepo, taskRepo, declRepo, ledger),
		projectRepo:  projectRepo,
		planRepo:     planRepo,
		lotRepo:      lotRepo,
		taskRepo:     taskRepo,
		declRepo:     declRepo,
		ledger:       ledger,
		uow:          uow,
	}
}

// buildApprovedPlan creates a project with a two-task plan (weights 60/40)
// and walks the plan to approved.
func (e *env) buildApprovedPlan(t *testing.T, ctx context.Context) (*domain.Project, *domain.PlanningDocument, []*domain.Task) {
	t.Helper()

	project := testutil.NewTestProject("Ring Road")
	require.NoError(t, e.projects.Create(ctx, project))

	plan, err := e.plans.CreatePlan(ctx, project.ID, "")
	require.NoError(t, err)

	lot := testutil.NewTestLot(plan.ID, "Lot 1")
	require.NoError(t, e.plans.AddLot(ctx, lot))

	taskA := testutil.NewTestTask(lot.ID, plan.ID, "Earthworks", testutil.WithWeight(60))
	taskB := testutil.NewTestTask(lot.ID, plan.ID, "Paving", testutil.WithWeight(40))
	require.NoError(t, e.plans.AddTask(ctx, taskA))
	require.NoError(t, e.plans.AddTask(ctx, taskB))

	require.NoError(t, e.plans.Submit(ctx, plan.ID))
	require.NoError(t, e.plans.Approve(ctx, plan.ID, manager))

	return project, plan, []*domain.Task{taskA, taskB}
}

// buildRunningProject moves the approved-plan fixture into the running state.
func (e *env) buildRunningProject(t *testing.T, ctx context.Context) (*domain.Project, *domain.PlanningDocument, []*domain.Task) {
	t.Helper()
	project, plan, tasks := e.buildApprovedPlan(t, ctx)
	require.NoError(t, e.projects.MarkPlanned(ctx, project.ID, manager))
	require.NoError(t, e.projects.Start(ctx, project.ID, manager))
	return project, plan, tasks
}

// declareValidated walks a declaration through the full happy path.
func (e *env) declareValidated(t *testing.T, ctx context.Context, task *domain.Task, projectID string, pct float64, execDate time.Time) *domain.ProgressDeclaration {
	t.Helper()
	d := testutil.NewTestDeclaration(task, projectID,
		testutil.WithDeclaredPct(pct),
		testutil.WithExecutionDate(execDate))
	d.ID = ""
	require.NoError(t, e.declarations.Create(ctx, d))
	require.NoError(t, e.declarations.Submit(ctx, d.ID))
	require.NoError(t, e.declarations.StartReview(ctx, d.ID))
	require.NoError(t, e.declarations.Validate(ctx, d.ID, supervisor, "checked against site records"))
	return d
}
