package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lbenicio/sitetrack/internal/domain"
	"github.com/lbenicio/sitetrack/internal/testutil"
)

// seedHierarchy inserts a project, plan, lot and task so declaration rows
// satisfy their foreign keys.
func seedHierarchy(t *testing.T, ctx context.Context, database *sql.DB) (*domain.Project, *domain.PlanningDocument, *domain.Lot, *domain.Task) {
	t.Helper()

	proj := testutil.NewTestProject("Hierarchy")
	require.NoError(t, NewSQLiteProjectRepo(database).Create(ctx, proj))

	plan := testutil.NewTestPlan(proj.ID)
	require.NoError(t, NewSQLitePlanRepo(database).Create(ctx, plan))

	lot := testutil.NewTestLot(plan.ID, "Lot A")
	require.NoError(t, NewSQLiteLotRepo(database).Create(ctx, lot))

	task := testutil.NewTestTask(lot.ID, plan.ID, "Earthworks")
	require.NoError(t, NewSQLiteTaskRepo(database).Create(ctx, task))

	return proj, plan, lot, task
}

func TestDeclarationRepo_CreateAndGet(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	proj, _, _, task := seedHierarchy(t, ctx, database)

	repo := NewSQLiteDeclarationRepo(database)
	decl := testutil.NewTestDeclaration(task, proj.ID, testutil.WithDeclaredPct(40))
	require.NoError(t, repo.Create(ctx, decl))

	got, err := repo.GetByID(ctx, decl.ID)
	require.NoError(t, err)
	assert.Equal(t, 40.0, got.DeclaredPct)
	assert.Equal(t, domain.DeclarationDraft, got.State)
	assert.Equal(t, 1, got.Version)
	assert.Equal(t, decl.ExecutionDate.Format("2006-01-02"), got.ExecutionDate.Format("2006-01-02"))
}

func TestDeclarationRepo_LatestValidatedByTask(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	proj, _, _, task := seedHierarchy(t, ctx, database)

	repo := NewSQLiteDeclarationRepo(database)

	// No validated declarations yet: nil without error.
	latest, err := repo.LatestValidatedByTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, latest)

	early := testutil.NewTestDeclaration(task, proj.ID,
		testutil.WithDeclaredPct(20),
		testutil.WithDeclarationState(domain.DeclarationValidated),
		testutil.WithExecutionDate(testutil.FixtureStart.AddDate(0, 1, 0)))
	late := testutil.NewTestDeclaration(task, proj.ID,
		testutil.WithDeclaredPct(55),
		testutil.WithDeclarationState(domain.DeclarationValidated),
		testutil.WithExecutionDate(testutil.FixtureStart.AddDate(0, 4, 0)))
	pending := testutil.NewTestDeclaration(task, proj.ID,
		testutil.WithDeclaredPct(80),
		testutil.WithDeclarationState(domain.DeclarationSubmitted),
		testutil.WithExecutionDate(testutil.FixtureStart.AddDate(0, 6, 0)))

	require.NoError(t, repo.Create(ctx, late))
	require.NoError(t, repo.Create(ctx, early))
	require.NoError(t, repo.Create(ctx, pending))

	latest, err = repo.LatestValidatedByTask(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, late.ID, latest.ID, "latest validated must win over earlier validated and pending rows")
	assert.Equal(t, 55.0, latest.DeclaredPct)
}

func TestDeclarationRepo_ListValidatedByPlan_EffectiveDateOrder(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	proj, plan, _, task := seedHierarchy(t, ctx, database)

	repo := NewSQLiteDeclarationRepo(database)

	// Validated later in wall-clock time but executed earlier; the
	// validated_at date drives replay order.
	first := testutil.NewTestDeclaration(task, proj.ID,
		testutil.WithDeclaredPct(30),
		testutil.WithDeclarationState(domain.DeclarationValidated),
		testutil.WithExecutionDate(testutil.FixtureStart.AddDate(0, 1, 0)),
		testutil.WithValidatedAt(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)))
	second := testutil.NewTestDeclaration(task, proj.ID,
		testutil.WithDeclaredPct(60),
		testutil.WithDeclarationState(domain.DeclarationValidated),
		testutil.WithExecutionDate(testutil.FixtureStart.AddDate(0, 2, 0)),
		testutil.WithValidatedAt(time.Date(2025, 4, 2, 9, 0, 0, 0, time.UTC)))
	// Legacy row with no validation timestamp falls back to execution date.
	legacy := testutil.NewTestDeclaration(task, proj.ID,
		testutil.WithDeclaredPct(10),
		testutil.WithDeclarationState(domain.DeclarationValidated),
		testutil.WithExecutionDate(testutil.FixtureStart.AddDate(0, 0, 10)))

	require.NoError(t, repo.Create(ctx, second))
	require.NoError(t, repo.Create(ctx, legacy))
	require.NoError(t, repo.Create(ctx, first))

	list, err := repo.ListValidatedByPlan(ctx, plan.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, legacy.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
	assert.Equal(t, second.ID, list[2].ID)
}

func TestDeclarationRepo_PendingByProject(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	proj, _, _, task := seedHierarchy(t, ctx, database)

	repo := NewSQLiteDeclarationRepo(database)

	states := []domain.DeclarationState{
		domain.DeclarationDraft,
		domain.DeclarationSubmitted,
		domain.DeclarationUnderReview,
		domain.DeclarationValidated,
		domain.DeclarationRejected,
	}
	for _, s := range states {
		d := testutil.NewTestDeclaration(task, proj.ID, testutil.WithDeclarationState(s))
		require.NoError(t, repo.Create(ctx, d))
	}

	pending, err := repo.ListPendingByProject(ctx, proj.ID)
	require.NoError(t, err)
	assert.Len(t, pending, 2, "only submitted and under_review count as pending")
	for _, d := range pending {
		assert.True(t, d.IsPending())
	}

	count, err := repo.CountPendingByProject(ctx, proj.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestDeclarationRepo_Update_VersionConflict(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	proj, _, _, task := seedHierarchy(t, ctx, database)

	repo := NewSQLiteDeclarationRepo(database)
	decl := testutil.NewTestDeclaration(task, proj.ID, testutil.WithDeclarationState(domain.DeclarationUnderReview))
	require.NoError(t, repo.Create(ctx, decl))

	// Two reviewers read the same row.
	winner, err := repo.GetByID(ctx, decl.ID)
	require.NoError(t, err)
	loser, err := repo.GetByID(ctx, decl.ID)
	require.NoError(t, err)

	now := time.Now().UTC()
	winner.State = domain.DeclarationValidated
	winner.ValidatedBy = "reviewer-1"
	winner.ValidatedAt = &now
	winner.UpdatedAt = now
	require.NoError(t, repo.Update(ctx, winner))
	assert.Equal(t, 2, winner.Version, "successful update bumps the in-memory version")

	loser.State = domain.DeclarationRejected
	loser.RejectionReason = "insufficient evidence on site photos"
	loser.UpdatedAt = now
	err = repo.Update(ctx, loser)
	require.Error(t, err)

	var conflict *domain.ConcurrentConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, decl.ID, conflict.ID)

	// The winner's decision is what persisted.
	got, err := repo.GetByID(ctx, decl.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DeclarationValidated, got.State)
	assert.Equal(t, "reviewer-1", got.ValidatedBy)
}
