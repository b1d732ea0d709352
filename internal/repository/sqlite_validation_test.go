package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lbenicio/sitetrack/internal/domain"
	"github.com/lbenicio/sitetrack/internal/testutil"
)

var reviewer = domain.Actor{ID: "reviewer-1", Name: "Site Reviewer", Role: "supervisor"}

func appendRecord(t *testing.T, ctx context.Context, ledger *SQLiteValidationLedger, decl *domain.ProgressDeclaration, decision domain.Decision, comment string, decidedAt time.Time) *domain.ValidationRecord {
	t.Helper()
	rec, err := domain.NewValidationRecord(uuid.New().String(), decl, decision, reviewer, comment, decidedAt)
	require.NoError(t, err)
	require.NoError(t, ledger.Append(ctx, rec))
	return rec
}

func TestValidationLedger_AppendAndRoundTrip(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	proj, _, _, task := seedHierarchy(t, ctx, database)

	declRepo := NewSQLiteDeclarationRepo(database)
	decl := testutil.NewTestDeclaration(task, proj.ID, testutil.WithDeclaredPct(45))
	require.NoError(t, declRepo.Create(ctx, decl))

	ledger := NewSQLiteValidationLedger(database)
	decidedAt := decl.ExecutionDate.AddDate(0, 0, 3)
	rec := appendRecord(t, ctx, ledger, decl, domain.DecisionValidated, "verified on site", decidedAt)

	got, err := ledger.GetByID(ctx, rec.ID())
	require.NoError(t, err)
	assert.Equal(t, decl.ID, got.DeclarationID())
	assert.Equal(t, domain.DecisionValidated, got.Decision())
	assert.Equal(t, reviewer.ID, got.ValidatorID())
	assert.Equal(t, 45.0, got.DeclaredPct())
	assert.Equal(t, rec.Hash(), got.Hash())
	assert.True(t, got.Verify(), "hash must survive the storage round trip")
}

func TestValidationLedger_ListByDeclaration_Order(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	proj, _, _, task := seedHierarchy(t, ctx, database)

	declRepo := NewSQLiteDeclarationRepo(database)
	decl := testutil.NewTestDeclaration(task, proj.ID)
	require.NoError(t, declRepo.Create(ctx, decl))

	ledger := NewSQLiteValidationLedger(database)
	base := decl.ExecutionDate.AddDate(0, 0, 1)

	correction := appendRecord(t, ctx, ledger, decl, domain.DecisionCorrectionRequested,
		"quantities do not match the survey", base)
	validation := appendRecord(t, ctx, ledger, decl, domain.DecisionValidated,
		"corrected figures accepted", base.AddDate(0, 0, 5))

	list, err := ledger.ListByDeclaration(ctx, decl.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, correction.ID(), list[0].ID())
	assert.Equal(t, validation.ID(), list[1].ID())

	latest, err := ledger.Latest(ctx, decl.ID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, validation.ID(), latest.ID())

	count, err := ledger.CountByDeclaration(ctx, decl.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestValidationLedger_Latest_NoRecords(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()

	ledger := NewSQLiteValidationLedger(database)
	latest, err := ledger.Latest(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestValidationLedger_ListByProject(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	proj, _, _, task := seedHierarchy(t, ctx, database)

	declRepo := NewSQLiteDeclarationRepo(database)
	a := testutil.NewTestDeclaration(task, proj.ID, testutil.WithDeclaredPct(20))
	b := testutil.NewTestDeclaration(task, proj.ID, testutil.WithDeclaredPct(50))
	require.NoError(t, declRepo.Create(ctx, a))
	require.NoError(t, declRepo.Create(ctx, b))

	ledger := NewSQLiteValidationLedger(database)
	appendRecord(t, ctx, ledger, a, domain.DecisionValidated, "first tranche", a.ExecutionDate.AddDate(0, 0, 1))
	appendRecord(t, ctx, ledger, b, domain.DecisionValidated, "second tranche", b.ExecutionDate.AddDate(0, 0, 8))

	list, err := ledger.ListByProject(ctx, proj.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.True(t, list[0].DecidedAt().Before(list[1].DecidedAt()))
}

func TestValidationLedger_MutationRequiresSystemActor(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	proj, _, _, task := seedHierarchy(t, ctx, database)

	declRepo := NewSQLiteDeclarationRepo(database)
	decl := testutil.NewTestDeclaration(task, proj.ID)
	require.NoError(t, declRepo.Create(ctx, decl))

	ledger := NewSQLiteValidationLedger(database)
	rec := appendRecord(t, ctx, ledger, decl, domain.DecisionValidated, "ok", decl.ExecutionDate.AddDate(0, 0, 1))

	var immutable *domain.ImmutableRecordError

	err := ledger.Repair(ctx, reviewer, rec)
	require.Error(t, err)
	require.ErrorAs(t, err, &immutable)
	assert.Equal(t, "write", immutable.Operation)

	err = ledger.Purge(ctx, reviewer, rec.ID())
	require.Error(t, err)
	require.ErrorAs(t, err, &immutable)
	assert.Equal(t, "delete", immutable.Operation)

	// Record is untouched after the refused attempts.
	got, err := ledger.GetByID(ctx, rec.ID())
	require.NoError(t, err)
	assert.True(t, got.Verify())

	// The system actor may purge for data-repair tooling.
	require.NoError(t, ledger.Purge(ctx, domain.System, rec.ID()))
	_, err = ledger.GetByID(ctx, rec.ID())
	assert.Error(t, err)
}
