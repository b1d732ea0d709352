package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lbenicio/sitetrack/internal/domain"
	"github.com/lbenicio/sitetrack/internal/testutil"
)

func TestPlanSubmit_RejectsUnbalancedWeights(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	project := testutil.NewTestProject("Dam")
	require.NoError(t, e.projects.Create(ctx, project))

	plan, err := e.plans.CreatePlan(ctx, project.ID, "rev-A")
	require.NoError(t, err)

	lot := testutil.NewTestLot(plan.ID, "Civil works")
	require.NoError(t, e.plans.AddLot(ctx, lot))

	require.NoError(t, e.plans.AddTask(ctx, testutil.NewTestTask(lot.ID, plan.ID, "Excavation", testutil.WithWeight(60))))
	require.NoError(t, e.plans.AddTask(ctx, testutil.NewTestTask(lot.ID, plan.ID, "Concrete", testutil.WithWeight(30))))

	err = e.plans.Submit(ctx, plan.ID)
	require.Error(t, err)
	var imbalance *domain.WeightImbalanceError
	require.ErrorAs(t, err, &imbalance)
	assert.InDelta(t, 90.0, imbalance.Total, 0.001)

	// Topping the plan up to 100 makes it submittable.
	require.NoError(t, e.plans.AddTask(ctx, testutil.NewTestTask(lot.ID, plan.ID, "Finishing", testutil.WithWeight(10))))
	require.NoError(t, e.plans.Submit(ctx, plan.ID))

	got, err := e.planRepo.GetByID(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanSubmitted, got.State)
}

func TestPlanSubmit_EmptyPlan(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	project := testutil.NewTestProject("Empty")
	require.NoError(t, e.projects.Create(ctx, project))
	plan, err := e.plans.CreatePlan(ctx, project.ID, "")
	require.NoError(t, err)

	err = e.plans.Submit(ctx, plan.ID)
	var empty *domain.EmptyPlanError
	require.ErrorAs(t, err, &empty)
}

func TestPlanAddTask_WeightCeiling(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	project := testutil.NewTestProject("Ceiling")
	require.NoError(t, e.projects.Create(ctx, project))
	plan, err := e.plans.CreatePlan(ctx, project.ID, "")
	require.NoError(t, err)
	lot := testutil.NewTestLot(plan.ID, "Lot")
	require.NoError(t, e.plans.AddLot(ctx, lot))

	require.NoError(t, e.plans.AddTask(ctx, testutil.NewTestTask(lot.ID, plan.ID, "A", testutil.WithWeight(70))))

	// 70 + 40 breaches the ceiling even in draft.
	err = e.plans.AddTask(ctx, testutil.NewTestTask(lot.ID, plan.ID, "B", testutil.WithWeight(40)))
	var imbalance *domain.WeightImbalanceError
	require.ErrorAs(t, err, &imbalance)
}

func TestPlanAddTask_DatesMustNestInsideLot(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	project := testutil.NewTestProject("Nesting")
	require.NoError(t, e.projects.Create(ctx, project))
	plan, err := e.plans.CreatePlan(ctx, project.ID, "")
	require.NoError(t, err)

	lot := testutil.NewTestLot(plan.ID, "Lot",
		testutil.WithLotWindow(testutil.FixtureStart, testutil.FixtureStart.AddDate(0, 3, 0)))
	require.NoError(t, e.plans.AddLot(ctx, lot))

	task := testutil.NewTestTask(lot.ID, plan.ID, "Overruns",
		testutil.WithTaskWindow(testutil.FixtureStart, testutil.FixtureStart.AddDate(0, 6, 0)))
	err = e.plans.AddTask(ctx, task)
	var hier *domain.HierarchyDateError
	require.ErrorAs(t, err, &hier)
	assert.Equal(t, "task", hier.Entity)
}

func TestPlanApprove_ArchivesPriorRevision(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	project, plan, _ := e.buildApprovedPlan(t, ctx)

	// Build and approve a replacement revision.
	revision, err := e.plans.CreatePlan(ctx, project.ID, "rev-B")
	require.NoError(t, err)
	lot := testutil.NewTestLot(revision.ID, "Lot 1")
	require.NoError(t, e.plans.AddLot(ctx, lot))
	require.NoError(t, e.plans.AddTask(ctx, testutil.NewTestTask(lot.ID, revision.ID, "All works", testutil.WithWeight(100))))
	require.NoError(t, e.plans.Submit(ctx, revision.ID))
	require.NoError(t, e.plans.Approve(ctx, revision.ID, manager))

	active, err := e.planRepo.ActiveApproved(ctx, project.ID)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, revision.ID, active.ID)

	archived, err := e.planRepo.GetByID(ctx, plan.ID)
	require.NoError(t, err)
	assert.False(t, archived.Active)
}

func TestPlanApprove_SyncsTrackerRefs(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, plan, tasks := e.buildApprovedPlan(t, ctx)

	for _, task := range tasks {
		got, err := e.taskRepo.GetByID(ctx, task.ID)
		require.NoError(t, err)
		assert.NotEmpty(t, got.TrackerRef, "approval assigns tracker references")
	}

	structure, err := e.plans.GetPlan(ctx, plan.ID)
	require.NoError(t, err)
	assert.Len(t, structure.Tasks, 2)
	assert.Len(t, structure.Lots, 1)
}

type failingSyncer struct{}

func (failingSyncer) Sync(context.Context, *domain.PlanningDocument, []*domain.Task) (map[string]string, error) {
	return nil, errors.New("tracker unreachable")
}

func TestPlanApprove_TrackerSyncFailureDoesNotBlock(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	project := testutil.NewTestProject("Offline tracker")
	require.NoError(t, e.projects.Create(ctx, project))
	plan, err := e.plans.CreatePlan(ctx, project.ID, "")
	require.NoError(t, err)
	lot := testutil.NewTestLot(plan.ID, "Lot")
	require.NoError(t, e.plans.AddLot(ctx, lot))
	task := testutil.NewTestTask(lot.ID, plan.ID, "All works", testutil.WithWeight(100))
	require.NoError(t, e.plans.AddTask(ctx, task))
	require.NoError(t, e.plans.Submit(ctx, plan.ID))

	plans := NewPlanService(e.projectRepo, e.planRepo, e.lotRepo, e.taskRepo, e.uow, failingSyncer{}, NoopNotifier{})
	require.NoError(t, plans.Approve(ctx, plan.ID, manager), "sync is best effort and never unwinds the approval")

	got, err := e.planRepo.GetByID(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanApproved, got.State)
	assert.Equal(t, manager.ID, got.ApprovedBy)

	synced, err := e.taskRepo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Empty(t, synced.TrackerRef)
}

func TestPlanStructuralEdit_ForbiddenOnceApproved(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, plan, tasks := e.buildApprovedPlan(t, ctx)

	var stateErr *domain.StateError

	err := e.plans.AddLot(ctx, testutil.NewTestLot(plan.ID, "Late lot"))
	require.ErrorAs(t, err, &stateErr)

	tasks[0].Weight = 10
	err = e.plans.UpdateTask(ctx, tasks[0])
	require.ErrorAs(t, err, &stateErr)

	err = e.plans.RemoveTask(ctx, tasks[0].ID)
	require.ErrorAs(t, err, &stateErr)
}

func TestPlanReject_NeedsSubstantiveReason(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	project := testutil.NewTestProject("Rejectable")
	require.NoError(t, e.projects.Create(ctx, project))
	plan, err := e.plans.CreatePlan(ctx, project.ID, "")
	require.NoError(t, err)
	lot := testutil.NewTestLot(plan.ID, "Lot")
	require.NoError(t, e.plans.AddLot(ctx, lot))
	require.NoError(t, e.plans.AddTask(ctx, testutil.NewTestTask(lot.ID, plan.ID, "All", testutil.WithWeight(100))))
	require.NoError(t, e.plans.Submit(ctx, plan.ID))

	err = e.plans.Reject(ctx, plan.ID, manager, "too short")
	var comment *domain.CommentRequiredError
	require.ErrorAs(t, err, &comment)

	require.NoError(t, e.plans.Reject(ctx, plan.ID, manager, "weights do not match the contract annex"))

	// Rejected plans return to draft for rework.
	require.NoError(t, e.plans.ResetDraft(ctx, plan.ID))
	got, err := e.planRepo.GetByID(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanDraft, got.State)
	assert.Empty(t, got.RejectionReason)
}
