package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCheckWeightBalance(t *testing.T) {
	tasks := []*Task{
		{ID: "a", Weight: 60},
		{ID: "b", Weight: 40},
	}
	assert.NoError(t, CheckWeightBalance("plan1", tasks))

	tasks[1].Weight = 30
	err := CheckWeightBalance("plan1", tasks)
	var imbalance *WeightImbalanceError
	require.True(t, errors.As(err, &imbalance))
	assert.InDelta(t, 90.0, imbalance.Total, 0.0001)
}

func TestCheckWeightBalance_WithinTolerance(t *testing.T) {
	tasks := []*Task{
		{Weight: 33.333},
		{Weight: 33.333},
		{Weight: 33.334},
	}
	assert.NoError(t, CheckWeightBalance("plan1", tasks))
}

func TestCheckWeightCeiling(t *testing.T) {
	tasks := []*Task{{Weight: 70}, {Weight: 40}}
	err := CheckWeightCeiling("plan1", tasks)
	var imbalance *WeightImbalanceError
	require.True(t, errors.As(err, &imbalance))

	// Partial sums below 100 are fine at any time.
	assert.NoError(t, CheckWeightCeiling("plan1", []*Task{{Weight: 70}}))
}

func TestCheckNesting(t *testing.T) {
	boundStart := date(2025, 1, 1)
	boundEnd := date(2025, 12, 31)

	assert.NoError(t, CheckNesting("lot", "Civil Works", date(2025, 2, 1), date(2025, 6, 30), boundStart, boundEnd))

	err := CheckNesting("task", "Excavation", date(2024, 12, 15), date(2025, 3, 1), boundStart, boundEnd)
	var hierr *HierarchyDateError
	require.True(t, errors.As(err, &hierr))
	assert.Equal(t, "task", hierr.Entity)
	assert.Equal(t, "Excavation", hierr.Name)

	// Open bounds skip the check on that side.
	assert.NoError(t, CheckNesting("lot", "Open", date(2024, 1, 1), date(2025, 6, 1), time.Time{}, boundEnd))
}

func TestTaskDurationDays_Inclusive(t *testing.T) {
	task := &Task{DateStart: date(2025, 3, 1), DateEnd: date(2025, 3, 10)}
	assert.Equal(t, 10, task.DurationDays())

	oneDay := &Task{DateStart: date(2025, 3, 1), DateEnd: date(2025, 3, 1)}
	assert.Equal(t, 1, oneDay.DurationDays())
}

func TestPlanTransitions(t *testing.T) {
	plan := &PlanningDocument{ID: "p1", State: PlanDraft}
	assert.True(t, plan.CanTransition(PlanSubmitted))
	assert.False(t, plan.CanTransition(PlanApproved))

	plan.State = PlanApproved
	assert.False(t, plan.CanTransition(PlanDraft))

	stateErr := plan.TransitionError()
	assert.Equal(t, "approved", stateErr.Current)
	assert.Empty(t, stateErr.Allowed)
}

func TestProjectTransitions(t *testing.T) {
	p := &Project{ID: "pr1", State: ProjectRunning}
	assert.True(t, p.CanTransition(ProjectAtRisk))
	assert.True(t, p.CanTransition(ProjectSuspended))
	assert.True(t, p.CanTransition(ProjectClosed))
	assert.False(t, p.CanTransition(ProjectDraft))

	p.State = ProjectClosed
	assert.False(t, p.CanTransition(ProjectRunning))

	p.State = ProjectSuspended
	assert.True(t, p.CanTransition(ProjectRunning), "suspended projects can resume")
}
