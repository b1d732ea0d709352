package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func declTask() *Task {
	return &Task{
		ID:        "task1",
		Name:      "Foundations",
		DateStart: date(2025, 1, 1),
		DateEnd:   date(2025, 6, 30),
		Weight:    60,
	}
}

func TestValidateAtCreation_OK(t *testing.T) {
	d := &ProgressDeclaration{
		DeclaredPct:   40,
		ExecutionDate: date(2025, 3, 15),
	}
	start := date(2025, 1, 1)
	assert.NoError(t, d.ValidateAtCreation(declTask(), &start, 25, date(2025, 4, 1)))
}

func TestValidateAtCreation_PercentageOutOfRange(t *testing.T) {
	for _, pct := range []float64{-1, 100.5} {
		d := &ProgressDeclaration{
			DeclaredPct:   pct,
			ExecutionDate: date(2025, 3, 15),
		}
		err := d.ValidateAtCreation(declTask(), nil, 0, date(2025, 4, 1))
		var rangeErr *PercentRangeError
		require.True(t, errors.As(err, &rangeErr), "pct %v", pct)
		assert.Equal(t, pct, rangeErr.Value)
	}
}

func TestValidateAtCreation_Regression(t *testing.T) {
	d := &ProgressDeclaration{
		DeclaredPct:   40,
		ExecutionDate: date(2025, 3, 15),
	}
	err := d.ValidateAtCreation(declTask(), nil, 50, date(2025, 4, 1))
	var regression *RegressionError
	require.True(t, errors.As(err, &regression))
	assert.Equal(t, 50.0, regression.Previous)
	assert.Equal(t, 40.0, regression.Declared)
}

func TestValidateAtCreation_FutureExecutionDate(t *testing.T) {
	d := &ProgressDeclaration{
		DeclaredPct:   10,
		ExecutionDate: date(2025, 5, 1),
	}
	err := d.ValidateAtCreation(declTask(), nil, 0, date(2025, 4, 1))
	var rangeErr *DateRangeError
	require.True(t, errors.As(err, &rangeErr))
	assert.Equal(t, "execution_date", rangeErr.Field)
}

func TestValidateAtCreation_OutsideTaskWindow(t *testing.T) {
	d := &ProgressDeclaration{
		DeclaredPct:   10,
		ExecutionDate: date(2024, 12, 20),
	}
	var rangeErr *DateRangeError
	require.True(t, errors.As(d.ValidateAtCreation(declTask(), nil, 0, date(2025, 4, 1)), &rangeErr))
}

func TestValidateAtCreation_BeforeProjectStart(t *testing.T) {
	task := declTask()
	task.DateStart = date(2024, 12, 1)
	projectStart := date(2025, 1, 1)
	d := &ProgressDeclaration{
		DeclaredPct:   10,
		ExecutionDate: date(2024, 12, 15),
	}
	var rangeErr *DateRangeError
	require.True(t, errors.As(d.ValidateAtCreation(task, &projectStart, 0, date(2025, 4, 1)), &rangeErr))
}

func TestValidateAtCreation_FullCompletionBeforePlannedEnd(t *testing.T) {
	// 100% cannot be declared before the task's planned end date. The task
	// window ends 2025-06-30; today is past it so the date itself is valid.
	d := &ProgressDeclaration{
		DeclaredPct:   100,
		ExecutionDate: date(2025, 5, 1),
	}
	var rangeErr *DateRangeError
	require.True(t, errors.As(d.ValidateAtCreation(declTask(), nil, 0, date(2025, 7, 1)), &rangeErr))

	onEnd := &ProgressDeclaration{
		DeclaredPct:   100,
		ExecutionDate: date(2025, 6, 30),
	}
	assert.NoError(t, onEnd.ValidateAtCreation(declTask(), nil, 0, date(2025, 7, 1)))
}

func TestCheckSubmittable(t *testing.T) {
	d := &ProgressDeclaration{ID: "d1"}
	var missing *MissingProofError
	require.True(t, errors.As(d.CheckSubmittable(), &missing))
	assert.Equal(t, "attachment", missing.Missing)

	d.ProofCount = 1
	require.True(t, errors.As(d.CheckSubmittable(), &missing))
	assert.Equal(t, "comment", missing.Missing)

	d.Comment = "poured slab on section B"
	assert.NoError(t, d.CheckSubmittable())
}

func TestDeclarationTransitions(t *testing.T) {
	d := &ProgressDeclaration{ID: "d1", State: DeclarationDraft}
	assert.True(t, d.CanTransition(DeclarationSubmitted))
	assert.False(t, d.CanTransition(DeclarationValidated))

	d.State = DeclarationUnderReview
	assert.True(t, d.CanTransition(DeclarationValidated))
	assert.True(t, d.CanTransition(DeclarationRejected))
	assert.True(t, d.CanTransition(DeclarationCorrectionRequested))

	d.State = DeclarationValidated
	assert.Empty(t, AllowedDeclarationTransitions(d.State), "validated is terminal")

	d.State = DeclarationCorrectionRequested
	assert.True(t, d.CanTransition(DeclarationSubmitted), "resubmission after correction")
	assert.True(t, d.CanTransition(DeclarationDraft))

	d.State = DeclarationRejected
	assert.True(t, d.CanTransition(DeclarationDraft))
	assert.False(t, d.CanTransition(DeclarationSubmitted))
}

func TestDelayTracking(t *testing.T) {
	taskEnd := date(2025, 6, 30)
	onTime := &ProgressDeclaration{ExecutionDate: date(2025, 6, 30)}
	assert.False(t, onTime.IsDelayed(taskEnd))
	assert.Equal(t, 0, onTime.DelayDays(taskEnd))

	late := &ProgressDeclaration{ExecutionDate: date(2025, 7, 10)}
	assert.True(t, late.IsDelayed(taskEnd))
	assert.Equal(t, 10, late.DelayDays(taskEnd))
}

func TestIncrementalPct(t *testing.T) {
	d := &ProgressDeclaration{DeclaredPct: 55, PreviousPct: 30}
	assert.InDelta(t, 25.0, d.IncrementalPct(), 0.0001)
}

func TestIsPending(t *testing.T) {
	for state, pending := range map[DeclarationState]bool{
		DeclarationDraft:               false,
		DeclarationSubmitted:           true,
		DeclarationUnderReview:         true,
		DeclarationValidated:           false,
		DeclarationRejected:            false,
		DeclarationCorrectionRequested: false,
	} {
		d := &ProgressDeclaration{State: state}
		assert.Equal(t, pending, d.IsPending(), "state %s", state)
	}
}
