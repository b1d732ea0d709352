package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDecl() *ProgressDeclaration {
	return &ProgressDeclaration{
		ID:            "decl1",
		TaskID:        "task1",
		DeclaredPct:   50,
		PreviousPct:   20,
		ExecutionDate: date(2025, 3, 1),
		State:         DeclarationUnderReview,
	}
}

func TestNewValidationRecord_SnapshotsAndHashes(t *testing.T) {
	validator := Actor{ID: "u1", Name: "Inspector", Role: "authority"}
	rec, err := NewValidationRecord("v1", validDecl(), DecisionValidated, validator, "", date(2025, 3, 2))
	require.NoError(t, err)

	assert.Equal(t, "decl1", rec.DeclarationID())
	assert.Equal(t, DecisionValidated, rec.Decision())
	assert.Equal(t, "u1", rec.ValidatorID())
	assert.Equal(t, "authority", rec.ValidatorRole())
	assert.InDelta(t, 50.0, rec.DeclaredPct(), 0.0001)
	assert.InDelta(t, 20.0, rec.PreviousPct(), 0.0001)
	assert.InDelta(t, 30.0, rec.IncrementalPct(), 0.0001)
	assert.Len(t, rec.Hash(), 32)
	assert.True(t, rec.Verify())
}

func TestNewValidationRecord_CommentRequired(t *testing.T) {
	validator := Actor{ID: "u1", Role: "authority"}

	_, err := NewValidationRecord("v1", validDecl(), DecisionRejected, validator, "too short", date(2025, 3, 2))
	var commentErr *CommentRequiredError
	require.True(t, errors.As(err, &commentErr))

	_, err = NewValidationRecord("v1", validDecl(), DecisionCorrectionRequested, validator, "", date(2025, 3, 2))
	require.True(t, errors.As(err, &commentErr))

	rec, err := NewValidationRecord("v1", validDecl(), DecisionRejected, validator, "missing survey report for section B", date(2025, 3, 2))
	require.NoError(t, err)
	assert.Equal(t, DecisionRejected, rec.Decision())
}

func TestNewValidationRecord_DecisionBeforeExecutionDate(t *testing.T) {
	validator := Actor{ID: "u1", Role: "authority"}
	_, err := NewValidationRecord("v1", validDecl(), DecisionValidated, validator, "", date(2025, 2, 1))
	var rangeErr *DateRangeError
	require.True(t, errors.As(err, &rangeErr))
	assert.Equal(t, "validation_datetime", rangeErr.Field)
}

func TestValidationRecord_VerifyDetectsTampering(t *testing.T) {
	validator := Actor{ID: "u1", Role: "authority"}
	rec, err := NewValidationRecord("v1", validDecl(), DecisionValidated, validator, "", date(2025, 3, 2))
	require.NoError(t, err)

	tampered := RehydrateValidationRecord(
		rec.ID(), rec.DeclarationID(), rec.Decision(),
		"someone-else", rec.ValidatorRole(), rec.Comment(), rec.DecidedAt(),
		rec.DeclaredPct(), rec.PreviousPct(), rec.IncrementalPct(), rec.Hash(),
	)
	assert.False(t, tampered.Verify())

	intact := RehydrateValidationRecord(
		rec.ID(), rec.DeclarationID(), rec.Decision(),
		rec.ValidatorID(), rec.ValidatorRole(), rec.Comment(), rec.DecidedAt(),
		rec.DeclaredPct(), rec.PreviousPct(), rec.IncrementalPct(), rec.Hash(),
	)
	assert.True(t, intact.Verify())
}

func TestDecisionRequiresComment(t *testing.T) {
	assert.False(t, DecisionValidated.RequiresComment())
	assert.True(t, DecisionRejected.RequiresComment())
	assert.True(t, DecisionCorrectionRequested.RequiresComment())
}
