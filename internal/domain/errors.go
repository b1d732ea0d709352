package domain

import (
	"fmt"
	"strings"
	"time"
)

// MinDecisionCommentLen is the minimum comment length for rejections and
// correction requests.
const MinDecisionCommentLen = 10

// WeightTolerance is the accepted deviation from 100 for the task weight sum.
const WeightTolerance = 0.01

// CompletionTolerance is the accepted deviation from 100 when checking that
// a project has fully completed.
const CompletionTolerance = 0.01

// WeightImbalanceError reports a plan whose task weights do not sum to 100.
type WeightImbalanceError struct {
	PlanID string
	Total  float64
}

func (e *WeightImbalanceError) Error() string {
	return fmt.Sprintf("plan %s: task weights must sum to 100%% (±%.2f), current total %.3f%%", e.PlanID, WeightTolerance, e.Total)
}

// EmptyPlanError reports a submission attempt on a plan without tasks.
type EmptyPlanError struct {
	PlanID string
}

func (e *EmptyPlanError) Error() string {
	return fmt.Sprintf("plan %s has no tasks and cannot be submitted", e.PlanID)
}

// HierarchyDateError reports a lot or task date range escaping its parent bounds.
type HierarchyDateError struct {
	Entity     string // "lot" or "task"
	Name       string
	Start, End time.Time
	BoundStart time.Time
	BoundEnd   time.Time
}

func (e *HierarchyDateError) Error() string {
	return fmt.Sprintf("%s %q dates %s..%s fall outside parent bounds %s..%s",
		e.Entity, e.Name,
		e.Start.Format("2006-01-02"), e.End.Format("2006-01-02"),
		e.BoundStart.Format("2006-01-02"), e.BoundEnd.Format("2006-01-02"))
}

// RegressionError reports a declaration below the latest validated percentage.
type RegressionError struct {
	TaskID   string
	Declared float64
	Previous float64
}

func (e *RegressionError) Error() string {
	return fmt.Sprintf("task %s: declared %.2f%% is below the last validated progress %.2f%%", e.TaskID, e.Declared, e.Previous)
}

// DateRangeError reports a date outside its allowed window.
type DateRangeError struct {
	Field  string
	Value  time.Time
	Min    time.Time
	Max    time.Time
	Reason string
}

func (e *DateRangeError) Error() string {
	msg := fmt.Sprintf("%s %s is outside the allowed range", e.Field, e.Value.Format("2006-01-02"))
	if !e.Min.IsZero() || !e.Max.IsZero() {
		msg += fmt.Sprintf(" %s..%s", e.Min.Format("2006-01-02"), e.Max.Format("2006-01-02"))
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// PercentRangeError reports a percentage outside [0, 100].
type PercentRangeError struct {
	Field string
	Value float64
}

func (e *PercentRangeError) Error() string {
	return fmt.Sprintf("%s must be between 0 and 100, got %.2f", e.Field, e.Value)
}

// BudgetRequiredError reports a planning attempt without a positive budget.
type BudgetRequiredError struct {
	ProjectID string
	Budget    float64
}

func (e *BudgetRequiredError) Error() string {
	return fmt.Sprintf("project %s needs a positive budget before planning (got %.2f)", e.ProjectID, e.Budget)
}

// MissingProofError reports a submission attempt without proof attachments
// or without a justification comment.
type MissingProofError struct {
	DeclarationID string
	Missing       string // "attachment" or "comment"
}

func (e *MissingProofError) Error() string {
	if e.Missing == "comment" {
		return fmt.Sprintf("declaration %s needs a justification comment before submission", e.DeclarationID)
	}
	return fmt.Sprintf("declaration %s needs at least one proof attachment before submission", e.DeclarationID)
}

// CommentRequiredError reports a missing or too-short decision comment.
type CommentRequiredError struct {
	Decision Decision
	Length   int
}

func (e *CommentRequiredError) Error() string {
	return fmt.Sprintf("%s requires a comment of at least %d characters (got %d)", e.Decision, MinDecisionCommentLen, e.Length)
}

// StateError reports an operation attempted from a state that forbids it.
type StateError struct {
	Entity  string
	ID      string
	Current string
	Allowed []string
}

func (e *StateError) Error() string {
	allowed := "none"
	if len(e.Allowed) > 0 {
		allowed = strings.Join(e.Allowed, ", ")
	}
	return fmt.Sprintf("%s %s is in state %q; allowed transitions: %s", e.Entity, e.ID, e.Current, allowed)
}

// ConcurrentConflictError reports a lost optimistic-concurrency race.
type ConcurrentConflictError struct {
	Entity string
	ID     string
}

func (e *ConcurrentConflictError) Error() string {
	return fmt.Sprintf("%s %s was modified concurrently; reload and retry", e.Entity, e.ID)
}

// ImmutableRecordError reports a write or delete attempt on an audit record.
type ImmutableRecordError struct {
	RecordID  string
	Operation string
}

func (e *ImmutableRecordError) Error() string {
	return fmt.Sprintf("validation record %s is immutable: %s rejected", e.RecordID, e.Operation)
}

// NoApprovedPlanError reports a project without an active approved plan.
type NoApprovedPlanError struct {
	ProjectID string
}

func (e *NoApprovedPlanError) Error() string {
	return fmt.Sprintf("project %s has no active approved planning document", e.ProjectID)
}

// IncompleteExecutionError reports a close attempt on an unfinished project.
type IncompleteExecutionError struct {
	ProjectID    string
	Progress     float64
	PendingCount int
}

func (e *IncompleteExecutionError) Error() string {
	if e.PendingCount > 0 {
		return fmt.Sprintf("project %s cannot close: %d declaration(s) still pending review", e.ProjectID, e.PendingCount)
	}
	return fmt.Sprintf("project %s cannot close: progress is %.2f%%, expected 100%%", e.ProjectID, e.Progress)
}

// ReasonRequiredError reports a state change that needs a recorded reason.
type ReasonRequiredError struct {
	State ProjectState
}

func (e *ReasonRequiredError) Error() string {
	return fmt.Sprintf("moving a project to %s requires a reason", e.State)
}
