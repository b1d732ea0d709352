package domain

import (
	"math"
	"time"
)

// ProgressDeclaration is a contractor's claim of cumulative physical progress
// on one planning task. It moves through a guarded state machine and only the
// validated subset ever feeds aggregation.
type ProgressDeclaration struct {
	ID        string
	TaskID    string
	PlanID    string
	ProjectID string

	DeclaredPct   float64
	PreviousPct   float64 // latest validated percentage at creation time
	ExecutionDate time.Time
	Comment       string
	ProofCount    int
	State         DeclarationState

	CorrectionCount   int
	CorrectionComment string
	RejectionReason   string

	ValidatedBy string
	ValidatedAt *time.Time

	// Version supports optimistic concurrency on review decisions: exactly
	// one of two racing validators wins the compare-and-set.
	Version int

	DeclaredBy string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IncrementalPct is the progress increment over the previous validated value.
func (d *ProgressDeclaration) IncrementalPct() float64 {
	return d.DeclaredPct - d.PreviousPct
}

// DelayDays returns how many days the execution date overruns the task's
// planned end, zero when on time.
func (d *ProgressDeclaration) DelayDays(taskEnd time.Time) int {
	if !d.ExecutionDate.After(taskEnd) {
		return 0
	}
	return int(d.ExecutionDate.Sub(taskEnd).Hours() / 24)
}

// IsDelayed reports whether the execution date passed the task's planned end.
func (d *ProgressDeclaration) IsDelayed(taskEnd time.Time) bool {
	return d.DelayDays(taskEnd) > 0
}

// IsPending reports whether the declaration still awaits a decision.
func (d *ProgressDeclaration) IsPending() bool {
	return d.State == DeclarationSubmitted || d.State == DeclarationUnderReview
}

// CanTransition reports whether the state machine allows the target state.
func (d *ProgressDeclaration) CanTransition(to DeclarationState) bool {
	for _, s := range declarationTransitions[d.State] {
		if s == to {
			return true
		}
	}
	return false
}

// TransitionError builds the StateError for a forbidden declaration move.
func (d *ProgressDeclaration) TransitionError() *StateError {
	allowed := make([]string, 0, len(declarationTransitions[d.State]))
	for _, s := range declarationTransitions[d.State] {
		allowed = append(allowed, string(s))
	}
	return &StateError{Entity: "declaration", ID: d.ID, Current: string(d.State), Allowed: allowed}
}

// ValidateAtCreation runs every creation-time rule against the owning task
// and project window:
//
//   - declared percentage within [0,100]
//   - monotonicity against the latest *validated* declaration only
//   - execution date inside [task start, task end], not before the project
//     planned start, and not in the future
//   - 100% cannot be declared before the task's planned end date
//
// previousValidated is the latest validated percentage for the task (0 if none).
func (d *ProgressDeclaration) ValidateAtCreation(task *Task, projectStart *time.Time, previousValidated float64, today time.Time) error {
	if d.DeclaredPct < 0 || d.DeclaredPct > 100 {
		return &PercentRangeError{Field: "declared_percentage", Value: d.DeclaredPct}
	}
	if d.DeclaredPct < previousValidated {
		return &RegressionError{TaskID: task.ID, Declared: d.DeclaredPct, Previous: previousValidated}
	}

	if d.ExecutionDate.After(today) {
		return &DateRangeError{Field: "execution_date", Value: d.ExecutionDate, Max: today,
			Reason: "execution date cannot be in the future"}
	}
	if d.ExecutionDate.Before(task.DateStart) || d.ExecutionDate.After(task.DateEnd) {
		return &DateRangeError{Field: "execution_date", Value: d.ExecutionDate,
			Min: task.DateStart, Max: task.DateEnd,
			Reason: "execution date must fall within the task's planned window"}
	}
	if projectStart != nil && d.ExecutionDate.Before(*projectStart) {
		return &DateRangeError{Field: "execution_date", Value: d.ExecutionDate, Min: *projectStart,
			Reason: "execution date cannot precede the project planned start"}
	}

	if math.Abs(d.DeclaredPct-100) < CompletionTolerance && d.ExecutionDate.Before(task.DateEnd) {
		return &DateRangeError{Field: "execution_date", Value: d.ExecutionDate, Min: task.DateEnd,
			Reason: "100% completion cannot be declared before the task's planned end date"}
	}

	return nil
}

// CheckSubmittable enforces the submission guard: at least one proof
// attachment and a non-empty justification comment.
func (d *ProgressDeclaration) CheckSubmittable() error {
	if d.ProofCount < 1 {
		return &MissingProofError{DeclarationID: d.ID, Missing: "attachment"}
	}
	if d.Comment == "" {
		return &MissingProofError{DeclarationID: d.ID, Missing: "comment"}
	}
	return nil
}
