package domain

import (
	"math"
	"time"
)

// PlanningDocument is one revision of a project's master schedule: lots of
// weighted tasks whose validated progress rolls up into the project
// completion percentage. Content becomes immutable once approved; amendments
// go through a new revision that replaces the active one on approval.
type PlanningDocument struct {
	ID        string
	ProjectID string
	Reference string
	State     PlanState
	Active    bool

	ApprovedBy      string
	ApprovedAt      *time.Time
	RejectionReason string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CanTransition reports whether the plan workflow allows the target state.
func (d *PlanningDocument) CanTransition(to PlanState) bool {
	for _, s := range planTransitions[d.State] {
		if s == to {
			return true
		}
	}
	return false
}

// TransitionError builds the StateError for a forbidden plan move.
func (d *PlanningDocument) TransitionError() *StateError {
	allowed := make([]string, 0, len(planTransitions[d.State]))
	for _, s := range planTransitions[d.State] {
		allowed = append(allowed, string(s))
	}
	return &StateError{Entity: "plan", ID: d.ID, Current: string(d.State), Allowed: allowed}
}

// Lot groups tasks into a work package. Its date bounds must nest inside the
// project's planned window, and every contained task must nest inside the lot.
type Lot struct {
	ID         string
	PlanID     string
	Name       string
	OrderIndex int
	DateStart  time.Time
	DateEnd    time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Task is the granular planning unit. Weight is the task's contribution to
// the project's 100% completion, in percentage points.
type Task struct {
	ID           string
	LotID        string
	PlanID       string
	Name         string
	OrderIndex   int
	DateStart    time.Time
	DateEnd      time.Time
	Weight       float64
	ParentTaskID *string

	// TrackerRef is a non-owning reference to the synchronized item in the
	// external task tracker, set on plan approval.
	TrackerRef string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DurationDays is the inclusive planned duration in days.
func (t *Task) DurationDays() int {
	if t.DateEnd.Before(t.DateStart) {
		return 0
	}
	return int(t.DateEnd.Sub(t.DateStart).Hours()/24) + 1
}

// ValidateDates checks start <= end.
func (t *Task) ValidateDates() error {
	if t.DateEnd.Before(t.DateStart) {
		return &DateRangeError{
			Field:  "date_end",
			Value:  t.DateEnd,
			Min:    t.DateStart,
			Reason: "task end cannot precede task start",
		}
	}
	return nil
}

// TotalWeight sums the physical weights of the given tasks.
func TotalWeight(tasks []*Task) float64 {
	var total float64
	for _, t := range tasks {
		total += t.Weight
	}
	return total
}

// CheckWeightCeiling enforces that the weight sum never exceeds 100 at any
// time, regardless of plan state. A small float margin is tolerated.
func CheckWeightCeiling(planID string, tasks []*Task) error {
	total := TotalWeight(tasks)
	if total > 100+WeightTolerance {
		return &WeightImbalanceError{PlanID: planID, Total: total}
	}
	return nil
}

// CheckWeightBalance enforces the submission invariant: weights sum to
// exactly 100 within tolerance.
func CheckWeightBalance(planID string, tasks []*Task) error {
	total := TotalWeight(tasks)
	if math.Abs(total-100) > WeightTolerance {
		return &WeightImbalanceError{PlanID: planID, Total: total}
	}
	return nil
}

// CheckNesting verifies that a child date range lies inside its parent bounds.
// Zero-valued parent bounds are treated as open on that side.
func CheckNesting(entity, name string, start, end time.Time, boundStart, boundEnd time.Time) error {
	outside := (!boundStart.IsZero() && start.Before(boundStart)) ||
		(!boundEnd.IsZero() && end.After(boundEnd))
	if outside {
		return &HierarchyDateError{
			Entity:     entity,
			Name:       name,
			Start:      start,
			End:        end,
			BoundStart: boundStart,
			BoundEnd:   boundEnd,
		}
	}
	return nil
}
