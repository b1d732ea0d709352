package domain

import "time"

// Project tracks one infrastructure execution project through its lifecycle.
// Planning structure and progress declarations hang off it via the planning
// document hierarchy.
type Project struct {
	ID           string
	Code         string
	Name         string
	State        ProjectState
	PlannedStart *time.Time
	PlannedEnd   *time.Time
	ActualStart  *time.Time
	ActualEnd    *time.Time
	Budget       float64

	// ComputedProgress is the weighted completion percentage derived from the
	// active approved plan's validated declarations. Refreshed inside every
	// transaction that validates a declaration.
	ComputedProgress  float64
	ProgressUpdatedAt *time.Time

	// State change audit trail.
	StateChangedAt *time.Time
	StateChangedBy string
	StateReason    string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CanTransition reports whether the lifecycle allows moving to the target state.
func (p *Project) CanTransition(to ProjectState) bool {
	for _, s := range projectTransitions[p.State] {
		if s == to {
			return true
		}
	}
	return false
}

// TransitionError builds the StateError for a forbidden lifecycle move.
func (p *Project) TransitionError() *StateError {
	allowed := make([]string, 0, len(projectTransitions[p.State]))
	for _, s := range projectTransitions[p.State] {
		allowed = append(allowed, string(s))
	}
	return &StateError{Entity: "project", ID: p.ID, Current: string(p.State), Allowed: allowed}
}

// ValidatePlannedDates checks the planned window is coherent.
func (p *Project) ValidatePlannedDates() error {
	if p.PlannedStart == nil || p.PlannedEnd == nil {
		return nil
	}
	if p.PlannedEnd.Before(*p.PlannedStart) {
		return &DateRangeError{
			Field:  "planned_end",
			Value:  *p.PlannedEnd,
			Min:    *p.PlannedStart,
			Reason: "planned end cannot precede planned start",
		}
	}
	return nil
}
