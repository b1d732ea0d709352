package domain

type ProjectState string

const (
	ProjectDraft     ProjectState = "draft"
	ProjectPlanned   ProjectState = "planned"
	ProjectRunning   ProjectState = "running"
	ProjectAtRisk    ProjectState = "at_risk"
	ProjectSuspended ProjectState = "suspended"
	ProjectClosed    ProjectState = "closed"
)

// projectTransitions is the project lifecycle transition table. closed is terminal.
var projectTransitions = map[ProjectState][]ProjectState{
	ProjectDraft:     {ProjectPlanned},
	ProjectPlanned:   {ProjectRunning, ProjectDraft},
	ProjectRunning:   {ProjectAtRisk, ProjectSuspended, ProjectClosed},
	ProjectAtRisk:    {ProjectRunning, ProjectSuspended, ProjectClosed},
	ProjectSuspended: {ProjectRunning, ProjectClosed},
	ProjectClosed:    {},
}

// AllowedProjectTransitions returns the states reachable from the given state.
func AllowedProjectTransitions(from ProjectState) []ProjectState {
	return projectTransitions[from]
}

type PlanState string

const (
	PlanDraft     PlanState = "draft"
	PlanSubmitted PlanState = "submitted"
	PlanApproved  PlanState = "approved"
	PlanRejected  PlanState = "rejected"
)

var planTransitions = map[PlanState][]PlanState{
	PlanDraft:     {PlanSubmitted},
	PlanSubmitted: {PlanApproved, PlanRejected},
	PlanApproved:  {},
	PlanRejected:  {PlanDraft},
}

// AllowedPlanTransitions returns the states reachable from the given state.
func AllowedPlanTransitions(from PlanState) []PlanState {
	return planTransitions[from]
}

type DeclarationState string

const (
	DeclarationDraft               DeclarationState = "draft"
	DeclarationSubmitted           DeclarationState = "submitted"
	DeclarationUnderReview         DeclarationState = "under_review"
	DeclarationValidated           DeclarationState = "validated"
	DeclarationRejected            DeclarationState = "rejected"
	DeclarationCorrectionRequested DeclarationState = "correction_requested"
)

// declarationTransitions is the declaration state machine. validated is
// terminal; rejected and correction_requested can return to draft via an
// explicit reset, and correction_requested can resubmit directly.
var declarationTransitions = map[DeclarationState][]DeclarationState{
	DeclarationDraft:               {DeclarationSubmitted},
	DeclarationSubmitted:           {DeclarationUnderReview},
	DeclarationUnderReview:         {DeclarationValidated, DeclarationRejected, DeclarationCorrectionRequested},
	DeclarationValidated:           {},
	DeclarationRejected:            {DeclarationDraft},
	DeclarationCorrectionRequested: {DeclarationDraft, DeclarationSubmitted},
}

// AllowedDeclarationTransitions returns the states reachable from the given state.
func AllowedDeclarationTransitions(from DeclarationState) []DeclarationState {
	return declarationTransitions[from]
}

// PendingDeclarationStates are the states that block project closure.
var PendingDeclarationStates = []DeclarationState{
	DeclarationSubmitted,
	DeclarationUnderReview,
}

type Decision string

const (
	DecisionValidated           Decision = "validated"
	DecisionRejected            Decision = "rejected"
	DecisionCorrectionRequested Decision = "correction_requested"
)

// RequiresComment reports whether the decision carries a mandatory comment.
func (d Decision) RequiresComment() bool {
	return d == DecisionRejected || d == DecisionCorrectionRequested
}
