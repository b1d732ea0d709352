package testutil

import (
	"time"

	"github.com/google/uuid"
	"github.com/lbenicio/sitetrack/internal/domain"
)

// Dates used by default fixtures: a one-year project window.
var (
	FixtureStart = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	FixtureEnd   = time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
)

// Project options
type ProjectOption func(*domain.Project)

func WithProjectState(s domain.ProjectState) ProjectOption {
	return func(p *domain.Project) {
		p.State = s
	}
}

func WithBudget(amount float64) ProjectOption {
	return func(p *domain.Project) {
		p.Budget = amount
	}
}

func WithPlannedWindow(start, end time.Time) ProjectOption {
	return func(p *domain.Project) {
		p.PlannedStart = &start
		p.PlannedEnd = &end
	}
}

func NewTestProject(name string, opts ...ProjectOption) *domain.Project {
	now := time.Now().UTC()
	start, end := FixtureStart, FixtureEnd
	p := &domain.Project{
		ID:           uuid.New().String(),
		Code:         "PRJ-" + uuid.New().String()[:8],
		Name:         name,
		State:        domain.ProjectDraft,
		PlannedStart: &start,
		PlannedEnd:   &end,
		Budget:       1_000_000,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Plan options
type PlanOption func(*domain.PlanningDocument)

func WithPlanState(s domain.PlanState) PlanOption {
	return func(d *domain.PlanningDocument) {
		d.State = s
	}
}

func WithInactive() PlanOption {
	return func(d *domain.PlanningDocument) {
		d.Active = false
	}
}

func NewTestPlan(projectID string, opts ...PlanOption) *domain.PlanningDocument {
	now := time.Now().UTC()
	d := &domain.PlanningDocument{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		Reference: "PLAN-" + uuid.New().String()[:8],
		State:     domain.PlanDraft,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Lot options
type LotOption func(*domain.Lot)

func WithLotWindow(start, end time.Time) LotOption {
	return func(l *domain.Lot) {
		l.DateStart = start
		l.DateEnd = end
	}
}

func NewTestLot(planID, name string, opts ...LotOption) *domain.Lot {
	now := time.Now().UTC()
	l := &domain.Lot{
		ID:        uuid.New().String(),
		PlanID:    planID,
		Name:      name,
		DateStart: FixtureStart,
		DateEnd:   FixtureEnd,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Task options
type TaskOption func(*domain.Task)

func WithWeight(w float64) TaskOption {
	return func(t *domain.Task) {
		t.Weight = w
	}
}

func WithTaskWindow(start, end time.Time) TaskOption {
	return func(t *domain.Task) {
		t.DateStart = start
		t.DateEnd = end
	}
}

func NewTestTask(lotID, planID, name string, opts ...TaskOption) *domain.Task {
	now := time.Now().UTC()
	t := &domain.Task{
		ID:        uuid.New().String(),
		LotID:     lotID,
		PlanID:    planID,
		Name:      name,
		DateStart: FixtureStart,
		DateEnd:   FixtureEnd,
		Weight:    50,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Declaration options
type DeclarationOption func(*domain.ProgressDeclaration)

func WithDeclaredPct(pct float64) DeclarationOption {
	return func(d *domain.ProgressDeclaration) {
		d.DeclaredPct = pct
	}
}

func WithDeclarationState(s domain.DeclarationState) DeclarationOption {
	return func(d *domain.ProgressDeclaration) {
		d.State = s
	}
}

func WithExecutionDate(date time.Time) DeclarationOption {
	return func(d *domain.ProgressDeclaration) {
		d.ExecutionDate = date
	}
}

func WithValidatedAt(ts time.Time) DeclarationOption {
	return func(d *domain.ProgressDeclaration) {
		d.ValidatedAt = &ts
	}
}

func WithProofs(n int) DeclarationOption {
	return func(d *domain.ProgressDeclaration) {
		d.ProofCount = n
	}
}

func NewTestDeclaration(task *domain.Task, projectID string, opts ...DeclarationOption) *domain.ProgressDeclaration {
	now := time.Now().UTC()
	d := &domain.ProgressDeclaration{
		ID:            uuid.New().String(),
		TaskID:        task.ID,
		PlanID:        task.PlanID,
		ProjectID:     projectID,
		DeclaredPct:   25,
		ExecutionDate: FixtureStart.AddDate(0, 2, 0),
		Comment:       "progress on " + task.Name,
		ProofCount:    1,
		State:         domain.DeclarationDraft,
		Version:       1,
		DeclaredBy:    "contractor-1",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}
