package service

import (
	"context"
	"time"

	"github.com/lbenicio/sitetrack/internal/domain"
	"github.com/lbenicio/sitetrack/internal/progress"
)

type ProjectService interface {
	Create(ctx context.Context, p *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	GetByCode(ctx context.Context, code string) (*domain.Project, error)
	List(ctx context.Context) ([]*domain.Project, error)
	Update(ctx context.Context, p *domain.Project) error
	Delete(ctx context.Context, id string) error

	// Lifecycle transitions. Each enforces the transition table plus its
	// state-specific guards and stamps the audit trail with the actor.
	MarkPlanned(ctx context.Context, id string, actor domain.Actor) error
	ReturnToDraft(ctx context.Context, id string, actor domain.Actor) error
	Start(ctx context.Context, id string, actor domain.Actor) error
	FlagAtRisk(ctx context.Context, id string, actor domain.Actor, reason string) error
	Suspend(ctx context.Context, id string, actor domain.Actor, reason string) error
	Resume(ctx context.Context, id string, actor domain.Actor) error
	Close(ctx context.Context, id string, actor domain.Actor) error
}

// PlanStructure is a plan with its full lot and task hierarchy loaded.
type PlanStructure struct {
	Plan  *domain.PlanningDocument
	Lots  []*domain.Lot
	Tasks []*domain.Task
}

type PlanService interface {
	CreatePlan(ctx context.Context, projectID, reference string) (*domain.PlanningDocument, error)
	GetPlan(ctx context.Context, id string) (*PlanStructure, error)
	ListByProject(ctx context.Context, projectID string) ([]*domain.PlanningDocument, error)

	AddLot(ctx context.Context, l *domain.Lot) error
	AddTask(ctx context.Context, t *domain.Task) error
	UpdateTask(ctx context.Context, t *domain.Task) error
	RemoveTask(ctx context.Context, taskID string) error

	Submit(ctx context.Context, planID string) error
	Approve(ctx context.Context, planID string, actor domain.Actor) error
	Reject(ctx context.Context, planID string, actor domain.Actor, reason string) error
	// ResetDraft returns a rejected plan to draft for rework.
	ResetDraft(ctx context.Context, planID string) error
}

type DeclarationService interface {
	Create(ctx context.Context, d *domain.ProgressDeclaration) error
	GetByID(ctx context.Context, id string) (*domain.ProgressDeclaration, error)
	ListByTask(ctx context.Context, taskID string) ([]*domain.ProgressDeclaration, error)
	ListByProject(ctx context.Context, projectID string) ([]*domain.ProgressDeclaration, error)
	ListPendingByProject(ctx context.Context, projectID string) ([]*domain.ProgressDeclaration, error)

	// AttachProof raises the declaration's proof document count. Only the
	// count is tracked; document contents live outside the tracker.
	AttachProof(ctx context.Context, id string, count int) error

	Submit(ctx context.Context, id string) error
	StartReview(ctx context.Context, id string) error

	// Review decisions. Each appends an immutable record to the validation
	// ledger; Validate additionally refreshes the project's computed progress
	// inside the same transaction.
	Validate(ctx context.Context, id string, validator domain.Actor, comment string) error
	Reject(ctx context.Context, id string, validator domain.Actor, comment string) error
	RequestCorrection(ctx context.Context, id string, validator domain.Actor, comment string) error

	// ResubmitAfterCorrection sends a corrected declaration straight back to
	// review without passing through draft.
	ResubmitAfterCorrection(ctx context.Context, id string) error
	ResetDraft(ctx context.Context, id string) error
}

// TaskProgressReport is one task's progress detail for reporting.
type TaskProgressReport struct {
	Task     *domain.Task
	Progress progress.TaskProgress
	History  []*domain.ProgressDeclaration
}

// ProjectProgressReport aggregates the project's progress state for reporting.
type ProjectProgressReport struct {
	Project      *domain.Project
	Plan         *domain.PlanningDocument
	AsOf         time.Time
	OverallPct   float64
	PlannedPct   float64
	DeviationPct float64
	Tasks        []progress.TaskProgress
	PlannedCurve []progress.Point
	ActualCurve  []progress.Point
}

// LedgerIssue is one validation record that failed integrity verification.
type LedgerIssue struct {
	Record *domain.ValidationRecord
}

type ProgressService interface {
	ProjectReport(ctx context.Context, projectID string) (*ProjectProgressReport, error)
	TaskReport(ctx context.Context, taskID string) (*TaskProgressReport, error)
	LedgerHistory(ctx context.Context, declarationID string) ([]*domain.ValidationRecord, error)
	// VerifyLedger replays every record for the project and returns those
	// whose integrity hash no longer matches.
	VerifyLedger(ctx context.Context, projectID string) ([]LedgerIssue, error)
}
