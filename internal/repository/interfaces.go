package repository

import (
	"context"

	"github.com/lbenicio/sitetrack/internal/domain"
)

type ProjectRepo interface {
	Create(ctx context.Context, p *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	GetByCode(ctx context.Context, code string) (*domain.Project, error)
	List(ctx context.Context) ([]*domain.Project, error)
	Update(ctx context.Context, p *domain.Project) error
	Delete(ctx context.Context, id string) error
}

type PlanRepo interface {
	Create(ctx context.Context, d *domain.PlanningDocument) error
	GetByID(ctx context.Context, id string) (*domain.PlanningDocument, error)
	ListByProject(ctx context.Context, projectID string) ([]*domain.PlanningDocument, error)
	// ActiveApproved returns the single active approved plan for the project,
	// or nil when none exists.
	ActiveApproved(ctx context.Context, projectID string) (*domain.PlanningDocument, error)
	Update(ctx context.Context, d *domain.PlanningDocument) error
	// Archive clears the active flag on an approved plan, making room for a
	// new revision to become the active one.
	Archive(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

type LotRepo interface {
	Create(ctx context.Context, l *domain.Lot) error
	GetByID(ctx context.Context, id string) (*domain.Lot, error)
	ListByPlan(ctx context.Context, planID string) ([]*domain.Lot, error)
	Update(ctx context.Context, l *domain.Lot) error
	Delete(ctx context.Context, id string) error
}

type TaskRepo interface {
	Create(ctx context.Context, t *domain.Task) error
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	ListByLot(ctx context.Context, lotID string) ([]*domain.Task, error)
	ListByPlan(ctx context.Context, planID string) ([]*domain.Task, error)
	Update(ctx context.Context, t *domain.Task) error
	Delete(ctx context.Context, id string) error
}

type DeclarationRepo interface {
	Create(ctx context.Context, d *domain.ProgressDeclaration) error
	GetByID(ctx context.Context, id string) (*domain.ProgressDeclaration, error)
	ListByTask(ctx context.Context, taskID string) ([]*domain.ProgressDeclaration, error)
	ListByProject(ctx context.Context, projectID string) ([]*domain.ProgressDeclaration, error)
	ListPendingByProject(ctx context.Context, projectID string) ([]*domain.ProgressDeclaration, error)
	CountPendingByProject(ctx context.Context, projectID string) (int, error)
	// LatestValidatedByTask returns the validated declaration with the
	// highest (execution_date, id) ordering for the task, or nil when the
	// task has no validated declaration yet.
	LatestValidatedByTask(ctx context.Context, taskID string) (*domain.ProgressDeclaration, error)
	// ListValidatedByPlan returns validated declarations ordered by effective
	// validation date (validated_at when set, execution_date otherwise) then
	// id, the replay order for the actual S-curve.
	ListValidatedByPlan(ctx context.Context, planID string) ([]*domain.ProgressDeclaration, error)
	// Update persists the declaration with an optimistic-version check and
	// bumps the version. A stale version yields ConcurrentConflictError.
	Update(ctx context.Context, d *domain.ProgressDeclaration) error
}

// ValidationLedger is the append-only audit trail. There is deliberately no
// update or delete on this interface; the maintenance path lives on the
// concrete type and demands a system actor.
type ValidationLedger interface {
	Append(ctx context.Context, r *domain.ValidationRecord) error
	GetByID(ctx context.Context, id string) (*domain.ValidationRecord, error)
	// ListByDeclaration returns records ordered by decision timestamp,
	// tie-broken by insertion order.
	ListByDeclaration(ctx context.Context, declarationID string) ([]*domain.ValidationRecord, error)
	Latest(ctx context.Context, declarationID string) (*domain.ValidationRecord, error)
	ListByProject(ctx context.Context, projectID string) ([]*domain.ValidationRecord, error)
	CountByDeclaration(ctx context.Context, declarationID string) (int, error)
}
