package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lbenicio/sitetrack/internal/domain"
	"github.com/lbenicio/sitetrack/internal/progress"
	"github.com/lbenicio/sitetrack/internal/repository"
)

type projectService struct {
	projects     repository.ProjectRepo
	plans        repository.PlanRepo
	tasks        repository.TaskRepo
	declarations repository.DeclarationRepo
	notifier     Notifier
	obs          UseCaseObserver
	now          func() time.Time
}

func NewProjectService(projects repository.ProjectRepo, plans repository.PlanRepo, tasks repository.TaskRepo, declarations repository.DeclarationRepo, notifier Notifier, observers ...UseCaseObserver) ProjectService {
	return &projectService{
		projects:     projects,
		plans:        plans,
		tasks:        tasks,
		declarations: declarations,
		notifier:     notifier,
		obs:          useCaseObserverOrNoop(observers),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *projectService) Create(ctx context.Context, p *domain.Project) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.State == "" {
		p.State = domain.ProjectDraft
	}
	if err := p.ValidatePlannedDates(); err != nil {
		return err
	}
	now := s.now()
	p.CreatedAt = now
	p.UpdatedAt = now
	return s.projects.Create(ctx, p)
}

func (s *projectService) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	return s.projects.GetByID(ctx, id)
}

func (s *projectService) GetByCode(ctx context.Context, code string) (*domain.Project, error) {
	return s.projects.GetByCode(ctx, code)
}

func (s *projectService) List(ctx context.Context) ([]*domain.Project, error) {
	return s.projects.List(ctx)
}

func (s *projectService) Update(ctx context.Context, p *domain.Project) error {
	if err := p.ValidatePlannedDates(); err != nil {
		return err
	}
	p.UpdatedAt = s.now()
	return s.projects.Update(ctx, p)
}

func (s *projectService) Delete(ctx context.Context, id string) error {
	p, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p.State != domain.ProjectDraft {
		return &domain.StateError{Entity: "project", ID: id, Current: string(p.State), Allowed: []string{string(domain.ProjectDraft)}}
	}
	return s.projects.Delete(ctx, id)
}

func (s *projectService) MarkPlanned(ctx context.Context, id string, actor domain.Actor) error {
	return observe(ctx, s.obs, "project.mark_planned", map[string]any{"project_id": id}, func(ctx context.Context) error {
		return s.transition(ctx, id, domain.ProjectPlanned, actor, "", func(ctx context.Context, p *domain.Project) error {
			// Planning readiness: dates and budget must be set before the
			// project leaves draft.
			if p.PlannedStart == nil || p.PlannedEnd == nil {
				return &domain.DateRangeError{Field: "planned_start", Reason: "planned start and end dates are required before planning"}
			}
			if err := p.ValidatePlannedDates(); err != nil {
				return err
			}
			if p.Budget <= 0 {
				return &domain.BudgetRequiredError{ProjectID: p.ID, Budget: p.Budget}
			}
			return nil
		})
	})
}

func (s *projectService) ReturnToDraft(ctx context.Context, id string, actor domain.Actor) error {
	return observe(ctx, s.obs, "project.return_to_draft", map[string]any{"project_id": id}, func(ctx context.Context) error {
		return s.transition(ctx, id, domain.ProjectDraft, actor, "", nil)
	})
}

func (s *projectService) Start(ctx context.Context, id string, actor domain.Actor) error {
	return observe(ctx, s.obs, "project.start", map[string]any{"project_id": id}, func(ctx context.Context) error {
		return s.transition(ctx, id, domain.ProjectRunning, actor, "", func(ctx context.Context, p *domain.Project) error {
			active, err := s.plans.ActiveApproved(ctx, p.ID)
			if err != nil {
				return err
			}
			if active == nil {
				return &domain.NoApprovedPlanError{ProjectID: p.ID}
			}
			return nil
		})
	})
}

func (s *projectService) FlagAtRisk(ctx context.Context, id string, actor domain.Actor, reason string) error {
	return observe(ctx, s.obs, "project.flag_at_risk", map[string]any{"project_id": id}, func(ctx context.Context) error {
		if reason == "" {
			return &domain.ReasonRequiredError{State: domain.ProjectAtRisk}
		}
		return s.transition(ctx, id, domain.ProjectAtRisk, actor, reason, nil)
	})
}

func (s *projectService) Suspend(ctx context.Context, id string, actor domain.Actor, reason string) error {
	return observe(ctx, s.obs, "project.suspend", map[string]any{"project_id": id}, func(ctx context.Context) error {
		if reason == "" {
			return &domain.ReasonRequiredError{State: domain.ProjectSuspended}
		}
		return s.transition(ctx, id, domain.ProjectSuspended, actor, reason, nil)
	})
}

func (s *projectService) Resume(ctx context.Context, id string, actor domain.Actor) error {
	return observe(ctx, s.obs, "project.resume", map[string]any{"project_id": id}, func(ctx context.Context) error {
		return s.transition(ctx, id, domain.ProjectRunning, actor, "", nil)
	})
}

func (s *projectService) Close(ctx context.Context, id string, actor domain.Actor) error {
	return observe(ctx, s.obs, "project.close", map[string]any{"project_id": id}, func(ctx context.Context) error {
		return s.transition(ctx, id, domain.ProjectClosed, actor, "", func(ctx context.Context, p *domain.Project) error {
			pending, err := s.declarations.CountPendingByProject(ctx, p.ID)
			if err != nil {
				return err
			}
			// Completion is recomputed from the active plan's validated
			// declarations; the stored value may predate a revision swap.
			overall, err := s.liveProgress(ctx, p.ID)
			if err != nil {
				return err
			}
			if pending > 0 {
				return &domain.IncompleteExecutionError{ProjectID: p.ID, Progress: overall, PendingCount: pending}
			}
			if overall < 100-domain.CompletionTolerance {
				return &domain.IncompleteExecutionError{ProjectID: p.ID, Progress: overall}
			}
			now := s.now()
			p.ComputedProgress = overall
			p.ProgressUpdatedAt = &now
			if p.ActualEnd == nil {
				p.ActualEnd = &now
			}
			return nil
		})
	})
}

// liveProgress aggregates the project's weighted completion from the active
// approved plan's validated declarations.
func (s *projectService) liveProgress(ctx context.Context, projectID string) (float64, error) {
	active, err := s.plans.ActiveApproved(ctx, projectID)
	if err != nil {
		return 0, err
	}
	if active == nil {
		return 0, &domain.NoApprovedPlanError{ProjectID: projectID}
	}
	tasks, err := s.tasks.ListByPlan(ctx, active.ID)
	if err != nil {
		return 0, err
	}
	validated, err := s.declarations.ListValidatedByPlan(ctx, active.ID)
	if err != nil {
		return 0, err
	}
	pcts, _ := progress.LatestValidated(validated)
	return progress.Overall(tasks, pcts), nil
}

// transition applies the lifecycle move with its guard and stamps the audit
// trail. guard may mutate the project before persistence.
func (s *projectService) transition(ctx context.Context, id string, to domain.ProjectState, actor domain.Actor, reason string, guard func(ctx context.Context, p *domain.Project) error) error {
	p, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !p.CanTransition(to) {
		return p.TransitionError()
	}
	if guard != nil {
		if err := guard(ctx, p); err != nil {
			return err
		}
	}

	now := s.now()
	p.State = to
	p.StateChangedAt = &now
	p.StateChangedBy = actor.ID
	p.StateReason = reason
	p.UpdatedAt = now

	if err := s.projects.Update(ctx, p); err != nil {
		return err
	}
	s.notifier.ProjectStateChanged(ctx, p)
	return nil
}
