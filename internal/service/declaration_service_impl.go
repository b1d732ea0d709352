package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lbenicio/sitetrack/internal/db"
	"github.com/lbenicio/sitetrack/internal/domain"
	"github.com/lbenicio/sitetrack/internal/progress"
	"github.com/lbenicio/sitetrack/internal/repository"
)

type declarationService struct {
	projects     repository.ProjectRepo
	plans        repository.PlanRepo
	tasks        repository.TaskRepo
	declarations repository.DeclarationRepo
	ledger       repository.ValidationLedger
	uow          db.UnitOfWork
	notifier     Notifier
	obs          UseCaseObserver
	now          func() time.Time
}

func NewDeclarationService(projects repository.ProjectRepo, plans repository.PlanRepo, tasks repository.TaskRepo, declarations repository.DeclarationRepo, ledger repository.ValidationLedger, uow db.UnitOfWork, notifier Notifier, observers ...UseCaseObserver) DeclarationService {
	return &declarationService{
		projects:     projects,
		plans:        plans,
		tasks:        tasks,
		declarations: declarations,
		ledger:       ledger,
		uow:          uow,
		notifier:     notifier,
		obs:          useCaseObserverOrNoop(observers),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *declarationService) Create(ctx context.Context, d *domain.ProgressDeclaration) error {
	return observe(ctx, s.obs, "declaration.create", map[string]any{"task_id": d.TaskID}, func(ctx context.Context) error {
		task, err := s.tasks.GetByID(ctx, d.TaskID)
		if err != nil {
			return err
		}
		plan, err := s.plans.GetByID(ctx, task.PlanID)
		if err != nil {
			return err
		}
		if plan.State != domain.PlanApproved || !plan.Active {
			return &domain.StateError{Entity: "plan", ID: plan.ID, Current: string(plan.State),
				Allowed: []string{string(domain.PlanApproved)}}
		}
		project, err := s.projects.GetByID(ctx, plan.ProjectID)
		if err != nil {
			return err
		}
		if project.State != domain.ProjectRunning && project.State != domain.ProjectAtRisk {
			return &domain.StateError{Entity: "project", ID: project.ID, Current: string(project.State),
				Allowed: []string{string(domain.ProjectRunning), string(domain.ProjectAtRisk)}}
		}

		var previous float64
		if latest, err := s.declarations.LatestValidatedByTask(ctx, d.TaskID); err != nil {
			return err
		} else if latest != nil {
			previous = latest.DeclaredPct
		}

		today := s.now().Truncate(24 * time.Hour)
		if err := d.ValidateAtCreation(task, project.PlannedStart, previous, today); err != nil {
			return err
		}

		if d.ID == "" {
			d.ID = uuid.New().String()
		}
		now := s.now()
		d.PlanID = task.PlanID
		d.ProjectID = project.ID
		d.PreviousPct = previous
		d.State = domain.DeclarationDraft
		d.Version = 1
		d.CreatedAt = now
		d.UpdatedAt = now
		return s.declarations.Create(ctx, d)
	})
}

func (s *declarationService) GetByID(ctx context.Context, id string) (*domain.ProgressDeclaration, error) {
	return s.declarations.GetByID(ctx, id)
}

func (s *declarationService) ListByTask(ctx context.Context, taskID string) ([]*domain.ProgressDeclaration, error) {
	return s.declarations.ListByTask(ctx, taskID)
}

func (s *declarationService) ListByProject(ctx context.Context, projectID string) ([]*domain.ProgressDeclaration, error) {
	return s.declarations.ListByProject(ctx, projectID)
}

func (s *declarationService) ListPendingByProject(ctx context.Context, projectID string) ([]*domain.ProgressDeclaration, error) {
	return s.declarations.ListPendingByProject(ctx, projectID)
}

func (s *declarationService) AttachProof(ctx context.Context, id string, count int) error {
	if count < 1 {
		return fmt.Errorf("proof count must be positive, got %d", count)
	}
	d, err := s.declarations.GetByID(ctx, id)
	if err != nil {
		return err
	}
	// Proofs may only be added while the declaration is still editable.
	if d.State != domain.DeclarationDraft && d.State != domain.DeclarationCorrectionRequested {
		return &domain.StateError{Entity: "declaration", ID: id, Current: string(d.State),
			Allowed: []string{string(domain.DeclarationDraft), string(domain.DeclarationCorrectionRequested)}}
	}
	d.ProofCount += count
	d.UpdatedAt = s.now()
	return s.declarations.Update(ctx, d)
}

func (s *declarationService) Submit(ctx context.Context, id string) error {
	return observe(ctx, s.obs, "declaration.submit", map[string]any{"declaration_id": id}, func(ctx context.Context) error {
		return s.step(ctx, id, domain.DeclarationSubmitted, func(d *domain.ProgressDeclaration) error {
			return d.CheckSubmittable()
		})
	})
}

func (s *declarationService) StartReview(ctx context.Context, id string) error {
	return observe(ctx, s.obs, "declaration.start_review", map[string]any{"declaration_id": id}, func(ctx context.Context) error {
		return s.step(ctx, id, domain.DeclarationUnderReview, nil)
	})
}

func (s *declarationService) Validate(ctx context.Context, id string, validator domain.Actor, comment string) error {
	return s.decide(ctx, id, domain.DecisionValidated, validator, comment)
}

func (s *declarationService) Reject(ctx context.Context, id string, validator domain.Actor, comment string) error {
	return s.decide(ctx, id, domain.DecisionRejected, validator, comment)
}

func (s *declarationService) RequestCorrection(ctx context.Context, id string, validator domain.Actor, comment string) error {
	return s.decide(ctx, id, domain.DecisionCorrectionRequested, validator, comment)
}

func (s *declarationService) ResubmitAfterCorrection(ctx context.Context, id string) error {
	return observe(ctx, s.obs, "declaration.resubmit", map[string]any{"declaration_id": id}, func(ctx context.Context) error {
		d, err := s.declarations.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if d.State != domain.DeclarationCorrectionRequested {
			return d.TransitionError()
		}
		if err := d.CheckSubmittable(); err != nil {
			return err
		}
		d.State = domain.DeclarationSubmitted
		d.UpdatedAt = s.now()
		return s.declarations.Update(ctx, d)
	})
}

func (s *declarationService) ResetDraft(ctx context.Context, id string) error {
	return s.step(ctx, id, domain.DeclarationDraft, func(d *domain.ProgressDeclaration) error {
		d.RejectionReason = ""
		return nil
	})
}

// step applies one state-machine move with an optional guard.
func (s *declarationService) step(ctx context.Context, id string, to domain.DeclarationState, guard func(d *domain.ProgressDeclaration) error) error {
	d, err := s.declarations.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !d.CanTransition(to) {
		return d.TransitionError()
	}
	if guard != nil {
		if err := guard(d); err != nil {
			return err
		}
	}
	d.State = to
	d.UpdatedAt = s.now()
	return s.declarations.Update(ctx, d)
}

// decide records a review decision: the declaration moves per the decision,
// an immutable record lands on the ledger, and for validations the project's
// computed progress is refreshed, all in one transaction. The optimistic
// version check on the declaration ensures exactly one of two concurrent
// reviewers wins.
func (s *declarationService) decide(ctx context.Context, id string, decision domain.Decision, validator domain.Actor, comment string) error {
	var decided *domain.ProgressDeclaration
	var record *domain.ValidationRecord

	name := "declaration." + string(decision)
	err := observe(ctx, s.obs, name, map[string]any{"declaration_id": id}, func(ctx context.Context) error {
		return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
			txDecls := repository.NewSQLiteDeclarationRepo(tx)
			txLedger := repository.NewSQLiteValidationLedger(tx)

			d, err := txDecls.GetByID(ctx, id)
			if err != nil {
				return err
			}
			target := decisionTarget(decision)
			if !d.CanTransition(target) {
				return d.TransitionError()
			}

			now := s.now()
			rec, err := domain.NewValidationRecord(uuid.New().String(), d, decision, validator, comment, now)
			if err != nil {
				return err
			}
			if err := txLedger.Append(ctx, rec); err != nil {
				return err
			}

			d.State = target
			switch decision {
			case domain.DecisionValidated:
				d.ValidatedBy = validator.ID
				d.ValidatedAt = &now
			case domain.DecisionRejected:
				d.RejectionReason = comment
			case domain.DecisionCorrectionRequested:
				d.CorrectionComment = comment
				d.CorrectionCount++
			}
			d.UpdatedAt = now
			if err := txDecls.Update(ctx, d); err != nil {
				return err
			}

			if decision == domain.DecisionValidated {
				if err := s.refreshProjectProgress(ctx, tx, d, now); err != nil {
					return err
				}
			}

			decided = d
			record = rec
			return nil
		})
	})
	if err != nil {
		return err
	}
	s.notifier.DeclarationDecided(ctx, decided, record)
	return nil
}

// refreshProjectProgress recomputes the project completion from the validated
// declarations of the declaration's plan and stores it on the project row.
func (s *declarationService) refreshProjectProgress(ctx context.Context, tx db.DBTX, d *domain.ProgressDeclaration, now time.Time) error {
	txTasks := repository.NewSQLiteTaskRepo(tx)
	txDecls := repository.NewSQLiteDeclarationRepo(tx)
	txProjects := repository.NewSQLiteProjectRepo(tx)

	tasks, err := txTasks.ListByPlan(ctx, d.PlanID)
	if err != nil {
		return err
	}
	validated, err := txDecls.ListValidatedByPlan(ctx, d.PlanID)
	if err != nil {
		return err
	}
	pcts, _ := progress.LatestValidated(validated)

	project, err := txProjects.GetByID(ctx, d.ProjectID)
	if err != nil {
		return err
	}
	project.ComputedProgress = progress.Overall(tasks, pcts)
	project.ProgressUpdatedAt = &now
	// The first validated declaration marks the start of real execution;
	// full weighted completion marks its end.
	if project.ActualStart == nil {
		start := now
		project.ActualStart = &start
	}
	if project.ActualEnd == nil && project.ComputedProgress >= 100-domain.CompletionTolerance {
		end := now
		project.ActualEnd = &end
	}
	project.UpdatedAt = now
	return txProjects.Update(ctx, project)
}

func decisionTarget(decision domain.Decision) domain.DeclarationState {
	switch decision {
	case domain.DecisionValidated:
		return domain.DeclarationValidated
	case domain.DecisionRejected:
		return domain.DeclarationRejected
	default:
		return domain.DeclarationCorrectionRequested
	}
}
