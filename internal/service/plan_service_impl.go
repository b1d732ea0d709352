package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lbenicio/sitetrack/internal/db"
	"github.com/lbenicio/sitetrack/internal/domain"
	"github.com/lbenicio/sitetrack/internal/progress"
	"github.com/lbenicio/sitetrack/internal/repository"
)

type planService struct {
	projects repository.ProjectRepo
	plans    repository.PlanRepo
	lots     repository.LotRepo
	tasks    repository.TaskRepo
	uow      db.UnitOfWork
	syncer   TaskSyncer
	notifier Notifier
	obs      UseCaseObserver
	now      func() time.Time
}

func NewPlanService(projects repository.ProjectRepo, plans repository.PlanRepo, lots repository.LotRepo, tasks repository.TaskRepo, uow db.UnitOfWork, syncer TaskSyncer, notifier Notifier, observers ...UseCaseObserver) PlanService {
	return &planService{
		projects: projects,
		plans:    plans,
		lots:     lots,
		tasks:    tasks,
		uow:      uow,
		syncer:   syncer,
		notifier: notifier,
		obs:      useCaseObserverOrNoop(observers),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *planService) CreatePlan(ctx context.Context, projectID, reference string) (*domain.PlanningDocument, error) {
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		return nil, err
	}
	now := s.now()
	plan := &domain.PlanningDocument{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		Reference: reference,
		State:     domain.PlanDraft,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if plan.Reference == "" {
		plan.Reference = "PLAN-" + plan.ID[:8]
	}
	if err := s.plans.Create(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *planService) GetPlan(ctx context.Context, id string) (*PlanStructure, error) {
	plan, err := s.plans.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	lots, err := s.lots.ListByPlan(ctx, id)
	if err != nil {
		return nil, err
	}
	tasks, err := s.tasks.ListByPlan(ctx, id)
	if err != nil {
		return nil, err
	}
	return &PlanStructure{Plan: plan, Lots: lots, Tasks: tasks}, nil
}

func (s *planService) ListByProject(ctx context.Context, projectID string) ([]*domain.PlanningDocument, error) {
	return s.plans.ListByProject(ctx, projectID)
}

// editablePlan loads the plan and rejects structural edits outside draft.
// Approved content is immutable; amendments go through a new revision.
func (s *planService) editablePlan(ctx context.Context, planID string) (*domain.PlanningDocument, error) {
	plan, err := s.plans.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan.State != domain.PlanDraft {
		return nil, &domain.StateError{Entity: "plan", ID: plan.ID, Current: string(plan.State),
			Allowed: []string{string(domain.PlanDraft)}}
	}
	return plan, nil
}

func (s *planService) AddLot(ctx context.Context, l *domain.Lot) error {
	plan, err := s.editablePlan(ctx, l.PlanID)
	if err != nil {
		return err
	}
	if l.DateEnd.Before(l.DateStart) {
		return &domain.DateRangeError{Field: "date_end", Value: l.DateEnd, Min: l.DateStart,
			Reason: "lot end cannot precede lot start"}
	}
	if err := s.checkLotNesting(ctx, plan.ProjectID, l); err != nil {
		return err
	}

	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	now := s.now()
	l.CreatedAt = now
	l.UpdatedAt = now
	return s.lots.Create(ctx, l)
}

func (s *planService) AddTask(ctx context.Context, t *domain.Task) error {
	if _, err := s.editablePlan(ctx, t.PlanID); err != nil {
		return err
	}
	if err := s.validateTask(ctx, t); err != nil {
		return err
	}

	existing, err := s.tasks.ListByPlan(ctx, t.PlanID)
	if err != nil {
		return err
	}
	if err := domain.CheckWeightCeiling(t.PlanID, append(existing, t)); err != nil {
		return err
	}

	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	now := s.now()
	t.CreatedAt = now
	t.UpdatedAt = now
	return s.tasks.Create(ctx, t)
}

func (s *planService) UpdateTask(ctx context.Context, t *domain.Task) error {
	if _, err := s.editablePlan(ctx, t.PlanID); err != nil {
		return err
	}
	if err := s.validateTask(ctx, t); err != nil {
		return err
	}

	existing, err := s.tasks.ListByPlan(ctx, t.PlanID)
	if err != nil {
		return err
	}
	// Weight ceiling over the plan with this task's new weight in place.
	candidate := make([]*domain.Task, 0, len(existing))
	for _, e := range existing {
		if e.ID == t.ID {
			continue
		}
		candidate = append(candidate, e)
	}
	if err := domain.CheckWeightCeiling(t.PlanID, append(candidate, t)); err != nil {
		return err
	}

	t.UpdatedAt = s.now()
	return s.tasks.Update(ctx, t)
}

func (s *planService) RemoveTask(ctx context.Context, taskID string) error {
	t, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return err
	}
	if _, err := s.editablePlan(ctx, t.PlanID); err != nil {
		return err
	}
	return s.tasks.Delete(ctx, taskID)
}

func (s *planService) Submit(ctx context.Context, planID string) error {
	return observe(ctx, s.obs, "plan.submit", map[string]any{"plan_id": planID}, func(ctx context.Context) error {
		plan, err := s.plans.GetByID(ctx, planID)
		if err != nil {
			return err
		}
		if !plan.CanTransition(domain.PlanSubmitted) {
			return plan.TransitionError()
		}

		tasks, err := s.tasks.ListByPlan(ctx, planID)
		if err != nil {
			return err
		}
		if len(tasks) == 0 {
			return &domain.EmptyPlanError{PlanID: planID}
		}
		if err := domain.CheckWeightBalance(planID, tasks); err != nil {
			return err
		}
		if err := s.checkHierarchyDates(ctx, plan, tasks); err != nil {
			return err
		}

		plan.State = domain.PlanSubmitted
		plan.UpdatedAt = s.now()
		return s.plans.Update(ctx, plan)
	})
}

func (s *planService) Approve(ctx context.Context, planID string, actor domain.Actor) error {
	var approved *domain.PlanningDocument
	var tasks []*domain.Task
	err := observe(ctx, s.obs, "plan.approve", map[string]any{"plan_id": planID}, func(ctx context.Context) error {
		return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
			txPlans := repository.NewSQLitePlanRepo(tx)
			txTasks := repository.NewSQLiteTaskRepo(tx)
			txDecls := repository.NewSQLiteDeclarationRepo(tx)
			txProjects := repository.NewSQLiteProjectRepo(tx)

			plan, err := txPlans.GetByID(ctx, planID)
			if err != nil {
				return err
			}
			if !plan.CanTransition(domain.PlanApproved) {
				return plan.TransitionError()
			}

			// A newly approved revision replaces the previous active one.
			prior, err := txPlans.ActiveApproved(ctx, plan.ProjectID)
			if err != nil {
				return err
			}
			if prior != nil && prior.ID != plan.ID {
				if err := txPlans.Archive(ctx, prior.ID); err != nil {
					return err
				}
			}

			now := s.now()
			plan.State = domain.PlanApproved
			plan.Active = true
			plan.ApprovedBy = actor.ID
			plan.ApprovedAt = &now
			plan.UpdatedAt = now
			if err := txPlans.Update(ctx, plan); err != nil {
				return err
			}

			tasks, err = txTasks.ListByPlan(ctx, planID)
			if err != nil {
				return err
			}

			// Swapping the active plan changes the aggregation input, so the
			// stored project progress is refreshed in the same transaction.
			validated, err := txDecls.ListValidatedByPlan(ctx, planID)
			if err != nil {
				return err
			}
			pcts, _ := progress.LatestValidated(validated)
			project, err := txProjects.GetByID(ctx, plan.ProjectID)
			if err != nil {
				return err
			}
			project.ComputedProgress = progress.Overall(tasks, pcts)
			project.ProgressUpdatedAt = &now
			project.UpdatedAt = now
			if err := txProjects.Update(ctx, project); err != nil {
				return err
			}

			approved = plan
			return nil
		})
	})
	if err != nil {
		return err
	}
	s.notifier.PlanApproved(ctx, approved)
	s.syncTracker(ctx, approved, tasks)
	return nil
}

// syncTracker pushes the approved structure to the external tracker and writes
// the returned references back. Sync is best effort: it runs after the
// approval has committed and a failure never unwinds it.
func (s *planService) syncTracker(ctx context.Context, plan *domain.PlanningDocument, tasks []*domain.Task) {
	_ = observe(ctx, s.obs, "plan.tracker_sync", map[string]any{"plan_id": plan.ID}, func(ctx context.Context) error {
		refs, err := s.syncer.Sync(ctx, plan, tasks)
		if err != nil {
			return err
		}
		now := s.now()
		for _, t := range tasks {
			ref, ok := refs[t.ID]
			if !ok || ref == t.TrackerRef {
				continue
			}
			t.TrackerRef = ref
			t.UpdatedAt = now
			if err := s.tasks.Update(ctx, t); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *planService) Reject(ctx context.Context, planID string, actor domain.Actor, reason string) error {
	return observe(ctx, s.obs, "plan.reject", map[string]any{"plan_id": planID}, func(ctx context.Context) error {
		if len(reason) < domain.MinDecisionCommentLen {
			return &domain.CommentRequiredError{Decision: domain.DecisionRejected, Length: len(reason)}
		}
		plan, err := s.plans.GetByID(ctx, planID)
		if err != nil {
			return err
		}
		if !plan.CanTransition(domain.PlanRejected) {
			return plan.TransitionError()
		}
		plan.State = domain.PlanRejected
		plan.RejectionReason = reason
		plan.UpdatedAt = s.now()
		return s.plans.Update(ctx, plan)
	})
}

func (s *planService) ResetDraft(ctx context.Context, planID string) error {
	plan, err := s.plans.GetByID(ctx, planID)
	if err != nil {
		return err
	}
	if !plan.CanTransition(domain.PlanDraft) {
		return plan.TransitionError()
	}
	plan.State = domain.PlanDraft
	plan.RejectionReason = ""
	plan.UpdatedAt = s.now()
	return s.plans.Update(ctx, plan)
}

func (s *planService) checkLotNesting(ctx context.Context, projectID string, l *domain.Lot) error {
	p, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return err
	}
	var boundStart, boundEnd time.Time
	if p.PlannedStart != nil {
		boundStart = *p.PlannedStart
	}
	if p.PlannedEnd != nil {
		boundEnd = *p.PlannedEnd
	}
	return domain.CheckNesting("lot", l.Name, l.DateStart, l.DateEnd, boundStart, boundEnd)
}

func (s *planService) validateTask(ctx context.Context, t *domain.Task) error {
	if err := t.ValidateDates(); err != nil {
		return err
	}
	lot, err := s.lots.GetByID(ctx, t.LotID)
	if err != nil {
		return err
	}
	return domain.CheckNesting("task", t.Name, t.DateStart, t.DateEnd, lot.DateStart, lot.DateEnd)
}

// checkHierarchyDates re-verifies the whole structure at submission time,
// catching ranges widened after their children were created.
func (s *planService) checkHierarchyDates(ctx context.Context, plan *domain.PlanningDocument, tasks []*domain.Task) error {
	lots, err := s.lots.ListByPlan(ctx, plan.ID)
	if err != nil {
		return err
	}
	p, err := s.projects.GetByID(ctx, plan.ProjectID)
	if err != nil {
		return err
	}
	var boundStart, boundEnd time.Time
	if p.PlannedStart != nil {
		boundStart = *p.PlannedStart
	}
	if p.PlannedEnd != nil {
		boundEnd = *p.PlannedEnd
	}

	lotByID := make(map[string]*domain.Lot, len(lots))
	for _, l := range lots {
		if err := domain.CheckNesting("lot", l.Name, l.DateStart, l.DateEnd, boundStart, boundEnd); err != nil {
			return err
		}
		lotByID[l.ID] = l
	}
	for _, t := range tasks {
		lot, ok := lotByID[t.LotID]
		if !ok {
			continue
		}
		if err := domain.CheckNesting("task", t.Name, t.DateStart, t.DateEnd, lot.DateStart, lot.DateEnd); err != nil {
			return err
		}
	}
	return nil
}
