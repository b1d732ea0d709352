package service

import (
	"context"
	"time"

	"github.com/lbenicio/sitetrack/internal/domain"
	"github.com/lbenicio/sitetrack/internal/progress"
	"github.com/lbenicio/sitetrack/internal/repository"
)

type progressService struct {
	projects     repository.ProjectRepo
	plans        repository.PlanRepo
	tasks        repository.TaskRepo
	declarations repository.DeclarationRepo
	ledger       repository.ValidationLedger
	now          func() time.Time
}

func NewProgressService(projects repository.ProjectRepo, plans repository.PlanRepo, tasks repository.TaskRepo, declarations repository.DeclarationRepo, ledger repository.ValidationLedger) ProgressService {
	return &progressService{
		projects:     projects,
		plans:        plans,
		tasks:        tasks,
		declarations: declarations,
		ledger:       ledger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *progressService) ProjectReport(ctx context.Context, projectID string) (*ProjectProgressReport, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	plan, err := s.plans.ActiveApproved(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, &domain.NoApprovedPlanError{ProjectID: projectID}
	}

	tasks, err := s.tasks.ListByPlan(ctx, plan.ID)
	if err != nil {
		return nil, err
	}
	validated, err := s.declarations.ListValidatedByPlan(ctx, plan.ID)
	if err != nil {
		return nil, err
	}

	today := dayOf(s.now())
	pcts, _ := progress.LatestValidated(validated)

	start, end := curveWindow(tasks)
	report := &ProjectProgressReport{
		Project:      project,
		Plan:         plan,
		AsOf:         today,
		OverallPct:   progress.Overall(tasks, pcts),
		PlannedPct:   progress.PlannedOverall(tasks, today),
		Tasks:        progress.Snapshot(tasks, pcts, today),
		PlannedCurve: progress.PlannedCurve(tasks, start, end),
		ActualCurve:  progress.ActualCurve(tasks, validated, start, today),
	}
	report.DeviationPct = report.OverallPct - report.PlannedPct
	return report, nil
}

func (s *progressService) TaskReport(ctx context.Context, taskID string) (*TaskProgressReport, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	var pcts map[string]float64
	latest, err := s.declarations.LatestValidatedByTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if latest != nil {
		pcts = map[string]float64{taskID: latest.DeclaredPct}
	}

	history, err := s.declarations.ListByTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	snap := progress.Snapshot([]*domain.Task{task}, pcts, dayOf(s.now()))
	return &TaskProgressReport{Task: task, Progress: snap[0], History: history}, nil
}

func (s *progressService) LedgerHistory(ctx context.Context, declarationID string) ([]*domain.ValidationRecord, error) {
	return s.ledger.ListByDeclaration(ctx, declarationID)
}

func (s *progressService) VerifyLedger(ctx context.Context, projectID string) ([]LedgerIssue, error) {
	records, err := s.ledger.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	var issues []LedgerIssue
	for _, rec := range records {
		if !rec.Verify() {
			issues = append(issues, LedgerIssue{Record: rec})
		}
	}
	return issues, nil
}

// curveWindow is the curve sampling range: the envelope of the active plan's
// task dates.
func curveWindow(tasks []*domain.Task) (time.Time, time.Time) {
	var start, end time.Time
	for _, t := range tasks {
		if start.IsZero() || t.DateStart.Before(start) {
			start = t.DateStart
		}
		if end.IsZero() || t.DateEnd.After(end) {
			end = t.DateEnd
		}
	}
	return start, end
}

func dayOf(ts time.Time) time.Time {
	ts = ts.UTC()
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
}
