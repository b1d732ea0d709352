package service

import (
	"context"
	"io"
	"log/slog"

	"github.com/lbenicio/sitetrack/internal/domain"
)

// Notifier announces workflow events to project stakeholders. Failures are
// the notifier's problem; callers treat notification as fire-and-forget and
// never roll back on it.
type Notifier interface {
	PlanApproved(ctx context.Context, plan *domain.PlanningDocument)
	DeclarationDecided(ctx context.Context, decl *domain.ProgressDeclaration, rec *domain.ValidationRecord)
	ProjectStateChanged(ctx context.Context, p *domain.Project)
}

// NoopNotifier discards all events.
type NoopNotifier struct{}

func (NoopNotifier) PlanApproved(context.Context, *domain.PlanningDocument) {}
func (NoopNotifier) DeclarationDecided(context.Context, *domain.ProgressDeclaration, *domain.ValidationRecord) {
}
func (NoopNotifier) ProjectStateChanged(context.Context, *domain.Project) {}

type logNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier writes workflow events to the provided writer.
func NewLogNotifier(w io.Writer) Notifier {
	if w == nil {
		return NoopNotifier{}
	}
	return &logNotifier{logger: slog.New(slog.NewTextHandler(w, nil))}
}

func (n *logNotifier) PlanApproved(ctx context.Context, plan *domain.PlanningDocument) {
	n.logger.InfoContext(ctx, "plan_approved", "plan_id", plan.ID, "project_id", plan.ProjectID)
}

func (n *logNotifier) DeclarationDecided(ctx context.Context, decl *domain.ProgressDeclaration, rec *domain.ValidationRecord) {
	n.logger.InfoContext(ctx, "declaration_decided",
		"declaration_id", decl.ID,
		"task_id", decl.TaskID,
		"decision", string(rec.Decision()),
		"declared_pct", rec.DeclaredPct(),
	)
}

func (n *logNotifier) ProjectStateChanged(ctx context.Context, p *domain.Project) {
	n.logger.InfoContext(ctx, "project_state_changed", "project_id", p.ID, "state", string(p.State))
}

// TaskSyncer pushes approved plan tasks to an external tracker and returns
// the per-task reference, keyed by task ID. Approval stores the references
// as TrackerRef.
type TaskSyncer interface {
	Sync(ctx context.Context, plan *domain.PlanningDocument, tasks []*domain.Task) (map[string]string, error)
}

// NoopTaskSyncer reports no references; tasks keep an empty TrackerRef.
type NoopTaskSyncer struct{}

func (NoopTaskSyncer) Sync(context.Context, *domain.PlanningDocument, []*domain.Task) (map[string]string, error) {
	return nil, nil
}

// LocalTaskSyncer derives a deterministic local reference per task. Used when
// no external tracker is configured so the reference column is still
// exercised end to end.
type LocalTaskSyncer struct{}

func (LocalTaskSyncer) Sync(_ context.Context, plan *domain.PlanningDocument, tasks []*domain.Task) (map[string]string, error) {
	refs := make(map[string]string, len(tasks))
	for _, t := range tasks {
		ref := "trk-" + t.ID
		if len(t.ID) >= 8 {
			ref = "trk-" + t.ID[:8]
		}
		refs[t.ID] = ref
	}
	return refs, nil
}
