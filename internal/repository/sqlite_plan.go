package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lbenicio/sitetrack/internal/db"
	"github.com/lbenicio/sitetrack/internal/domain"
)

const planColumns = `id, project_id, reference, state, active,
		approved_by, approved_at, rejection_reason, created_at, updated_at`

// SQLitePlanRepo implements PlanRepo over SQLite.
type SQLitePlanRepo struct {
	db db.DBTX
}

// NewSQLitePlanRepo creates a new SQLitePlanRepo.
func NewSQLitePlanRepo(db db.DBTX) *SQLitePlanRepo {
	return &SQLitePlanRepo{db: db}
}

func (r *SQLitePlanRepo) Create(ctx context.Context, d *domain.PlanningDocument) error {
	query := `INSERT INTO planning_documents (` + planColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		d.ID,
		d.ProjectID,
		d.Reference,
		string(d.State),
		boolToInt(d.Active),
		d.ApprovedBy,
		nullableTimeToString(d.ApprovedAt, time.RFC3339),
		d.RejectionReason,
		d.CreatedAt.Format(time.RFC3339),
		d.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting plan: %w", err)
	}
	return nil
}

func (r *SQLitePlanRepo) GetByID(ctx context.Context, id string) (*domain.PlanningDocument, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+planColumns+` FROM planning_documents WHERE id = ?`, id)
	return scanPlan(row)
}

func (r *SQLitePlanRepo) ListByProject(ctx context.Context, projectID string) ([]*domain.PlanningDocument, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+planColumns+` FROM planning_documents WHERE project_id = ? ORDER BY created_at DESC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing plans: %w", err)
	}
	defer rows.Close()

	var plans []*domain.PlanningDocument
	for rows.Next() {
		d, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating plans: %w", err)
	}
	return plans, nil
}

func (r *SQLitePlanRepo) ActiveApproved(ctx context.Context, projectID string) (*domain.PlanningDocument, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+planColumns+` FROM planning_documents
		WHERE project_id = ? AND state = 'approved' AND active = 1
		ORDER BY approved_at DESC LIMIT 1`, projectID)
	d, err := scanPlan(row)
	if err != nil {
		if err == errPlanNotFound {
			return nil, nil
		}
		return nil, err
	}
	return d, nil
}

func (r *SQLitePlanRepo) Update(ctx context.Context, d *domain.PlanningDocument) error {
	query := `UPDATE planning_documents SET reference = ?, state = ?, active = ?,
		approved_by = ?, approved_at = ?, rejection_reason = ?, updated_at = ?
		WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query,
		d.Reference,
		string(d.State),
		boolToInt(d.Active),
		d.ApprovedBy,
		nullableTimeToString(d.ApprovedAt, time.RFC3339),
		d.RejectionReason,
		d.UpdatedAt.Format(time.RFC3339),
		d.ID,
	)
	if err != nil {
		return fmt.Errorf("updating plan: %w", err)
	}
	return nil
}

func (r *SQLitePlanRepo) Archive(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE planning_documents SET active = 0, updated_at = ? WHERE id = ?`, nowUTC(), id)
	if err != nil {
		return fmt.Errorf("archiving plan: %w", err)
	}
	return nil
}

func (r *SQLitePlanRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM planning_documents WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting plan: %w", err)
	}
	return nil
}

var errPlanNotFound = fmt.Errorf("plan not found")

func scanPlan(row rowScanner) (*domain.PlanningDocument, error) {
	var d domain.PlanningDocument
	var stateStr, createdAtStr, updatedAtStr string
	var active int
	var approvedAt sql.NullString

	err := row.Scan(
		&d.ID, &d.ProjectID, &d.Reference, &stateStr, &active,
		&d.ApprovedBy, &approvedAt, &d.RejectionReason,
		&createdAtStr, &updatedAtStr,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errPlanNotFound
		}
		return nil, fmt.Errorf("scanning plan: %w", err)
	}

	d.State = domain.PlanState(stateStr)
	d.Active = active != 0
	d.ApprovedAt = parseNullableTime(approvedAt, time.RFC3339)

	var parseErr error
	if d.CreatedAt, parseErr = time.Parse(time.RFC3339, createdAtStr); parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}
	if d.UpdatedAt, parseErr = time.Parse(time.RFC3339, updatedAtStr); parseErr != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", parseErr)
	}
	return &d, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
