package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lbenicio/sitetrack/internal/db"
	"github.com/lbenicio/sitetrack/internal/domain"
)

const projectColumns = `id, code, name, state, planned_start, planned_end,
		actual_start, actual_end, budget, computed_progress, progress_updated_at,
		state_changed_at, state_changed_by, state_reason, created_at, updated_at`

// SQLiteProjectRepo implements ProjectRepo over SQLite.
type SQLiteProjectRepo struct {
	db db.DBTX
}

// NewSQLiteProjectRepo creates a new SQLiteProjectRepo.
func NewSQLiteProjectRepo(db db.DBTX) *SQLiteProjectRepo {
	return &SQLiteProjectRepo{db: db}
}

func (r *SQLiteProjectRepo) Create(ctx context.Context, p *domain.Project) error {
	query := `INSERT INTO projects (` + projectColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.Code,
		p.Name,
		string(p.State),
		nullableTimeToString(p.PlannedStart, dateLayout),
		nullableTimeToString(p.PlannedEnd, dateLayout),
		nullableTimeToString(p.ActualStart, dateLayout),
		nullableTimeToString(p.ActualEnd, dateLayout),
		p.Budget,
		p.ComputedProgress,
		nullableTimeToString(p.ProgressUpdatedAt, time.RFC3339),
		nullableTimeToString(p.StateChangedAt, time.RFC3339),
		p.StateChangedBy,
		p.StateReason,
		p.CreatedAt.Format(time.RFC3339),
		p.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting project: %w", err)
	}
	return nil
}

func (r *SQLiteProjectRepo) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	return scanProject(row)
}

func (r *SQLiteProjectRepo) GetByCode(ctx context.Context, code string) (*domain.Project, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE UPPER(code) = UPPER(?)`, code)
	return scanProject(row)
}

func (r *SQLiteProjectRepo) List(ctx context.Context) ([]*domain.Project, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	var projects []*domain.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating projects: %w", err)
	}
	return projects, nil
}

func (r *SQLiteProjectRepo) Update(ctx context.Context, p *domain.Project) error {
	query := `UPDATE projects SET code = ?, name = ?, state = ?, planned_start = ?, planned_end = ?,
		actual_start = ?, actual_end = ?, budget = ?, computed_progress = ?, progress_updated_at = ?,
		state_changed_at = ?, state_changed_by = ?, state_reason = ?, updated_at = ?
		WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query,
		p.Code,
		p.Name,
		string(p.State),
		nullableTimeToString(p.PlannedStart, dateLayout),
		nullableTimeToString(p.PlannedEnd, dateLayout),
		nullableTimeToString(p.ActualStart, dateLayout),
		nullableTimeToString(p.ActualEnd, dateLayout),
		p.Budget,
		p.ComputedProgress,
		nullableTimeToString(p.ProgressUpdatedAt, time.RFC3339),
		nullableTimeToString(p.StateChangedAt, time.RFC3339),
		p.StateChangedBy,
		p.StateReason,
		p.UpdatedAt.Format(time.RFC3339),
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("updating project: %w", err)
	}
	return nil
}

func (r *SQLiteProjectRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*domain.Project, error) {
	var p domain.Project
	var stateStr, createdAtStr, updatedAtStr string
	var plannedStart, plannedEnd, actualStart, actualEnd sql.NullString
	var progressUpdatedAt, stateChangedAt sql.NullString

	err := row.Scan(
		&p.ID, &p.Code, &p.Name, &stateStr,
		&plannedStart, &plannedEnd, &actualStart, &actualEnd,
		&p.Budget, &p.ComputedProgress, &progressUpdatedAt,
		&stateChangedAt, &p.StateChangedBy, &p.StateReason,
		&createdAtStr, &updatedAtStr,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("project not found")
		}
		return nil, fmt.Errorf("scanning project: %w", err)
	}

	p.State = domain.ProjectState(stateStr)
	p.PlannedStart = parseNullableTime(plannedStart, dateLayout)
	p.PlannedEnd = parseNullableTime(plannedEnd, dateLayout)
	p.ActualStart = parseNullableTime(actualStart, dateLayout)
	p.ActualEnd = parseNullableTime(actualEnd, dateLayout)
	p.ProgressUpdatedAt = parseNullableTime(progressUpdatedAt, time.RFC3339)
	p.StateChangedAt = parseNullableTime(stateChangedAt, time.RFC3339)

	var parseErr error
	if p.CreatedAt, parseErr = time.Parse(time.RFC3339, createdAtStr); parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}
	if p.UpdatedAt, parseErr = time.Parse(time.RFC3339, updatedAtStr); parseErr != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", parseErr)
	}
	return &p, nil
}
