package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lbenicio/sitetrack/internal/db"
	"github.com/lbenicio/sitetrack/internal/domain"
)

const taskColumns = `id, lot_id, plan_id, name, order_index, date_start, date_end,
		weight, parent_task_id, tracker_ref, created_at, updated_at`

// SQLiteTaskRepo implements TaskRepo over SQLite.
type SQLiteTaskRepo struct {
	db db.DBTX
}

// NewSQLiteTaskRepo creates a new SQLiteTaskRepo.
func NewSQLiteTaskRepo(db db.DBTX) *SQLiteTaskRepo {
	return &SQLiteTaskRepo{db: db}
}

func (r *SQLiteTaskRepo) Create(ctx context.Context, t *domain.Task) error {
	query := `INSERT INTO tasks (` + taskColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		t.ID,
		t.LotID,
		t.PlanID,
		t.Name,
		t.OrderIndex,
		t.DateStart.Format(dateLayout),
		t.DateEnd.Format(dateLayout),
		t.Weight,
		nullableStringToPtr(t.ParentTaskID),
		t.TrackerRef,
		t.CreatedAt.Format(time.RFC3339),
		t.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting task: %w", err)
	}
	return nil
}

func (r *SQLiteTaskRepo) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	return scanTask(row)
}

func (r *SQLiteTaskRepo) ListByLot(ctx context.Context, lotID string) ([]*domain.Task, error) {
	return r.list(ctx, `SELECT `+taskColumns+` FROM tasks WHERE lot_id = ? ORDER BY order_index, date_start, created_at`, lotID)
}

func (r *SQLiteTaskRepo) ListByPlan(ctx context.Context, planID string) ([]*domain.Task, error) {
	return r.list(ctx, `SELECT `+taskColumns+` FROM tasks WHERE plan_id = ? ORDER BY order_index, date_start, created_at`, planID)
}

func (r *SQLiteTaskRepo) list(ctx context.Context, query string, arg string) ([]*domain.Task, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tasks: %w", err)
	}
	return tasks, nil
}

func (r *SQLiteTaskRepo) Update(ctx context.Context, t *domain.Task) error {
	query := `UPDATE tasks SET name = ?, order_index = ?, date_start = ?, date_end = ?,
		weight = ?, parent_task_id = ?, tracker_ref = ?, updated_at = ?
		WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query,
		t.Name,
		t.OrderIndex,
		t.DateStart.Format(dateLayout),
		t.DateEnd.Format(dateLayout),
		t.Weight,
		nullableStringToPtr(t.ParentTaskID),
		t.TrackerRef,
		t.UpdatedAt.Format(time.RFC3339),
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("updating task: %w", err)
	}
	return nil
}

func (r *SQLiteTaskRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	return nil
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var t domain.Task
	var startStr, endStr, createdAtStr, updatedAtStr string
	var parentID sql.NullString

	err := row.Scan(
		&t.ID, &t.LotID, &t.PlanID, &t.Name, &t.OrderIndex,
		&startStr, &endStr, &t.Weight, &parentID, &t.TrackerRef,
		&createdAtStr, &updatedAtStr,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("task not found")
		}
		return nil, fmt.Errorf("scanning task: %w", err)
	}

	if parentID.Valid && parentID.String != "" {
		s := parentID.String
		t.ParentTaskID = &s
	}

	var parseErr error
	if t.DateStart, parseErr = time.Parse(dateLayout, startStr); parseErr != nil {
		return nil, fmt.Errorf("parsing date_start: %w", parseErr)
	}
	if t.DateEnd, parseErr = time.Parse(dateLayout, endStr); parseErr != nil {
		return nil, fmt.Errorf("parsing date_end: %w", parseErr)
	}
	if t.CreatedAt, parseErr = time.Parse(time.RFC3339, createdAtStr); parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}
	if t.UpdatedAt, parseErr = time.Parse(time.RFC3339, updatedAtStr); parseErr != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", parseErr)
	}
	return &t, nil
}
