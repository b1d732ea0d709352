package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lbenicio/sitetrack/internal/db"
	"github.com/lbenicio/sitetrack/internal/domain"
)

const lotColumns = `id, plan_id, name, order_index, date_start, date_end, created_at, updated_at`

// SQLiteLotRepo implements LotRepo over SQLite.
type SQLiteLotRepo struct {
	db db.DBTX
}

// NewSQLiteLotRepo creates a new SQLiteLotRepo.
func NewSQLiteLotRepo(db db.DBTX) *SQLiteLotRepo {
	return &SQLiteLotRepo{db: db}
}

func (r *SQLiteLotRepo) Create(ctx context.Context, l *domain.Lot) error {
	query := `INSERT INTO lots (` + lotColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		l.ID,
		l.PlanID,
		l.Name,
		l.OrderIndex,
		l.DateStart.Format(dateLayout),
		l.DateEnd.Format(dateLayout),
		l.CreatedAt.Format(time.RFC3339),
		l.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting lot: %w", err)
	}
	return nil
}

func (r *SQLiteLotRepo) GetByID(ctx context.Context, id string) (*domain.Lot, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+lotColumns+` FROM lots WHERE id = ?`, id)
	return scanLot(row)
}

func (r *SQLiteLotRepo) ListByPlan(ctx context.Context, planID string) ([]*domain.Lot, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+lotColumns+` FROM lots WHERE plan_id = ? ORDER BY order_index, created_at`, planID)
	if err != nil {
		return nil, fmt.Errorf("listing lots: %w", err)
	}
	defer rows.Close()

	var lots []*domain.Lot
	for rows.Next() {
		l, err := scanLot(rows)
		if err != nil {
			return nil, err
		}
		lots = append(lots, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating lots: %w", err)
	}
	return lots, nil
}

func (r *SQLiteLotRepo) Update(ctx context.Context, l *domain.Lot) error {
	query := `UPDATE lots SET name = ?, order_index = ?, date_start = ?, date_end = ?, updated_at = ?
		WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query,
		l.Name,
		l.OrderIndex,
		l.DateStart.Format(dateLayout),
		l.DateEnd.Format(dateLayout),
		l.UpdatedAt.Format(time.RFC3339),
		l.ID,
	)
	if err != nil {
		return fmt.Errorf("updating lot: %w", err)
	}
	return nil
}

func (r *SQLiteLotRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM lots WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting lot: %w", err)
	}
	return nil
}

func scanLot(row rowScanner) (*domain.Lot, error) {
	var l domain.Lot
	var startStr, endStr, createdAtStr, updatedAtStr string

	err := row.Scan(&l.ID, &l.PlanID, &l.Name, &l.OrderIndex, &startStr, &endStr, &createdAtStr, &updatedAtStr)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("lot not found")
		}
		return nil, fmt.Errorf("scanning lot: %w", err)
	}

	var parseErr error
	if l.DateStart, parseErr = time.Parse(dateLayout, startStr); parseErr != nil {
		return nil, fmt.Errorf("parsing date_start: %w", parseErr)
	}
	if l.DateEnd, parseErr = time.Parse(dateLayout, endStr); parseErr != nil {
		return nil, fmt.Errorf("parsing date_end: %w", parseErr)
	}
	if l.CreatedAt, parseErr = time.Parse(time.RFC3339, createdAtStr); parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}
	if l.UpdatedAt, parseErr = time.Parse(time.RFC3339, updatedAtStr); parseErr != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", parseErr)
	}
	return &l, nil
}
