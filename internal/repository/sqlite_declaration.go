package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lbenicio/sitetrack/internal/db"
	"github.com/lbenicio/sitetrack/internal/domain"
)

const declarationColumns = `id, task_id, plan_id, project_id, declared_pct, previous_pct,
		execution_date, comment, proof_count, state, correction_count, correction_comment,
		rejection_reason, validated_by, validated_at, version, declared_by, created_at, updated_at`

// SQLiteDeclarationRepo implements DeclarationRepo over SQLite.
type SQLiteDeclarationRepo struct {
	db db.DBTX
}

// NewSQLiteDeclarationRepo creates a new SQLiteDeclarationRepo.
func NewSQLiteDeclarationRepo(db db.DBTX) *SQLiteDeclarationRepo {
	return &SQLiteDeclarationRepo{db: db}
}

func (r *SQLiteDeclarationRepo) Create(ctx context.Context, d *domain.ProgressDeclaration) error {
	query := `INSERT INTO declarations (` + declarationColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		d.ID,
		d.TaskID,
		d.PlanID,
		d.ProjectID,
		d.DeclaredPct,
		d.PreviousPct,
		d.ExecutionDate.Format(dateLayout),
		d.Comment,
		d.ProofCount,
		string(d.State),
		d.CorrectionCount,
		d.CorrectionComment,
		d.RejectionReason,
		d.ValidatedBy,
		nullableTimeToString(d.ValidatedAt, time.RFC3339),
		d.Version,
		d.DeclaredBy,
		d.CreatedAt.Format(time.RFC3339),
		d.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting declaration: %w", err)
	}
	return nil
}

func (r *SQLiteDeclarationRepo) GetByID(ctx context.Context, id string) (*domain.ProgressDeclaration, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+declarationColumns+` FROM declarations WHERE id = ?`, id)
	return scanDeclaration(row)
}

func (r *SQLiteDeclarationRepo) ListByTask(ctx context.Context, taskID string) ([]*domain.ProgressDeclaration, error) {
	return r.list(ctx, `SELECT `+declarationColumns+` FROM declarations
		WHERE task_id = ? ORDER BY execution_date DESC, created_at DESC`, taskID)
}

func (r *SQLiteDeclarationRepo) ListByProject(ctx context.Context, projectID string) ([]*domain.ProgressDeclaration, error) {
	return r.list(ctx, `SELECT `+declarationColumns+` FROM declarations
		WHERE project_id = ? ORDER BY execution_date DESC, created_at DESC`, projectID)
}

func (r *SQLiteDeclarationRepo) ListPendingByProject(ctx context.Context, projectID string) ([]*domain.ProgressDeclaration, error) {
	return r.list(ctx, `SELECT `+declarationColumns+` FROM declarations
		WHERE project_id = ? AND state IN ('submitted','under_review')
		ORDER BY created_at`, projectID)
}

func (r *SQLiteDeclarationRepo) CountPendingByProject(ctx context.Context, projectID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM declarations WHERE project_id = ? AND state IN ('submitted','under_review')`,
		projectID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting pending declarations: %w", err)
	}
	return count, nil
}

func (r *SQLiteDeclarationRepo) LatestValidatedByTask(ctx context.Context, taskID string) (*domain.ProgressDeclaration, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+declarationColumns+` FROM declarations
		WHERE task_id = ? AND state = 'validated'
		ORDER BY execution_date DESC, id DESC LIMIT 1`, taskID)
	d, err := scanDeclaration(row)
	if err != nil {
		if err == errDeclarationNotFound {
			return nil, nil
		}
		return nil, err
	}
	return d, nil
}

func (r *SQLiteDeclarationRepo) ListValidatedByPlan(ctx context.Context, planID string) ([]*domain.ProgressDeclaration, error) {
	// Effective validation date falls back to the execution date for rows
	// validated before validated_at existed.
	return r.list(ctx, `SELECT `+declarationColumns+` FROM declarations
		WHERE plan_id = ? AND state = 'validated'
		ORDER BY COALESCE(date(validated_at), execution_date), id`, planID)
}

func (r *SQLiteDeclarationRepo) list(ctx context.Context, query string, arg string) ([]*domain.ProgressDeclaration, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("listing declarations: %w", err)
	}
	defer rows.Close()

	var decls []*domain.ProgressDeclaration
	for rows.Next() {
		d, err := scanDeclaration(rows)
		if err != nil {
			return nil, err
		}
		decls = append(decls, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating declarations: %w", err)
	}
	return decls, nil
}

// Update persists the declaration guarded by its optimistic version. The row
// is only written when the stored version matches the one the caller read;
// the version is bumped on success. A mismatch means another transition won
// the race and the caller gets a ConcurrentConflictError.
func (r *SQLiteDeclarationRepo) Update(ctx context.Context, d *domain.ProgressDeclaration) error {
	query := `UPDATE declarations SET declared_pct = ?, previous_pct = ?, execution_date = ?,
		comment = ?, proof_count = ?, state = ?, correction_count = ?, correction_comment = ?,
		rejection_reason = ?, validated_by = ?, validated_at = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`
	res, err := r.db.ExecContext(ctx, query,
		d.DeclaredPct,
		d.PreviousPct,
		d.ExecutionDate.Format(dateLayout),
		d.Comment,
		d.ProofCount,
		string(d.State),
		d.CorrectionCount,
		d.CorrectionComment,
		d.RejectionReason,
		d.ValidatedBy,
		nullableTimeToString(d.ValidatedAt, time.RFC3339),
		d.UpdatedAt.Format(time.RFC3339),
		d.ID,
		d.Version,
	)
	if err != nil {
		return fmt.Errorf("updating declaration: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking declaration update: %w", err)
	}
	if affected == 0 {
		return &domain.ConcurrentConflictError{Entity: "declaration", ID: d.ID}
	}
	d.Version++
	return nil
}

var errDeclarationNotFound = fmt.Errorf("declaration not found")

func scanDeclaration(row rowScanner) (*domain.ProgressDeclaration, error) {
	var d domain.ProgressDeclaration
	var stateStr, execDateStr, createdAtStr, updatedAtStr string
	var validatedAt sql.NullString

	err := row.Scan(
		&d.ID, &d.TaskID, &d.PlanID, &d.ProjectID,
		&d.DeclaredPct, &d.PreviousPct,
		&execDateStr, &d.Comment, &d.ProofCount, &stateStr,
		&d.CorrectionCount, &d.CorrectionComment, &d.RejectionReason,
		&d.ValidatedBy, &validatedAt, &d.Version, &d.DeclaredBy,
		&createdAtStr, &updatedAtStr,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errDeclarationNotFound
		}
		return nil, fmt.Errorf("scanning declaration: %w", err)
	}

	d.State = domain.DeclarationState(stateStr)
	d.ValidatedAt = parseNullableTime(validatedAt, time.RFC3339)

	var parseErr error
	if d.ExecutionDate, parseErr = time.Parse(dateLayout, execDateStr); parseErr != nil {
		return nil, fmt.Errorf("parsing execution_date: %w", parseErr)
	}
	if d.CreatedAt, parseErr = time.Parse(time.RFC3339, createdAtStr); parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}
	if d.UpdatedAt, parseErr = time.Parse(time.RFC3339, updatedAtStr); parseErr != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", parseErr)
	}
	return &d, nil
}
