package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lbenicio/sitetrack/internal/db"
	"github.com/lbenicio/sitetrack/internal/domain"
)

const validationColumns = `id, declaration_id, decision, validator_id, validator_role,
		comment, decided_at, declared_pct, previous_pct, incremental_pct, hash`

// SQLiteValidationLedger implements the append-only ValidationLedger.
// Mutation of existing rows is only reachable through the maintenance methods
// Repair and Purge, which demand the system actor; everything else gets
// ImmutableRecordError. Normal workflow never touches them.
type SQLiteValidationLedger struct {
	db db.DBTX
}

// NewSQLiteValidationLedger creates a new SQLiteValidationLedger.
func NewSQLiteValidationLedger(db db.DBTX) *SQLiteValidationLedger {
	return &SQLiteValidationLedger{db: db}
}

func (r *SQLiteValidationLedger) Append(ctx context.Context, rec *domain.ValidationRecord) error {
	query := `INSERT INTO validation_records (` + validationColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		rec.ID(),
		rec.DeclarationID(),
		string(rec.Decision()),
		rec.ValidatorID(),
		rec.ValidatorRole(),
		rec.Comment(),
		rec.DecidedAt().Format(time.RFC3339),
		rec.DeclaredPct(),
		rec.PreviousPct(),
		rec.IncrementalPct(),
		rec.Hash(),
	)
	if err != nil {
		return fmt.Errorf("appending validation record: %w", err)
	}
	return nil
}

func (r *SQLiteValidationLedger) GetByID(ctx context.Context, id string) (*domain.ValidationRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+validationColumns+` FROM validation_records WHERE id = ?`, id)
	return scanValidationRecord(row)
}

func (r *SQLiteValidationLedger) ListByDeclaration(ctx context.Context, declarationID string) ([]*domain.ValidationRecord, error) {
	// Total order: decision timestamp, then insertion order (rowid).
	return r.list(ctx, `SELECT `+validationColumns+` FROM validation_records
		WHERE declaration_id = ? ORDER BY decided_at, rowid`, declarationID)
}

func (r *SQLiteValidationLedger) Latest(ctx context.Context, declarationID string) (*domain.ValidationRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+validationColumns+` FROM validation_records
		WHERE declaration_id = ? ORDER BY decided_at DESC, rowid DESC LIMIT 1`, declarationID)
	rec, err := scanValidationRecord(row)
	if err != nil {
		if err == errValidationNotFound {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

func (r *SQLiteValidationLedger) ListByProject(ctx context.Context, projectID string) ([]*domain.ValidationRecord, error) {
	return r.list(ctx, `SELECT v.id, v.declaration_id, v.decision, v.validator_id, v.validator_role,
		v.comment, v.decided_at, v.declared_pct, v.previous_pct, v.incremental_pct, v.hash
		FROM validation_records v
		JOIN declarations d ON d.id = v.declaration_id
		WHERE d.project_id = ? ORDER BY v.decided_at, v.rowid`, projectID)
}

func (r *SQLiteValidationLedger) CountByDeclaration(ctx context.Context, declarationID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM validation_records WHERE declaration_id = ?`, declarationID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting validation records: %w", err)
	}
	return count, nil
}

// Repair rewrites an existing record. Data-repair tooling only: callers
// without system privilege get ImmutableRecordError.
func (r *SQLiteValidationLedger) Repair(ctx context.Context, actor domain.Actor, rec *domain.ValidationRecord) error {
	if !actor.IsSystem() {
		return &domain.ImmutableRecordError{RecordID: rec.ID(), Operation: "write"}
	}
	query := `UPDATE validation_records SET decision = ?, validator_id = ?, validator_role = ?,
		comment = ?, decided_at = ?, declared_pct = ?, previous_pct = ?, incremental_pct = ?, hash = ?
		WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query,
		string(rec.Decision()),
		rec.ValidatorID(),
		rec.ValidatorRole(),
		rec.Comment(),
		rec.DecidedAt().Format(time.RFC3339),
		rec.DeclaredPct(),
		rec.PreviousPct(),
		rec.IncrementalPct(),
		rec.Hash(),
		rec.ID(),
	)
	if err != nil {
		return fmt.Errorf("repairing validation record: %w", err)
	}
	return nil
}

// Purge deletes a record. Same privilege rule as Repair.
func (r *SQLiteValidationLedger) Purge(ctx context.Context, actor domain.Actor, id string) error {
	if !actor.IsSystem() {
		return &domain.ImmutableRecordError{RecordID: id, Operation: "delete"}
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM validation_records WHERE id = ?`, id); err != nil {
		return fmt.Errorf("purging validation record: %w", err)
	}
	return nil
}

func (r *SQLiteValidationLedger) list(ctx context.Context, query string, arg string) ([]*domain.ValidationRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("listing validation records: %w", err)
	}
	defer rows.Close()

	var recs []*domain.ValidationRecord
	for rows.Next() {
		rec, err := scanValidationRecord(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating validation records: %w", err)
	}
	return recs, nil
}

var errValidationNotFound = fmt.Errorf("validation record not found")

func scanValidationRecord(row rowScanner) (*domain.ValidationRecord, error) {
	var id, declarationID, decisionStr, validatorID, validatorRole, comment, decidedAtStr, hash string
	var declaredPct, previousPct, incrementalPct float64

	err := row.Scan(
		&id, &declarationID, &decisionStr, &validatorID, &validatorRole,
		&comment, &decidedAtStr, &declaredPct, &previousPct, &incrementalPct, &hash,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errValidationNotFound
		}
		return nil, fmt.Errorf("scanning validation record: %w", err)
	}

	decidedAt, parseErr := time.Parse(time.RFC3339, decidedAtStr)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing decided_at: %w", parseErr)
	}

	return domain.RehydrateValidationRecord(
		id, declarationID, domain.Decision(decisionStr),
		validatorID, validatorRole, comment, decidedAt,
		declaredPct, previousPct, incrementalPct, hash,
	), nil
}
