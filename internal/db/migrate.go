package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations. Statements are idempotent; ALTER TABLE
// additions tolerate re-runs via the duplicate-column check.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS projects (
		id                  TEXT PRIMARY KEY,
		code                TEXT NOT NULL DEFAULT '',
		name                TEXT NOT NULL,
		state               TEXT NOT NULL DEFAULT 'draft'
		                    CHECK(state IN ('draft','planned','running','at_risk','suspended','closed')),
		planned_start       TEXT,
		planned_end         TEXT,
		actual_start        TEXT,
		actual_end          TEXT,
		budget              REAL NOT NULL DEFAULT 0,
		computed_progress   REAL NOT NULL DEFAULT 0
		                    CHECK(computed_progress >= 0 AND computed_progress <= 100),
		progress_updated_at TEXT,
		state_changed_at    TEXT,
		state_changed_by    TEXT NOT NULL DEFAULT '',
		state_reason        TEXT NOT NULL DEFAULT '',
		created_at          TEXT NOT NULL,
		updated_at          TEXT NOT NULL
	)`,

	`CREATE UNIQUE INDEX IF NOT EXISTS idx_projects_code ON projects(code) WHERE code != ''`,

	`CREATE TABLE IF NOT EXISTS planning_documents (
		id               TEXT PRIMARY KEY,
		project_id       TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		reference        TEXT NOT NULL DEFAULT '',
		state            TEXT NOT NULL DEFAULT 'draft'
		                 CHECK(state IN ('draft','submitted','approved','rejected')),
		active           INTEGER NOT NULL DEFAULT 1,
		approved_by      TEXT NOT NULL DEFAULT '',
		approved_at      TEXT,
		rejection_reason TEXT NOT NULL DEFAULT '',
		created_at       TEXT NOT NULL,
		updated_at       TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_plans_project ON planning_documents(project_id)`,

	// Hard single-active invariant: one active approved plan per project.
	// Archived revisions (active = 0) are unbounded.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_plans_single_active
		ON planning_documents(project_id) WHERE state = 'approved' AND active = 1`,

	`CREATE TABLE IF NOT EXISTS lots (
		id          TEXT PRIMARY KEY,
		plan_id     TEXT NOT NULL REFERENCES planning_documents(id) ON DELETE CASCADE,
		name        TEXT NOT NULL,
		order_index INTEGER NOT NULL DEFAULT 0,
		date_start  TEXT NOT NULL,
		date_end    TEXT NOT NULL,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_lots_plan ON lots(plan_id)`,

	`CREATE TABLE IF NOT EXISTS tasks (
		id             TEXT PRIMARY KEY,
		lot_id         TEXT NOT NULL REFERENCES lots(id) ON DELETE CASCADE,
		plan_id        TEXT NOT NULL REFERENCES planning_documents(id) ON DELETE CASCADE,
		name           TEXT NOT NULL,
		order_index    INTEGER NOT NULL DEFAULT 0,
		date_start     TEXT NOT NULL,
		date_end       TEXT NOT NULL,
		weight         REAL NOT NULL DEFAULT 0 CHECK(weight >= 0),
		parent_task_id TEXT REFERENCES tasks(id) ON DELETE CASCADE,
		tracker_ref    TEXT NOT NULL DEFAULT '',
		created_at     TEXT NOT NULL,
		updated_at     TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_tasks_lot ON tasks(lot_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_plan ON tasks(plan_id)`,

	`CREATE TABLE IF NOT EXISTS declarations (
		id                 TEXT PRIMARY KEY,
		task_id            TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		plan_id            TEXT NOT NULL REFERENCES planning_documents(id) ON DELETE CASCADE,
		project_id         TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		declared_pct       REAL NOT NULL CHECK(declared_pct >= 0 AND declared_pct <= 100),
		previous_pct       REAL NOT NULL DEFAULT 0,
		execution_date     TEXT NOT NULL,
		comment            TEXT NOT NULL DEFAULT '',
		proof_count        INTEGER NOT NULL DEFAULT 0,
		state              TEXT NOT NULL DEFAULT 'draft'
		                   CHECK(state IN ('draft','submitted','under_review','validated','rejected','correction_requested')),
		correction_count   INTEGER NOT NULL DEFAULT 0,
		correction_comment TEXT NOT NULL DEFAULT '',
		rejection_reason   TEXT NOT NULL DEFAULT '',
		validated_by       TEXT NOT NULL DEFAULT '',
		validated_at       TEXT,
		version            INTEGER NOT NULL DEFAULT 1,
		declared_by        TEXT NOT NULL DEFAULT '',
		created_at         TEXT NOT NULL,
		updated_at         TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_declarations_task ON declarations(task_id)`,
	`CREATE INDEX IF NOT EXISTS idx_declarations_project ON declarations(project_id)`,
	`CREATE INDEX IF NOT EXISTS idx_declarations_state ON declarations(state)`,

	`CREATE TABLE IF NOT EXISTS validation_records (
		id              TEXT PRIMARY KEY,
		declaration_id  TEXT NOT NULL REFERENCES declarations(id) ON DELETE CASCADE,
		decision        TEXT NOT NULL
		                CHECK(decision IN ('validated','rejected','correction_requested')),
		validator_id    TEXT NOT NULL,
		validator_role  TEXT NOT NULL DEFAULT '',
		comment         TEXT NOT NULL DEFAULT '',
		decided_at      TEXT NOT NULL,
		declared_pct    REAL NOT NULL,
		previous_pct    REAL NOT NULL,
		incremental_pct REAL NOT NULL,
		hash            TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_validation_declaration ON validation_records(declaration_id)`,
	`CREATE INDEX IF NOT EXISTS idx_validation_decided ON validation_records(decided_at)`,
}
