package store

import (
	"context"
	"database/sql"
)

// schema contains the DDL for all goplan tables.
// Each statement uses IF NOT EXISTS for idempotency.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS tasks (
		id                TEXT PRIMARY KEY,
		title             TEXT NOT NULL,
		description       TEXT NOT NULL DEFAULT '',
		duration_minutes  INTEGER NOT NULL,
		earliest_start    TEXT NOT NULL,
		due               TEXT NOT NULL,
		priority          INTEGER NOT NULL DEFAULT 1,
		preferred_windows TEXT NOT NULL DEFAULT '[]',
		created_at        TEXT NOT NULL,
		updated_at        TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS meetings (
		id          TEXT PRIMARY KEY,
		title       TEXT NOT NULL,
		start_time  TEXT NOT NULL,
		end_time    TEXT NOT NULL,
		external_id TEXT NOT NULL DEFAULT '',
		source      TEXT NOT NULL DEFAULT '',
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS plan_snapshots (
		id         TEXT PRIMARY KEY,
		module     TEXT NOT NULL,
		label      TEXT NOT NULL DEFAULT '',
		metrics    TEXT NOT NULL DEFAULT '{}',
		created_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS task_assignments (
		id                TEXT PRIMARY KEY,
		plan_snapshot_id  TEXT NOT NULL REFERENCES plan_snapshots(id) ON DELETE CASCADE,
		task_id           TEXT NOT NULL,
		scheduled_start   TEXT NOT NULL,
		scheduled_end     TEXT NOT NULL,
		deviation_minutes INTEGER NOT NULL DEFAULT 0,
		tardiness_minutes INTEGER NOT NULL DEFAULT 0
	)`,

	`CREATE INDEX IF NOT EXISTS idx_tasks_earliest_start ON tasks(earliest_start)`,
	`CREATE INDEX IF NOT EXISTS idx_meetings_start_time ON meetings(start_time)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_meetings_external_id ON meetings(external_id) WHERE external_id != ''`,
	`CREATE INDEX IF NOT EXISTS idx_snapshots_module_created ON plan_snapshots(module, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_assignments_snapshot ON task_assignments(plan_snapshot_id)`,
}

// migrate executes all schema DDL statements.
func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
