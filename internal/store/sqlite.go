package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/me/goplan/pkg/model"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and returns a
// Store. Use ":memory:" for an in-memory database (useful in tests).
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}

	// WAL for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger.With("component", "store"),
	}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate creates all required tables and indexes.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	s.logger.Debug("sql", "op", "migrate")
	return migrate(ctx, s.db)
}

// --- Task CRUD ---

func (s *SQLiteStore) CreateTask(ctx context.Context, task *model.Task) error {
	s.logger.Debug("sql", "op", "insert", "table", "tasks", "id", task.ID)

	windowsJSON, err := json.Marshal(task.PreferredWindows)
	if err != nil {
		return fmt.Errorf("marshal preferred windows: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO tasks (id, title, description, duration_minutes, earliest_start, due, priority, preferred_windows, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.Title, task.Description, task.DurationMinutes,
		fmtTime(task.EarliestStart), fmtTime(task.Due), task.Priority,
		string(windowsJSON), fmtTime(task.CreatedAt), fmtTime(task.UpdatedAt),
	)
	return err
}

func (s *SQLiteStore) GetTask(ctx context.Context, id string) (*model.Task, error) {
	s.logger.Debug("sql", "op", "select", "table", "tasks", "id", id)

	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, description, duration_minutes, earliest_start, due, priority, preferred_windows, created_at, updated_at
		 FROM tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *SQLiteStore) ListTasks(ctx context.Context) ([]*model.Task, error) {
	s.logger.Debug("sql", "op", "select", "table", "tasks")

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, description, duration_minutes, earliest_start, due, priority, preferred_windows, created_at, updated_at
		 FROM tasks ORDER BY earliest_start, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*model.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func (s *SQLiteStore) UpdateTask(ctx context.Context, task *model.Task) error {
	s.logger.Debug("sql", "op", "update", "table", "tasks", "id", task.ID)

	windowsJSON, err := json.Marshal(task.PreferredWindows)
	if err != nil {
		return fmt.Errorf("marshal preferred windows: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE tasks SET title = ?, description = ?, duration_minutes = ?, earliest_start = ?, due = ?, priority = ?, preferred_windows = ?, updated_at = ?
		 WHERE id = ?`,
		task.Title, task.Description, task.DurationMinutes,
		fmtTime(task.EarliestStart), fmtTime(task.Due), task.Priority,
		string(windowsJSON), fmtTime(task.UpdatedAt), task.ID,
	)
	return err
}

func (s *SQLiteStore) DeleteTask(ctx context.Context, id string) error {
	s.logger.Debug("sql", "op", "delete", "table", "tasks", "id", id)
	_, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	return err
}

// --- Meeting CRUD ---

func (s *SQLiteStore) CreateMeeting(ctx context.Context, meeting *model.Meeting) error {
	s.logger.Debug("sql", "op", "insert", "table", "meetings", "id", meeting.ID)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO meetings (id, title, start_time, end_time, external_id, source, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		meeting.ID, meeting.Title, fmtTime(meeting.StartTime), fmtTime(meeting.EndTime),
		meeting.ExternalID, meeting.Source, fmtTime(meeting.CreatedAt), fmtTime(meeting.UpdatedAt),
	)
	return err
}

func (s *SQLiteStore) GetMeeting(ctx context.Context, id string) (*model.Meeting, error) {
	s.logger.Debug("sql", "op", "select", "table", "meetings", "id", id)

	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, start_time, end_time, external_id, source, created_at, updated_at
		 FROM meetings WHERE id = ?`, id)
	meeting, err := scanMeeting(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return meeting, nil
}

func (s *SQLiteStore) ListMeetings(ctx context.Context) ([]*model.Meeting, error) {
	s.logger.Debug("sql", "op", "select", "table", "meetings")

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, start_time, end_time, external_id, source, created_at, updated_at
		 FROM meetings ORDER BY start_time, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var meetings []*model.Meeting
	for rows.Next() {
		meeting, err := scanMeeting(rows)
		if err != nil {
			return nil, err
		}
		meetings = append(meetings, meeting)
	}
	return meetings, rows.Err()
}

func (s *SQLiteStore) DeleteMeeting(ctx context.Context, id string) error {
	s.logger.Debug("sql", "op", "delete", "table", "meetings", "id", id)
	_, err := s.db.ExecContext(ctx, `DELETE FROM meetings WHERE id = ?`, id)
	return err
}

func (s *SQLiteStore) UpsertExternalMeeting(ctx context.Context, meeting *model.Meeting) (*model.Meeting, error) {
	s.logger.Debug("sql", "op", "upsert", "table", "meetings", "external_id", meeting.ExternalID)

	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, start_time, end_time, external_id, source, created_at, updated_at
		 FROM meetings WHERE external_id = ?`, meeting.ExternalID)
	existing, err := scanMeeting(row)
	if err == sql.ErrNoRows {
		if err := s.CreateMeeting(ctx, meeting); err != nil {
			return nil, err
		}
		return meeting, nil
	}
	if err != nil {
		return nil, err
	}

	existing.Title = meeting.Title
	existing.StartTime = meeting.StartTime
	existing.EndTime = meeting.EndTime
	existing.Source = meeting.Source
	existing.UpdatedAt = meeting.UpdatedAt
	_, err = s.db.ExecContext(ctx,
		`UPDATE meetings SET title = ?, start_time = ?, end_time = ?, source = ?, updated_at = ? WHERE id = ?`,
		existing.Title, fmtTime(existing.StartTime), fmtTime(existing.EndTime),
		existing.Source, fmtTime(existing.UpdatedAt), existing.ID,
	)
	if err != nil {
		return nil, err
	}
	return existing, nil
}

// --- Snapshots ---

func (s *SQLiteStore) CreateSnapshot(ctx context.Context, snapshot *model.PlanSnapshot) error {
	s.logger.Debug("sql", "op", "insert", "table", "plan_snapshots", "id", snapshot.ID, "module", snapshot.Module)

	metricsJSON, err := json.Marshal(snapshot.Metrics)
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO plan_snapshots (id, module, label, metrics, created_at) VALUES (?, ?, ?, ?, ?)`,
		snapshot.ID, string(snapshot.Module), snapshot.Label, string(metricsJSON), fmtTime(snapshot.CreatedAt),
	)
	if err != nil {
		return err
	}

	for _, a := range snapshot.Assignments {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO task_assignments (id, plan_snapshot_id, task_id, scheduled_start, scheduled_end, deviation_minutes, tardiness_minutes)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			a.ID, snapshot.ID, a.TaskID, fmtTime(a.ScheduledStart), fmtTime(a.ScheduledEnd),
			a.DeviationMinutes, a.TardinessMinutes,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) GetLatestSnapshot(ctx context.Context, module model.Module) (*model.PlanSnapshot, error) {
	s.logger.Debug("sql", "op", "select_latest", "table", "plan_snapshots", "module", module)

	var snapshot model.PlanSnapshot
	var metricsJSON, createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, module, label, metrics, created_at FROM plan_snapshots
		 WHERE module = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`, string(module),
	).Scan(&snapshot.ID, &snapshot.Module, &snapshot.Label, &metricsJSON, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(metricsJSON), &snapshot.Metrics); err != nil {
		return nil, fmt.Errorf("unmarshal metrics: %w", err)
	}
	if snapshot.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, plan_snapshot_id, task_id, scheduled_start, scheduled_end, deviation_minutes, tardiness_minutes
		 FROM task_assignments WHERE plan_snapshot_id = ? ORDER BY scheduled_start, task_id`, snapshot.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var a model.TaskAssignment
		var start, end string
		if err := rows.Scan(&a.ID, &a.PlanSnapshotID, &a.TaskID, &start, &end, &a.DeviationMinutes, &a.TardinessMinutes); err != nil {
			return nil, err
		}
		if a.ScheduledStart, err = parseTime(start); err != nil {
			return nil, err
		}
		if a.ScheduledEnd, err = parseTime(end); err != nil {
			return nil, err
		}
		snapshot.Assignments = append(snapshot.Assignments, a)
	}
	return &snapshot, rows.Err()
}

// --- scanning helpers ---

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*model.Task, error) {
	var task model.Task
	var windowsJSON, earliest, due, createdAt, updatedAt string
	err := row.Scan(&task.ID, &task.Title, &task.Description, &task.DurationMinutes,
		&earliest, &due, &task.Priority, &windowsJSON, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(windowsJSON), &task.PreferredWindows); err != nil {
		return nil, fmt.Errorf("unmarshal preferred windows: %w", err)
	}
	if task.EarliestStart, err = parseTime(earliest); err != nil {
		return nil, err
	}
	if task.Due, err = parseTime(due); err != nil {
		return nil, err
	}
	if task.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if task.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &task, nil
}

func scanMeeting(row rowScanner) (*model.Meeting, error) {
	var meeting model.Meeting
	var start, end, createdAt, updatedAt string
	err := row.Scan(&meeting.ID, &meeting.Title, &start, &end,
		&meeting.ExternalID, &meeting.Source, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if meeting.StartTime, err = parseTime(start); err != nil {
		return nil, err
	}
	if meeting.EndTime, err = parseTime(end); err != nil {
		return nil, err
	}
	if meeting.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if meeting.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &meeting, nil
}

func fmtTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}
