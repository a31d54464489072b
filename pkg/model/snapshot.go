package model

import "time"

// PlanSnapshot stores the assignments a scheduling run produced for a module.
// Snapshots are append-only; the most recent one per module is the previous
// plan consulted by the next run.
type PlanSnapshot struct {
	ID          string           `json:"id"`
	Module      Module           `json:"module"`
	Label       string           `json:"label,omitempty"`
	Metrics     map[string]int   `json:"metrics"`
	Assignments []TaskAssignment `json:"assignments"`
	CreatedAt   time.Time        `json:"created_at"`
}

// TaskAssignment is one persisted block of a plan snapshot.
type TaskAssignment struct {
	ID               string    `json:"id"`
	PlanSnapshotID   string    `json:"plan_snapshot_id"`
	TaskID           string    `json:"task_id"`
	ScheduledStart   time.Time `json:"scheduled_start"`
	ScheduledEnd     time.Time `json:"scheduled_end"`
	DeviationMinutes int       `json:"deviation_minutes"`
	TardinessMinutes int       `json:"tardiness_minutes"`
}
