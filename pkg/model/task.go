package model

import (
	"time"
)

// Task is a duration-bearing work item competing for free calendar time.
// Tasks are owned by the CRUD layer; the scheduler never mutates them.
type Task struct {
	ID               string            `json:"id"`
	Title            string            `json:"title"`
	Description      string            `json:"description,omitempty"`
	DurationMinutes  int               `json:"duration_minutes"`
	EarliestStart    time.Time         `json:"earliest_start"`
	Due              time.Time         `json:"due"`
	Priority         int               `json:"priority"`
	PreferredWindows []PreferredWindow `json:"preferred_windows,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// PreferredWindow is a [Start, End) range the user would like the task placed
// in. Windows are carried through to the solver input but are not yet part of
// either objective.
type PreferredWindow struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Weight *int      `json:"weight,omitempty"` // 1..100 when set
}

// Meeting is a fixed calendar event blocking time on the resource. Immutable
// from the scheduler's point of view.
type Meeting struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	ExternalID string    `json:"external_id,omitempty"`
	Source     string    `json:"source,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
