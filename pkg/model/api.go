package model

import "time"

// Response is the standard API response envelope.
type Response struct {
	Status    string    `json:"status"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Error     *APIError `json:"error"`
}

// TaskCreate is the payload for creating or updating a task.
type TaskCreate struct {
	Title            string            `json:"title"`
	Description      string            `json:"description,omitempty"`
	DurationMinutes  int               `json:"duration_minutes"`
	EarliestStart    time.Time         `json:"earliest_start"`
	Due              time.Time         `json:"due"`
	Priority         int               `json:"priority"`
	PreferredWindows []PreferredWindow `json:"preferred_windows,omitempty"`
}

// MeetingCreate is the payload for creating a meeting.
type MeetingCreate struct {
	Title     string    `json:"title"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// ScheduleRunRequest is the payload for the scheduler run endpoints.
type ScheduleRunRequest struct {
	Label              string      `json:"label,omitempty"`
	NeighborhoodWindow *TimeWindow `json:"neighborhood_window,omitempty"`
}

// ScheduleRunResponse reports the outcome of one scheduler invocation.
type ScheduleRunResponse struct {
	Scheduler        Module            `json:"scheduler"`
	ObjectiveValue   *int64            `json:"objective_value"`
	Assignments      []AssignedTask    `json:"assignments"`
	UnscheduledTasks []string          `json:"unscheduled_tasks"`
	Metrics          SchedulingMetrics `json:"metrics"`
	RuntimeMS        float64           `json:"runtime_ms"`
}

// SyncRunRequest is the payload for the calendar feed sync endpoint.
type SyncRunRequest struct {
	RunScheduler bool `json:"run_scheduler"`
}

// SyncRunResponse reports the outcome of one feed sync.
type SyncRunResponse struct {
	ImportedEvents int  `json:"imported_events"`
	SchedulerRan   bool `json:"scheduler_ran"`
}
