package model

import "time"

// Module identifies a scheduler implementation.
type Module string

const (
	ModuleCPLNS Module = "CP_LNS"
	ModuleSWO   Module = "SWO"
)

// ScheduleTask is the solver-level view of one contiguous block of work. The
// scheduling service fans each Task out into one or more of these (see
// planner.SegmentDurations); TaskID carries the segment identity on the wire.
type ScheduleTask struct {
	TaskID           string
	DurationMinutes  int
	EarliestStart    time.Time
	Due              time.Time
	Priority         int
	PreferredWindows []PreferredWindow

	// FixedStart pins the task to an exact start instant when set.
	FixedStart *time.Time
}

// ScheduleMeeting is an immutable busy interval the solver must avoid.
type ScheduleMeeting struct {
	MeetingID string
	Start     time.Time
	End       time.Time
}

// Interval is a half-open [Start, End) time range.
type Interval struct {
	Start time.Time
	End   time.Time
}

// TimeWindow bounds the region the CP solver is free to re-plan. Tasks whose
// previous start lies outside the window are kept at their previous start.
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ScheduleRequest is one self-contained solver invocation. PreviousAssignments
// maps solver task IDs to their interval in the previous plan.
type ScheduleRequest struct {
	Tasks               []ScheduleTask
	Meetings            []ScheduleMeeting
	PreviousAssignments map[string]Interval
	NeighborhoodWindow  *TimeWindow
}

// AssignedTask is one placed block in a schedule. End-Start always equals the
// task's duration. DeviationMinutes is the absolute distance from the previous
// plan's start (0 without a prior); TardinessMinutes is how far End runs past
// Due (0 when on time).
type AssignedTask struct {
	TaskID           string    `json:"task_id"`
	Start            time.Time `json:"start"`
	End              time.Time `json:"end"`
	DeviationMinutes int       `json:"deviation_minutes"`
	TardinessMinutes int       `json:"tardiness_minutes"`
}

// ScheduleResult is the outcome of one solver run. Assignments are ordered by
// start; UnscheduledTasks is deduplicated. ObjectiveValue is set only when the
// CP solver proves optimality, or to the best observed cost for SWO.
type ScheduleResult struct {
	Assignments      []AssignedTask `json:"assignments"`
	UnscheduledTasks []string       `json:"unscheduled_tasks"`
	ObjectiveValue   *int64         `json:"objective_value"`
}

// SchedulingMetrics summarizes one scheduling run for persistence and the API.
type SchedulingMetrics struct {
	ScheduledCount        int `json:"scheduled_count"`
	UnscheduledCount      int `json:"unscheduled_count"`
	TotalDeviationMinutes int `json:"total_deviation_minutes"`
	TotalTardinessMinutes int `json:"total_tardiness_minutes"`
}

// ToMap renders the metrics as the flat dictionary stored on snapshots.
func (m SchedulingMetrics) ToMap() map[string]int {
	return map[string]int{
		"scheduled_count":         m.ScheduledCount,
		"unscheduled_count":       m.UnscheduledCount,
		"total_deviation_minutes": m.TotalDeviationMinutes,
		"total_tardiness_minutes": m.TotalTardinessMinutes,
	}
}
