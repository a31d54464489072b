package scheduler

import (
	"testing"
	"time"

	"github.com/me/goplan/internal/config"
	"github.com/me/goplan/internal/logging"
	"github.com/me/goplan/pkg/model"
)

func ts(hour, minute int) time.Time {
	return time.Date(2025, 1, 6, hour, minute, 0, 0, time.UTC)
}

func newTestCPLNS(t *testing.T) *CPLNS {
	t.Helper()
	engine, err := NewCPLNS(CPLNSOptions{
		GranularityMinutes: 5,
		TimeLimit:          5 * time.Second,
		Weights:            config.DefaultWeights().CP,
		WorkdayStartHour:   9,
		WorkdayEndHour:     17,
	}, logging.Discard())
	if err != nil {
		t.Fatalf("NewCPLNS: %v", err)
	}
	return engine
}

func assignmentMap(result model.ScheduleResult) map[string]model.AssignedTask {
	m := make(map[string]model.AssignedTask, len(result.Assignments))
	for _, a := range result.Assignments {
		m[a.TaskID] = a
	}
	return m
}

func TestCPLNSRespectsMeetingsAndDeadlines(t *testing.T) {
	engine := newTestCPLNS(t)

	req := model.ScheduleRequest{
		Tasks: []model.ScheduleTask{
			{TaskID: "task-a", DurationMinutes: 90, EarliestStart: ts(9, 0), Due: ts(17, 0), Priority: 5},
			{TaskID: "task-b", DurationMinutes: 60, EarliestStart: ts(9, 0), Due: ts(12, 0), Priority: 10},
		},
		Meetings: []model.ScheduleMeeting{
			{MeetingID: "meeting-1", Start: ts(10, 0), End: ts(11, 0)},
		},
	}

	result := engine.Schedule(req)

	if len(result.UnscheduledTasks) != 0 {
		t.Fatalf("unscheduled = %v, want none", result.UnscheduledTasks)
	}
	if len(result.Assignments) != 2 {
		t.Fatalf("assignments = %d, want 2", len(result.Assignments))
	}

	byID := assignmentMap(result)
	if b := byID["task-b"]; b.End.After(ts(12, 0)) {
		t.Errorf("task-b ends %v, want <= 12:00", b.End)
	}
	a := byID["task-a"]
	if a.Start.Before(ts(11, 0)) {
		t.Errorf("task-a starts %v, want >= 11:00", a.Start)
	}
	if a.End.After(ts(17, 0)) {
		t.Errorf("task-a ends %v, want <= 17:00", a.End)
	}
	for _, assignment := range result.Assignments {
		if !assignment.Start.Before(ts(10, 0)) && assignment.Start.Before(ts(11, 0)) {
			t.Errorf("%s starts inside the meeting at %v", assignment.TaskID, assignment.Start)
		}
	}
	if result.ObjectiveValue == nil {
		t.Error("objective value not set on a proven optimum")
	}
}

func TestCPLNSFreezesTasksOutsideNeighborhood(t *testing.T) {
	engine := newTestCPLNS(t)

	req := model.ScheduleRequest{
		Tasks: []model.ScheduleTask{
			{TaskID: "task-a", DurationMinutes: 60, EarliestStart: ts(9, 0), Due: ts(17, 0), Priority: 5},
			{TaskID: "task-b", DurationMinutes: 60, EarliestStart: ts(9, 0), Due: ts(17, 0), Priority: 3},
		},
		Meetings: []model.ScheduleMeeting{
			{MeetingID: "meeting-1", Start: ts(10, 0), End: ts(11, 0)},
		},
		PreviousAssignments: map[string]model.Interval{
			"task-a": {Start: ts(9, 0), End: ts(10, 0)},
			"task-b": {Start: ts(10, 0), End: ts(11, 0)},
		},
		NeighborhoodWindow: &model.TimeWindow{Start: ts(9, 55), End: ts(11, 5)},
	}

	result := engine.Schedule(req)
	byID := assignmentMap(result)

	a, ok := byID["task-a"]
	if !ok {
		t.Fatal("task-a not assigned")
	}
	if !a.Start.Equal(ts(9, 0)) || !a.End.Equal(ts(10, 0)) {
		t.Errorf("task-a moved to [%v, %v), want frozen at [9:00, 10:00)", a.Start, a.End)
	}
	b, ok := byID["task-b"]
	if !ok {
		t.Fatal("task-b not assigned")
	}
	if b.Start.Before(ts(11, 0)) {
		t.Errorf("task-b starts %v, want >= 11:00", b.Start)
	}
}

func TestCPLNSFixedStartPinsTask(t *testing.T) {
	engine := newTestCPLNS(t)

	fixed := ts(13, 0)
	req := model.ScheduleRequest{
		Tasks: []model.ScheduleTask{
			{TaskID: "pinned", DurationMinutes: 60, EarliestStart: ts(9, 0), Due: ts(17, 0), Priority: 5, FixedStart: &fixed},
			{TaskID: "floating", DurationMinutes: 60, EarliestStart: ts(9, 0), Due: ts(17, 0), Priority: 5},
		},
	}

	result := engine.Schedule(req)
	byID := assignmentMap(result)

	p, ok := byID["pinned"]
	if !ok {
		t.Fatal("pinned task not assigned")
	}
	if !p.Start.Equal(fixed) {
		t.Errorf("pinned start = %v, want %v", p.Start, fixed)
	}
	if p.DeviationMinutes != 0 {
		t.Errorf("pinned deviation = %d, want 0", p.DeviationMinutes)
	}
}

func TestCPLNSInfeasibleDeadline(t *testing.T) {
	engine := newTestCPLNS(t)

	req := model.ScheduleRequest{
		Tasks: []model.ScheduleTask{
			{TaskID: "tight", DurationMinutes: 120, EarliestStart: ts(9, 0), Due: ts(9, 30), Priority: 5},
		},
	}

	result := engine.Schedule(req)

	if len(result.Assignments) != 0 {
		t.Errorf("assignments = %v, want none", result.Assignments)
	}
	if len(result.UnscheduledTasks) != 1 || result.UnscheduledTasks[0] != "tight" {
		t.Errorf("unscheduled = %v, want [tight]", result.UnscheduledTasks)
	}
	if result.ObjectiveValue != nil {
		t.Errorf("objective = %d, want nil on infeasible", *result.ObjectiveValue)
	}
}

func TestCPLNSStabilityPrefersPreviousStarts(t *testing.T) {
	engine := newTestCPLNS(t)

	req := model.ScheduleRequest{
		Tasks: []model.ScheduleTask{
			{TaskID: "task-a", DurationMinutes: 60, EarliestStart: ts(9, 0), Due: ts(17, 0), Priority: 5},
			{TaskID: "task-b", DurationMinutes: 60, EarliestStart: ts(9, 0), Due: ts(17, 0), Priority: 5},
		},
	}

	first := engine.Schedule(req)
	if len(first.Assignments) != 2 {
		t.Fatalf("first run assigned %d tasks", len(first.Assignments))
	}

	previous := make(map[string]model.Interval)
	for _, a := range first.Assignments {
		previous[a.TaskID] = model.Interval{Start: a.Start, End: a.End}
	}
	req.PreviousAssignments = previous

	second := engine.Schedule(req)
	byID := assignmentMap(second)
	for _, a := range first.Assignments {
		got := byID[a.TaskID]
		if !got.Start.Equal(a.Start) {
			t.Errorf("%s moved from %v to %v on an unchanged re-run", a.TaskID, a.Start, got.Start)
		}
		if got.DeviationMinutes != 0 {
			t.Errorf("%s deviation = %d, want 0", a.TaskID, got.DeviationMinutes)
		}
	}
}

func TestCPLNSEmptyRequest(t *testing.T) {
	engine := newTestCPLNS(t)

	result := engine.Schedule(model.ScheduleRequest{})

	if len(result.Assignments) != 0 || len(result.UnscheduledTasks) != 0 {
		t.Errorf("empty request produced %+v", result)
	}
	if result.ObjectiveValue == nil || *result.ObjectiveValue != 0 {
		t.Errorf("objective = %v, want 0", result.ObjectiveValue)
	}
}

func TestCPLNSAssignmentsOrderedAndNonOverlapping(t *testing.T) {
	engine := newTestCPLNS(t)

	req := model.ScheduleRequest{
		Tasks: []model.ScheduleTask{
			{TaskID: "t1", DurationMinutes: 60, EarliestStart: ts(9, 0), Due: ts(17, 0), Priority: 4},
			{TaskID: "t2", DurationMinutes: 45, EarliestStart: ts(9, 0), Due: ts(17, 0), Priority: 6},
			{TaskID: "t3", DurationMinutes: 30, EarliestStart: ts(9, 0), Due: ts(17, 0), Priority: 2},
		},
	}

	result := engine.Schedule(req)
	if len(result.Assignments) != 3 {
		t.Fatalf("assigned %d tasks, want 3", len(result.Assignments))
	}
	for i := 1; i < len(result.Assignments); i++ {
		prev, cur := result.Assignments[i-1], result.Assignments[i]
		if cur.Start.Before(prev.Start) {
			t.Errorf("assignments not ordered by start: %v before %v", cur.Start, prev.Start)
		}
		if cur.Start.Before(prev.End) {
			t.Errorf("overlap between %s and %s", prev.TaskID, cur.TaskID)
		}
	}
}

func TestNewCPLNSRejectsInvalidWorkingHours(t *testing.T) {
	tests := []struct {
		name       string
		start, end int
	}{
		{"start after end", 17, 9},
		{"start equals end", 9, 9},
		{"end past midnight", 9, 25},
		{"negative start", -1, 17},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCPLNS(CPLNSOptions{
				WorkdayStartHour: tt.start,
				WorkdayEndHour:   tt.end,
			}, logging.Discard())
			if err == nil {
				t.Errorf("NewCPLNS accepted hours [%d, %d)", tt.start, tt.end)
			}
		})
	}
}
