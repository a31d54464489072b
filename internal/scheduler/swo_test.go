package scheduler

import (
	"fmt"
	"testing"
	"time"

	"github.com/me/goplan/internal/config"
	"github.com/me/goplan/internal/logging"
	"github.com/me/goplan/pkg/model"
)

func feb(day, hour, minute int) time.Time {
	return time.Date(2025, 2, day, hour, minute, 0, 0, time.UTC)
}

func newTestSWO(t *testing.T) *SWO {
	t.Helper()
	engine, err := NewSWO(SWOOptions{
		GranularityMinutes: 15,
		Weights:            config.DefaultWeights().SWO,
		WorkdayStartHour:   9,
		WorkdayEndHour:     17,
	}, logging.Discard())
	if err != nil {
		t.Fatalf("NewSWO: %v", err)
	}
	return engine
}

// segments mirrors what the planner fans a long task out into: 120-minute
// blocks sharing the root's bounds.
func segments(root string, count int, earliest, due time.Time, priority int) []model.ScheduleTask {
	tasks := make([]model.ScheduleTask, 0, count)
	for i := 0; i < count; i++ {
		id := root
		if i > 0 {
			id = fmt.Sprintf("%s::seg%d", root, i+1)
		}
		tasks = append(tasks, model.ScheduleTask{
			TaskID:          id,
			DurationMinutes: 120,
			EarliestStart:   earliest,
			Due:             due,
			Priority:        priority,
		})
	}
	return tasks
}

func TestSWOProducesNonOverlappingBlocks(t *testing.T) {
	engine := newTestSWO(t)

	tasks := append(
		segments("task-x", 3, feb(3, 9, 0), feb(7, 17, 0), 5),
		segments("task-y", 2, feb(3, 9, 0), feb(5, 17, 0), 4)...,
	)
	req := model.ScheduleRequest{
		Tasks: tasks,
		Meetings: []model.ScheduleMeeting{
			{MeetingID: "sync", Start: feb(3, 12, 0), End: feb(3, 13, 30)},
		},
	}

	result := engine.Schedule(req)

	if len(result.UnscheduledTasks) != 0 {
		t.Fatalf("unscheduled = %v, want none", result.UnscheduledTasks)
	}
	if len(result.Assignments) != 5 {
		t.Fatalf("assignments = %d, want 5", len(result.Assignments))
	}

	for i, a := range result.Assignments {
		if minutes := a.End.Sub(a.Start).Minutes(); minutes != 120 {
			t.Errorf("%s block is %.0f minutes, want 120", a.TaskID, minutes)
		}
		// Inside working hours.
		if a.Start.Hour() < 9 || a.End.Hour() > 17 || (a.End.Hour() == 17 && a.End.Minute() > 0) {
			t.Errorf("%s placed outside working hours: [%v, %v)", a.TaskID, a.Start, a.End)
		}
		// Clear of the meeting.
		if a.Start.Before(feb(3, 13, 30)) && a.End.After(feb(3, 12, 0)) {
			t.Errorf("%s overlaps the meeting: [%v, %v)", a.TaskID, a.Start, a.End)
		}
		for _, b := range result.Assignments[i+1:] {
			if a.Start.Before(b.End) && b.Start.Before(a.End) {
				t.Errorf("overlap between %s and %s", a.TaskID, b.TaskID)
			}
		}
	}
}

func TestSWOInfeasibleDeadline(t *testing.T) {
	engine := newTestSWO(t)

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
}

func TestSWOHigherPriorityPlacedFirst(t *testing.T) {
	engine := newTestSWO(t)

	req := model.ScheduleRequest{
		Tasks: []model.ScheduleTask{
			{TaskID: "low", DurationMinutes: 60, EarliestStart: ts(9, 0), Due: ts(17, 0), Priority: 2},
			{TaskID: "high", DurationMinutes: 60, EarliestStart: ts(9, 0), Due: ts(17, 0), Priority: 9},
		},
	}

	result := engine.Schedule(req)
	byID := assignmentMap(result)

	if !byID["high"].Start.Before(byID["low"].Start) {
		t.Errorf("high priority starts %v, low starts %v; want high first",
			byID["high"].Start, byID["low"].Start)
	}
}

func TestSWODeviationFromPreviousPlan(t *testing.T) {
	engine := newTestSWO(t)

	req := model.ScheduleRequest{
		Tasks: []model.ScheduleTask{
			{TaskID: "steady", DurationMinutes: 60, EarliestStart: ts(9, 0), Due: ts(17, 0), Priority: 5},
		},
		PreviousAssignments: map[string]model.Interval{
			"steady": {Start: ts(10, 0), End: ts(11, 0)},
		},
	}

	result := engine.Schedule(req)
	if len(result.Assignments) != 1 {
		t.Fatalf("assignments = %d, want 1", len(result.Assignments))
	}
	a := result.Assignments[0]
	// Greedy first fit places at 09:00; previous start was 10:00.
	if !a.Start.Equal(ts(9, 0)) {
		t.Fatalf("start = %v, want 9:00", a.Start)
	}
	if a.DeviationMinutes != 60 {
		t.Errorf("deviation = %d, want 60", a.DeviationMinutes)
	}
}

func TestSWOEmptyRequest(t *testing.T) {
	engine := newTestSWO(t)

	result := engine.Schedule(model.ScheduleRequest{})
	if len(result.Assignments) != 0 || len(result.UnscheduledTasks) != 0 {
		t.Errorf("empty request produced %+v", result)
	}
	if result.ObjectiveValue == nil || *result.ObjectiveValue != 0 {
		t.Errorf("objective = %v, want 0", result.ObjectiveValue)
	}
}

func TestSWOObjectiveTracksUnscheduledCount(t *testing.T) {
	engine := newTestSWO(t)

	req := model.ScheduleRequest{
		Tasks: []model.ScheduleTask{
			{TaskID: "fits", DurationMinutes: 60, EarliestStart: ts(9, 0), Due: ts(17, 0), Priority: 5},
			{TaskID: "cannot", DurationMinutes: 120, EarliestStart: ts(9, 0), Due: ts(9, 30), Priority: 5},
		},
	}

	result := engine.Schedule(req)
	if result.ObjectiveValue == nil {
		t.Fatal("objective not set")
	}
	if *result.ObjectiveValue != 10_000 {
		t.Errorf("objective = %d, want 10000 (one unscheduled task)", *result.ObjectiveValue)
	}
}
