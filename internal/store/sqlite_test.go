package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/me/goplan/internal/logging"
	"github.com/me/goplan/pkg/model"
)

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLiteStore(":memory:", logging.Discard())
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func newTask(title string, earliest time.Time) *model.Task {
	now := time.Now().UTC()
	weight := 10
	return &model.Task{
		ID:              uuid.New().String(),
		Title:           title,
		DurationMinutes: 60,
		EarliestStart:   earliest,
		Due:             earliest.Add(8 * time.Hour),
		Priority:        5,
		PreferredWindows: []model.PreferredWindow{
			{Start: earliest, End: earliest.Add(2 * time.Hour), Weight: &weight},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestTaskRoundTrip(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	base := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)
	task := newTask("deep work", base)
	if err := st.CreateTask(ctx, task); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	got, err := st.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if got == nil {
		t.Fatal("GetTask returned nil")
	}
	if got.Title != task.Title || got.DurationMinutes != 60 || got.Priority != 5 {
		t.Errorf("got %+v, want %+v", got, task)
	}
	if !got.EarliestStart.Equal(task.EarliestStart) || !got.Due.Equal(task.Due) {
		t.Errorf("time fields changed: %v / %v", got.EarliestStart, got.Due)
	}
	if len(got.PreferredWindows) != 1 || got.PreferredWindows[0].Weight == nil || *got.PreferredWindows[0].Weight != 10 {
		t.Errorf("preferred windows lost: %+v", got.PreferredWindows)
	}

	got.Title = "deeper work"
	got.UpdatedAt = time.Now().UTC()
	if err := st.UpdateTask(ctx, got); err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	got2, _ := st.GetTask(ctx, task.ID)
	if got2.Title != "deeper work" {
		t.Errorf("update not persisted: %q", got2.Title)
	}

	if err := st.DeleteTask(ctx, task.ID); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if gone, _ := st.GetTask(ctx, task.ID); gone != nil {
		t.Error("task still present after delete")
	}
}

func TestListTasksOrderedByEarliestStart(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	base := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)
	late := newTask("late", base.Add(4*time.Hour))
	early := newTask("early", base)
	mid := newTask("mid", base.Add(2*time.Hour))
	for _, task := range []*model.Task{late, early, mid} {
		if err := st.CreateTask(ctx, task); err != nil {
			t.Fatalf("CreateTask: %v", err)
		}
	}

	tasks, err := st.ListTasks(ctx)
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("listed %d tasks, want 3", len(tasks))
	}
	for i, want := range []string{"early", "mid", "late"} {
		if tasks[i].Title != want {
			t.Errorf("tasks[%d] = %q, want %q", i, tasks[i].Title, want)
		}
	}
}

func TestMeetingUpsertByExternalID(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	start := time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)
	meeting := &model.Meeting{
		ID:         uuid.New().String(),
		Title:      "standup",
		StartTime:  start,
		EndTime:    start.Add(30 * time.Minute),
		ExternalID: "ext-1",
		Source:     "feed",
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	created, err := st.UpsertExternalMeeting(ctx, meeting)
	if err != nil {
		t.Fatalf("UpsertExternalMeeting: %v", err)
	}

	// Same external ID with new times refreshes in place.
	update := &model.Meeting{
		ID:         uuid.New().String(),
		Title:      "standup (moved)",
		StartTime:  start.Add(time.Hour),
		EndTime:    start.Add(90 * time.Minute),
		ExternalID: "ext-1",
		Source:     "feed",
		CreatedAt:  now,
		UpdatedAt:  now.Add(time.Minute),
	}
	updated, err := st.UpsertExternalMeeting(ctx, update)
	if err != nil {
		t.Fatalf("UpsertExternalMeeting(update): %v", err)
	}
	if updated.ID != created.ID {
		t.Errorf("upsert created a new row: %s != %s", updated.ID, created.ID)
	}

	meetings, err := st.ListMeetings(ctx)
	if err != nil {
		t.Fatalf("ListMeetings: %v", err)
	}
	if len(meetings) != 1 {
		t.Fatalf("listed %d meetings, want 1", len(meetings))
	}
	if meetings[0].Title != "standup (moved)" || !meetings[0].StartTime.Equal(start.Add(time.Hour)) {
		t.Errorf("meeting not refreshed: %+v", meetings[0])
	}
}

func TestSnapshotRoundTripAndLatest(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	mkSnapshot := func(label string, createdAt time.Time) *model.PlanSnapshot {
		start := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)
		id := uuid.New().String()
		return &model.PlanSnapshot{
			ID:     id,
			Module: model.ModuleCPLNS,
			Label:  label,
			Metrics: map[string]int{
				"scheduled_count":   2,
				"unscheduled_count": 0,
			},
			Assignments: []model.TaskAssignment{
				{
					ID:             uuid.New().String(),
					PlanSnapshotID: id,
					TaskID:         "task-1",
					ScheduledStart: start.Add(time.Hour),
					ScheduledEnd:   start.Add(2 * time.Hour),
				},
				{
					ID:             uuid.New().String(),
					PlanSnapshotID: id,
					TaskID:         "task-2",
					ScheduledStart: start,
					ScheduledEnd:   start.Add(time.Hour),
				},
			},
			CreatedAt: createdAt,
		}
	}

	now := time.Now().UTC()
	first := mkSnapshot("first", now)
	second := mkSnapshot("second", now.Add(time.Second))
	if err := st.CreateSnapshot(ctx, first); err != nil {
		t.Fatalf("CreateSnapshot(first): %v", err)
	}
	if err := st.CreateSnapshot(ctx, second); err != nil {
		t.Fatalf("CreateSnapshot(second): %v", err)
	}

	latest, err := st.GetLatestSnapshot(ctx, model.ModuleCPLNS)
	if err != nil {
		t.Fatalf("GetLatestSnapshot: %v", err)
	}
	if latest == nil || latest.Label != "second" {
		t.Fatalf("latest = %+v, want label=second", latest)
	}
	if latest.Metrics["scheduled_count"] != 2 {
		t.Errorf("metrics lost: %+v", latest.Metrics)
	}
	if len(latest.Assignments) != 2 {
		t.Fatalf("assignments = %d, want 2", len(latest.Assignments))
	}
	// Loaded ordered by scheduled_start.
	if latest.Assignments[0].TaskID != "task-2" {
		t.Errorf("assignments not ordered by start: %+v", latest.Assignments)
	}

	if none, err := st.GetLatestSnapshot(ctx, model.ModuleSWO); err != nil || none != nil {
		t.Errorf("GetLatestSnapshot(SWO) = %v, %v; want nil, nil", none, err)
	}
}
