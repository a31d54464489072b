package planner

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/me/goplan/internal/scheduler"
	"github.com/me/goplan/internal/store"
	"github.com/me/goplan/pkg/model"
)

// Service coordinates data retrieval, scheduling runs, and snapshot
// persistence. It is stateless across runs; the previous plan is re-read from
// the store at the start of every invocation.
type Service struct {
	store  store.Store
	router *scheduler.Router
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a scheduling service over the given store and engines.
func NewService(st store.Store, router *scheduler.Router, logger *slog.Logger) *Service {
	return &Service{
		store:  st,
		router: router,
		logger: logger.With("component", "planner"),
		now:    time.Now,
	}
}

// RunCP executes one CP/LNS scheduling run and persists the snapshot.
func (s *Service) RunCP(ctx context.Context, label string, window *model.TimeWindow) (model.ScheduleResult, model.SchedulingMetrics, error) {
	return s.run(ctx, model.ModuleCPLNS, label, window)
}

// RunSWO executes one SWO scheduling run and persists the snapshot. Returns
// scheduler.ErrSWOUnavailable when no SWO engine is wired.
func (s *Service) RunSWO(ctx context.Context, label string) (model.ScheduleResult, model.SchedulingMetrics, error) {
	return s.run(ctx, model.ModuleSWO, label, nil)
}

func (s *Service) run(ctx context.Context, module model.Module, label string, window *model.TimeWindow) (model.ScheduleResult, model.SchedulingMetrics, error) {
	var zero model.SchedulingMetrics

	engine, err := s.router.Resolve(module)
	if err != nil {
		return model.ScheduleResult{}, zero, err
	}

	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		return model.ScheduleResult{}, zero, fmt.Errorf("list tasks: %w", err)
	}
	meetings, err := s.store.ListMeetings(ctx)
	if err != nil {
		return model.ScheduleResult{}, zero, fmt.Errorf("list meetings: %w", err)
	}

	previous, err := s.previousAssignments(ctx, module)
	if err != nil {
		return model.ScheduleResult{}, zero, fmt.Errorf("load previous plan: %w", err)
	}

	request := s.buildRequest(tasks, meetings, previous, window)

	result := engine.Schedule(request)
	remapped := RemapResult(result)

	metrics := buildMetrics(remapped)
	if err := s.persistSnapshot(ctx, module, label, remapped, metrics); err != nil {
		return model.ScheduleResult{}, zero, fmt.Errorf("persist snapshot: %w", err)
	}

	s.logger.Info("scheduling run complete",
		"module", module,
		"label", label,
		"scheduled", metrics.ScheduledCount,
		"unscheduled", metrics.UnscheduledCount,
	)
	return remapped, metrics, nil
}

// previousAssignments groups the latest snapshot's blocks by task ID, ordered
// by start.
func (s *Service) previousAssignments(ctx context.Context, module model.Module) (map[string][]model.Interval, error) {
	snapshot, err := s.store.GetLatestSnapshot(ctx, module)
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		return nil, nil
	}
	grouped := make(map[string][]model.Interval)
	for _, a := range snapshot.Assignments {
		grouped[a.TaskID] = append(grouped[a.TaskID], model.Interval{
			Start: a.ScheduledStart.UTC(),
			End:   a.ScheduledEnd.UTC(),
		})
	}
	// Store order is by scheduled_start already; keep the per-task slices
	// sorted regardless of backend.
	for _, intervals := range grouped {
		sort.Slice(intervals, func(i, j int) bool {
			return intervals[i].Start.Before(intervals[j].Start)
		})
	}
	return grouped, nil
}

// buildRequest fans tasks out into segments, attaches per-segment previous
// assignments, and normalizes everything to UTC.
func (s *Service) buildRequest(
	tasks []*model.Task,
	meetings []*model.Meeting,
	previous map[string][]model.Interval,
	window *model.TimeWindow,
) model.ScheduleRequest {
	var expanded []model.ScheduleTask
	segmentPrevious := make(map[string]model.Interval)

	for _, task := range tasks {
		windows := validWindows(task, s.logger)
		prevSegments := previous[task.ID]

		for i, duration := range SegmentDurations(task.DurationMinutes) {
			wireID := SegmentID{Root: task.ID, Index: i}.WireID()
			expanded = append(expanded, model.ScheduleTask{
				TaskID:           wireID,
				DurationMinutes:  duration,
				EarliestStart:    task.EarliestStart.UTC(),
				Due:              task.Due.UTC(),
				Priority:         task.Priority,
				PreferredWindows: windows,
			})
			if i < len(prevSegments) {
				segmentPrevious[wireID] = prevSegments[i]
			}
		}
	}

	scheduleMeetings := make([]model.ScheduleMeeting, 0, len(meetings))
	for _, m := range meetings {
		scheduleMeetings = append(scheduleMeetings, model.ScheduleMeeting{
			MeetingID: m.ID,
			Start:     m.StartTime.UTC(),
			End:       m.EndTime.UTC(),
		})
	}

	return model.ScheduleRequest{
		Tasks:               expanded,
		Meetings:            scheduleMeetings,
		PreviousAssignments: segmentPrevious,
		NeighborhoodWindow:  window,
	}
}

func (s *Service) persistSnapshot(ctx context.Context, module model.Module, label string, result model.ScheduleResult, metrics model.SchedulingMetrics) error {
	snapshotID := uuid.New().String()
	snapshot := &model.PlanSnapshot{
		ID:        snapshotID,
		Module:    module,
		Label:     label,
		Metrics:   metrics.ToMap(),
		CreatedAt: s.now().UTC(),
	}
	for _, a := range result.Assignments {
		snapshot.Assignments = append(snapshot.Assignments, model.TaskAssignment{
			ID:               uuid.New().String(),
			PlanSnapshotID:   snapshotID,
			TaskID:           a.TaskID,
			ScheduledStart:   a.Start,
			ScheduledEnd:     a.End,
			DeviationMinutes: a.DeviationMinutes,
			TardinessMinutes: a.TardinessMinutes,
		})
	}
	return s.store.CreateSnapshot(ctx, snapshot)
}

// validWindows returns the task's preferred windows, dropping all of them when
// any is malformed. A bad window is not fatal to the run.
func validWindows(task *model.Task, logger *slog.Logger) []model.PreferredWindow {
	if len(task.PreferredWindows) == 0 {
		return nil
	}
	windows := make([]model.PreferredWindow, 0, len(task.PreferredWindows))
	for _, w := range task.PreferredWindows {
		if w.Start.IsZero() || w.End.IsZero() || !w.Start.Before(w.End) {
			logger.Warn("dropping malformed preferred windows", "task_id", task.ID)
			return nil
		}
		windows = append(windows, model.PreferredWindow{
			Start:  w.Start.UTC(),
			End:    w.End.UTC(),
			Weight: w.Weight,
		})
	}
	return windows
}

func buildMetrics(result model.ScheduleResult) model.SchedulingMetrics {
	metrics := model.SchedulingMetrics{
		ScheduledCount:   len(result.Assignments),
		UnscheduledCount: len(result.UnscheduledTasks),
	}
	for _, a := range result.Assignments {
		metrics.TotalDeviationMinutes += a.DeviationMinutes
		metrics.TotalTardinessMinutes += a.TardinessMinutes
	}
	return metrics
}
