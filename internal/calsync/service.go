package calsync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/me/goplan/internal/planner"
	"github.com/me/goplan/internal/store"
	"github.com/me/goplan/pkg/model"
)

// feedSourceTag marks meetings imported from a calendar feed.
const feedSourceTag = "feed"

// syncRunLabel labels the snapshot written by a post-sync scheduling run.
const syncRunLabel = "feed-sync"

// Result reports what one sync pass did.
type Result struct {
	ImportedEvents int
	SchedulerRan   bool
}

// Service synchronizes meetings from an event source and re-plans afterwards.
type Service struct {
	store   store.Store
	planner *planner.Service
	source  EventSource
	logger  *slog.Logger
}

// NewService creates a sync service over the given source.
func NewService(st store.Store, pl *planner.Service, source EventSource, logger *slog.Logger) *Service {
	return &Service{
		store:   st,
		planner: pl,
		source:  source,
		logger:  logger.With("component", "calsync"),
	}
}

// Sync imports all events from the source, upserting by external ID. When
// anything was imported and runScheduler is set, a CP run labeled "feed-sync"
// follows; its unscheduled count is logged but does not fail the sync.
func (s *Service) Sync(ctx context.Context, runScheduler bool) (Result, error) {
	events, err := s.source.Fetch(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("fetch events: %w", err)
	}

	count := 0
	now := time.Now().UTC()
	for _, event := range events {
		if event.ID == "" || !event.Start.Before(event.End) {
			s.logger.Warn("skipping malformed feed event", "event_id", event.ID)
			continue
		}
		title := event.Title
		if title == "" {
			title = "(No title)"
		}
		_, err := s.store.UpsertExternalMeeting(ctx, &model.Meeting{
			ID:         uuid.New().String(),
			Title:      title,
			StartTime:  event.Start.UTC(),
			EndTime:    event.End.UTC(),
			ExternalID: event.ID,
			Source:     feedSourceTag,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
		if err != nil {
			return Result{}, fmt.Errorf("upsert meeting %s: %w", event.ID, err)
		}
		count++
	}

	result := Result{ImportedEvents: count}
	if runScheduler && count > 0 {
		_, metrics, err := s.planner.RunCP(ctx, syncRunLabel, nil)
		if err != nil {
			return result, fmt.Errorf("post-sync scheduling run: %w", err)
		}
		result.SchedulerRan = true
		s.logger.Info("post-sync scheduling run complete",
			"scheduled", metrics.ScheduledCount,
			"unscheduled", metrics.UnscheduledCount,
		)
		if metrics.UnscheduledCount > 0 {
			s.logger.Warn("post-sync run left tasks unscheduled", "count", metrics.UnscheduledCount)
		}
	}
	return result, nil
}

// StartCron schedules periodic syncs (with a scheduling run) using the given
// cron spec. The returned cron must be stopped by the caller on shutdown.
func (s *Service) StartCron(spec string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		result, err := s.Sync(ctx, true)
		if err != nil {
			s.logger.Error("periodic sync failed", "error", err)
			return
		}
		s.logger.Info("periodic sync complete", "imported", result.ImportedEvents, "scheduler_ran", result.SchedulerRan)
	})
	if err != nil {
		return nil, fmt.Errorf("invalid sync cron spec %q: %w", spec, err)
	}
	c.Start()
	return c, nil
}
