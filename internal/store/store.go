package store

import (
	"context"

	"github.com/me/goplan/pkg/model"
)

// Store defines the persistence layer for goplan entities. The scheduling
// core reads tasks and meetings, reads the latest plan snapshot per module,
// and appends new snapshots; it never mutates tasks or meetings.
type Store interface {
	// Task CRUD. ListTasks returns tasks ordered by earliest_start.
	CreateTask(ctx context.Context, task *model.Task) error
	GetTask(ctx context.Context, id string) (*model.Task, error)
	ListTasks(ctx context.Context) ([]*model.Task, error)
	UpdateTask(ctx context.Context, task *model.Task) error
	DeleteTask(ctx context.Context, id string) error

	// Meeting CRUD. ListMeetings returns meetings ordered by start_time.
	CreateMeeting(ctx context.Context, meeting *model.Meeting) error
	GetMeeting(ctx context.Context, id string) (*model.Meeting, error)
	ListMeetings(ctx context.Context) ([]*model.Meeting, error)
	DeleteMeeting(ctx context.Context, id string) error

	// UpsertExternalMeeting creates or refreshes a meeting imported from an
	// external calendar, keyed by its external_id.
	UpsertExternalMeeting(ctx context.Context, meeting *model.Meeting) (*model.Meeting, error)

	// Snapshots are append-only; GetLatestSnapshot orders by creation time.
	CreateSnapshot(ctx context.Context, snapshot *model.PlanSnapshot) error
	GetLatestSnapshot(ctx context.Context, module model.Module) (*model.PlanSnapshot, error)

	// Lifecycle
	Close() error
	Migrate(ctx context.Context) error
}
