package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/me/goplan/pkg/model"
)

// Client is a thin JSON client for the goplan API.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a client for the given server URL.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 60 * time.Second},
		logger:  logger.With("component", "client"),
	}
}

// do performs a request and decodes the envelope's data into out (when
// non-nil). API-level errors come back as *model.APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("api call", "method", method, "path", path)
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var envelope struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
		Error  *model.APIError `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("%s %s: decode response (%s): %w", method, path, resp.Status, err)
	}
	if envelope.Error != nil {
		return envelope.Error
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s %s: %s", method, path, resp.Status)
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("%s %s: decode data: %w", method, path, err)
		}
	}
	return nil
}

// --- typed helpers ---

func (c *Client) CreateTask(ctx context.Context, payload model.TaskCreate) (*model.Task, error) {
	var task model.Task
	if err := c.do(ctx, http.MethodPost, "/api/v1/tasks/", payload, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) ListTasks(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if err := c.do(ctx, http.MethodGet, "/api/v1/tasks/", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/tasks/"+id+"/", nil, nil)
}

func (c *Client) CreateMeeting(ctx context.Context, payload model.MeetingCreate) (*model.Meeting, error) {
	var meeting model.Meeting
	if err := c.do(ctx, http.MethodPost, "/api/v1/meetings/", payload, &meeting); err != nil {
		return nil, err
	}
	return &meeting, nil
}

func (c *Client) ListMeetings(ctx context.Context) ([]model.Meeting, error) {
	var meetings []model.Meeting
	if err := c.do(ctx, http.MethodGet, "/api/v1/meetings/", nil, &meetings); err != nil {
		return nil, err
	}
	return meetings, nil
}

func (c *Client) DeleteMeeting(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/meetings/"+id+"/", nil, nil)
}

func (c *Client) RunSchedule(ctx context.Context, payload model.ScheduleRunRequest) (*model.ScheduleRunResponse, error) {
	var run model.ScheduleRunResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/scheduler/run", payload, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

func (c *Client) RunSWOSchedule(ctx context.Context, payload model.ScheduleRunRequest) (*model.ScheduleRunResponse, error) {
	var run model.ScheduleRunResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/scheduler/run-swo", payload, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

func (c *Client) LatestSnapshot(ctx context.Context, module model.Module) (*model.PlanSnapshot, error) {
	var snapshot model.PlanSnapshot
	path := "/api/v1/scheduler/snapshots/latest?module=" + string(module)
	if err := c.do(ctx, http.MethodGet, path, nil, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	var health map[string]any
	if err := c.do(ctx, http.MethodGet, "/api/v1/health", nil, &health); err != nil {
		return nil, err
	}
	return health, nil
}
