// Package calsync imports busy events from an external calendar feed into the
// meetings table and optionally triggers a scheduling run afterwards.
package calsync

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Event is one busy interval reported by a calendar feed.
type Event struct {
	ID    string    `json:"id"`
	Title string    `json:"title"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// EventSource fetches the current event list from a calendar provider.
type EventSource interface {
	Fetch(ctx context.Context) ([]Event, error)
}

// FeedSource reads events from an HTTP endpoint returning a JSON array of
// Event objects.
type FeedSource struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

// NewFeedSource creates a source for the given feed URL.
func NewFeedSource(url string, logger *slog.Logger) *FeedSource {
	return &FeedSource{
		url:    url,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger.With("component", "calsync"),
	}
}

// Fetch implements EventSource.
func (f *FeedSource) Fetch(ctx context.Context) ([]Event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned %s", resp.Status)
	}

	var events []Event
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}
	return events, nil
}
