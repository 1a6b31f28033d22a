package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/claude/traininglab/internal/workout"
	"github.com/google/uuid"
)

// ErrExists is returned when the library already holds a workout with the
// posted ID.
var ErrExists = errors.New("workout already in library")

// Payload is the body of POST /api/v1/library.
type Payload struct {
	ID          uuid.UUID           `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Type        workout.WorkoutType `json:"workoutType,omitempty"`
	Segments    []workout.Segment   `json:"segments"`
	Source      string              `json:"source"`
	Author      string              `json:"author,omitempty"`
}

// Client sends workouts to the TrainingLab server over HTTP.
type Client struct {
	serverURL  string
	apiKey     string
	httpClient *http.Client
	backoff    time.Duration
}

// NewClient creates a new HTTP client for the TrainingLab server.
func NewClient(serverURL, apiKey string) *Client {
	return &Client{
		serverURL: strings.TrimRight(serverURL, "/"),
		apiKey:    apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		backoff: time.Second,
	}
}

// Ping checks the server is reachable before a run.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.serverURL+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("contacting server: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed (status %d)", resp.StatusCode)
	}
	return nil
}

// SaveWorkout POSTs p to the library endpoint. Network errors and 5xx
// responses are retried up to 3 times with exponential backoff; a 409
// returns ErrExists.
func (c *Client) SaveWorkout(ctx context.Context, p Payload) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}

	var lastErr error
	for attempt := range 3 {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.backoff << uint(attempt-1)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL+"/api/v1/library", bytes.NewReader(data))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-API-Key", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusCreated:
			return nil
		case resp.StatusCode == http.StatusConflict:
			return ErrExists
		case resp.StatusCode < 500:
			return fmt.Errorf("upload rejected (status %d): %s", resp.StatusCode, bytes.TrimSpace(body))
		}
		lastErr = fmt.Errorf("upload failed (status %d): %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	return fmt.Errorf("after 3 attempts: %w", lastErr)
}
