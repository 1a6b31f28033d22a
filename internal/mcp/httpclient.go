package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/claude/traininglab/internal/models"
	"github.com/claude/traininglab/internal/storage"
	"github.com/claude/traininglab/internal/workout"
	"github.com/google/uuid"
)

// HTTPClient implements Library by calling the TrainingLab REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// the library lives on the remote server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies Library.
var _ Library = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL. apiKey
// is sent on writes.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) do(ctx context.Context, method, path string, params url.Values, payload any, want int) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("httpclient: encode body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: read body: %w", err)
	}

	switch {
	case resp.StatusCode == want:
		return data, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, storage.ErrNotFound
	case resp.StatusCode == http.StatusConflict:
		return nil, storage.ErrDuplicate
	}
	return nil, fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, bytes.TrimSpace(data))
}

// SaveWorkout posts w to the library. The server records the caller as creator.
func (c *HTTPClient) SaveWorkout(ctx context.Context, w models.LibraryWorkout) error {
	payload := map[string]any{
		"id":          w.ID,
		"name":        w.Name,
		"description": w.Description,
		"workoutType": w.Type,
		"segments":    w.Segments,
		"source":      w.Source,
		"author":      w.Author,
	}
	_, err := c.do(ctx, http.MethodPost, "/api/v1/library", nil, payload, http.StatusCreated)
	return err
}

func (c *HTTPClient) ListWorkouts(ctx context.Context, typ workout.WorkoutType, limit int) ([]models.LibrarySummary, error) {
	params := url.Values{}
	if typ != "" {
		params.Set("type", string(typ))
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	body, err := c.do(ctx, http.MethodGet, "/api/v1/library", params, nil, http.StatusOK)
	if err != nil {
		return nil, err
	}
	var result []models.LibrarySummary
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("httpclient: decode library: %w", err)
	}
	return result, nil
}

func (c *HTTPClient) GetWorkout(ctx context.Context, id uuid.UUID) (*models.LibraryWorkout, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/v1/library/"+id.String(), nil, nil, http.StatusOK)
	if err != nil {
		return nil, err
	}
	var result models.LibraryWorkout
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("httpclient: decode workout: %w", err)
	}
	return &result, nil
}
