package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/claude/traininglab/internal/models"
	"github.com/claude/traininglab/internal/storage"
	"github.com/claude/traininglab/internal/workout"
	"github.com/google/uuid"
)

// newTestServer creates an httptest server that routes requests to handler functions
// keyed by path. Verifies the HTTP client sends correct paths and query params.
func newTestServer(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.URL.Path]
		if !ok {
			t.Errorf("unexpected request path: %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
}

func writeTestJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatal(err)
	}
}

// TestListWorkouts verifies the HTTP client sends the filter and limit and
// parses the summaries.
func TestListWorkouts(t *testing.T) {
	id := uuid.New()
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/library": func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("type"); got != "threshold" {
				t.Errorf("type=%q, want threshold", got)
			}
			if got := r.URL.Query().Get("limit"); got != "5" {
				t.Errorf("limit=%q, want 5", got)
			}
			writeTestJSON(t, w, []models.LibrarySummary{
				{ID: id, Name: "4x8min Threshold", Type: workout.TypeThreshold, TotalDuration: 3600, TSS: 78},
			})
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL, "")
	list, err := client.ListWorkouts(context.Background(), workout.TypeThreshold, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 1 || list[0].ID != id || list[0].TSS != 78 {
		t.Errorf("list = %+v", list)
	}
}

// TestGetWorkout verifies a library workout decodes with its segments, and
// that a 404 maps to storage.ErrNotFound.
func TestGetWorkout(t *testing.T) {
	id := uuid.New()
	missing := uuid.New()
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/library/" + id.String(): func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, models.LibraryWorkout{
				ID:   id,
				Name: "Ramp",
				Segments: []workout.Segment{
					workout.Ramp(workout.KindWarmup, 600, 0.5, 0.7),
					{Kind: workout.KindSteadyState, Duration: 1200, Start: 600, Power: 0.8},
				},
				CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			})
		},
		"/api/v1/library/" + missing.String(): func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"workout not found"}`))
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL, "")
	got, err := client.GetWorkout(context.Background(), id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Segments) != 2 || got.Segments[1].Power != 0.8 || got.Segments[0].PowerHigh != 0.7 {
		t.Errorf("segments = %+v", got.Segments)
	}

	if _, err := client.GetWorkout(context.Background(), missing); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

// TestSaveWorkout verifies the client posts with the API key and maps 409
// to storage.ErrDuplicate.
func TestSaveWorkout(t *testing.T) {
	var posted map[string]any
	status := http.StatusCreated
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/library": func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("method = %s, want POST", r.Method)
			}
			if got := r.Header.Get("X-API-Key"); got != "k" {
				t.Errorf("X-API-Key = %q, want k", got)
			}
			if err := json.NewDecoder(r.Body).Decode(&posted); err != nil {
				t.Fatal(err)
			}
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{}`))
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL, "k")
	lw := models.NewLibraryWorkout("Steady", "", workout.TypeEndurance,
		[]workout.Segment{workout.Flat(workout.KindSteadyState, 3600, 0.65)}, models.SourceBuilt)
	if err := client.SaveWorkout(context.Background(), lw); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if posted["id"] != lw.ID.String() || posted["name"] != "Steady" || posted["workoutType"] != "endurance" {
		t.Errorf("posted = %v", posted)
	}

	status = http.StatusConflict
	if err := client.SaveWorkout(context.Background(), lw); !errors.Is(err, storage.ErrDuplicate) {
		t.Errorf("error = %v, want ErrDuplicate", err)
	}
}

// TestHTTPClientServerError verifies the client returns an error on non-200 responses.
func TestHTTPClientServerError(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/library": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"database down"}`))
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL, "")
	_, err := client.ListWorkouts(context.Background(), "", 0)
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
}
