package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/claude/traininglab/internal/export"
	"github.com/claude/traininglab/internal/models"
	"github.com/claude/traininglab/internal/storage"
	"github.com/claude/traininglab/internal/workout"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// saveRequest is the JSON body for POST /api/v1/library.
type saveRequest struct {
	ID          *uuid.UUID          `json:"id,omitempty"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Type        workout.WorkoutType `json:"workoutType"`
	Segments    []workout.Segment   `json:"segments"`
	Source      string              `json:"source"`
	Author      string              `json:"author"`
}

// validateError carries validation failures to the client.
type validateError struct {
	Error  string   `json:"error"`
	Errors []string `json:"errors,omitempty"`
}

func (s *Server) requireLibrary(w http.ResponseWriter) bool {
	if s.lib == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "workout library not configured"})
		return false
	}
	return true
}

func (s *Server) handleListLibrary(w http.ResponseWriter, r *http.Request) {
	if !s.requireLibrary(w) {
		return
	}
	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = parsed
	}
	typ := workout.WorkoutType(strings.ToLower(r.URL.Query().Get("type")))

	list, err := s.lib.ListWorkouts(r.Context(), typ, limit)
	if err != nil {
		s.log.Error("list library error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleLibraryStats(w http.ResponseWriter, r *http.Request) {
	src, ok := s.lib.(statsSource)
	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "library stats not available"})
		return
	}
	stats, err := src.GetLibraryStats(r.Context())
	if err != nil {
		s.log.Error("library stats error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleGetLibrary(w http.ResponseWriter, r *http.Request) {
	if !s.requireLibrary(w) {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid workout ID"})
		return
	}

	lw, err := s.lib.GetWorkout(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		s.log.Error("get library error", "id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, lw)
}

func (s *Server) handleSaveLibrary(w http.ResponseWriter, r *http.Request) {
	if !s.requireLibrary(w) {
		return
	}
	var req saveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := export.ValidateName(req.Name); err != nil {
		writeJSON(w, http.StatusBadRequest, validateError{Error: err.Error()})
		return
	}
	switch req.Source {
	case "":
		req.Source = models.SourceBuilt
	case models.SourceGenerated, models.SourceBuilt, models.SourceImported:
	default:
		writeJSON(w, http.StatusBadRequest, validateError{Error: "unknown source " + strconv.Quote(req.Source)})
		return
	}
	segs := workout.Retime(req.Segments)
	if report := workout.Validate(segs); !report.Valid {
		writeJSON(w, http.StatusBadRequest, validateError{Error: "invalid workout", Errors: report.Errors})
		return
	}

	user := userInfoFromContext(r)
	lw := models.NewLibraryWorkout(req.Name, req.Description, req.Type, segs, req.Source)
	if req.ID != nil {
		lw.ID = *req.ID
	}
	lw.Author = req.Author
	lw.CreatedBy = user.Login

	if rec, ok := s.lib.(authorRecorder); ok {
		if err := rec.TouchAuthor(r.Context(), user.Login, user.DisplayName); err != nil {
			s.log.Warn("recording author failed", "login", user.Login, "error", err)
		}
	}
	err := s.lib.SaveWorkout(r.Context(), lw)
	if errors.Is(err, storage.ErrDuplicate) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		s.log.Error("save library error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	s.observeSave(lw)
	s.log.Info("workout saved", "id", lw.ID, "name", lw.Name, "source", lw.Source, "by", lw.CreatedBy)
	writeJSON(w, http.StatusCreated, lw)
}

func (s *Server) handleDeleteLibrary(w http.ResponseWriter, r *http.Request) {
	if !s.requireLibrary(w) {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid workout ID"})
		return
	}
	err = s.lib.DeleteWorkout(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		s.log.Error("delete library error", "id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
