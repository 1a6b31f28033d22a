package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/claude/traininglab/internal/export"
	"github.com/claude/traininglab/internal/storage"
	"github.com/claude/traininglab/internal/workout"
	"github.com/go-chi/chi/v5"
)

type importResponse struct {
	Workout export.Workout `json:"workout"`
	Report  workout.Report `json:"report"`
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(chi.URLParam(r, "format"))
	ftp, err := s.ftpParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	var wo export.Workout
	if !decodeJSON(w, r, &wo) {
		return
	}
	wo.Name = strings.TrimSpace(wo.Name)
	if err := export.ValidateName(wo.Name); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	wo.Segments = workout.Retime(wo.Segments)
	if report := workout.Validate(wo.Segments); !report.Valid {
		writeJSON(w, http.StatusBadRequest, validateError{Error: "invalid workout", Errors: report.Errors})
		return
	}

	// Encode fully before writing headers so format errors can still be a 400.
	var buf bytes.Buffer
	err = export.Write(&buf, format, wo, ftp)
	if errors.Is(err, export.ErrUnknownFormat) || errors.Is(err, export.ErrFTPRequired) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		s.log.Error("export error", "format", format, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	s.observeExport(format)
	w.Header().Set("Content-Type", export.ContentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, wo.Name, format))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (s *Server) handleImportZWO(w http.ResponseWriter, r *http.Request) {
	filename := r.URL.Query().Get("filename")
	r.Body = http.MaxBytesReader(w, r.Body, export.MaxFileSize)
	wo, err := export.ParseZWO(r.Body)
	s.recordImport(r, filename, wo, err)
	if err != nil {
		s.log.Warn("zwo import rejected", "file", filename, "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, importResponse{Workout: wo, Report: workout.Validate(wo.Segments)})
}

// recordImport writes an import log entry when the store keeps one. Failures
// are logged and never fail the request.
func (s *Server) recordImport(r *http.Request, filename string, wo export.Workout, parseErr error) {
	il, ok := s.lib.(importLogger)
	if !ok {
		return
	}
	entry := storage.ImportLog{
		Login:       LoginFromRequest(r),
		Filename:    filename,
		Status:      storage.ImportOK,
		WorkoutName: wo.Name,
		Segments:    len(wo.Segments),
		DurationSec: workout.TotalDuration(wo.Segments),
	}
	if parseErr != nil {
		msg := parseErr.Error()
		entry.Status = storage.ImportRejected
		entry.ErrorMessage = &msg
	}
	if _, err := il.InsertImportLog(r.Context(), entry); err != nil {
		s.log.Warn("failed to record import", "error", err)
	}
}

func (s *Server) handleListImports(w http.ResponseWriter, r *http.Request) {
	il, ok := s.lib.(importLogger)
	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "import history not available"})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	logs, err := il.QueryImportLogs(r.Context(), limit)
	if err != nil {
		s.log.Error("import logs query error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, logs)
}
