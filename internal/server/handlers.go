package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/claude/traininglab/internal/workout"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

const maxFTP = 2000

type segmentsRequest struct {
	Segments []workout.Segment `json:"segments"`
}

type segmentsResponse struct {
	Segments      []workout.Segment `json:"segments"`
	TotalDuration int               `json:"totalDuration"`
	TSS           float64           `json:"tss"`
	Changes       []string          `json:"changes,omitempty"`
}

func newSegmentsResponse(segs []workout.Segment) segmentsResponse {
	return segmentsResponse{
		Segments:      segs,
		TotalDuration: workout.TotalDuration(segs),
		TSS:           workout.TSS(segs),
	}
}

type loadResponse struct {
	TSS             float64 `json:"tss"`
	NormalizedPower float64 `json:"normalizedPower"`
	IntensityFactor float64 `json:"intensityFactor"`
	TotalDuration   int     `json:"totalDuration"`
}

type optimizeRequest struct {
	Segments []workout.Segment `json:"segments"`
	Options  workout.Options   `json:"options"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if p, ok := s.lib.(pinger); ok {
		if err := p.Ping(r.Context()); err != nil {
			s.log.Warn("health check: database unreachable", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "error": "database unreachable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userInfoFromContext(r))
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req workout.Request
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.FTP == 0 {
		req.FTP = s.defaultFTP
	}

	res, cached, err := s.compiler.Generate(req)
	if errors.Is(err, workout.ErrInvalidInput) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		s.log.Error("generate error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	s.observeCompile(res, cached)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleBuildIntervals(w http.ResponseWriter, r *http.Request) {
	var spec workout.IntervalSpec
	if !decodeJSON(w, r, &spec) {
		return
	}
	segs, err := workout.BuildIntervals(spec)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, newSegmentsResponse(segs))
}

func (s *Server) handleBuildCompound(w http.ResponseWriter, r *http.Request) {
	var spec workout.CompoundSpec
	if !decodeJSON(w, r, &spec) {
		return
	}
	segs, err := workout.BuildCompound(spec)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, newSegmentsResponse(segs))
}

func (s *Server) handleTSS(w http.ResponseWriter, r *http.Request) {
	var req segmentsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, loadResponse{
		TSS:             workout.TSS(req.Segments),
		NormalizedPower: workout.NormalizedPower(req.Segments),
		IntensityFactor: workout.IntensityFactor(req.Segments),
		TotalDuration:   workout.TotalDuration(req.Segments),
	})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req segmentsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, workout.Validate(req.Segments))
}

func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	var req optimizeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Segments) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "segments required"})
		return
	}
	segs, changes := workout.Optimize(req.Segments, req.Options)
	resp := newSegmentsResponse(segs)
	resp.Changes = changes
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	var req segmentsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, workout.Chart(workout.Retime(req.Segments)))
}

func (s *Server) handleZones(w http.ResponseWriter, r *http.Request) {
	ftp, err := s.ftpParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ftp":   ftp,
		"zones": workout.Zones(ftp),
	})
}

// ftpParam reads ?ftp=, falling back to the configured default.
func (s *Server) ftpParam(r *http.Request) (int, error) {
	v := r.URL.Query().Get("ftp")
	if v == "" {
		return s.defaultFTP, nil
	}
	ftp, err := strconv.Atoi(v)
	if err != nil || ftp < 1 || ftp > maxFTP {
		return 0, fmt.Errorf("ftp must be an integer between 1 and %d", maxFTP)
	}
	return ftp, nil
}

// decodeJSON reads a bounded JSON body into v, answering 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
