package server

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/claude/traininglab/internal/cache"
	"github.com/claude/traininglab/internal/metrics"
	"github.com/claude/traininglab/internal/models"
	"github.com/claude/traininglab/internal/storage"
	"github.com/claude/traininglab/internal/workout"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"tailscale.com/client/tailscale/apitype"
)

// Library is the workout library store behind the /library endpoints.
type Library interface {
	SaveWorkout(ctx context.Context, w models.LibraryWorkout) error
	ListWorkouts(ctx context.Context, typ workout.WorkoutType, limit int) ([]models.LibrarySummary, error)
	GetWorkout(ctx context.Context, id uuid.UUID) (*models.LibraryWorkout, error)
	DeleteWorkout(ctx context.Context, id uuid.UUID) error
}

// WhoIser resolves a tailnet peer address to its owner. The tsnet local
// client satisfies it.
type WhoIser interface {
	WhoIs(ctx context.Context, remoteAddr string) (*apitype.WhoIsResponse, error)
}

// authorRecorder is implemented by stores that track who saved workouts.
type authorRecorder interface {
	TouchAuthor(ctx context.Context, login, displayName string) error
}

// statsSource is implemented by stores that can aggregate the library.
type statsSource interface {
	GetLibraryStats(ctx context.Context) (*storage.LibraryStats, error)
}

// importLogger is implemented by stores that keep a history of file imports.
type importLogger interface {
	InsertImportLog(ctx context.Context, log storage.ImportLog) (int64, error)
	QueryImportLogs(ctx context.Context, limit int) ([]storage.ImportLog, error)
}

// pinger is implemented by stores whose reachability /healthz reports.
type pinger interface {
	Ping(ctx context.Context) error
}

var (
	_ Library        = (*storage.DB)(nil)
	_ pinger         = (*storage.DB)(nil)
	_ authorRecorder = (*storage.DB)(nil)
	_ statsSource    = (*storage.DB)(nil)
	_ importLogger   = (*storage.DB)(nil)
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	lib        Library
	whois      WhoIser
	log        *slog.Logger
	apiKey     string
	defaultFTP int
	compiler   *cache.Compiler
	metrics    *metrics.Manager
	router     chi.Router
}

// New creates a new Server with all routes configured. lib may be nil, in
// which case the library endpoints answer 503.
func New(lib Library, apiKey string, defaultFTP int, log *slog.Logger) *Server {
	s := &Server{
		lib:        lib,
		log:        log,
		apiKey:     apiKey,
		defaultFTP: defaultFTP,
		compiler:   cache.NewCompiler(16, time.Hour),
		router:     chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(s.requestMetrics)
	s.router.Use(CORS)
	s.router.Use(s.identity)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/api/v1/me", s.handleMe)

	// Stateless workout computation
	s.router.Route("/api/v1/workouts", func(r chi.Router) {
		r.Post("/generate", s.handleGenerate)
		r.Post("/intervals", s.handleBuildIntervals)
		r.Post("/compound", s.handleBuildCompound)
		r.Post("/tss", s.handleTSS)
		r.Post("/validate", s.handleValidate)
		r.Post("/optimize", s.handleOptimize)
		r.Post("/chart", s.handleChart)
	})
	s.router.Get("/api/v1/zones", s.handleZones)
	s.router.Post("/api/v1/export/{format}", s.handleExport)
	s.router.Post("/api/v1/import/zwo", s.handleImportZWO)
	s.router.Get("/api/v1/imports", s.handleListImports)

	// Library reads are open (tsnet handles access), writes need the API key
	s.router.Route("/api/v1/library", func(r chi.Router) {
		r.Get("/", s.handleListLibrary)
		r.Get("/stats", s.handleLibraryStats)
		r.Get("/{id}", s.handleGetLibrary)
		r.Group(func(r chi.Router) {
			r.Use(APIKeyAuth(s.apiKey))
			r.Post("/", s.handleSaveLibrary)
			r.Delete("/{id}", s.handleDeleteLibrary)
		})
	})
}

// SetMetrics enables request and domain metrics and serves g on /metrics.
func (s *Server) SetMetrics(m *metrics.Manager, g prometheus.Gatherer) {
	s.metrics = m
	s.router.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
}

func (s *Server) observeCompile(res *workout.Result, cached bool) {
	if s.metrics == nil {
		return
	}
	s.metrics.CounterCompiles.WithLabelValues(string(res.Type), strconv.FormatBool(cached)).Inc()
	s.metrics.HistWorkoutTSS.Observe(res.TSS)
}

func (s *Server) observeSave(lw models.LibraryWorkout) {
	if s.metrics == nil {
		return
	}
	s.metrics.CounterLibrarySaves.WithLabelValues(lw.Source).Inc()
	s.metrics.HistWorkoutTSS.Observe(lw.TSS)
}

func (s *Server) observeExport(format string) {
	if s.metrics != nil {
		s.metrics.CounterExports.WithLabelValues(format).Inc()
	}
}

// SetTailscale enables Tailscale identity lookup for incoming requests.
func (s *Server) SetTailscale(whois WhoIser) {
	s.whois = whois
}

// MountMCP serves an MCP streamable HTTP handler at /mcp.
func (s *Server) MountMCP(h http.Handler) {
	s.router.Handle("/mcp", h)
}
