package mcp

import (
	"context"
	"log/slog"
	"time"

	"github.com/claude/traininglab/internal/cache"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type contextKey int

const authorKey contextKey = iota

// AuthorFromContext extracts the caller login injected by the transport layer.
func AuthorFromContext(ctx context.Context) string {
	if login, ok := ctx.Value(authorKey).(string); ok && login != "" {
		return login
	}
	return "local"
}

// WithAuthor returns a context with the given caller login.
func WithAuthor(ctx context.Context, login string) context.Context {
	return context.WithValue(ctx, authorKey, login)
}

// New creates an MCP server with all tools and resources registered.
// lib may be nil; the library tools then report that no library is configured.
func New(lib Library, defaultFTP int, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("TrainingLab", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("TrainingLab cycling workout server. Turn plain-language descriptions into structured interval workouts, "+
			"build intervals explicitly, score and tune them (TSS, duration, power caps), and save them to a shared library. "+
			"Builder parameters take percent of FTP; segment objects carry power as a fraction of FTP (1.0 = FTP). "+
			"Durations are seconds unless a parameter says otherwise."),
	)

	h := &handlers{lib: lib, ftp: defaultFTP, compiler: cache.NewCompiler(8, time.Hour), log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolParseDescription, Handler: h.parseDescription},
		server.ServerTool{Tool: toolCreateIntervals, Handler: h.createIntervals},
		server.ServerTool{Tool: toolCreateComplexIntervals, Handler: h.createComplexIntervals},
		server.ServerTool{Tool: toolCalculateTSS, Handler: h.calculateTSS},
		server.ServerTool{Tool: toolOptimizeWorkout, Handler: h.optimizeWorkout},
		server.ServerTool{Tool: toolGetPowerZones, Handler: h.getPowerZones},
		server.ServerTool{Tool: toolValidateWorkout, Handler: h.validateWorkout},
		server.ServerTool{Tool: toolExportWorkout, Handler: h.exportWorkout},
		server.ServerTool{Tool: toolSaveWorkout, Handler: h.saveWorkout},
		server.ServerTool{Tool: toolListWorkouts, Handler: h.listWorkouts},
		server.ServerTool{Tool: toolGetWorkout, Handler: h.getWorkout},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resPowerZones, Handler: h.powerZones},
		server.ServerResource{Resource: resRecentWorkouts, Handler: h.recentWorkouts},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	lib      Library
	ftp      int
	compiler *cache.Compiler
	log      *slog.Logger
}

// --- Resource definitions ---

var resPowerZones = mcp.NewResource(
	"traininglab://power_zones",
	"Power Zones",
	mcp.WithResourceDescription("The seven training zones with percent-of-FTP bands and watt ranges at the configured FTP"),
	mcp.WithMIMEType("application/json"),
)

var resRecentWorkouts = mcp.NewResource(
	"traininglab://recent_workouts",
	"Recent Workouts",
	mcp.WithResourceDescription("The ten most recently saved library workouts"),
	mcp.WithMIMEType("application/json"),
)
