package mcp

import (
	"context"

	"github.com/claude/traininglab/internal/models"
	"github.com/claude/traininglab/internal/storage"
	"github.com/claude/traininglab/internal/workout"
	"github.com/google/uuid"
)

// Library abstracts the workout library for MCP tools. Both *storage.DB
// (local) and HTTPClient (remote via REST API) satisfy this interface.
type Library interface {
	SaveWorkout(ctx context.Context, w models.LibraryWorkout) error
	ListWorkouts(ctx context.Context, typ workout.WorkoutType, limit int) ([]models.LibrarySummary, error)
	GetWorkout(ctx context.Context, id uuid.UUID) (*models.LibraryWorkout, error)
}

// Compile-time check: *storage.DB satisfies Library.
var _ Library = (*storage.DB)(nil)
