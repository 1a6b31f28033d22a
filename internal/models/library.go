package models

import (
	"time"

	"github.com/claude/traininglab/internal/workout"
	"github.com/google/uuid"
)

// Library workout sources.
const (
	SourceGenerated = "generated"
	SourceBuilt     = "built"
	SourceImported  = "imported"
)

// LibraryWorkout is a saved workout in the shared library.
type LibraryWorkout struct {
	ID            uuid.UUID           `json:"id"`
	Name          string              `json:"name"`
	Description   string              `json:"description"`
	Type          workout.WorkoutType `json:"workoutType,omitempty"`
	Segments      []workout.Segment   `json:"segments"`
	TotalDuration int                 `json:"totalDuration"`
	TSS           float64             `json:"tss"`
	Source        string              `json:"source"`
	Author        string              `json:"author,omitempty"`
	CreatedBy     string              `json:"createdBy,omitempty"`
	CreatedAt     time.Time           `json:"createdAt"`
}

// NewLibraryWorkout builds a library entry with a fresh ID. Segments are
// retimed and the derived totals recomputed so stored rows are consistent.
func NewLibraryWorkout(name, description string, typ workout.WorkoutType, segs []workout.Segment, source string) LibraryWorkout {
	segs = workout.Retime(segs)
	return LibraryWorkout{
		ID:            uuid.New(),
		Name:          name,
		Description:   description,
		Type:          typ,
		Segments:      segs,
		TotalDuration: workout.TotalDuration(segs),
		TSS:           workout.TSS(segs),
		Source:        source,
		CreatedAt:     time.Now().UTC(),
	}
}

// FromResult converts a compiled description into a library entry.
func FromResult(r *workout.Result) LibraryWorkout {
	w := NewLibraryWorkout(r.Name, r.Description, r.Type, r.Segments, SourceGenerated)
	w.TSS = r.TSS
	return w
}

// LibrarySummary is a library entry without its segment list.
type LibrarySummary struct {
	ID            uuid.UUID           `json:"id"`
	Name          string              `json:"name"`
	Type          workout.WorkoutType `json:"workoutType,omitempty"`
	TotalDuration int                 `json:"totalDuration"`
	TSS           float64             `json:"tss"`
	Source        string              `json:"source"`
	CreatedBy     string              `json:"createdBy,omitempty"`
	CreatedAt     time.Time           `json:"createdAt"`
}

// Summary drops the segment list.
func (w LibraryWorkout) Summary() LibrarySummary {
	return LibrarySummary{
		ID:            w.ID,
		Name:          w.Name,
		Type:          w.Type,
		TotalDuration: w.TotalDuration,
		TSS:           w.TSS,
		Source:        w.Source,
		CreatedBy:     w.CreatedBy,
		CreatedAt:     w.CreatedAt,
	}
}
