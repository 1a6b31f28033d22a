package models

import (
	"testing"

	"github.com/claude/traininglab/internal/workout"
	"github.com/google/uuid"
)

// TestNewLibraryWorkout verifies segments are retimed and totals derived.
func TestNewLibraryWorkout(t *testing.T) {
	segs := []workout.Segment{
		workout.Ramp(workout.KindWarmup, 600, 0.5, 0.7),
		workout.Flat(workout.KindSteadyState, 3000, 1.0),
	}
	w := NewLibraryWorkout("Hour", "", workout.TypeThreshold, segs, SourceBuilt)

	if w.ID == uuid.Nil {
		t.Error("ID not assigned")
	}
	if w.Segments[1].Start != 600 {
		t.Errorf("second segment start = %d, want 600", w.Segments[1].Start)
	}
	if w.TotalDuration != 3600 {
		t.Errorf("TotalDuration = %d, want 3600", w.TotalDuration)
	}
	if w.TSS != workout.TSS(w.Segments) || w.TSS <= 0 {
		t.Errorf("TSS = %v", w.TSS)
	}
	if w.CreatedAt.Location().String() != "UTC" {
		t.Errorf("CreatedAt not UTC: %v", w.CreatedAt)
	}
}

// TestFromResult verifies generated workouts keep their name, type and TSS.
func TestFromResult(t *testing.T) {
	res, err := workout.Generate(workout.Request{Description: "4x5 minute threshold intervals"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	w := FromResult(res)
	if w.Name != res.Name || w.Type != workout.TypeThreshold || w.Source != SourceGenerated {
		t.Errorf("workout = %+v", w)
	}
	if w.TSS != res.TSS || w.TotalDuration != 3600 {
		t.Errorf("totals = %d s / %v, want 3600 / %v", w.TotalDuration, w.TSS, res.TSS)
	}

	sum := w.Summary()
	if sum.ID != w.ID || sum.TotalDuration != w.TotalDuration || sum.Source != w.Source {
		t.Errorf("summary = %+v", sum)
	}
}
