package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/claude/traininglab/internal/models"
	"github.com/claude/traininglab/internal/workout"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when a library workout does not exist.
	ErrNotFound = errors.New("workout not found")
	// ErrDuplicate is returned when a workout ID is already taken.
	ErrDuplicate = errors.New("workout already exists")
)

const uniqueViolation = "23505"

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// ClampLimit maps a requested page size into [1, MaxListLimit]; zero or
// negative selects DefaultListLimit.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	}
	return limit
}

// SaveWorkout inserts a library workout. The creating author, if any, is
// recorded in the same transaction.
func (db *DB) SaveWorkout(ctx context.Context, w models.LibraryWorkout) error {
	segments, err := json.Marshal(w.Segments)
	if err != nil {
		return fmt.Errorf("encoding segments: %w", err)
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if w.CreatedBy != "" {
		if err := upsertAuthor(ctx, tx, w.CreatedBy, ""); err != nil {
			return err
		}
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO library_workouts (id, name, description, workout_type, segments,
		 total_duration, tss, source, author, created_by, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NULLIF($10, ''),$11)`,
		w.ID, w.Name, w.Description, string(w.Type), segments,
		w.TotalDuration, w.TSS, w.Source, w.Author, w.CreatedBy, w.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicate, w.ID)
	}
	if err != nil {
		return fmt.Errorf("inserting library workout: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing library workout: %w", err)
	}
	return nil
}

// ListWorkouts returns the most recent library workouts, optionally filtered
// by type.
func (db *DB) ListWorkouts(ctx context.Context, typ workout.WorkoutType, limit int) ([]models.LibrarySummary, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, name, workout_type, total_duration, tss, source,
		 COALESCE(created_by, ''), created_at
		 FROM library_workouts
		 WHERE $1 = '' OR workout_type = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		string(typ), ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("querying library workouts: %w", err)
	}
	defer rows.Close()

	result := []models.LibrarySummary{}
	for rows.Next() {
		var s models.LibrarySummary
		var typ string
		if err := rows.Scan(&s.ID, &s.Name, &typ, &s.TotalDuration, &s.TSS, &s.Source,
			&s.CreatedBy, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning library workout: %w", err)
		}
		s.Type = workout.WorkoutType(typ)
		result = append(result, s)
	}
	return result, rows.Err()
}

// GetWorkout retrieves a library workout with its segments.
func (db *DB) GetWorkout(ctx context.Context, id uuid.UUID) (*models.LibraryWorkout, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT id, name, description, workout_type, segments, total_duration, tss,
		 source, author, COALESCE(created_by, ''), created_at
		 FROM library_workouts
		 WHERE id = $1`,
		id)

	var w models.LibraryWorkout
	var typ string
	var segments []byte
	err := row.Scan(&w.ID, &w.Name, &w.Description, &typ, &segments, &w.TotalDuration, &w.TSS,
		&w.Source, &w.Author, &w.CreatedBy, &w.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying library workout: %w", err)
	}
	w.Type = workout.WorkoutType(typ)
	if err := json.Unmarshal(segments, &w.Segments); err != nil {
		return nil, fmt.Errorf("decoding segments: %w", err)
	}
	return &w, nil
}

// DeleteWorkout removes a library workout.
func (db *DB) DeleteWorkout(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM library_workouts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting library workout: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
