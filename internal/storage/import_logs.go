package storage

import (
	"context"
	"fmt"
	"time"
)

// Import statuses.
const (
	ImportOK       = "ok"
	ImportRejected = "rejected"
)

// ImportLog records one uploaded workout file and whether it parsed.
type ImportLog struct {
	ID           int64     `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	Login        string    `json:"login"`
	Filename     string    `json:"filename"`
	Status       string    `json:"status"`
	WorkoutName  string    `json:"workout_name"`
	Segments     int       `json:"segments"`
	DurationSec  int       `json:"duration_sec"`
	ErrorMessage *string   `json:"error_message"`
}

// InsertImportLog creates a new import log entry and returns its ID.
func (db *DB) InsertImportLog(ctx context.Context, log ImportLog) (int64, error) {
	var id int64
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO import_logs (login, filename, status, workout_name, segments, duration_sec, error_message)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)
		 RETURNING id`,
		log.Login, log.Filename, log.Status, log.WorkoutName, log.Segments, log.DurationSec, log.ErrorMessage,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting import log: %w", err)
	}
	return id, nil
}

// QueryImportLogs returns the most recent import logs, newest first.
func (db *DB) QueryImportLogs(ctx context.Context, limit int) ([]ImportLog, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, created_at, login, filename, status, workout_name, segments, duration_sec, error_message
		 FROM import_logs
		 ORDER BY created_at DESC
		 LIMIT $1`,
		ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("querying import logs: %w", err)
	}
	defer rows.Close()

	result := []ImportLog{}
	for rows.Next() {
		var l ImportLog
		if err := rows.Scan(&l.ID, &l.CreatedAt, &l.Login, &l.Filename, &l.Status,
			&l.WorkoutName, &l.Segments, &l.DurationSec, &l.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scanning import log: %w", err)
		}
		result = append(result, l)
	}
	return result, rows.Err()
}
