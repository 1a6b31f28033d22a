package storage

import (
	"context"
	"fmt"
	"time"
)

// LibraryStats holds aggregate statistics about the workout library.
type LibraryStats struct {
	TotalWorkouts int64      `json:"total_workouts"`
	TotalDuration int64      `json:"total_duration_sec"`
	TotalTSS      float64    `json:"total_tss"`
	Authors       int64      `json:"authors"`
	Earliest      *time.Time `json:"earliest"`
	Latest        *time.Time `json:"latest"`
	ByType        []TypeStat `json:"by_type"`
	BySource      []TypeStat `json:"by_source"`
}

// TypeStat holds summary stats for one workout type or source.
type TypeStat struct {
	Name          string  `json:"name"`
	Count         int64   `json:"count"`
	TotalDuration int64   `json:"total_duration_sec"`
	AvgTSS        float64 `json:"avg_tss"`
}

// GetLibraryStats returns aggregate statistics for the library.
func (db *DB) GetLibraryStats(ctx context.Context) (*LibraryStats, error) {
	stats := &LibraryStats{ByType: []TypeStat{}, BySource: []TypeStat{}}

	err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(total_duration), 0), COALESCE(SUM(tss), 0),
		        COUNT(DISTINCT created_by), MIN(created_at), MAX(created_at)
		 FROM library_workouts`,
	).Scan(&stats.TotalWorkouts, &stats.TotalDuration, &stats.TotalTSS,
		&stats.Authors, &stats.Earliest, &stats.Latest)
	if err != nil {
		return nil, fmt.Errorf("counting library workouts: %w", err)
	}

	if stats.ByType, err = db.groupStats(ctx, "workout_type"); err != nil {
		return nil, err
	}
	if stats.BySource, err = db.groupStats(ctx, "source"); err != nil {
		return nil, err
	}
	return stats, nil
}

// groupStats aggregates by column, which must be a trusted column name.
func (db *DB) groupStats(ctx context.Context, column string) ([]TypeStat, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+column+`, COUNT(*), COALESCE(SUM(total_duration), 0), COALESCE(AVG(tss), 0)
		 FROM library_workouts
		 GROUP BY `+column+`
		 ORDER BY COUNT(*) DESC, `+column)
	if err != nil {
		return nil, fmt.Errorf("querying workouts by %s: %w", column, err)
	}
	defer rows.Close()

	result := []TypeStat{}
	for rows.Next() {
		var s TypeStat
		if err := rows.Scan(&s.Name, &s.Count, &s.TotalDuration, &s.AvgTSS); err != nil {
			return nil, fmt.Errorf("scanning %s stat: %w", column, err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}
