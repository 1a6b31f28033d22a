package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/claude/traininglab/internal/export"
	"github.com/claude/traininglab/internal/models"
	"github.com/claude/traininglab/internal/workout"
	"github.com/google/uuid"
)

// importNamespace seeds the content-derived IDs of imported files, so the
// same file always maps to the same library entry.
var importNamespace = uuid.MustParse("6f1c2a8e-4b7d-5e93-9a0c-3d2e1f4b5a69")

const lastRunKey = "last_run"

// Stats tracks upload progress.
type Stats struct {
	FilesTotal    int
	FilesUploaded int
	FilesSkipped  int
	FilesExisting int
	FilesErrored  int
}

// Uploader walks a directory of .zwo files and saves each one to the
// TrainingLab library.
type Uploader struct {
	client *Client
	state  *StateDB
	dir    string
	dryRun bool
	log    *slog.Logger
	stats  Stats
}

// New creates a new Uploader.
func New(client *Client, state *StateDB, dir string, dryRun bool, log *slog.Logger) *Uploader {
	return &Uploader{
		client: client,
		state:  state,
		dir:    dir,
		dryRun: dryRun,
		log:    log,
	}
}

// ImportID returns the library ID for a workout file's content.
func ImportID(content []byte) uuid.UUID {
	return uuid.NewSHA1(importNamespace, content)
}

// Run executes the upload pipeline. Files that fail to parse are counted and
// skipped; a server failure aborts the run.
func (u *Uploader) Run(ctx context.Context) (*Stats, error) {
	u.stats = Stats{}
	files, err := FindWorkoutFiles(u.dir)
	if err != nil {
		return &u.stats, err
	}
	u.log.Info("found workout files", "dir", u.dir, "files", len(files))

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return &u.stats, err
		}
		if err := u.processFile(ctx, f); err != nil {
			return &u.stats, fmt.Errorf("uploading %s: %w", f, err)
		}
	}

	if !u.dryRun {
		if err := u.state.SetSyncState(lastRunKey, time.Now().UTC().Format(time.RFC3339)); err != nil {
			u.log.Warn("failed to save sync state", "error", err)
		}
	}
	return &u.stats, nil
}

// FindWorkoutFiles returns every .zwo file under dir in lexical order.
func FindWorkoutFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".zwo") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}
	return files, nil
}

func (u *Uploader) processFile(ctx context.Context, path string) error {
	u.stats.FilesTotal++

	relPath, _ := filepath.Rel(u.dir, path)
	info, err := os.Stat(path)
	if err != nil {
		u.log.Warn("stat failed", "file", relPath, "error", err)
		u.stats.FilesErrored++
		return nil
	}
	if info.Size() > export.MaxFileSize {
		u.log.Warn("file too large", "file", relPath, "size", info.Size())
		u.stats.FilesErrored++
		return nil
	}

	hash, err := HashFile(path)
	if err != nil {
		u.log.Warn("hash failed", "file", relPath, "error", err)
		u.stats.FilesErrored++
		return nil
	}

	uploaded, err := u.state.IsUploaded(relPath, info.Size(), hash)
	if err != nil {
		u.log.Warn("state check failed", "file", relPath, "error", err)
		u.stats.FilesErrored++
		return nil
	}
	if uploaded {
		u.stats.FilesSkipped++
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		u.log.Warn("read failed", "file", relPath, "error", err)
		u.stats.FilesErrored++
		return nil
	}
	p, err := payloadFor(data, relPath)
	if err != nil {
		u.log.Warn("skipping invalid workout", "file", relPath, "error", err)
		u.stats.FilesErrored++
		return nil
	}

	if u.dryRun {
		u.log.Info("dry-run: would upload",
			"file", relPath,
			"name", p.Name,
			"segments", len(p.Segments),
			"duration", workout.FormatDuration(workout.TotalDuration(p.Segments)),
		)
		u.stats.FilesUploaded++
		return nil
	}

	err = u.client.SaveWorkout(ctx, p)
	switch {
	case errors.Is(err, ErrExists):
		u.stats.FilesExisting++
	case err != nil:
		return err
	default:
		u.stats.FilesUploaded++
		u.log.Info("uploaded workout", "file", relPath, "name", p.Name, "id", p.ID)
	}

	if err := u.state.MarkUploaded(relPath, info.Size(), hash, p.ID); err != nil {
		u.log.Warn("failed to mark uploaded", "file", relPath, "error", err)
	}
	return nil
}

// payloadFor parses a .zwo file and checks it is acceptable to the library.
// Unnamed workouts take their file name.
func payloadFor(data []byte, relPath string) (Payload, error) {
	w, err := export.ParseZWO(bytes.NewReader(data))
	if err != nil {
		return Payload{}, err
	}
	if w.Name == "" {
		w.Name = strings.TrimSuffix(filepath.Base(relPath), filepath.Ext(relPath))
	}
	if err := export.ValidateName(w.Name); err != nil {
		return Payload{}, err
	}
	if len(w.Segments) == 0 {
		return Payload{}, errors.New("workout has no segments")
	}
	if report := workout.Validate(w.Segments); !report.Valid {
		return Payload{}, fmt.Errorf("invalid workout: %s", strings.Join(report.Errors, "; "))
	}

	return Payload{
		ID:          ImportID(data),
		Name:        w.Name,
		Description: w.Description,
		Segments:    w.Segments,
		Source:      models.SourceImported,
		Author:      w.Author,
	}, nil
}
