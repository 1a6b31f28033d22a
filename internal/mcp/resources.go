package mcp

import (
	"context"
	"encoding/json"

	"github.com/claude/traininglab/internal/models"
	"github.com/claude/traininglab/internal/workout"
	"github.com/mark3labs/mcp-go/mcp"
)

func (h *handlers) powerZones(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonResource(req.Params.URI, map[string]any{
		"ftp":   h.ftp,
		"zones": workout.Zones(h.ftp),
	})
}

func (h *handlers) recentWorkouts(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	list := []models.LibrarySummary{}
	if h.lib != nil {
		var err error
		list, err = h.lib.ListWorkouts(ctx, "", recentLimit)
		if err != nil {
			h.log.Warn("recent_workouts: library query failed", "error", err)
			return nil, err
		}
	}
	return jsonResource(req.Params.URI, list)
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
