package mcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/claude/traininglab/internal/export"
	"github.com/claude/traininglab/internal/models"
	"github.com/claude/traininglab/internal/storage"
	"github.com/claude/traininglab/internal/workout"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

const (
	defaultWarmup   = 600
	defaultCooldown = 300
	defaultRestPct  = 50
	recentLimit     = 10
)

// segmentSchema describes one element of a "segments" argument. It matches
// the segments returned by the other tools, so outputs can be fed back in.
var segmentSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"type": map[string]any{
			"type": "string",
			"enum": []string{"Warmup", "Cooldown", "SteadyState", "IntervalOn", "IntervalOff"},
		},
		"duration":  map[string]any{"type": "integer", "description": "Seconds"},
		"power":     map[string]any{"type": "number", "description": "Fraction of FTP (1.0 = FTP) for flat segments"},
		"powerLow":  map[string]any{"type": "number", "description": "Ramp start, fraction of FTP"},
		"powerHigh": map[string]any{"type": "number", "description": "Ramp end, fraction of FTP"},
	},
	"required": []string{"type", "duration"},
}

var stepSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"duration_seconds": map[string]any{"type": "integer"},
		"percent":          map[string]any{"type": "number", "description": "Percent of FTP"},
	},
	"required": []string{"duration_seconds", "percent"},
}

// --- Tool definitions ---

var toolParseDescription = mcp.NewTool("parse_workout_description",
	mcp.WithDescription("Turn a plain-language workout description (e.g. '4x5 minute threshold intervals', '3 sets of 10 min at 95% with 5 min recovery') into a structured workout with warmup, main set and cooldown. Returns segments, workout type, TSS and notes on any defaults applied."),
	mcp.WithString("description", mcp.Required(), mcp.Description("Workout description in plain language")),
	mcp.WithNumber("duration_minutes", mcp.Description("Total workout length in minutes. Overrides any length in the description.")),
	mcp.WithNumber("ftp", mcp.Description("Rider FTP in watts, used to convert wattage targets. Defaults to the server setting.")),
)

var toolCreateIntervals = mcp.NewTool("create_interval_workout",
	mcp.WithDescription("Build an interval workout from explicit parameters: repeats of work/rest blocks between a warmup and cooldown."),
	mcp.WithNumber("repeats", mcp.Required(), mcp.Description("Number of work intervals")),
	mcp.WithNumber("work_seconds", mcp.Required(), mcp.Description("Length of each work interval in seconds")),
	mcp.WithNumber("work_percent", mcp.Required(), mcp.Description("Work intensity in percent of FTP")),
	mcp.WithNumber("rest_seconds", mcp.Description("Recovery between intervals in seconds. Defaults to 0.")),
	mcp.WithNumber("rest_percent", mcp.Description("Recovery intensity in percent of FTP. Defaults to 50.")),
	mcp.WithNumber("warmup_seconds", mcp.Description("Warmup length in seconds. Defaults to 600.")),
	mcp.WithNumber("cooldown_seconds", mcp.Description("Cooldown length in seconds. Defaults to 300.")),
	mcp.WithString("name", mcp.Description("Workout name")),
)

var toolCreateComplexIntervals = mcp.NewTool("create_complex_interval_workout",
	mcp.WithDescription("Build a workout whose repetitions contain several steps, e.g. over-unders or 30/30s inside a longer block."),
	mcp.WithNumber("repeats", mcp.Required(), mcp.Description("Number of repetitions of the step sequence")),
	mcp.WithArray("steps", mcp.Required(), mcp.Description("Steps of one repetition, in order"), mcp.Items(stepSchema)),
	mcp.WithNumber("rest_seconds", mcp.Description("Recovery between repetitions in seconds")),
	mcp.WithNumber("rest_percent", mcp.Description("Recovery intensity in percent of FTP. Defaults to 50.")),
	mcp.WithNumber("warmup_seconds", mcp.Description("Warmup length in seconds. Defaults to 600.")),
	mcp.WithNumber("cooldown_seconds", mcp.Description("Cooldown length in seconds. Defaults to 300.")),
	mcp.WithString("name", mcp.Description("Workout name")),
)

var toolCalculateTSS = mcp.NewTool("calculate_tss",
	mcp.WithDescription("Compute Training Stress Score, normalized power and intensity factor for a list of segments."),
	mcp.WithArray("segments", mcp.Required(), mcp.Description("Workout segments"), mcp.Items(segmentSchema)),
)

var toolOptimizeWorkout = mcp.NewTool("optimize_workout",
	mcp.WithDescription("Adjust a workout towards targets: cap power, stretch or shrink the main set to a total length, and tune main-set intensity towards a TSS. Warmup and cooldown are kept."),
	mcp.WithArray("segments", mcp.Required(), mcp.Description("Workout segments"), mcp.Items(segmentSchema)),
	mcp.WithNumber("target_duration_minutes", mcp.Description("Desired total length in minutes")),
	mcp.WithNumber("target_tss", mcp.Description("Desired Training Stress Score")),
	mcp.WithNumber("max_percent", mcp.Description("Power ceiling in percent of FTP")),
)

var toolGetPowerZones = mcp.NewTool("get_power_zones",
	mcp.WithDescription("List the seven power training zones with watt ranges for an FTP."),
	mcp.WithNumber("ftp", mcp.Description("FTP in watts. Defaults to the server setting.")),
)

var toolValidateWorkout = mcp.NewTool("validate_workout",
	mcp.WithDescription("Check a workout for timeline gaps or overlaps, bad durations and out-of-range power. Returns errors and warnings."),
	mcp.WithArray("segments", mcp.Required(), mcp.Description("Workout segments"), mcp.Items(segmentSchema)),
)

var toolExportWorkout = mcp.NewTool("export_workout",
	mcp.WithDescription("Render a workout as a trainer file: Zwift .zwo, ERG (watts) or MRC (percent of FTP). Returns the file content."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Workout name")),
	mcp.WithArray("segments", mcp.Required(), mcp.Description("Workout segments"), mcp.Items(segmentSchema)),
	mcp.WithString("description", mcp.Description("Workout description")),
	mcp.WithString("format", mcp.Description("File format. Defaults to zwo."), mcp.Enum(export.FormatZWO, export.FormatERG, export.FormatMRC)),
	mcp.WithNumber("ftp", mcp.Description("FTP in watts for ERG output. Defaults to the server setting.")),
)

var toolSaveWorkout = mcp.NewTool("save_workout",
	mcp.WithDescription("Save a workout to the shared library. Pass segments from another tool, or only a description to compile and save it in one step."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Workout name")),
	mcp.WithString("description", mcp.Description("Workout description. Compiled when no segments are given.")),
	mcp.WithArray("segments", mcp.Description("Workout segments"), mcp.Items(segmentSchema)),
	mcp.WithString("workout_type", mcp.Description("Workout category"),
		mcp.Enum("endurance", "interval", "recovery", "tempo", "threshold", "vo2max", "sprint")),
)

var toolListWorkouts = mcp.NewTool("list_workouts",
	mcp.WithDescription("List saved library workouts, newest first."),
	mcp.WithString("workout_type", mcp.Description("Filter by workout category")),
	mcp.WithNumber("limit", mcp.Description("Maximum results. Defaults to 20.")),
)

var toolGetWorkout = mcp.NewTool("get_workout",
	mcp.WithDescription("Fetch one library workout with all its segments."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Workout ID from list_workouts")),
)

// builtWorkout is the result of the builder tools.
type builtWorkout struct {
	Name          string            `json:"name"`
	Segments      []workout.Segment `json:"segments"`
	TotalDuration int               `json:"totalDuration"`
	TSS           float64           `json:"tss"`
}

type segmentsArgs struct {
	Segments []workout.Segment `json:"segments"`
}

type complexArgs struct {
	Name    string `json:"name"`
	Repeats int    `json:"repeats"`
	Steps   []struct {
		DurationSeconds int     `json:"duration_seconds"`
		Percent         float64 `json:"percent"`
	} `json:"steps"`
	RestSeconds     int      `json:"rest_seconds"`
	RestPercent     *float64 `json:"rest_percent"`
	WarmupSeconds   *int     `json:"warmup_seconds"`
	CooldownSeconds *int     `json:"cooldown_seconds"`
}

func pct(p float64) float64 { return p / 100 }

func orDefault(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

// --- Tool handlers ---

func (h *handlers) parseDescription(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	desc, err := req.RequireString("description")
	if err != nil {
		return mcp.NewToolResultError("description parameter is required"), nil
	}

	res, cached, err := h.compiler.Generate(workout.Request{
		Description:   desc,
		FTP:           req.GetInt("ftp", h.ftp),
		TotalDuration: req.GetInt("duration_minutes", 0) * 60,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	h.log.Debug("mcp parse_workout_description", "name", res.Name, "cached", cached, "notes", res.Notes)
	return jsonResult(res)
}

func (h *handlers) createIntervals(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repeats, err := req.RequireInt("repeats")
	if err != nil {
		return mcp.NewToolResultError("repeats parameter is required"), nil
	}
	work, err := req.RequireInt("work_seconds")
	if err != nil {
		return mcp.NewToolResultError("work_seconds parameter is required"), nil
	}
	workPct, err := req.RequireFloat("work_percent")
	if err != nil {
		return mcp.NewToolResultError("work_percent parameter is required"), nil
	}

	segs, err := workout.BuildIntervals(workout.IntervalSpec{
		Repeat:    repeats,
		Work:      work,
		WorkPower: pct(workPct),
		Rest:      req.GetInt("rest_seconds", 0),
		RestPower: pct(req.GetFloat("rest_percent", defaultRestPct)),
		Warmup:    req.GetInt("warmup_seconds", defaultWarmup),
		Cooldown:  req.GetInt("cooldown_seconds", defaultCooldown),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	name := req.GetString("name", "")
	if name == "" {
		name = fmt.Sprintf("%dx%s @ %.0f%%", repeats, workout.FormatDuration(work), workPct)
	}
	return jsonResult(newBuiltWorkout(name, segs))
}

func (h *handlers) createComplexIntervals(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args complexArgs
	if err := req.BindArguments(&args); err != nil {
		return mcp.NewToolResultError("invalid arguments: " + err.Error()), nil
	}

	spec := workout.CompoundSpec{
		Repeat:    args.Repeats,
		Rest:      args.RestSeconds,
		RestPower: pct(defaultRestPct),
		Warmup:    orDefault(args.WarmupSeconds, defaultWarmup),
		Cooldown:  orDefault(args.CooldownSeconds, defaultCooldown),
	}
	if args.RestPercent != nil {
		spec.RestPower = pct(*args.RestPercent)
	}
	parts := make([]string, 0, len(args.Steps))
	for _, st := range args.Steps {
		spec.Steps = append(spec.Steps, workout.StepSpec{Duration: st.DurationSeconds, Power: pct(st.Percent)})
		parts = append(parts, fmt.Sprintf("%s@%.0f%%", workout.FormatDuration(st.DurationSeconds), st.Percent))
	}

	segs, err := workout.BuildCompound(spec)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	name := args.Name
	if name == "" {
		name = fmt.Sprintf("%dx(%s)", args.Repeats, strings.Join(parts, " + "))
	}
	return jsonResult(newBuiltWorkout(name, segs))
}

func newBuiltWorkout(name string, segs []workout.Segment) builtWorkout {
	return builtWorkout{
		Name:          name,
		Segments:      segs,
		TotalDuration: workout.TotalDuration(segs),
		TSS:           workout.TSS(segs),
	}
}

func (h *handlers) calculateTSS(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args segmentsArgs
	if err := req.BindArguments(&args); err != nil {
		return mcp.NewToolResultError("invalid segments: " + err.Error()), nil
	}
	if len(args.Segments) == 0 {
		return mcp.NewToolResultError("segments parameter is required"), nil
	}

	return jsonResult(map[string]any{
		"tss":             workout.TSS(args.Segments),
		"normalizedPower": workout.NormalizedPower(args.Segments),
		"intensityFactor": workout.IntensityFactor(args.Segments),
		"totalDuration":   workout.TotalDuration(args.Segments),
	})
}

func (h *handlers) optimizeWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args segmentsArgs
	if err := req.BindArguments(&args); err != nil {
		return mcp.NewToolResultError("invalid segments: " + err.Error()), nil
	}
	if len(args.Segments) == 0 {
		return mcp.NewToolResultError("segments parameter is required"), nil
	}

	opts := workout.Options{
		TargetDuration: int(req.GetFloat("target_duration_minutes", 0) * 60),
		TargetTSS:      req.GetFloat("target_tss", 0),
		MaxPower:       pct(req.GetFloat("max_percent", 0)),
	}
	segs, changes := workout.Optimize(args.Segments, opts)

	return jsonResult(map[string]any{
		"segments":      segs,
		"changes":       changes,
		"totalDuration": workout.TotalDuration(segs),
		"tss":           workout.TSS(segs),
	})
}

func (h *handlers) getPowerZones(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ftp := req.GetInt("ftp", h.ftp)
	if ftp <= 0 {
		return mcp.NewToolResultError("ftp must be positive"), nil
	}
	return jsonResult(map[string]any{
		"ftp":   ftp,
		"zones": workout.Zones(ftp),
	})
}

func (h *handlers) validateWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args segmentsArgs
	if err := req.BindArguments(&args); err != nil {
		return mcp.NewToolResultError("invalid segments: " + err.Error()), nil
	}
	return jsonResult(workout.Validate(args.Segments))
}

func (h *handlers) exportWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name parameter is required"), nil
	}
	if err := export.ValidateName(name); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var args segmentsArgs
	if err := req.BindArguments(&args); err != nil {
		return mcp.NewToolResultError("invalid segments: " + err.Error()), nil
	}
	segs := workout.Retime(args.Segments)
	if report := workout.Validate(segs); !report.Valid {
		return mcp.NewToolResultError("invalid workout: " + strings.Join(report.Errors, "; ")), nil
	}

	w := export.Workout{Name: name, Description: req.GetString("description", ""), Segments: segs}
	var buf bytes.Buffer
	if err := export.Write(&buf, req.GetString("format", export.FormatZWO), w, req.GetInt("ftp", h.ftp)); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}

func (h *handlers) saveWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if h.lib == nil {
		return mcp.NewToolResultError("workout library not configured"), nil
	}
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name parameter is required"), nil
	}
	if err := export.ValidateName(name); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var args segmentsArgs
	if err := req.BindArguments(&args); err != nil {
		return mcp.NewToolResultError("invalid segments: " + err.Error()), nil
	}

	desc := req.GetString("description", "")
	typ := workout.WorkoutType(req.GetString("workout_type", ""))

	var lw models.LibraryWorkout
	if len(args.Segments) == 0 {
		if strings.TrimSpace(desc) == "" {
			return mcp.NewToolResultError("segments or description is required"), nil
		}
		res, _, err := h.compiler.Generate(workout.Request{Description: desc, FTP: h.ftp})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		lw = models.FromResult(res)
		lw.Name = name
		if typ != "" {
			lw.Type = typ
		}
	} else {
		segs := workout.Retime(args.Segments)
		if report := workout.Validate(segs); !report.Valid {
			return mcp.NewToolResultError("invalid workout: " + strings.Join(report.Errors, "; ")), nil
		}
		lw = models.NewLibraryWorkout(name, desc, typ, segs, models.SourceBuilt)
	}

	lw.CreatedBy = AuthorFromContext(ctx)
	if err := h.lib.SaveWorkout(ctx, lw); err != nil {
		h.log.Error("mcp save_workout", "error", err)
		return mcp.NewToolResultError("save failed: " + err.Error()), nil
	}
	return jsonResult(lw.Summary())
}

func (h *handlers) listWorkouts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if h.lib == nil {
		return mcp.NewToolResultError("workout library not configured"), nil
	}
	typ := workout.WorkoutType(strings.ToLower(req.GetString("workout_type", "")))

	list, err := h.lib.ListWorkouts(ctx, typ, req.GetInt("limit", storage.DefaultListLimit))
	if err != nil {
		h.log.Error("mcp list_workouts", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(list)
}

func (h *handlers) getWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if h.lib == nil {
		return mcp.NewToolResultError("workout library not configured"), nil
	}
	idStr, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return mcp.NewToolResultError("invalid workout ID"), nil
	}

	lw, err := h.lib.GetWorkout(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return mcp.NewToolResultError("workout not found"), nil
	}
	if err != nil {
		h.log.Error("mcp get_workout", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(lw)
}
