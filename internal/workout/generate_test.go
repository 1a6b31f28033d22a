package workout

import (
	"errors"
	"reflect"
	"slices"
	"testing"
)

// TestGenerateEnduranceRide verifies a plain endurance description with an explicit length.
func TestGenerateEnduranceRide(t *testing.T) {
	res, err := Generate(Request{Description: "45 minute endurance ride"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	assertSegments(t, res.Segments, []Segment{
		{Kind: KindWarmup, Duration: 600, Start: 0, PowerLow: 0.50, PowerHigh: 0.70},
		{Kind: KindSteadyState, Duration: 1500, Start: 600, Power: 0.68},
		{Kind: KindCooldown, Duration: 600, Start: 2100, PowerLow: 0.70, PowerHigh: 0.50},
	})
	if res.TotalDuration != 2700 {
		t.Errorf("total = %d, want 2700", res.TotalDuration)
	}
	if res.Type != TypeEndurance || res.Name != "45min Endurance" {
		t.Errorf("type/name = %s/%q, want endurance/\"45min Endurance\"", res.Type, res.Name)
	}
	if res.UsedDefaults() {
		t.Errorf("notes = %v, want none", res.Notes)
	}
}

// TestGenerateThresholdIntervals verifies interval lengths do not set the workout length.
func TestGenerateThresholdIntervals(t *testing.T) {
	res, err := Generate(Request{Description: "4x5 minute threshold intervals"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	on := func(start int) Segment {
		return Segment{Kind: KindIntervalOn, Duration: 300, Start: start, Power: 1.0}
	}
	off := func(start int) Segment {
		return Segment{Kind: KindIntervalOff, Duration: 150, Start: start, Power: 0.6}
	}
	assertSegments(t, res.Segments, []Segment{
		{Kind: KindWarmup, Duration: 900, Start: 0, PowerLow: 0.50, PowerHigh: 0.70},
		on(900), off(1200), on(1350), off(1650), on(1800), off(2100), on(2250),
		{Kind: KindSteadyState, Duration: 450, Start: 2550, Power: 0.68},
		{Kind: KindCooldown, Duration: 600, Start: 3000, PowerLow: 0.70, PowerHigh: 0.50},
	})
	assertTimeline(t, res.Segments, 3600)
	if res.Type != TypeThreshold || res.Name != "4x5min Threshold" {
		t.Errorf("type/name = %s/%q", res.Type, res.Name)
	}
	if !slices.Equal(res.Notes, []Note{NoteDefaultDuration}) {
		t.Errorf("notes = %v, want [%s]", res.Notes, NoteDefaultDuration)
	}
}

// TestGenerateCompoundWithRemainder verifies compound repetitions and a remainder fill a one-hour workout.
func TestGenerateCompoundWithRemainder(t *testing.T) {
	res, err := Generate(Request{
		Description:   "2 x 14' (4') as first 2' @ 105% then 12' at 100%. Remainder at Zone 2",
		TotalDuration: 3600,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	assertSegments(t, res.Segments, []Segment{
		{Kind: KindWarmup, Duration: 600, Start: 0, PowerLow: 0.50, PowerHigh: 0.70},
		{Kind: KindIntervalOn, Duration: 120, Start: 600, Power: 1.05},
		{Kind: KindIntervalOn, Duration: 720, Start: 720, Power: 1.00},
		{Kind: KindIntervalOff, Duration: 240, Start: 1440, Power: 0.50},
		{Kind: KindIntervalOn, Duration: 120, Start: 1680, Power: 1.05},
		{Kind: KindIntervalOn, Duration: 720, Start: 1800, Power: 1.00},
		{Kind: KindSteadyState, Duration: 480, Start: 2520, Power: 0.68},
		{Kind: KindCooldown, Duration: 600, Start: 3000, PowerLow: 0.70, PowerHigh: 0.50},
	})
	assertTimeline(t, res.Segments, 3600)
}

// TestGenerateGarbage verifies unrecognisable text becomes a one-hour endurance ride.
func TestGenerateGarbage(t *testing.T) {
	res, err := Generate(Request{Description: "the quick brown fox"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	assertSegments(t, res.Segments, []Segment{
		{Kind: KindWarmup, Duration: 600, Start: 0, PowerLow: 0.50, PowerHigh: 0.70},
		{Kind: KindSteadyState, Duration: 2400, Start: 600, Power: 0.68},
		{Kind: KindCooldown, Duration: 600, Start: 3000, PowerLow: 0.70, PowerHigh: 0.50},
	})
	if !slices.Contains(res.Notes, NoteDefaultType) || !slices.Contains(res.Notes, NoteDefaultDuration) {
		t.Errorf("notes = %v, want default_type and default_duration", res.Notes)
	}
}

// TestGenerateEmpty verifies blank input is the only error.
func TestGenerateEmpty(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\t"} {
		_, err := Generate(Request{Description: in})
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("Generate(%q) error = %v, want ErrInvalidInput", in, err)
		}
	}
}

// TestGenerateDefaultPattern verifies interval-family types get a fitted default pattern.
func TestGenerateDefaultPattern(t *testing.T) {
	res, err := Generate(Request{Description: "60 minute threshold workout"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	assertTimeline(t, res.Segments, 3600)
	ons := 0
	for _, s := range res.Segments {
		if s.Kind == KindIntervalOn {
			ons++
			if s.Duration != 480 {
				t.Errorf("interval = %ds, want 480", s.Duration)
			}
		}
	}
	if ons != 3 {
		t.Errorf("intervals = %d, want 3", ons)
	}
	if !slices.Contains(res.Notes, NoteDefaultPattern) {
		t.Errorf("notes = %v, want %s", res.Notes, NoteDefaultPattern)
	}
}

// TestGenerateMalformedPattern verifies an unparseable interval phrase is noted, not fatal.
func TestGenerateMalformedPattern(t *testing.T) {
	res, err := Generate(Request{Description: "2 x 5' (2') as 4' @ 110% then 3' @ 90%", TotalDuration: 2700})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	assertTimeline(t, res.Segments, 2700)
	if !slices.Contains(res.Notes, NotePatternUnmatched) {
		t.Errorf("notes = %v, want %s", res.Notes, NotePatternUnmatched)
	}
}

// TestGenerateHugeRepeat verifies enormous repeat counts in the text degrade
// to noted fallbacks without expanding the repetitions.
func TestGenerateHugeRepeat(t *testing.T) {
	tests := []struct {
		desc string
		note Note
	}{
		{"20000000x1s threshold", NotePatternExceedsDuration},
		{"99999999999999999999x5min threshold", NotePatternUnmatched},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			res, err := Generate(Request{Description: tt.desc})
			if err != nil {
				t.Fatalf("Generate: %v", err)
			}
			assertTimeline(t, res.Segments, DefaultTotalDuration)
			if !slices.Contains(res.Notes, tt.note) {
				t.Errorf("notes = %v, want %s", res.Notes, tt.note)
			}
		})
	}
}

// TestGenerateInvariants verifies every generated workout is contiguous, bounded and deterministic.
func TestGenerateInvariants(t *testing.T) {
	inputs := []string{
		"45 minute endurance ride",
		"4x5 minute threshold intervals",
		"2 hour zone 2 ride",
		"8 x 30s sprints at 250w with 2 min recovery",
		"5 x 3min @ 120% (3min) vo2max",
		"easy 30 min recovery spin",
		"90 minute tempo with 3x15min at sweet spot",
		"1h30 interval session",
		"10 hours of endurance",
		"10 x 20 minutes threshold",
		"garbage",
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			a, err := Generate(Request{Description: in, FTP: 250})
			if err != nil {
				t.Fatalf("Generate: %v", err)
			}
			assertTimeline(t, a.Segments, a.TotalDuration)
			if a.TotalDuration < MinTotalDuration || a.TotalDuration > MaxTotalDuration {
				t.Errorf("total = %d, outside bounds", a.TotalDuration)
			}
			b, _ := Generate(Request{Description: in, FTP: 250})
			if !reflect.DeepEqual(a, b) {
				t.Error("Generate is not deterministic")
			}
		})
	}
}

// TestFormatDuration verifies compact duration labels.
func TestFormatDuration(t *testing.T) {
	tests := []struct {
		secs int
		want string
	}{
		{0, "0s"},
		{30, "30s"},
		{150, "2min30s"},
		{300, "5min"},
		{3600, "1h"},
		{5400, "1h30min"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.secs); got != tt.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tt.secs, got, tt.want)
		}
	}
}
