package workout

import (
	"math"
	"slices"
	"testing"
)

// assertTimeline fails the test if segs break the contiguity, total or power invariants.
func assertTimeline(t *testing.T, segs []Segment, total int) {
	t.Helper()
	if errs := checkTimeline(segs); len(errs) > 0 {
		t.Fatalf("timeline errors: %v", errs)
	}
	if got := TotalDuration(segs); got != total {
		t.Errorf("total = %d, want %d", got, total)
	}
}

// assertSegments compares kind, duration, start and power field by field.
func assertSegments(t *testing.T, got, want []Segment) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("segments = %d, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("segment %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

// TestCompileSteady verifies a pattern-free workout is warmup, one steady block and cooldown.
func TestCompileSteady(t *testing.T) {
	segs, notes := Compile(2700, TypeEndurance, nil, 0)
	if len(notes) != 0 {
		t.Errorf("notes = %v, want none", notes)
	}
	assertSegments(t, segs, []Segment{
		{Kind: KindWarmup, Duration: 600, Start: 0, PowerLow: 0.50, PowerHigh: 0.70},
		{Kind: KindSteadyState, Duration: 1500, Start: 600, Power: 0.68},
		{Kind: KindCooldown, Duration: 600, Start: 2100, PowerLow: 0.70, PowerHigh: 0.50},
	})
}

// TestCompileOutOfRange verifies totals outside 15 min to 6 h fall back to a one-hour workout.
func TestCompileOutOfRange(t *testing.T) {
	for _, total := range []int{0, 600, 30000} {
		segs, notes := Compile(total, TypeThreshold, nil, 0)
		assertTimeline(t, segs, DefaultTotalDuration)
		if !slices.Contains(notes, NoteDurationOutOfRange) {
			t.Errorf("total %d: notes = %v, want %s", total, notes, NoteDurationOutOfRange)
		}
	}
}

// TestCompilePhaseRounding verifies warmup and cooldown round to five minutes within their limits.
func TestCompilePhaseRounding(t *testing.T) {
	tests := []struct {
		total      int
		typ        WorkoutType
		warm, cool int
	}{
		{900, TypeEndurance, 300, 300},
		{2700, TypeEndurance, 600, 600},
		{3600, TypeThreshold, 900, 600},
		{7200, TypeEndurance, 900, 600},
		{1200, TypeRecovery, 300, 300},
	}
	for _, tt := range tests {
		segs, _ := Compile(tt.total, tt.typ, nil, 0)
		assertTimeline(t, segs, tt.total)
		if segs[0].Duration != tt.warm || segs[len(segs)-1].Duration != tt.cool {
			t.Errorf("%d %s: warm/cool = %d/%d, want %d/%d", tt.total, tt.typ,
				segs[0].Duration, segs[len(segs)-1].Duration, tt.warm, tt.cool)
		}
	}
}

// TestCompileSimpleNoTrailingRest verifies recoveries sit only between repetitions.
func TestCompileSimpleNoTrailingRest(t *testing.T) {
	p := &Pattern{Main: Simple{Repeat: 3, Work: 300, Rest: 120}}
	segs, _ := Compile(3600, TypeThreshold, p, 0)
	assertTimeline(t, segs, 3600)

	var kinds []Kind
	for _, s := range segs {
		kinds = append(kinds, s.Kind)
	}
	want := []Kind{
		KindWarmup,
		KindIntervalOn, KindIntervalOff, KindIntervalOn, KindIntervalOff, KindIntervalOn,
		KindSteadyState, KindCooldown,
	}
	if !slices.Equal(kinds, want) {
		t.Errorf("kinds = %v, want %v", kinds, want)
	}
}

// TestCompileRemainderPower verifies leftover time uses the remainder intensity.
func TestCompileRemainderPower(t *testing.T) {
	p := &Pattern{
		Main:      Simple{Repeat: 2, Work: 300, Rest: 300},
		Remainder: &Remainder{Power: Target{Fraction: 0.83}},
	}
	segs, _ := Compile(3600, TypeEndurance, p, 0)
	assertTimeline(t, segs, 3600)
	filler := segs[len(segs)-2]
	if filler.Kind != KindSteadyState || filler.Power != 0.83 || filler.Duration != 2400-900 {
		t.Errorf("filler = %+v, want 1500s SteadyState @ 0.83", filler)
	}
}

// TestCompileExactFit verifies no filler is emitted when the pattern fills the main set.
func TestCompileExactFit(t *testing.T) {
	p := &Pattern{Main: Simple{Repeat: 2, Work: 900, Rest: 600}}
	segs, _ := Compile(3600, TypeEndurance, p, 0)
	assertTimeline(t, segs, 3600)
	for _, s := range segs {
		if s.Kind == KindSteadyState {
			t.Errorf("unexpected filler %+v", s)
		}
	}
}

// TestCompilePatternExceedsExplicitTotal verifies an oversized pattern falls back when the total was requested.
func TestCompilePatternExceedsExplicitTotal(t *testing.T) {
	p := &Pattern{Main: Simple{Repeat: 10, Work: 600, Rest: 300}}
	segs, notes := Compile(1800, TypeThreshold, p, 0)
	assertTimeline(t, segs, 1800)
	if !slices.Contains(notes, NotePatternExceedsDuration) {
		t.Errorf("notes = %v, want %s", notes, NotePatternExceedsDuration)
	}
	if len(segs) != 3 || segs[1].Kind != KindSteadyState {
		t.Errorf("segments = %+v, want steady fallback", segs)
	}
}

// TestCompileHugeRepeatFallsBack verifies a repeat count far beyond any
// workout length is rejected before expansion, even with an implicit total.
func TestCompileHugeRepeatFallsBack(t *testing.T) {
	patterns := []IntervalNode{
		Simple{Repeat: math.MaxInt, Work: 1},
		Simple{Repeat: 20_000_000, Work: 1, Rest: 1},
		Compound{Repeat: math.MaxInt, Outer: 60, Steps: []SubStep{{Duration: 60}}},
	}
	for _, node := range patterns {
		segs, notes := Compiler{ImplicitTotal: true}.Compile(3600, TypeThreshold, &Pattern{Main: node})
		assertTimeline(t, segs, 3600)
		if !slices.Contains(notes, NotePatternExceedsDuration) {
			t.Errorf("%+v: notes = %v, want %s", node, notes, NotePatternExceedsDuration)
		}
		if len(segs) != 3 {
			t.Errorf("%+v: %d segments, want steady fallback", node, len(segs))
		}
	}
}

// TestSpanSeconds verifies block lengths and the bounds that reject them.
func TestSpanSeconds(t *testing.T) {
	tests := []struct {
		repeat, each, rest int
		want               int
		ok                 bool
	}{
		{4, 300, 120, 4*300 + 3*120, true},
		{1, 600, 300, 600, true},
		{72, 300, 0, MaxTotalDuration, true},
		{73, 300, 0, 73 * 300, false},
		{0, 300, 0, 0, false},
		{math.MaxInt, 300, 60, 0, false},
		{2, math.MaxInt, 0, 0, false},
		{2, 60, -1, 0, false},
	}
	for _, tt := range tests {
		got, ok := SpanSeconds(tt.repeat, tt.each, tt.rest)
		if got != tt.want || ok != tt.ok {
			t.Errorf("SpanSeconds(%d, %d, %d) = %d, %v, want %d, %v", tt.repeat, tt.each, tt.rest, got, ok, tt.want, tt.ok)
		}
	}
}

// TestCompilePatternGrowsImplicitTotal verifies an oversized pattern extends a defaulted total.
func TestCompilePatternGrowsImplicitTotal(t *testing.T) {
	p := &Pattern{Main: Simple{Repeat: 6, Work: 600, Rest: 300}}
	segs, notes := Compiler{ImplicitTotal: true}.Compile(3600, TypeThreshold, p)
	assertTimeline(t, segs, 900+6*600+5*300+600)
	if len(notes) != 0 {
		t.Errorf("notes = %v, want none", notes)
	}
}

// TestCompileClampsPower verifies out-of-range targets are clamped and noted.
func TestCompileClampsPower(t *testing.T) {
	p := &Pattern{Main: Simple{Repeat: 2, Work: 60, Rest: 60, WorkPower: Target{Fraction: 5}, RestPower: Target{Fraction: 0.1}}}
	segs, notes := Compile(1800, TypeSprint, p, 0)
	assertTimeline(t, segs, 1800)
	if segs[1].Power != MaxPower || segs[2].Power != MinPower {
		t.Errorf("powers = %v/%v, want %v/%v", segs[1].Power, segs[2].Power, MaxPower, MinPower)
	}
	if !slices.Contains(notes, NotePowerClamped) {
		t.Errorf("notes = %v, want %s", notes, NotePowerClamped)
	}
}

// TestCompileWattage verifies wattage resolves against FTP and is noted when FTP is missing.
func TestCompileWattage(t *testing.T) {
	p := &Pattern{Main: Simple{Repeat: 1, Work: 600, WorkPower: Target{Fraction: 1.1, Watts: 300}}}

	segs, notes := Compile(3600, TypeThreshold, p, 250)
	if segs[1].Power != 1.2 {
		t.Errorf("power with ftp = %v, want 1.2", segs[1].Power)
	}
	if slices.Contains(notes, NoteWattageUnresolved) {
		t.Errorf("notes = %v, want no %s", notes, NoteWattageUnresolved)
	}

	segs, notes = Compile(3600, TypeThreshold, p, 0)
	if segs[1].Power != 1.1 {
		t.Errorf("power without ftp = %v, want 1.1", segs[1].Power)
	}
	if !slices.Contains(notes, NoteWattageUnresolved) {
		t.Errorf("notes = %v, want %s", notes, NoteWattageUnresolved)
	}
}

// TestCompileProfileDefaults verifies missing rest and powers come from the workout type.
func TestCompileProfileDefaults(t *testing.T) {
	p := &Pattern{Main: Simple{Repeat: 2, Work: 180}}
	segs, _ := Compile(3600, TypeVO2Max, p, 0)
	on, off := segs[1], segs[2]
	if on.Power != 1.13 || off.Duration != 180 || off.Power != 0.50 {
		t.Errorf("on/off = %+v / %+v, want 1.13 and 180s @ 0.50", on, off)
	}
}

// TestFitDefault verifies default patterns shed repetitions until they fit.
func TestFitDefault(t *testing.T) {
	prof := ProfileFor(TypeThreshold)
	got := fitDefault(*prof.Default, 3600, prof.Ratio)
	if got.Repeat != 3 {
		t.Errorf("repeat = %d, want 3", got.Repeat)
	}
	if prof.Default.Repeat != 4 {
		t.Error("fitDefault modified the shared profile")
	}
	if got := fitDefault(Simple{Repeat: 5, Work: 3600, Rest: 60}, 3600, prof.Ratio); got.Repeat != 1 {
		t.Errorf("repeat = %d, want floor of 1", got.Repeat)
	}
}
