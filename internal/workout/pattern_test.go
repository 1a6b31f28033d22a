package workout

import (
	"math"
	"reflect"
	"slices"
	"testing"
)

// TestParsePatternSimple verifies the simple interval grammar and its trailing modifiers.
func TestParsePatternSimple(t *testing.T) {
	tests := []struct {
		in   string
		want Simple
	}{
		{"4x5 minute threshold intervals", Simple{Repeat: 4, Work: 300}},
		{"4 × 5min", Simple{Repeat: 4, Work: 300}},
		{"5 x 3min @ 120% (3min)", Simple{Repeat: 5, Work: 180, Rest: 180, WorkPower: Target{Fraction: 1.2}}},
		{"5x3min (3min @ 50%) at 115%", Simple{
			Repeat: 5, Work: 180, Rest: 180,
			WorkPower: Target{Fraction: 1.15}, RestPower: Target{Fraction: 0.5},
		}},
		{"8 x 30s at 250w with 2 min recovery", Simple{Repeat: 8, Work: 30, Rest: 120, WorkPower: Target{Watts: 250}}},
		{"3x10min at threshold", Simple{Repeat: 3, Work: 600, WorkPower: Target{Fraction: 0.98}}},
		{"6 intervals of 2 minutes", Simple{Repeat: 6, Work: 120}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			p := ParsePattern(tt.in)
			if p == nil {
				t.Fatal("ParsePattern returned nil")
			}
			got, ok := p.Main.(Simple)
			if !ok {
				t.Fatalf("Main = %T, want Simple", p.Main)
			}
			if got != tt.want {
				t.Errorf("Main = %+v, want %+v", got, tt.want)
			}
		})
	}
}

// TestParsePatternCompound verifies the compound grammar with a trailing remainder.
func TestParsePatternCompound(t *testing.T) {
	p := ParsePattern("2 x 14' (4') as first 2' @ 105% then 12' at 100%. Remainder at Zone 2")
	if p == nil {
		t.Fatal("ParsePattern returned nil")
	}
	want := Compound{
		Repeat:    2,
		Outer:     840,
		Rest:      240,
		RestPower: Target{Fraction: DefaultCompoundRestPower},
		Steps: []SubStep{
			{Duration: 120, Power: Target{Fraction: 1.05}},
			{Duration: 720, Power: Target{Fraction: 1.00}},
		},
	}
	if !reflect.DeepEqual(p.Main, want) {
		t.Errorf("Main = %+v, want %+v", p.Main, want)
	}
	if p.Remainder == nil || p.Remainder.Power.Fraction != 0.68 {
		t.Errorf("Remainder = %+v, want zone 2 midpoint", p.Remainder)
	}
	if got := p.Duration(); got != 2*840+240 {
		t.Errorf("Duration = %d, want %d", got, 2*840+240)
	}
}

// TestParsePatternCompoundShortfall verifies the last sub-step absorbs a shortfall.
func TestParsePatternCompoundShortfall(t *testing.T) {
	p, _, notes := parsePattern("3 x 10' (5') as 2' @ 110% then 5' @ 95%")
	if p == nil {
		t.Fatal("parsePattern returned nil")
	}
	c, ok := p.Main.(Compound)
	if !ok {
		t.Fatalf("Main = %T, want Compound", p.Main)
	}
	if c.Steps[1].Duration != 480 {
		t.Errorf("last step = %ds, want 480", c.Steps[1].Duration)
	}
	if !slices.Contains(notes, NoteCompoundExtended) {
		t.Errorf("notes = %v, want %s", notes, NoteCompoundExtended)
	}
}

// TestParsePatternCompoundOverflow verifies sub-steps longer than the outer interval are rejected.
func TestParsePatternCompoundOverflow(t *testing.T) {
	p, _, notes := parsePattern("2 x 5' (2') as 4' @ 110% then 3' @ 90%")
	if p != nil {
		t.Errorf("pattern = %+v, want nil", p)
	}
	if !slices.Contains(notes, NotePatternUnmatched) {
		t.Errorf("notes = %v, want %s", notes, NotePatternUnmatched)
	}
}

// TestParsePatternRemainderOnly verifies a remainder clause without intervals.
func TestParsePatternRemainderOnly(t *testing.T) {
	p := ParsePattern("an hour, remainder at zone 3")
	if p == nil || p.Main != nil || p.Remainder == nil {
		t.Fatalf("pattern = %+v, want remainder only", p)
	}
	if p.Remainder.Power.Fraction != 0.83 {
		t.Errorf("remainder power = %v, want 0.83", p.Remainder.Power.Fraction)
	}
}

// TestParsePatternNone verifies plain descriptions carry no pattern.
func TestParsePatternNone(t *testing.T) {
	for _, in := range []string{"45 minute endurance ride", "", "easy spin"} {
		if p := ParsePattern(in); p != nil {
			t.Errorf("ParsePattern(%q) = %+v, want nil", in, p)
		}
	}
}

// TestParsePatternRejectsOverflowingCount verifies a repeat count too large
// for an int leaves the text unmatched.
func TestParsePatternRejectsOverflowingCount(t *testing.T) {
	for _, in := range []string{
		"99999999999999999999x5min",
		"99999999999999999999 intervals of 2 minutes",
		"99999999999999999999 x 5' (2') as 3' @ 110% then 2' @ 90%",
	} {
		if p := ParsePattern(in); p != nil {
			t.Errorf("ParsePattern(%q) = %+v, want nil", in, p)
		}
	}
}

// TestPatternDurationSaturates verifies oversized nodes report math.MaxInt
// instead of a wrapped product.
func TestPatternDurationSaturates(t *testing.T) {
	p := &Pattern{Main: Simple{Repeat: math.MaxInt, Work: 300, Rest: 60}}
	if got := p.Duration(); got != math.MaxInt {
		t.Errorf("Duration = %d, want math.MaxInt", got)
	}
	p = &Pattern{Main: Compound{Repeat: 3, Outer: 600, Rest: 120}}
	if got := p.Duration(); got != 3*600+2*120 {
		t.Errorf("Duration = %d, want %d", got, 3*600+2*120)
	}
}

// TestParsePatternResidual verifies interval durations are blanked so they cannot set the total.
func TestParsePatternResidual(t *testing.T) {
	_, residual, _ := parsePattern("4x5 minute threshold intervals")
	if _, ok := ParseTotalDuration(residual); ok {
		t.Errorf("residual %q still holds a duration", residual)
	}
	_, residual, _ = parsePattern("4x5 minute threshold intervals in 90 minutes")
	if got, ok := ParseTotalDuration(residual); !ok || got != 5400 {
		t.Errorf("total from residual = %d, %v, want 5400, true", got, ok)
	}
}

// TestTargetResolve verifies wattage only overrides once an FTP is known.
func TestTargetResolve(t *testing.T) {
	tests := []struct {
		name       string
		target     Target
		ftp        int
		want       float64
		unresolved bool
	}{
		{"percent", Target{Fraction: 1.05}, 0, 1.05, false},
		{"watts with ftp", Target{Fraction: 1.05, Watts: 300}, 250, 1.2, false},
		{"watts without ftp", Target{Fraction: 1.05, Watts: 300}, 0, 1.05, true},
		{"watts only without ftp", Target{Watts: 300}, 0, 0.9, true},
		{"empty", Target{}, 250, 0.9, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, unresolved := tt.target.Resolve(tt.ftp, 0.9)
			if got != tt.want || unresolved != tt.unresolved {
				t.Errorf("Resolve = %v, %v, want %v, %v", got, unresolved, tt.want, tt.unresolved)
			}
		})
	}
}
