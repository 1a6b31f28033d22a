package workout

import (
	"errors"
	"testing"
)

// TestBuildIntervals verifies explicit intervals are laid out with rests between repeats only.
func TestBuildIntervals(t *testing.T) {
	segs, err := BuildIntervals(IntervalSpec{
		Repeat: 3, Work: 300, WorkPower: 1.05,
		Rest: 120, RestPower: 0.5,
		Warmup: 600, Cooldown: 300,
	})
	if err != nil {
		t.Fatalf("BuildIntervals: %v", err)
	}
	assertTimeline(t, segs, 600+3*300+2*120+300)
	if len(segs) != 7 {
		t.Fatalf("segments = %d, want 7", len(segs))
	}
	if segs[5].Kind != KindIntervalOn || segs[6].Kind != KindCooldown {
		t.Errorf("tail = %s, %s, want IntervalOn, Cooldown", segs[5].Kind, segs[6].Kind)
	}
}

// TestBuildIntervalsWithoutPhases verifies warmup and cooldown are optional.
func TestBuildIntervalsWithoutPhases(t *testing.T) {
	segs, err := BuildIntervals(IntervalSpec{Repeat: 2, Work: 60, WorkPower: 1.5, Rest: 60})
	if err != nil {
		t.Fatalf("BuildIntervals: %v", err)
	}
	assertTimeline(t, segs, 180)
	if segs[1].Power != DefaultCompoundRestPower {
		t.Errorf("rest power = %v, want default %v", segs[1].Power, DefaultCompoundRestPower)
	}
}

// TestBuildCompound verifies multi-step repeats.
func TestBuildCompound(t *testing.T) {
	segs, err := BuildCompound(CompoundSpec{
		Repeat: 2,
		Steps:  []StepSpec{{Duration: 60, Power: 1.2}, {Duration: 240, Power: 0.9}},
		Rest:   120,
	})
	if err != nil {
		t.Fatalf("BuildCompound: %v", err)
	}
	assertTimeline(t, segs, 2*300+120)
	if len(segs) != 5 {
		t.Errorf("segments = %d, want 5", len(segs))
	}
}

// TestBuildRejectsBadSpecs verifies invalid arguments wrap ErrInvalidInput.
func TestBuildRejectsBadSpecs(t *testing.T) {
	specs := []CompoundSpec{
		{Repeat: 0, Steps: []StepSpec{{Duration: 60, Power: 1}}},
		{Repeat: 1},
		{Repeat: 1, Steps: []StepSpec{{Duration: 0, Power: 1}}},
		{Repeat: 1, Steps: []StepSpec{{Duration: 60, Power: 1}}, Rest: -1},
	}
	for i, spec := range specs {
		if _, err := BuildCompound(spec); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("spec %d: error = %v, want ErrInvalidInput", i, err)
		}
	}
}
