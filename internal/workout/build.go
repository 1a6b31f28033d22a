package workout

import "fmt"

// IntervalSpec describes an interval workout explicitly, bypassing the text
// parser. Durations are seconds, powers fractions of FTP.
type IntervalSpec struct {
	Repeat    int     `json:"repeat"`
	Work      int     `json:"work"`
	WorkPower float64 `json:"workPower"`
	Rest      int     `json:"rest"`
	RestPower float64 `json:"restPower"`
	Warmup    int     `json:"warmup"`
	Cooldown  int     `json:"cooldown"`
}

// StepSpec is one block of a compound repetition.
type StepSpec struct {
	Duration int     `json:"duration"`
	Power    float64 `json:"power"`
}

// CompoundSpec describes repetitions made of several steps.
type CompoundSpec struct {
	Repeat    int        `json:"repeat"`
	Steps     []StepSpec `json:"steps"`
	Rest      int        `json:"rest"`
	RestPower float64    `json:"restPower"`
	Warmup    int        `json:"warmup"`
	Cooldown  int        `json:"cooldown"`
}

// BuildIntervals lays out warmup, repeats with recoveries between them, and
// cooldown. Out-of-range powers are clamped.
func BuildIntervals(spec IntervalSpec) ([]Segment, error) {
	return BuildCompound(CompoundSpec{
		Repeat:    spec.Repeat,
		Steps:     []StepSpec{{Duration: spec.Work, Power: spec.WorkPower}},
		Rest:      spec.Rest,
		RestPower: spec.RestPower,
		Warmup:    spec.Warmup,
		Cooldown:  spec.Cooldown,
	})
}

// BuildCompound is BuildIntervals with multi-step repetitions.
func BuildCompound(spec CompoundSpec) ([]Segment, error) {
	if spec.Repeat < 1 {
		return nil, fmt.Errorf("repeat must be at least 1: %w", ErrInvalidInput)
	}
	if len(spec.Steps) == 0 {
		return nil, fmt.Errorf("no interval steps: %w", ErrInvalidInput)
	}
	for i, st := range spec.Steps {
		if st.Duration <= 0 {
			return nil, fmt.Errorf("step %d: duration must be positive: %w", i, ErrInvalidInput)
		}
	}
	if spec.Rest < 0 || spec.Warmup < 0 || spec.Cooldown < 0 {
		return nil, fmt.Errorf("negative duration: %w", ErrInvalidInput)
	}
	restPower := spec.RestPower
	if restPower == 0 {
		restPower = DefaultCompoundRestPower
	}

	var segs []Segment
	if spec.Warmup > 0 {
		segs = append(segs, Ramp(KindWarmup, spec.Warmup, rampLow, rampHigh))
	}
	for i := range spec.Repeat {
		for _, st := range spec.Steps {
			segs = append(segs, Flat(KindIntervalOn, st.Duration, st.Power))
		}
		if i < spec.Repeat-1 && spec.Rest > 0 {
			segs = append(segs, Flat(KindIntervalOff, spec.Rest, restPower))
		}
	}
	if spec.Cooldown > 0 {
		segs = append(segs, Ramp(KindCooldown, spec.Cooldown, rampHigh, rampLow))
	}
	clampPowers(segs)
	retime(segs)
	return segs, nil
}
