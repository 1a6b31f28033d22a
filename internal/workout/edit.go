package workout

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

// ErrIndexOutOfRange is returned by the editing functions for a bad position.
var ErrIndexOutOfRange = errors.New("segment index out of range")

// The editing functions never modify their input. Each returns a new,
// retimed slice.

// Retime returns a copy of segs with start times recomputed.
func Retime(segs []Segment) []Segment {
	out := slices.Clone(segs)
	retime(out)
	return out
}

// Insert places add before position i. i == len(segs) appends.
func Insert(segs []Segment, i int, add ...Segment) ([]Segment, error) {
	if i < 0 || i > len(segs) {
		return nil, fmt.Errorf("insert at %d: %w", i, ErrIndexOutOfRange)
	}
	out := slices.Insert(slices.Clone(segs), i, add...)
	retime(out)
	return out, nil
}

// Replace swaps the segment at i for s.
func Replace(segs []Segment, i int, s Segment) ([]Segment, error) {
	if i < 0 || i >= len(segs) {
		return nil, fmt.Errorf("replace %d: %w", i, ErrIndexOutOfRange)
	}
	out := slices.Clone(segs)
	out[i] = s
	retime(out)
	return out, nil
}

// Remove drops the segment at i.
func Remove(segs []Segment, i int) ([]Segment, error) {
	if i < 0 || i >= len(segs) {
		return nil, fmt.Errorf("remove %d: %w", i, ErrIndexOutOfRange)
	}
	out := slices.Delete(slices.Clone(segs), i, i+1)
	retime(out)
	return out, nil
}

// Options steers Optimize. Zero fields are ignored.
type Options struct {
	TargetDuration int     `json:"targetDuration,omitempty"`
	TargetTSS      float64 `json:"targetTss,omitempty"`
	MaxPower       float64 `json:"maxPower,omitempty"`
}

// Optimize adjusts a workout towards the targets in opts and describes each
// change it made. Warmup and cooldown are left alone; only the main set is
// rescaled.
func Optimize(segs []Segment, opts Options) ([]Segment, []string) {
	out := Retime(segs)
	changes := []string{}

	ceiling := MaxPower
	if opts.MaxPower > 0 {
		ceiling = math.Max(MinPower, math.Min(opts.MaxPower, MaxPower))
		if n := capPowers(out, ceiling); n > 0 {
			changes = append(changes, fmt.Sprintf("capped %d segments at %.0f%% FTP", n, ceiling*100))
		}
	}

	main := mainIndices(out)
	if opts.TargetDuration > 0 && len(main) > 0 {
		target := clampInt(opts.TargetDuration, MinTotalDuration, MaxTotalDuration)
		if target != opts.TargetDuration {
			changes = append(changes, fmt.Sprintf("target duration limited to %s", FormatDuration(target)))
		}
		before := TotalDuration(out)
		if rescaleDurations(out, main, target) {
			changes = append(changes, fmt.Sprintf("rescaled duration from %s to %s",
				FormatDuration(before), FormatDuration(TotalDuration(out))))
		}
	}

	if opts.TargetTSS > 0 && len(main) > 0 {
		before := TSS(out)
		if tuned := tuneIntensity(out, main, opts.TargetTSS, ceiling); TSS(tuned) != before {
			out = tuned
			changes = append(changes, fmt.Sprintf("adjusted TSS from %.0f to %.0f", before, TSS(out)))
		}
	}

	retime(out)
	return out, changes
}

func mainIndices(segs []Segment) []int {
	var idx []int
	for i, s := range segs {
		if !s.Kind.IsRamp() {
			idx = append(idx, i)
		}
	}
	return idx
}

func capPowers(segs []Segment, ceiling float64) int {
	n := 0
	for i := range segs {
		s := &segs[i]
		if _, hi := s.Bounds(); hi <= ceiling {
			continue
		}
		if s.Kind.IsRamp() {
			s.PowerLow = math.Min(s.PowerLow, ceiling)
			s.PowerHigh = math.Min(s.PowerHigh, ceiling)
		} else {
			s.Power = ceiling
		}
		n++
	}
	return n
}

// rescaleDurations scales main-set durations so the workout lasts target
// seconds. Rounding error is taken up from the last main segment backwards,
// never shrinking a segment below one second.
func rescaleDurations(segs []Segment, main []int, target int) bool {
	fixed, mainTotal := 0, 0
	for i, s := range segs {
		if slices.Contains(main, i) {
			mainTotal += s.Duration
		} else {
			fixed += s.Duration
		}
	}
	want := target - fixed
	if want < len(main) || mainTotal == 0 || want == mainTotal {
		return false
	}
	scale := float64(want) / float64(mainTotal)
	got := 0
	for _, i := range main {
		segs[i].Duration = max(1, int(math.Round(float64(segs[i].Duration)*scale)))
		got += segs[i].Duration
	}
	for k := len(main) - 1; k >= 0 && got != want; k-- {
		s := &segs[main[k]]
		d := max(1, s.Duration+want-got)
		got += d - s.Duration
		s.Duration = d
	}
	return true
}

// tuneIntensity bisects a main-set power multiplier towards target TSS.
func tuneIntensity(segs []Segment, main []int, target, ceiling float64) []Segment {
	apply := func(f float64) []Segment {
		out := slices.Clone(segs)
		for _, i := range main {
			out[i].Power = math.Min(math.Max(segs[i].Power*f, MinPower), ceiling)
		}
		return out
	}
	lo, hi := 0.1, 3.0
	best := segs
	bestDiff := math.Abs(TSS(segs) - target)
	for range 40 {
		mid := (lo + hi) / 2
		cand := apply(mid)
		tss := TSS(cand)
		if d := math.Abs(tss - target); d < bestDiff {
			best, bestDiff = cand, d
		}
		if tss < target {
			lo = mid
		} else {
			hi = mid
		}
	}
	return best
}
