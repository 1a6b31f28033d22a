// Package workout compiles natural-language cycling workout descriptions into
// timed segment lists and derives power series and training load from them.
//
// Every function in this package is pure: no I/O, no shared mutable state.
// Callers may invoke them concurrently without synchronisation.
package workout

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidInput is returned for empty or whitespace-only descriptions and
// for explicit builder arguments that cannot form a workout. Any non-empty
// description compiles, falling back to defaults as needed.
var ErrInvalidInput = errors.New("invalid input")

// Power bounds as a fraction of FTP. Every compiled segment lies within them.
const (
	MinPower = 0.30
	MaxPower = 3.00
)

// Duration bounds for a compiled workout, in seconds.
const (
	MinTotalDuration     = 15 * 60
	MaxTotalDuration     = 6 * 60 * 60
	DefaultTotalDuration = 60 * 60
)

// Kind discriminates segment shapes. Warmup and Cooldown ramp between
// PowerLow and PowerHigh; the other kinds hold a single Power.
type Kind string

const (
	KindWarmup      Kind = "Warmup"
	KindCooldown    Kind = "Cooldown"
	KindSteadyState Kind = "SteadyState"
	KindIntervalOn  Kind = "IntervalOn"
	KindIntervalOff Kind = "IntervalOff"
)

// IsRamp reports whether segments of this kind interpolate PowerLow→PowerHigh.
func (k Kind) IsRamp() bool {
	return k == KindWarmup || k == KindCooldown
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindWarmup, KindCooldown, KindSteadyState, KindIntervalOn, KindIntervalOff:
		return true
	}
	return false
}

// Segment is one contiguous block of a workout timeline.
// Durations and start times are in whole seconds; powers are fractions of FTP.
type Segment struct {
	Kind      Kind
	Duration  int
	Start     int
	Power     float64 // flat kinds
	PowerLow  float64 // ramp kinds
	PowerHigh float64 // ramp kinds
}

// Flat returns a flat segment of the given kind.
func Flat(kind Kind, duration int, power float64) Segment {
	return Segment{Kind: kind, Duration: duration, Power: power}
}

// Ramp returns a ramp segment of the given kind.
func Ramp(kind Kind, duration int, low, high float64) Segment {
	return Segment{Kind: kind, Duration: duration, PowerLow: low, PowerHigh: high}
}

// End returns the second at which the segment finishes.
func (s Segment) End() int {
	return s.Start + s.Duration
}

// Bounds returns the lowest and highest power the segment asks for.
func (s Segment) Bounds() (lo, hi float64) {
	if !s.Kind.IsRamp() {
		return s.Power, s.Power
	}
	if s.PowerLow <= s.PowerHigh {
		return s.PowerLow, s.PowerHigh
	}
	return s.PowerHigh, s.PowerLow
}

type segmentJSON struct {
	Type      Kind     `json:"type"`
	Duration  int      `json:"duration"`
	StartTime int      `json:"startTime"`
	Power     *float64 `json:"power,omitempty"`
	PowerLow  *float64 `json:"powerLow,omitempty"`
	PowerHigh *float64 `json:"powerHigh,omitempty"`
}

// MarshalJSON emits either power or powerLow/powerHigh depending on the kind.
func (s Segment) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.toJSON())
}

func (s Segment) toJSON() segmentJSON {
	out := segmentJSON{Type: s.Kind, Duration: s.Duration, StartTime: s.Start}
	if s.Kind.IsRamp() {
		lo, hi := s.PowerLow, s.PowerHigh
		out.PowerLow, out.PowerHigh = &lo, &hi
	} else {
		p := s.Power
		out.Power = &p
	}
	return out
}

// UnmarshalJSON accepts the shape produced by MarshalJSON. A flat segment given
// only powerLow/powerHigh takes their average; a ramp given only power holds it.
func (s *Segment) UnmarshalJSON(data []byte) error {
	var in segmentJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if in.Type == "" {
		in.Type = KindSteadyState
	}
	if !in.Type.Valid() {
		return fmt.Errorf("unknown segment type %q", in.Type)
	}
	*s = Segment{Kind: in.Type, Duration: in.Duration, Start: in.StartTime}
	switch {
	case in.Type.IsRamp() && in.PowerLow != nil && in.PowerHigh != nil:
		s.PowerLow, s.PowerHigh = *in.PowerLow, *in.PowerHigh
	case in.Type.IsRamp() && in.Power != nil:
		s.PowerLow, s.PowerHigh = *in.Power, *in.Power
	case in.Power != nil:
		s.Power = *in.Power
	case in.PowerLow != nil && in.PowerHigh != nil:
		s.Power = (*in.PowerLow + *in.PowerHigh) / 2
	}
	return nil
}

// Note records a default or recovery policy applied while compiling.
type Note string

const (
	NoteDefaultDuration        Note = "default_duration"
	NoteDefaultType            Note = "default_type"
	NoteDefaultPattern         Note = "default_pattern"
	NotePatternUnmatched       Note = "pattern_unmatched"
	NoteDurationOutOfRange     Note = "duration_out_of_range"
	NotePowerClamped           Note = "power_clamped"
	NoteWattageUnresolved      Note = "wattage_unresolved"
	NotePatternExceedsDuration Note = "pattern_exceeds_duration"
	NoteCompoundExtended       Note = "compound_extended"
)

// Result is a compiled workout. It is owned by the caller.
type Result struct {
	Name          string      `json:"name"`
	Description   string      `json:"description"`
	Type          WorkoutType `json:"workoutType"`
	Segments      []Segment   `json:"segments"`
	TotalDuration int         `json:"totalDuration"`
	TSS           float64     `json:"tss"`
	Notes         []Note      `json:"notes,omitempty"`
}

// UsedDefaults reports whether any fallback policy fired.
func (r *Result) UsedDefaults() bool {
	return len(r.Notes) > 0
}

// TotalDuration sums segment durations.
func TotalDuration(segs []Segment) int {
	total := 0
	for _, s := range segs {
		total += s.Duration
	}
	return total
}

// SpanSeconds returns repeat*each + (repeat-1)*rest, the length of a
// repeated block with recoveries between repetitions. ok is false when any
// input is out of range or the span exceeds MaxTotalDuration.
func SpanSeconds(repeat, each, rest int) (span int, ok bool) {
	if repeat < 1 || each < 0 || rest < 0 {
		return 0, false
	}
	if repeat > MaxTotalDuration || each > MaxTotalDuration || rest > MaxTotalDuration {
		return 0, false
	}
	span = repeat*each + (repeat-1)*rest
	return span, span <= MaxTotalDuration
}

func addNote(notes []Note, n Note) []Note {
	for _, existing := range notes {
		if existing == n {
			return notes
		}
	}
	return append(notes, n)
}
