package workout

import "fmt"

// Soft limits that produce warnings rather than errors.
const (
	shortWorkout = 30 * 60
	longWorkout  = 4 * 60 * 60
	highPower    = 2.00
)

// Report is the outcome of Validate.
type Report struct {
	Valid         bool     `json:"valid"`
	Errors        []string `json:"errors"`
	Warnings      []string `json:"warnings"`
	TotalDuration int      `json:"totalDuration"`
	TSS           float64  `json:"tss"`
}

// Validate checks a segment list against the timeline and power invariants.
func Validate(segs []Segment) Report {
	r := Report{
		Errors:        checkTimeline(segs),
		Warnings:      []string{},
		TotalDuration: TotalDuration(segs),
		TSS:           TSS(segs),
	}
	if len(segs) > 0 {
		if r.TotalDuration < shortWorkout {
			r.Warnings = append(r.Warnings, fmt.Sprintf("workout is short (%d min)", r.TotalDuration/60))
		}
		if r.TotalDuration > longWorkout {
			r.Warnings = append(r.Warnings, fmt.Sprintf("workout is long (%d min)", r.TotalDuration/60))
		}
	}
	for i, s := range segs {
		if _, hi := s.Bounds(); hi > highPower && hi <= MaxPower {
			r.Warnings = append(r.Warnings, fmt.Sprintf("segment %d: very high power %.0f%% FTP", i, hi*100))
		}
	}
	r.Valid = len(r.Errors) == 0
	return r
}

// checkTimeline returns one message per violated invariant.
func checkTimeline(segs []Segment) []string {
	errs := []string{}
	if len(segs) == 0 {
		return append(errs, "workout has no segments")
	}
	if segs[0].Start != 0 {
		errs = append(errs, fmt.Sprintf("first segment starts at %ds, want 0", segs[0].Start))
	}
	for i, s := range segs {
		if !s.Kind.Valid() {
			errs = append(errs, fmt.Sprintf("segment %d: unknown type %q", i, s.Kind))
		}
		if s.Duration <= 0 {
			errs = append(errs, fmt.Sprintf("segment %d: duration must be positive", i))
		}
		if lo, hi := s.Bounds(); lo < MinPower || hi > MaxPower {
			errs = append(errs, fmt.Sprintf("segment %d: power outside %.0f%%-%.0f%% FTP", i, MinPower*100, MaxPower*100))
		}
		if i == 0 {
			continue
		}
		switch prev := segs[i-1].End(); {
		case s.Start > prev:
			errs = append(errs, fmt.Sprintf("gap of %ds before segment %d", s.Start-prev, i))
		case s.Start < prev:
			errs = append(errs, fmt.Sprintf("segment %d overlaps previous by %ds", i, prev-s.Start))
		}
	}
	return errs
}
