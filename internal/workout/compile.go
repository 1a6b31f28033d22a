package workout

import "math"

// Ramp bounds for generated warmups and cooldowns.
const (
	rampLow  = 0.50
	rampHigh = 0.70
)

// Compiler turns a total duration, workout type and optional pattern into a
// contiguous segment list.
type Compiler struct {
	// FTP resolves wattage targets. Zero leaves them unresolved.
	FTP int
	// ImplicitTotal allows the total to grow when the pattern does not fit,
	// because the caller never asked for a specific length.
	ImplicitTotal bool
}

// Compile compiles with an explicit total and the given FTP.
func Compile(total int, typ WorkoutType, p *Pattern, ftp int) ([]Segment, []Note) {
	return Compiler{FTP: ftp}.Compile(total, typ, p)
}

// Compile returns the segments and the notes of every fallback it applied.
// The returned segments always satisfy the timeline invariants.
func (c Compiler) Compile(total int, typ WorkoutType, p *Pattern) ([]Segment, []Note) {
	prof := ProfileFor(typ)
	var notes []Note
	if p != nil {
		if r, ok := p.Main.(Remainder); ok {
			p = &Pattern{Remainder: &r}
		}
	}

	if total < MinTotalDuration || total > MaxTotalDuration {
		notes = addNote(notes, NoteDurationOutOfRange)
		return steadyWorkout(DefaultTotalDuration, prof.Filler()), notes
	}

	warm, cool := phases(total, prof.Ratio)
	budget := total - warm - cool

	var main []Segment
	switch {
	case p != nil && p.Main != nil:
		if !fits(p.Main, prof) {
			notes = addNote(notes, NotePatternExceedsDuration)
			return steadyWorkout(total, prof.Filler()), notes
		}
		main, notes = c.expand(p.Main, prof, notes)
		used := TotalDuration(main)
		if used > budget {
			if !c.ImplicitTotal || warm+used+cool > MaxTotalDuration {
				notes = addNote(notes, NotePatternExceedsDuration)
				return steadyWorkout(total, prof.Filler()), notes
			}
			budget = used
		}
		if left := budget - used; left > 0 {
			power := prof.Filler()
			if p.Remainder != nil {
				power, notes = c.resolve(p.Remainder.Power, power, notes)
			}
			main = append(main, Flat(KindSteadyState, left, power))
		}
	case p != nil && p.Remainder != nil:
		var power float64
		power, notes = c.resolve(p.Remainder.Power, prof.Filler(), notes)
		main = []Segment{Flat(KindSteadyState, budget, power)}
	default:
		main = []Segment{Flat(KindSteadyState, budget, prof.Steady.Mid())}
	}

	segs := make([]Segment, 0, len(main)+2)
	segs = append(segs, Ramp(KindWarmup, warm, rampLow, rampHigh))
	segs = append(segs, main...)
	segs = append(segs, Ramp(KindCooldown, cool, rampHigh, rampLow))

	if clampPowers(segs) {
		notes = addNote(notes, NotePowerClamped)
	}
	retime(segs)

	if len(checkTimeline(segs)) > 0 {
		return steadyWorkout(DefaultTotalDuration, prof.Filler()), notes
	}
	return segs, notes
}

// expand emits the main interval set. Recoveries sit between repetitions
// only, never after the last one.
func (c Compiler) expand(node IntervalNode, prof Profile, notes []Note) ([]Segment, []Note) {
	var out []Segment
	switch n := node.(type) {
	case Simple:
		n = n.withDefaults(prof)
		var work, rest float64
		work, notes = c.resolve(n.WorkPower, prof.Work.Mid(), notes)
		rest, notes = c.resolve(n.RestPower, prof.RestPower, notes)
		for i := range n.Repeat {
			out = append(out, Flat(KindIntervalOn, n.Work, work))
			if i < n.Repeat-1 && n.Rest > 0 {
				out = append(out, Flat(KindIntervalOff, n.Rest, rest))
			}
		}
	case Compound:
		steps := make([]float64, len(n.Steps))
		for i, st := range n.Steps {
			steps[i], notes = c.resolve(st.Power, prof.Work.Mid(), notes)
		}
		var rest float64
		rest, notes = c.resolve(n.RestPower, DefaultCompoundRestPower, notes)
		for i := range n.Repeat {
			for j, st := range n.Steps {
				out = append(out, Flat(KindIntervalOn, st.Duration, steps[j]))
			}
			if i < n.Repeat-1 && n.Rest > 0 {
				out = append(out, Flat(KindIntervalOff, n.Rest, rest))
			}
		}
	case Remainder:
		// A bare remainder has no fixed length; the caller fills the budget.
	}
	return out, notes
}

// fits reports whether node, with profile defaults applied, can be expanded
// within MaxTotalDuration.
func fits(node IntervalNode, prof Profile) bool {
	var ok bool
	switch n := node.(type) {
	case Simple:
		n = n.withDefaults(prof)
		_, ok = SpanSeconds(n.Repeat, n.Work, n.Rest)
	case Compound:
		_, ok = SpanSeconds(n.Repeat, n.Outer, n.Rest)
	default:
		ok = true
	}
	return ok
}

func (c Compiler) resolve(t Target, fallback float64, notes []Note) (float64, []Note) {
	p, unresolved := t.Resolve(c.FTP, fallback)
	if unresolved {
		notes = addNote(notes, NoteWattageUnresolved)
	}
	return p, notes
}

// fitDefault drops repetitions from a default pattern until it fits the
// main set of a total-second workout.
func fitDefault(s Simple, total int, r Ratio) Simple {
	if total < MinTotalDuration || total > MaxTotalDuration {
		return s
	}
	warm, cool := phases(total, r)
	budget := total - warm - cool
	for s.Repeat > 1 && s.Repeat*s.Work+(s.Repeat-1)*s.Rest > budget {
		s.Repeat--
	}
	return s
}

// phases sizes the warmup and cooldown for total seconds.
func phases(total int, r Ratio) (warm, cool int) {
	warm = clampInt(round5min(r.Warmup*float64(total)), 300, 900)
	cool = clampInt(round5min(r.Cooldown*float64(total)), 300, 600)
	return warm, cool
}

func round5min(secs float64) int {
	return int(math.Round(secs/300)) * 300
}

func clampInt(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

// steadyWorkout is the fallback shape: warmup, one steady block, cooldown.
func steadyWorkout(total int, power float64) []Segment {
	warm, cool := phases(total, ProfileFor(TypeEndurance).Ratio)
	segs := []Segment{
		Ramp(KindWarmup, warm, rampLow, rampHigh),
		Flat(KindSteadyState, total-warm-cool, power),
		Ramp(KindCooldown, cool, rampHigh, rampLow),
	}
	clampPowers(segs)
	retime(segs)
	return segs
}

func clampPower(p float64) float64 {
	return math.Min(math.Max(p, MinPower), MaxPower)
}

// clampPowers clamps every power in place and reports whether any changed.
func clampPowers(segs []Segment) bool {
	changed := false
	for i := range segs {
		s := &segs[i]
		if s.Kind.IsRamp() {
			lo, hi := clampPower(s.PowerLow), clampPower(s.PowerHigh)
			changed = changed || lo != s.PowerLow || hi != s.PowerHigh
			s.PowerLow, s.PowerHigh = lo, hi
			continue
		}
		p := clampPower(s.Power)
		changed = changed || p != s.Power
		s.Power = p
	}
	return changed
}

// retime assigns start times by running sum, in place.
func retime(segs []Segment) {
	t := 0
	for i := range segs {
		segs[i].Start = t
		t += segs[i].Duration
	}
}
