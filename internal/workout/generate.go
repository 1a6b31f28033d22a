package workout

import (
	"fmt"
	"strings"
)

// Request asks for a workout compiled from free text.
type Request struct {
	Description string `json:"description"`
	// FTP in watts resolves wattage targets. Optional.
	FTP int `json:"ftp,omitempty"`
	// TotalDuration in seconds overrides any length in the text. Optional.
	TotalDuration int `json:"totalDuration,omitempty"`
}

// Generate classifies, parses and compiles a description. The only error is
// ErrInvalidInput for a blank description; everything else degrades to
// defaults, listed in Result.Notes.
func Generate(req Request) (*Result, error) {
	desc := strings.TrimSpace(req.Description)
	if desc == "" {
		return nil, fmt.Errorf("empty workout description: %w", ErrInvalidInput)
	}

	var notes []Note
	typ, ok := Classify(desc)
	if !ok {
		notes = addNote(notes, NoteDefaultType)
	}

	pattern, residual, pnotes := parsePattern(desc)
	notes = append(notes, pnotes...)

	total, implicit := req.TotalDuration, false
	if total <= 0 {
		if secs, ok := ParseTotalDuration(residual); ok {
			total = secs
		} else {
			total, implicit = DefaultTotalDuration, true
			notes = addNote(notes, NoteDefaultDuration)
		}
	}

	if pattern == nil || pattern.Main == nil {
		if prof := ProfileFor(typ); prof.Default != nil {
			withDefault := Pattern{Main: fitDefault(*prof.Default, total, prof.Ratio)}
			if pattern != nil {
				withDefault.Remainder = pattern.Remainder
			}
			pattern = &withDefault
			notes = addNote(notes, NoteDefaultPattern)
		}
	}

	segs, cnotes := Compiler{FTP: req.FTP, ImplicitTotal: implicit}.Compile(total, typ, pattern)
	for _, n := range cnotes {
		notes = addNote(notes, n)
	}

	return &Result{
		Name:          Name(typ, pattern, TotalDuration(segs)),
		Description:   desc,
		Type:          typ,
		Segments:      segs,
		TotalDuration: TotalDuration(segs),
		TSS:           TSS(segs),
		Notes:         notes,
	}, nil
}

var typeTitles = map[WorkoutType]string{
	TypeEndurance: "Endurance",
	TypeInterval:  "Intervals",
	TypeRecovery:  "Recovery",
	TypeTempo:     "Tempo",
	TypeThreshold: "Threshold",
	TypeVO2Max:    "VO2max",
	TypeSprint:    "Sprints",
}

// Name builds a short title: "4x5min Threshold" for interval workouts,
// "45min Endurance" otherwise.
func Name(typ WorkoutType, p *Pattern, total int) string {
	title, ok := typeTitles[typ]
	if !ok {
		title = typeTitles[TypeEndurance]
	}
	if p != nil {
		switch n := p.Main.(type) {
		case Simple:
			return fmt.Sprintf("%dx%s %s", n.Repeat, FormatDuration(n.Work), title)
		case Compound:
			return fmt.Sprintf("%dx%s %s", n.Repeat, FormatDuration(n.Outer), title)
		}
	}
	return FormatDuration(total) + " " + title
}

// FormatDuration renders seconds compactly: 30s, 5min, 2min30s, 1h, 1h30min.
func FormatDuration(secs int) string {
	h, m, s := secs/3600, secs%3600/60, secs%60
	var b strings.Builder
	if h > 0 {
		fmt.Fprintf(&b, "%dh", h)
	}
	if m > 0 {
		fmt.Fprintf(&b, "%dmin", m)
	}
	if s > 0 || b.Len() == 0 {
		fmt.Fprintf(&b, "%ds", s)
	}
	return b.String()
}
