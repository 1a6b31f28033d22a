// Package export reads and writes workout files for trainer software:
// Zwift .zwo XML and the ERG/MRC course formats.
package export

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/claude/traininglab/internal/workout"
)

// MaxFileSize bounds any workout file accepted for parsing.
const MaxFileSize = 10 << 20

var (
	ErrUnsafeContent = errors.New("unsafe workout file content")
	ErrUnknownFormat = errors.New("unknown export format")
	ErrFTPRequired   = errors.New("ftp is required for this format")
	ErrTooLong       = errors.New("workout exceeds maximum duration")
)

// Workout is a named segment list ready for export.
type Workout struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Author      string            `json:"author,omitempty"`
	Segments    []workout.Segment `json:"segments"`
}

// FromResult wraps a compiled workout.
func FromResult(r *workout.Result) Workout {
	return Workout{Name: r.Name, Description: r.Description, Segments: r.Segments}
}

type zwoFile struct {
	XMLName     xml.Name `xml:"workout_file"`
	Author      string   `xml:"author"`
	Name        string   `xml:"name"`
	Description string   `xml:"description"`
	SportType   string   `xml:"sportType"`
	Workout     zwoSteps `xml:"workout"`
}

type zwoSteps struct {
	Steps []zwoStep `xml:",any"`
}

type zwoStep struct {
	XMLName     xml.Name
	Duration    float64 `xml:"Duration,attr,omitempty"`
	Power       float64 `xml:"Power,attr,omitempty"`
	PowerLow    float64 `xml:"PowerLow,attr,omitempty"`
	PowerHigh   float64 `xml:"PowerHigh,attr,omitempty"`
	Repeat      int     `xml:"Repeat,attr,omitempty"`
	OnDuration  float64 `xml:"OnDuration,attr,omitempty"`
	OffDuration float64 `xml:"OffDuration,attr,omitempty"`
	OnPower     float64 `xml:"OnPower,attr,omitempty"`
	OffPower    float64 `xml:"OffPower,attr,omitempty"`
}

// freeRidePower is the intensity assumed for an unstructured FreeRide block.
const freeRidePower = 0.50

// WriteZWO encodes w as a Zwift workout. Alternating on/off runs of identical
// repetitions become a single IntervalsT element.
func WriteZWO(dst io.Writer, w Workout) error {
	f := zwoFile{
		Author:      w.Author,
		Name:        w.Name,
		Description: w.Description,
		SportType:   "bike",
	}
	segs := w.Segments
	for i := 0; i < len(segs); {
		if n := intervalRun(segs[i:]); n > 1 {
			on, off := segs[i], segs[i+1]
			f.Workout.Steps = append(f.Workout.Steps, zwoStep{
				XMLName:     xml.Name{Local: "IntervalsT"},
				Repeat:      n,
				OnDuration:  float64(on.Duration),
				OffDuration: float64(off.Duration),
				OnPower:     on.Power,
				OffPower:    off.Power,
			})
			i += 2*n - 1
			continue
		}
		f.Workout.Steps = append(f.Workout.Steps, stepFor(segs[i]))
		i++
	}

	if _, err := io.WriteString(dst, xml.Header); err != nil {
		return fmt.Errorf("writing zwo header: %w", err)
	}
	enc := xml.NewEncoder(dst)
	enc.Indent("", "  ")
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("encoding zwo: %w", err)
	}
	return enc.Close()
}

// intervalRun counts repetitions of On,Off,On,...,On with identical on and
// off blocks at the head of segs. A trailing Off is not part of the run.
func intervalRun(segs []workout.Segment) int {
	if len(segs) < 3 || segs[0].Kind != workout.KindIntervalOn || segs[1].Kind != workout.KindIntervalOff {
		return 0
	}
	on, off := segs[0], segs[1]
	same := func(a, b workout.Segment) bool {
		return a.Kind == b.Kind && a.Duration == b.Duration && a.Power == b.Power
	}
	n := 1
	for i := 2; i < len(segs) && same(segs[i], on); i += 2 {
		n++
		if i+1 >= len(segs) || !same(segs[i+1], off) || i+2 >= len(segs) || !same(segs[i+2], on) {
			break
		}
	}
	return n
}

func stepFor(s workout.Segment) zwoStep {
	d := float64(s.Duration)
	switch s.Kind {
	case workout.KindWarmup:
		return zwoStep{XMLName: xml.Name{Local: "Warmup"}, Duration: d, PowerLow: s.PowerLow, PowerHigh: s.PowerHigh}
	case workout.KindCooldown:
		return zwoStep{XMLName: xml.Name{Local: "Cooldown"}, Duration: d, PowerLow: s.PowerLow, PowerHigh: s.PowerHigh}
	}
	return zwoStep{XMLName: xml.Name{Local: "SteadyState"}, Duration: d, Power: s.Power}
}

// ParseZWO decodes a Zwift workout. IntervalsT expands to alternating
// IntervalOn/IntervalOff segments without a trailing recovery.
func ParseZWO(r io.Reader) (Workout, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		return Workout{}, fmt.Errorf("reading zwo: %w", err)
	}
	if err := CheckContent(data); err != nil {
		return Workout{}, err
	}

	var f zwoFile
	if err := xml.Unmarshal(data, &f); err != nil {
		return Workout{}, fmt.Errorf("decoding zwo: %w", err)
	}

	w := Workout{
		Name:        strings.TrimSpace(f.Name),
		Description: strings.TrimSpace(f.Description),
		Author:      strings.TrimSpace(f.Author),
	}
	total := 0
	for i, st := range f.Workout.Steps {
		segs, err := segmentsFor(st, workout.MaxTotalDuration-total)
		if err != nil {
			return Workout{}, fmt.Errorf("step %d: %w", i, err)
		}
		w.Segments = append(w.Segments, segs...)
		total += workout.TotalDuration(segs)
	}
	w.Segments = workout.Retime(w.Segments)
	return w, nil
}

// segmentsFor expands one step. remaining is the time left before the
// workout would exceed workout.MaxTotalDuration.
func segmentsFor(st zwoStep, remaining int) ([]workout.Segment, error) {
	if st.Duration > float64(remaining) {
		return nil, fmt.Errorf("%w: <%s> Duration %.0f", ErrTooLong, st.XMLName.Local, st.Duration)
	}
	d := int(math.Round(st.Duration))
	switch st.XMLName.Local {
	case "Warmup":
		return []workout.Segment{workout.Ramp(workout.KindWarmup, d, st.PowerLow, st.PowerHigh)}, nil
	case "Cooldown":
		return []workout.Segment{workout.Ramp(workout.KindCooldown, d, st.PowerLow, st.PowerHigh)}, nil
	case "Ramp":
		kind := workout.KindWarmup
		if st.PowerHigh < st.PowerLow {
			kind = workout.KindCooldown
		}
		return []workout.Segment{workout.Ramp(kind, d, st.PowerLow, st.PowerHigh)}, nil
	case "SteadyState":
		return []workout.Segment{workout.Flat(workout.KindSteadyState, d, st.Power)}, nil
	case "FreeRide":
		return []workout.Segment{workout.Flat(workout.KindSteadyState, d, freeRidePower)}, nil
	case "IntervalsT":
		if st.Repeat < 1 {
			return nil, fmt.Errorf("IntervalsT repeat %d", st.Repeat)
		}
		if st.OnDuration > float64(remaining) || st.OffDuration > float64(remaining) {
			return nil, fmt.Errorf("%w: IntervalsT durations", ErrTooLong)
		}
		on := int(math.Round(st.OnDuration))
		off := int(math.Round(st.OffDuration))
		if span, ok := workout.SpanSeconds(st.Repeat, on, max(off, 0)); !ok || span > remaining {
			return nil, fmt.Errorf("%w: IntervalsT repeat %d", ErrTooLong, st.Repeat)
		}
		var out []workout.Segment
		for i := range st.Repeat {
			out = append(out, workout.Flat(workout.KindIntervalOn, on, st.OnPower))
			if i < st.Repeat-1 && off > 0 {
				out = append(out, workout.Flat(workout.KindIntervalOff, off, st.OffPower))
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported element <%s>", st.XMLName.Local)
}

var dangerousInstructions = []string{"<?php", "<?xml-stylesheet", "<?import"}

// CheckContent rejects oversized files, entity declarations, external DTDs
// and processing instructions that trainer software has no use for.
func CheckContent(data []byte) error {
	if len(data) > MaxFileSize {
		return fmt.Errorf("%w: larger than %d bytes", ErrUnsafeContent, MaxFileSize)
	}
	if bytes.Contains(data, []byte("<!ENTITY")) {
		return fmt.Errorf("%w: entity declarations are not allowed", ErrUnsafeContent)
	}
	if bytes.Contains(data, []byte("<!DOCTYPE")) && bytes.Contains(data, []byte("SYSTEM")) {
		return fmt.Errorf("%w: external DTD references are not allowed", ErrUnsafeContent)
	}
	for _, pi := range dangerousInstructions {
		if bytes.Contains(data, []byte(pi)) {
			return fmt.Errorf("%w: processing instruction %s", ErrUnsafeContent, pi)
		}
	}
	return nil
}

// ValidateName checks a workout name is safe to use as a title and file name.
func ValidateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return errors.New("workout name cannot be empty")
	case len(name) > 200:
		return fmt.Errorf("workout name too long: %d chars (max 200)", len(name))
	case strings.ContainsAny(name, "<>\"'&\x00\n\r\t"):
		return errors.New("workout name contains an invalid character")
	case strings.Contains(name, "..") || strings.ContainsAny(name, `/\`):
		return errors.New("workout name contains a path separator")
	}
	return nil
}
