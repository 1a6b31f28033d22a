package export

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/claude/traininglab/internal/workout"
)

// Format names accepted by Write.
const (
	FormatZWO = "zwo"
	FormatERG = "erg"
	FormatMRC = "mrc"
)

// ContentType returns the MIME type served for format.
func ContentType(format string) string {
	if format == FormatZWO {
		return "application/xml"
	}
	return "text/plain; charset=utf-8"
}

// Write encodes w in the named format. ftp is only used by ERG.
func Write(dst io.Writer, format string, w Workout, ftp int) error {
	switch strings.ToLower(format) {
	case FormatZWO:
		return WriteZWO(dst, w)
	case FormatERG:
		return WriteERG(dst, w, ftp)
	case FormatMRC:
		return WriteMRC(dst, w)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// WriteERG writes absolute watts, two points per segment.
func WriteERG(dst io.Writer, w Workout, ftp int) error {
	if ftp <= 0 {
		return ErrFTPRequired
	}
	return writeCourse(dst, w, fmt.Sprintf("FTP = %d\n", ftp), "MINUTES WATTS", func(p float64) string {
		return fmt.Sprintf("%d", int(math.Round(p*float64(ftp))))
	})
}

// WriteMRC writes percent of FTP, two points per segment.
func WriteMRC(dst io.Writer, w Workout) error {
	return writeCourse(dst, w, "", "MINUTES PERCENT", func(p float64) string {
		return fmt.Sprintf("%.0f", p*100)
	})
}

func writeCourse(dst io.Writer, w Workout, extra, columns string, value func(float64) string) error {
	var b strings.Builder
	b.WriteString("[COURSE HEADER]\n")
	b.WriteString("VERSION = 2\n")
	b.WriteString("UNITS = ENGLISH\n")
	fmt.Fprintf(&b, "DESCRIPTION = %s\n", oneLine(w.Description))
	fmt.Fprintf(&b, "FILE NAME = %s\n", oneLine(w.Name))
	b.WriteString(extra)
	b.WriteString(columns + "\n")
	b.WriteString("[END COURSE HEADER]\n")
	b.WriteString("[COURSE DATA]\n")
	for _, s := range workout.Retime(w.Segments) {
		lo, hi := s.Power, s.Power
		if s.Kind.IsRamp() {
			lo, hi = s.PowerLow, s.PowerHigh
		}
		fmt.Fprintf(&b, "%.2f\t%s\n", float64(s.Start)/60, value(lo))
		fmt.Fprintf(&b, "%.2f\t%s\n", float64(s.End())/60, value(hi))
	}
	b.WriteString("[END COURSE DATA]\n")

	if _, err := io.WriteString(dst, b.String()); err != nil {
		return fmt.Errorf("writing course file: %w", err)
	}
	return nil
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
