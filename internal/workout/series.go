package workout

import (
	"encoding/json"
	"iter"
	"slices"
)

// Point is one chart sample: X in seconds from workout start, Y in percent of FTP.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// sampleInterval is the nominal spacing between series points, in seconds.
const sampleInterval = 10

// Series yields max(2, duration/10) evenly spaced points spanning the segment.
// Ramps interpolate linearly between PowerLow and PowerHigh. The sequence can
// be ranged over any number of times.
func Series(s Segment) iter.Seq[Point] {
	return func(yield func(Point) bool) {
		n := max(2, s.Duration/sampleInterval)
		for i := range n {
			f := float64(i) / float64(n-1)
			y := s.Power
			if s.Kind.IsRamp() {
				y = s.PowerLow + (s.PowerHigh-s.PowerLow)*f
			}
			if !yield(Point{X: float64(s.Start) + float64(s.Duration)*f, Y: y * 100}) {
				return
			}
		}
	}
}

// Points collects Series(s).
func Points(s Segment) []Point {
	return slices.Collect(Series(s))
}

// ChartSegment is a segment with its sampled power curve.
type ChartSegment struct {
	Segment
	PowerData []Point
}

// MarshalJSON flattens the segment fields next to powerData.
func (c ChartSegment) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		segmentJSON
		PowerData []Point `json:"powerData"`
	}{c.Segment.toJSON(), c.PowerData})
}

// Chart pairs every segment with its points.
func Chart(segs []Segment) []ChartSegment {
	out := make([]ChartSegment, len(segs))
	for i, s := range segs {
		out[i] = ChartSegment{Segment: s, PowerData: Points(s)}
	}
	return out
}
