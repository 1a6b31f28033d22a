package workout

import "math"

// unsetPower stands in for a segment whose power resolves to zero.
const unsetPower = 0.6

// segmentPower is the single intensity a segment contributes to training load.
func segmentPower(s Segment) float64 {
	p := s.Power
	if s.Kind.IsRamp() {
		p = (s.PowerLow + s.PowerHigh) / 2
	}
	if p == 0 {
		p = unsetPower
	}
	return p
}

// NormalizedPower is the duration-weighted fourth-power mean of segment
// intensities, as a fraction of FTP. Zero-length segments are ignored.
func NormalizedPower(segs []Segment) float64 {
	total, weighted := loadSums(segs)
	if total == 0 {
		return 0
	}
	return math.Pow(weighted/float64(total), 0.25)
}

// IntensityFactor is NormalizedPower relative to FTP. Powers are already
// fractions of FTP so the two coincide.
func IntensityFactor(segs []Segment) float64 {
	return NormalizedPower(segs)
}

// TSS returns the Training Stress Score rounded to a whole number.
// One hour at FTP scores exactly 100.
func TSS(segs []Segment) float64 {
	total, _ := loadSums(segs)
	if total == 0 {
		return 0
	}
	np := NormalizedPower(segs)
	return math.Round(float64(total) * np * np / 3600 * 100)
}

func loadSums(segs []Segment) (total int, weighted float64) {
	for _, s := range segs {
		if s.Duration <= 0 {
			continue
		}
		p := segmentPower(s)
		weighted += p * p * p * p * float64(s.Duration)
		total += s.Duration
	}
	return total, weighted
}
