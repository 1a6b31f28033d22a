package workout

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// --- Durations ---

var (
	// hourMinRe matches: 1h30m, 1 hour 30 min, 2 hours and 15 minutes
	hourMinRe = regexp.MustCompile(`(\d+)\s*(?:hours?|hrs?|h)\s*(?:and\s+)?(\d+)\s*(?:(?:minutes?|mins?|m)\b|')`)

	// hourMinShortRe matches: 1h30
	hourMinShortRe = regexp.MustCompile(`(\d+)h(\d{1,2})\b`)

	// minSecRe matches: 2'30", 2m30s, 2 min 30 sec
	minSecRe = regexp.MustCompile(`(\d+)\s*(?:'|m(?:ins?)?)\s*(\d+)\s*(?:"|s(?:ec(?:ond)?s?)?\b)`)

	// hoursRe matches: 2 hours, 1.5h, 2-hour
	hoursRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*-?\s*(?:hours?|hrs?|h)\b`)

	// minutesRe matches: 90 min, 45 minute, 90-minute, 45m, 14'
	minutesRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*-?\s*(?:(?:minutes?|mins?|m)\b|')`)

	// secondsRe matches: 30s, 45 sec, 30 seconds, 45"
	secondsRe = regexp.MustCompile(`(\d+)\s*-?\s*(?:(?:seconds?|secs?|s)\b|")`)
)

// durationForm converts the submatches of one duration regex into seconds.
type durationForm struct {
	re      *regexp.Regexp
	seconds func(m []string) int
	total   bool // usable as a whole-workout length
}

var durationForms = []durationForm{
	{re: hourMinRe, seconds: func(m []string) int { return atoi(m[1])*3600 + atoi(m[2])*60 }, total: true},
	{re: hourMinShortRe, seconds: func(m []string) int { return atoi(m[1])*3600 + atoi(m[2])*60 }, total: true},
	{re: minSecRe, seconds: func(m []string) int { return atoi(m[1])*60 + atoi(m[2]) }},
	{re: hoursRe, seconds: func(m []string) int { return int(math.Round(atof(m[1]) * 3600)) }, total: true},
	{re: minutesRe, seconds: func(m []string) int { return int(math.Round(atof(m[1]) * 60)) }, total: true},
	{re: secondsRe, seconds: func(m []string) int { return atoi(m[1]) }},
}

// ParseDuration finds the first duration phrase in text and returns it in
// seconds. Hours, minutes, seconds and mixed forms are recognised.
func ParseDuration(text string) (int, bool) {
	secs, _, ok := findDuration(strings.ToLower(text), false)
	return secs, ok
}

// ParseTotalDuration is ParseDuration restricted to hour and minute forms, so
// that a stray "30s" never becomes the length of a whole workout.
func ParseTotalDuration(text string) (int, bool) {
	secs, _, ok := findDuration(strings.ToLower(text), true)
	return secs, ok
}

// findDuration returns the leftmost duration match. At equal positions the
// longer match wins so "1h30m" beats "1h".
func findDuration(text string, totalOnly bool) (int, []int, bool) {
	var (
		best    []int
		bestSec int
	)
	for _, f := range durationForms {
		if totalOnly && !f.total {
			continue
		}
		loc := f.re.FindStringSubmatchIndex(text)
		if loc == nil {
			continue
		}
		if best != nil && (loc[0] > best[0] || (loc[0] == best[0] && loc[1] <= best[1])) {
			continue
		}
		m := submatches(text, loc)
		secs := f.seconds(m)
		if secs <= 0 {
			continue
		}
		best, bestSec = loc[:2], secs
	}
	if best == nil {
		return 0, nil, false
	}
	return bestSec, best, true
}

func submatches(text string, loc []int) []string {
	m := make([]string, len(loc)/2)
	for i := range m {
		if loc[2*i] >= 0 {
			m[i] = text[loc[2*i]:loc[2*i+1]]
		}
	}
	return m
}

// atoi returns 0 for anything strconv.Atoi rejects, including overflow.
func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// parseCount reads a repetition count; overflow and zero are rejected.
func parseCount(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	return n, err == nil && n >= 1
}

func atof(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

// --- Intensities ---

// Band is an intensity range in whole percent of FTP.
type Band struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Mid returns the band midpoint as a fraction of FTP.
func (b Band) Mid() float64 {
	return float64((b.Min+b.Max)/2) / 100
}

// Zone is one of the seven standard power zones.
type Zone struct {
	Number int    `json:"zone"`
	Name   string `json:"name"`
	Band   Band   `json:"percent"`
}

var zones = [...]Zone{
	{1, "Active Recovery", Band{45, 60}},
	{2, "Endurance", Band{61, 75}},
	{3, "Tempo", Band{76, 90}},
	{4, "Lactate Threshold", Band{91, 105}},
	{5, "VO2 Max", Band{106, 120}},
	{6, "Anaerobic Capacity", Band{121, 150}},
	{7, "Neuromuscular Power", Band{151, 300}},
}

// ModerateEndurance is the band used for unrecognised intensity keywords.
var ModerateEndurance = Band{65, 65}

// ZoneRange is a zone with its watt bounds for a given FTP.
type ZoneRange struct {
	Zone
	MinWatts int `json:"min_watts"`
	MaxWatts int `json:"max_watts"`
}

// Zones returns the seven power zones with watt ranges for ftp.
func Zones(ftp int) []ZoneRange {
	out := make([]ZoneRange, len(zones))
	for i, z := range zones {
		out[i] = ZoneRange{
			Zone:     z,
			MinWatts: ftp * z.Band.Min / 100,
			MaxWatts: ftp * z.Band.Max / 100,
		}
	}
	return out
}

// ZoneFor returns the zone containing the given fraction of FTP. Values below
// zone 1 map to zone 1 and values above zone 7 to zone 7.
func ZoneFor(power float64) Zone {
	pct := int(math.Round(power * 100))
	for _, z := range zones {
		if pct <= z.Band.Max {
			return z
		}
	}
	return zones[len(zones)-1]
}

var intensityKeywords = map[string]Band{
	"active recovery": zones[0].Band,
	"recovery":        zones[0].Band,
	"easy":            zones[0].Band,
	"endurance":       zones[1].Band,
	"aerobic":         zones[1].Band,
	"tempo":           zones[2].Band,
	"sweet spot":      {88, 94},
	"sweetspot":       {88, 94},
	"threshold":       zones[3].Band,
	"ftp":             {95, 105},
	"vo2max":          zones[4].Band,
	"vo2 max":         zones[4].Band,
	"vo2":             zones[4].Band,
	"anaerobic":       zones[5].Band,
	"sprint":          zones[6].Band,
	"neuromuscular":   zones[6].Band,
}

func init() {
	for _, z := range zones {
		n := strconv.Itoa(z.Number)
		intensityKeywords["zone "+n] = z.Band
		intensityKeywords["zone"+n] = z.Band
		intensityKeywords["z"+n] = z.Band
	}
}

var spaceRe = regexp.MustCompile(`\s+`)

func normalize(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(strings.ToLower(s), " "))
}

// ResolveIntensity maps an intensity keyword ("threshold", "zone 2", "z5") to
// its FTP band. Phrases containing a keyword ("zone 2 endurance") resolve to
// the keyword that appears first.
func ResolveIntensity(keyword string) (Band, bool) {
	k := normalize(keyword)
	if b, ok := intensityKeywords[k]; ok {
		return b, true
	}
	best, bestPos, bestLen := Band{}, -1, 0
	for kw, b := range intensityKeywords {
		pos := wordIndex(k, kw)
		if pos < 0 {
			continue
		}
		if bestPos < 0 || pos < bestPos || (pos == bestPos && len(kw) > bestLen) {
			best, bestPos, bestLen = b, pos, len(kw)
		}
	}
	return best, bestPos >= 0
}

// IntensityOrDefault is ResolveIntensity falling back to moderate endurance.
func IntensityOrDefault(keyword string) Band {
	if b, ok := ResolveIntensity(keyword); ok {
		return b
	}
	return ModerateEndurance
}

// wordIndex finds kw in s as a whole word, allowing a plural "s".
func wordIndex(s, kw string) int {
	from := 0
	for {
		i := strings.Index(s[from:], kw)
		if i < 0 {
			return -1
		}
		i += from
		if i == 0 || !isWordByte(s[i-1]) {
			end := i + len(kw)
			if end < len(s) && s[end] == 's' {
				end++
			}
			if end == len(s) || !isWordByte(s[end]) {
				return i
			}
		}
		from = i + 1
	}
}

func isWordByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// --- Workout types ---

// WorkoutType is the category a description is classified into.
type WorkoutType string

const (
	TypeEndurance WorkoutType = "endurance"
	TypeInterval  WorkoutType = "interval"
	TypeRecovery  WorkoutType = "recovery"
	TypeTempo     WorkoutType = "tempo"
	TypeThreshold WorkoutType = "threshold"
	TypeVO2Max    WorkoutType = "vo2max"
	TypeSprint    WorkoutType = "sprint"
)

// Ratio splits a workout into warmup, main work and cooldown.
type Ratio struct {
	Warmup   float64
	Work     float64
	Cooldown float64
}

// Profile holds the structural defaults of a workout type.
type Profile struct {
	Type      WorkoutType
	Ratio     Ratio
	Steady    Band    // main-set intensity when no intervals are given
	Work      Band    // interval intensity when the description names none
	RestPower float64 // recovery intensity between repetitions
	RestRatio float64 // recovery duration as a multiple of the work duration
	Default   *Simple // pattern applied when the description names none
}

// Filler returns the power used for leftover main-set time: the steady
// intensity, capped at the endurance midpoint.
func (p Profile) Filler() float64 {
	return math.Min(p.Steady.Mid(), zones[1].Band.Mid())
}

func defaultPattern(repeat, work int, workBand Band, restRatio, restPower float64) *Simple {
	return &Simple{
		Repeat:    repeat,
		Work:      work,
		Rest:      int(math.Round(float64(work) * restRatio)),
		WorkPower: Target{Fraction: workBand.Mid()},
		RestPower: Target{Fraction: restPower},
	}
}

var profiles = map[WorkoutType]Profile{
	TypeEndurance: {
		Type: TypeEndurance, Ratio: Ratio{0.20, 0.60, 0.20},
		Steady: zones[1].Band, Work: zones[2].Band, RestPower: 0.55, RestRatio: 0.5,
	},
	TypeRecovery: {
		Type: TypeRecovery, Ratio: Ratio{0.15, 0.70, 0.15},
		Steady: zones[0].Band, Work: zones[1].Band, RestPower: 0.50, RestRatio: 0.5,
	},
	TypeTempo: {
		Type: TypeTempo, Ratio: Ratio{0.20, 0.60, 0.20},
		Steady: zones[2].Band, Work: zones[2].Band, RestPower: 0.55, RestRatio: 0.25,
	},
	TypeInterval: {
		Type: TypeInterval, Ratio: Ratio{0.20, 0.60, 0.20},
		Steady: zones[1].Band, Work: zones[4].Band, RestPower: 0.55, RestRatio: 1.0,
		Default: defaultPattern(5, 180, zones[4].Band, 1.0, 0.55),
	},
	TypeThreshold: {
		Type: TypeThreshold, Ratio: Ratio{0.25, 0.55, 0.20},
		Steady: zones[3].Band, Work: Band{95, 105}, RestPower: 0.60, RestRatio: 0.5,
		Default: defaultPattern(4, 480, Band{95, 105}, 0.5, 0.60),
	},
	TypeVO2Max: {
		Type: TypeVO2Max, Ratio: Ratio{0.25, 0.55, 0.20},
		Steady: zones[4].Band, Work: zones[4].Band, RestPower: 0.50, RestRatio: 1.0,
		Default: defaultPattern(5, 180, zones[4].Band, 1.0, 0.50),
	},
	TypeSprint: {
		Type: TypeSprint, Ratio: Ratio{0.25, 0.55, 0.20},
		Steady: Band{121, 150}, Work: Band{150, 150}, RestPower: 0.50, RestRatio: 4.0,
		Default: defaultPattern(8, 30, Band{150, 150}, 4.0, 0.50),
	},
}

// ProfileFor returns the profile of t, or the endurance profile for unknown types.
func ProfileFor(t WorkoutType) Profile {
	if p, ok := profiles[t]; ok {
		return p
	}
	return profiles[TypeEndurance]
}

var typeKeywords = []struct {
	keyword string
	typ     WorkoutType
}{
	{"endurance", TypeEndurance},
	{"aerobic", TypeEndurance},
	{"zone 2", TypeEndurance},
	{"z2", TypeEndurance},
	{"long ride", TypeEndurance},
	{"interval", TypeInterval},
	{"repeats", TypeInterval},
	{"hiit", TypeInterval},
	{"recovery", TypeRecovery},
	{"easy spin", TypeRecovery},
	{"tempo", TypeTempo},
	{"sweet spot", TypeTempo},
	{"sweetspot", TypeTempo},
	{"threshold", TypeThreshold},
	{"ftp", TypeThreshold},
	{"vo2max", TypeVO2Max},
	{"vo2 max", TypeVO2Max},
	{"vo2", TypeVO2Max},
	{"v02", TypeVO2Max},
	{"sprint", TypeSprint},
	{"anaerobic", TypeSprint},
	{"neuromuscular", TypeSprint},
}

// Classify scans text for category keywords. The keyword that occurs first in
// the text wins; at equal positions the longer keyword wins. Without a match
// it returns the endurance type and false.
func Classify(text string) (WorkoutType, bool) {
	t := normalize(text)
	best, bestPos, bestLen := TypeEndurance, -1, 0
	for _, k := range typeKeywords {
		pos := wordIndex(t, k.keyword)
		if pos < 0 {
			continue
		}
		if bestPos < 0 || pos < bestPos || (pos == bestPos && len(k.keyword) > bestLen) {
			best, bestPos, bestLen = k.typ, pos, len(k.keyword)
		}
	}
	return best, bestPos >= 0
}
