package workout

import (
	"math"
	"regexp"
	"strings"
)

// Target is a power target. Watts, when set, is a deferred annotation that
// overrides Fraction once an FTP is known.
type Target struct {
	Fraction float64 `json:"fraction,omitempty"`
	Watts    int     `json:"watts,omitempty"`
}

// IsZero reports whether the target names no power at all.
func (t Target) IsZero() bool {
	return t.Fraction == 0 && t.Watts == 0
}

// Resolve converts the target to a fraction of FTP. Wattage needs ftp > 0;
// without it the percentage (or fallback) is used and unresolved is true.
func (t Target) Resolve(ftp int, fallback float64) (power float64, unresolved bool) {
	if t.Watts > 0 {
		if ftp > 0 {
			return float64(t.Watts) / float64(ftp), false
		}
		unresolved = true
	}
	if t.Fraction > 0 {
		return t.Fraction, unresolved
	}
	return fallback, unresolved
}

// IntervalNode is one of Simple, Compound or Remainder.
type IntervalNode interface {
	intervalNode()
}

// Simple is "<N> x <work> (<rest>)" with one work and one rest power.
// Zero Rest, WorkPower or RestPower defer to the workout type's profile.
type Simple struct {
	Repeat    int    `json:"repeat"`
	Work      int    `json:"work"`
	Rest      int    `json:"rest"`
	WorkPower Target `json:"work_power"`
	RestPower Target `json:"rest_power"`
}

// SubStep is one power block inside a compound repetition.
type SubStep struct {
	Duration int    `json:"duration"`
	Power    Target `json:"power"`
}

// Compound is "<N> x <outer> (<rest>) as <d1> @ <p1> then <d2> @ <p2> ...".
// Steps always sum to Outer.
type Compound struct {
	Repeat    int       `json:"repeat"`
	Outer     int       `json:"outer"`
	Rest      int       `json:"rest"`
	RestPower Target    `json:"rest_power"`
	Steps     []SubStep `json:"steps"`
}

// Remainder fills whatever main-set time the intervals leave unused.
type Remainder struct {
	Power Target `json:"power"`
}

func (Simple) intervalNode()    {}
func (Compound) intervalNode()  {}
func (Remainder) intervalNode() {}

// Pattern is a parsed interval description: an optional main interval node
// and an optional trailing remainder.
type Pattern struct {
	Main      IntervalNode
	Remainder *Remainder
}

// DefaultCompoundRestPower is the recovery intensity between compound repetitions.
const DefaultCompoundRestPower = 0.50

var (
	durPattern = `\d+(?:\.\d+)?\s*(?:'\s*\d+\s*"|hours?|hrs?|h\b|minutes?|mins?|m\b|'|seconds?|secs?|s\b|")`

	// simpleHeadRe matches: 4x5min, 4 x 5 minutes, 2 × 14'
	simpleHeadRe = regexp.MustCompile(`(\d+)\s*[x×]\s*(` + durPattern + `)`)

	// countHeadRe matches: 5 intervals of 3 minutes, 6 repeats 2min
	countHeadRe = regexp.MustCompile(`(\d+)\s*(?:intervals?|repeats?|reps)\s+(?:of\s+)?(` + durPattern + `)`)

	parensRe      = regexp.MustCompile(`^\s*\(([^)]*)\)`)
	powerClauseRe = regexp.MustCompile(`^\s*(?:@|at\b)\s*`)
	withRestRe    = regexp.MustCompile(`^\s*(?:with|w/)\s+(` + durPattern + `)(?:\s*(?:of\s+)?(?:recovery|rest|easy|off))?`)
	asRe          = regexp.MustCompile(`^\s*as\s+`)
	remainderRe   = regexp.MustCompile(`remainder\s+(?:at|@|in)\s+([^.,;]+)`)
	stepSplitRe   = regexp.MustCompile(`\s*(?:\bthen\b|,|;|\band\b|\bfollowed by\b)\s*`)
	stepLeadRe    = regexp.MustCompile(`^(?:first|last|finally)\s+`)
	sentenceEndRe = regexp.MustCompile(`\.(?:\s|$)|\bremainder\b`)
	clauseStopRe  = regexp.MustCompile(`[,;()]|\.(?:\s|$)|\bthen\b|\bwith\b`)

	percentRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)
	wattsRe   = regexp.MustCompile(`(\d+)\s*(?:w|watts?)\b`)

	looksLikeIntervalRe = regexp.MustCompile(`\d+\s*[x×]\s*\d`)
)

// ParsePattern recognises an interval expression in text. It returns nil
// when the text contains no usable interval or remainder clause.
func ParsePattern(text string) *Pattern {
	p, _, _ := parsePattern(text)
	return p
}

// parsePattern returns the pattern, the text with every consumed span blanked
// out (so later duration scans ignore interval lengths), and parser notes.
func parsePattern(text string) (*Pattern, string, []Note) {
	work := []byte(strings.ToLower(text))
	var notes []Note
	p := &Pattern{}

	if loc := remainderRe.FindSubmatchIndex(work); loc != nil {
		target, _, ok := parseTarget(string(work[loc[2]:loc[3]]))
		if !ok {
			target = Target{Fraction: ModerateEndurance.Mid()}
		}
		p.Remainder = &Remainder{Power: target}
		blank(work, loc[0], loc[1])
	}

	s := string(work)
	node, start, end, malformed, extended := parseCompound(s)
	if node == nil && !malformed {
		node, start, end = parseSimple(s)
	}
	switch {
	case node != nil:
		p.Main = node
		blank(work, start, end)
		if extended {
			notes = addNote(notes, NoteCompoundExtended)
		}
	case malformed || looksLikeIntervalRe.MatchString(s):
		notes = addNote(notes, NotePatternUnmatched)
	}

	if p.Main == nil && p.Remainder == nil {
		return nil, string(work), notes
	}
	return p, string(work), notes
}

func blank(b []byte, start, end int) {
	for i := start; i < end; i++ {
		b[i] = ' '
	}
}

// parseCompound returns malformed=true when the compound grammar matched but
// its sub-steps are unusable, so the caller must not retry as a simple pattern.
func parseCompound(s string) (node IntervalNode, start, end int, malformed, extended bool) {
	head := simpleHeadRe.FindStringSubmatchIndex(s)
	if head == nil {
		return nil, 0, 0, false, false
	}
	pos := head[1]
	paren := parensRe.FindStringSubmatchIndex(s[pos:])
	if paren == nil {
		return nil, 0, 0, false, false
	}
	as := asRe.FindStringIndex(s[pos+paren[1]:])
	if as == nil {
		return nil, 0, 0, false, false
	}

	repeat, countOK := parseCount(s[head[2]:head[3]])
	outer, _ := ParseDuration(s[head[4]:head[5]])
	rest, restPower := parseRestClause(s[pos+paren[2] : pos+paren[3]])

	bodyStart := pos + paren[1] + as[1]
	body := s[bodyStart:]
	if stop := sentenceEndRe.FindStringIndex(body); stop != nil {
		body = body[:stop[0]]
	}
	end = bodyStart + len(body)

	var steps []SubStep
	sum := 0
	for _, part := range stepSplitRe.Split(body, -1) {
		part = stepLeadRe.ReplaceAllString(strings.TrimSpace(part), "")
		if part == "" {
			continue
		}
		d, loc, ok := findDuration(part, false)
		if !ok {
			continue
		}
		target, _, _ := parseTarget(part[loc[1]:])
		steps = append(steps, SubStep{Duration: d, Power: target})
		sum += d
	}

	if !countOK || outer <= 0 || len(steps) == 0 || sum > outer {
		return nil, head[0], end, true, false
	}
	if sum < outer {
		steps[len(steps)-1].Duration += outer - sum
		extended = true
	}
	if restPower.IsZero() {
		restPower = Target{Fraction: DefaultCompoundRestPower}
	}
	return Compound{
		Repeat:    repeat,
		Outer:     outer,
		Rest:      rest,
		RestPower: restPower,
		Steps:     steps,
	}, head[0], end, false, extended
}

func parseSimple(s string) (IntervalNode, int, int) {
	head := simpleHeadRe.FindStringSubmatchIndex(s)
	if head == nil {
		head = countHeadRe.FindStringSubmatchIndex(s)
	}
	if head == nil {
		return nil, 0, 0
	}
	repeat, ok := parseCount(s[head[2]:head[3]])
	work, _ := ParseDuration(s[head[4]:head[5]])
	if !ok || work <= 0 {
		return nil, 0, 0
	}
	node := Simple{Repeat: repeat, Work: work}
	end := head[1]

	// Trailing modifiers in any order: (rest), @ power, with <rest>.
	for range 3 {
		tail := s[end:]
		if m := parensRe.FindStringSubmatchIndex(tail); m != nil {
			content := tail[m[2]:m[3]]
			if d, p := parseRestClause(content); d > 0 {
				node.Rest, node.RestPower = d, p
			} else if t, _, ok := parseTarget(content); ok {
				node.WorkPower = t
			}
			end += m[1]
			continue
		}
		if m := powerClauseRe.FindStringIndex(tail); m != nil {
			clause := tail[m[1]:]
			if stop := clauseStopRe.FindStringIndex(clause); stop != nil {
				clause = clause[:stop[0]]
			}
			if t, n, ok := parseTarget(clause); ok {
				node.WorkPower = t
				end += m[1] + n
				continue
			}
		}
		if m := withRestRe.FindStringSubmatchIndex(tail); m != nil {
			node.Rest, _ = ParseDuration(tail[m[2]:m[3]])
			end += m[1]
			continue
		}
		break
	}
	return node, head[0], end
}

// parseRestClause reads "4'", "2 min @ 50%" or "90s easy".
func parseRestClause(content string) (int, Target) {
	d, loc, ok := findDuration(content, false)
	if !ok {
		return 0, Target{}
	}
	t, _, _ := parseTarget(content[loc[1]:])
	return d, t
}

// parseTarget reads a percentage, a wattage or an intensity keyword. It
// returns the offset just past the last token it used.
func parseTarget(s string) (Target, int, bool) {
	var (
		t   Target
		end int
		ok  bool
	)
	if m := percentRe.FindStringSubmatchIndex(s); m != nil {
		t.Fraction = atof(s[m[2]:m[3]]) / 100
		end, ok = m[1], true
	}
	if m := wattsRe.FindStringSubmatchIndex(s); m != nil {
		t.Watts = atoi(s[m[2]:m[3]])
		end, ok = max(end, m[1]), true
	}
	if ok {
		return t, end, true
	}
	if b, found := ResolveIntensity(s); found {
		return Target{Fraction: b.Mid()}, len(strings.TrimRight(s, " ")), true
	}
	return Target{}, 0, false
}

// Duration returns the seconds taken by the main node, recoveries included,
// or math.MaxInt when the node cannot fit in MaxTotalDuration.
func (p *Pattern) Duration() int {
	if p == nil {
		return 0
	}
	span, ok := 0, true
	switch n := p.Main.(type) {
	case Simple:
		span, ok = SpanSeconds(n.Repeat, n.Work, n.Rest)
	case Compound:
		span, ok = SpanSeconds(n.Repeat, n.Outer, n.Rest)
	}
	if !ok {
		return math.MaxInt
	}
	return span
}

// withDefaults fills zero rest and power fields from the profile.
func (s Simple) withDefaults(p Profile) Simple {
	if s.Rest == 0 {
		s.Rest = int(math.Round(float64(s.Work) * p.RestRatio))
	}
	if s.WorkPower.IsZero() {
		s.WorkPower = Target{Fraction: p.Work.Mid()}
	}
	if s.RestPower.IsZero() {
		s.RestPower = Target{Fraction: p.RestPower}
	}
	return s
}
