package scheduling

import (
	"regexp"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// Precision says how much of an appointment time the caller actually stated.
type Precision int

const (
	// PrecisionNone means no date or time expression was recognized.
	PrecisionNone Precision = iota
	// PrecisionAmbiguous means numbers in the transcript fell outside the
	// recognized expression, so part of the request would be guessed.
	PrecisionAmbiguous
	// PrecisionDate means a day was stated without a time of day. The
	// returned time is local midnight of that day.
	PrecisionDate
	// PrecisionTime means both the day and the time of day are known.
	PrecisionTime
)

// TemporalParser turns free text into a point in time. Anything short of
// PrecisionTime is an expected outcome, not an error.
type TemporalParser interface {
	Parse(text string, loc *time.Location) (time.Time, Precision)
}

var numericToken = regexp.MustCompile(`(?i)\d+|o'?clock`)

// WhenParser adapts github.com/olebedev/when with English and common rules.
type WhenParser struct {
	rules []rules.Rule
	now   func() time.Time
}

// NewWhenParser builds the parser. now supplies the reference instant for
// relative phrases; nil means time.Now.
func NewWhenParser(now func() time.Time) *WhenParser {
	if now == nil {
		now = time.Now
	}
	rs := make([]rules.Rule, 0, len(en.All)+len(common.All))
	rs = append(rs, en.All...)
	rs = append(rs, common.All...)
	return &WhenParser{rules: rs, now: now}
}

// Parse interprets text relative to the current instant in loc, so "tomorrow"
// means tomorrow where the caller is, not where the server runs. Missing
// fields are never filled from the clock: a day without an hour comes back as
// PrecisionDate and stray numbers make the result PrecisionAmbiguous.
func (w *WhenParser) Parse(text string, loc *time.Location) (time.Time, Precision) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, PrecisionNone
	}
	if loc == nil {
		loc = time.UTC
	}
	base := w.now().In(loc)

	// when.Result only carries the merged time; the recorder keeps the rule
	// context so we can tell which fields the caller actually said.
	var captured *rules.Context
	p := when.New(nil)
	for _, r := range w.rules {
		p.Add(contextRecorder{rule: r, ctx: &captured})
	}
	res, err := p.Parse(text, base)
	if err != nil || res == nil || captured == nil {
		return time.Time{}, PrecisionNone
	}
	if strayNumber(text, res.Index, res.Index+len(res.Text)) {
		return time.Time{}, PrecisionAmbiguous
	}

	at := res.Time.In(loc)
	if !hasTimeOfDay(captured) {
		return time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, loc), PrecisionDate
	}
	return at.Truncate(time.Minute), PrecisionTime
}

// hasTimeOfDay is true when a rule set the hour, or a relative offset such as
// "in two hours" moved the clock by less than whole days.
func hasTimeOfDay(c *rules.Context) bool {
	return c.Hour != nil || c.Duration%(24*time.Hour) != 0
}

// strayNumber reports a digit run or "o'clock" outside [start, end).
func strayNumber(text string, start, end int) bool {
	for _, loc := range numericToken.FindAllStringIndex(text, -1) {
		if loc[1] <= start || loc[0] >= end {
			return true
		}
	}
	return false
}

type contextRecorder struct {
	rule rules.Rule
	ctx  **rules.Context
}

func (r contextRecorder) Find(text string) *rules.Match {
	m := r.rule.Find(text)
	if m == nil {
		return nil
	}
	apply := m.Applier
	m.Applier = func(m *rules.Match, c *rules.Context, o *rules.Options, ref time.Time) (bool, error) {
		*r.ctx = c
		return apply(m, c, o, ref)
	}
	return m
}
