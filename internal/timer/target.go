package timer

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/starford/kanbo/internal/board"
)

const (
	day   = 24 * time.Hour
	month = 30 * day
	year  = 365 * day
)

var (
	deadlineRe = regexp.MustCompile(`^\s*\d{4}-\d{2}-\d{2}\S*`)

	num        = `(\d+(?:\.\d+)?)`
	durationRe = regexp.MustCompile(`^\s*` +
		`(?:` + num + `\s*y\s*)?` +
		`(?:` + num + `\s*M\s*)?` +
		`(?:` + num + `\s*d\s*)?` +
		`(?:` + num + `\s*h\s*)?` +
		`(?:` + num + `\s*m\s*)?` +
		`(?:` + num + `\s*s\s*)?$`)

	durationUnits = []time.Duration{year, month, day, time.Hour, time.Minute, time.Second}
)

// HasTarget reports whether t declares a target. A declared target may still
// evaluate to zero.
func HasTarget(t *board.Task) bool {
	return strings.TrimSpace(t.TargetTime) != ""
}

// TargetDuration evaluates a target expression. A leading YYYY-MM-DD token is
// a deadline and yields the time left until it (never negative). Otherwise
// the text is a composite duration such as "2h 30m", "1.5h" or "1d 4h"
// (y=365d, M=30d, m=minutes). Blank or unparseable text yields zero.
func TargetDuration(text string, now time.Time) time.Duration {
	if tok := deadlineRe.FindString(text); tok != "" {
		deadline, err := board.ParseTimestamp(strings.TrimSpace(tok))
		if err != nil {
			return 0
		}
		if left := deadline.Sub(now); left > 0 {
			return left
		}
		return 0
	}

	m := durationRe.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	var total float64
	matched := false
	for i, unit := range durationUnits {
		raw := m[i+1]
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0
		}
		matched = true
		total += v * float64(unit)
	}
	if !matched {
		return 0
	}
	return time.Duration(total)
}

// Target evaluates the target of t against the engine clock.
func (e *Engine) Target(t *board.Task) time.Duration {
	return TargetDuration(t.TargetTime, e.clock.Now())
}

// ProgressPercent is 100*elapsed/target. ok is false when the target is not
// positive. Values above 100 are returned as is.
func (e *Engine) ProgressPercent(t *board.Task) (pct float64, ok bool) {
	target := e.Target(t)
	if target <= 0 {
		return 0, false
	}
	return 100 * float64(e.Elapsed(t)) / float64(target), true
}
