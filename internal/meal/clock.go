package meal

import (
	"strings"
	"time"
)

// DateLayout is the stored calendar date format.
const DateLayout = "2006-01-02"

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{ loc *time.Location }

// NewClock returns a wall clock normalized to loc.
func NewClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return systemClock{loc: loc}
}

func (c systemClock) Now() time.Time { return time.Now().In(c.loc) }

// FixedClock always reports T. Used by tests and replays.
type FixedClock struct{ T time.Time }

func (c FixedClock) Now() time.Time { return c.T }

// Today returns now's calendar date in the schedule's timezone.
func (s Schedule) Today(now time.Time) string {
	return now.In(s.location()).Format(DateLayout)
}

// NormalizeDate accepts a plain YYYY-MM-DD date or an RFC 3339 timestamp and
// returns the calendar date in the schedule's timezone.
func (s Schedule) NormalizeDate(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", Invalidf("Date is required")
	}
	if d, err := time.ParseInLocation(DateLayout, raw, s.location()); err == nil {
		return d.Format(DateLayout), nil
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts.In(s.location()).Format(DateLayout), nil
	}
	return "", Invalidf("date %q must be YYYY-MM-DD", raw)
}
