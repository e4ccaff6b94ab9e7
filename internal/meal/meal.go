// Package meal holds the timing rules shared by the lunch and dinner flows:
// meal types, the reference-timezone clock, the submission cutoff policy,
// the report gate and the effective-status resolver.
package meal

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Type identifies a meal with its own cutoff, report gate and record table.
type Type string

const (
	Lunch  Type = "lunch"
	Dinner Type = "dinner"
)

// Types lists every meal in the order jobs and routes are registered.
var Types = []Type{Lunch, Dinner}

// ParseType accepts a meal name case-insensitively.
func ParseType(s string) (Type, error) {
	switch Type(strings.ToLower(strings.TrimSpace(s))) {
	case Lunch:
		return Lunch, nil
	case Dinner:
		return Dinner, nil
	}
	return "", Invalidf("unknown meal %q", s)
}

// Title returns the display name used in client messages.
func (t Type) Title() string {
	if t == "" {
		return ""
	}
	return strings.ToUpper(string(t[:1])) + string(t[1:])
}

// TimeOfDay is a wall-clock hour and minute in the reference timezone.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM" (24h).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return TimeOfDay{}, fmt.Errorf("time of day %q: want HH:MM", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return TimeOfDay{}, fmt.Errorf("time of day %q: bad hour", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return TimeOfDay{}, fmt.Errorf("time of day %q: bad minute", s)
	}
	return TimeOfDay{Hour: h, Minute: m}, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Kitchen renders the time the way client messages show it, e.g. "4:30PM".
func (t TimeOfDay) Kitchen() string {
	return time.Date(2000, 1, 1, t.Hour, t.Minute, 0, 0, time.UTC).Format(time.Kitchen)
}

func (t TimeOfDay) minutes() int { return t.Hour*60 + t.Minute }

// Add shifts the time of day by d, wrapping around midnight.
func (t TimeOfDay) Add(d time.Duration) TimeOfDay {
	total := (t.minutes() + int(d/time.Minute)) % (24 * 60)
	if total < 0 {
		total += 24 * 60
	}
	return TimeOfDay{Hour: total / 60, Minute: total % 60}
}

// pendingAt reports whether now's wall-clock time is strictly earlier than t.
func (t TimeOfDay) pendingAt(now time.Time) bool {
	return now.Hour()*60+now.Minute() < t.minutes()
}

// Window is the per-meal pair of thresholds.
type Window struct {
	// Cutoff closes same-day submissions.
	Cutoff TimeOfDay
	// ReportAfter opens the daily report.
	ReportAfter TimeOfDay
}

// FillAt is when the default-fill for a day runs: delay after the cutoff.
// It must land on the same calendar day, or the run would cover the next one.
func (w Window) FillAt(delay time.Duration) (TimeOfDay, error) {
	if delay < 0 {
		delay = 0
	}
	if w.Cutoff.minutes()+int(delay/time.Minute) >= 24*60 {
		return TimeOfDay{}, fmt.Errorf("fill delay %v after cutoff %s crosses midnight", delay, w.Cutoff)
	}
	return w.Cutoff.Add(delay), nil
}

// Schedule is the explicit timing configuration for every meal.
type Schedule struct {
	Location *time.Location
	Windows  map[Type]Window
}

// DefaultSchedule mirrors the canteen's historical settings in Asia/Kolkata.
func DefaultSchedule() Schedule {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		loc = time.FixedZone("IST", 5*3600+1800)
	}
	return Schedule{
		Location: loc,
		Windows: map[Type]Window{
			Lunch:  {Cutoff: TimeOfDay{Hour: 9}, ReportAfter: TimeOfDay{Hour: 7}},
			Dinner: {Cutoff: TimeOfDay{Hour: 16, Minute: 30}, ReportAfter: TimeOfDay{Hour: 7}},
		},
	}
}

// Window returns the thresholds for m.
func (s Schedule) Window(m Type) (Window, error) {
	w, ok := s.Windows[m]
	if !ok {
		return Window{}, Invalidf("no schedule for meal %q", m)
	}
	return w, nil
}

func (s Schedule) location() *time.Location {
	if s.Location == nil {
		return time.UTC
	}
	return s.Location
}
