// Package attendance implements the meal attendance flows: submission,
// self lookup, the daily report and the post-cutoff default-fill.
package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"mealattendance/internal/meal"
	"mealattendance/internal/metrics"
	"mealattendance/internal/users"
)

// Roster lists users eligible for reports and default-fill.
type Roster interface {
	ListActive(ctx context.Context) ([]users.User, error)
	ListAll(ctx context.Context) ([]users.User, error)
}

// Options tune the service.
type Options struct {
	// FillActiveOnly restricts default-fill to Active members.
	FillActiveOnly bool
}

// Service coordinates the cutoff policy, the record store and the roster.
type Service struct {
	store    Store
	roster   Roster
	schedule meal.Schedule
	clock    meal.Clock
	opts     Options
}

// NewService creates a service. A nil clock uses the schedule's timezone.
func NewService(store Store, roster Roster, schedule meal.Schedule, clock meal.Clock, opts Options) *Service {
	if clock == nil {
		clock = meal.NewClock(schedule.Location)
	}
	return &Service{store: store, roster: roster, schedule: schedule, clock: clock, opts: opts}
}

// Now returns the service clock's current time.
func (s *Service) Now() time.Time { return s.clock.Now() }

// Submit records a user's yes/no answer for a meal and date.
func (s *Service) Submit(ctx context.Context, m meal.Type, u users.User, rawDate, status string) (rec Record, err error) {
	defer func() { metrics.Submissions.WithLabelValues(string(m), metrics.Outcome(err)).Inc() }()

	date, err := s.schedule.NormalizeDate(rawDate)
	if err != nil {
		return Record{}, err
	}
	if err := meal.ValidateSubmission(status); err != nil {
		return Record{}, err
	}
	if err := s.schedule.CheckSubmission(m, date, s.clock.Now()); err != nil {
		return Record{}, err
	}
	existing, err := s.store.FindOne(ctx, m, u.ID, date)
	if err != nil {
		return Record{}, fmt.Errorf("find %s record: %w", m, err)
	}
	if existing != nil {
		return Record{}, &meal.DuplicateError{Meal: m, UserID: u.ID, Date: date}
	}
	rec = Record{Meal: m, UserID: u.ID, Name: u.Name, Email: u.Email, Date: date, Status: status}
	if err := s.store.Create(ctx, &rec); err != nil {
		if errors.Is(err, meal.ErrDuplicateSubmission) {
			return Record{}, err
		}
		return Record{}, fmt.Errorf("create %s record: %w", m, err)
	}
	slog.Info("attendance recorded", "meal", m, "user_id", u.ID, "date", date, "status", status)
	return rec, nil
}

// Lookup is a user's view of one date: the stored record if any, and the
// effective status under the Unanswered policy.
type Lookup struct {
	Date   string
	Status meal.Status
	Record *Record
}

// Query returns userID's record for date, or a no-response placeholder.
func (s *Service) Query(ctx context.Context, m meal.Type, userID, rawDate string) (Lookup, error) {
	if rawDate == "" {
		return Lookup{}, meal.Invalidf("Date query parameter is required")
	}
	date, err := s.schedule.NormalizeDate(rawDate)
	if err != nil {
		return Lookup{}, err
	}
	rec, err := s.store.FindOne(ctx, m, userID, date)
	if err != nil {
		return Lookup{}, fmt.Errorf("find %s record: %w", m, err)
	}
	if rec == nil {
		return Lookup{Date: date, Status: meal.Unanswered.Resolve("", false)}, nil
	}
	return Lookup{Date: date, Status: meal.Unanswered.Resolve(rec.Status, true), Record: rec}, nil
}

// ReportEntry is one row of the daily report.
type ReportEntry struct {
	SrNo         int         `json:"srNo"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	ProfilePhoto string      `json:"profilePhoto"`
	Status       meal.Status `json:"status"`
}

// Report builds today's report for m over Active users in roster order.
// Users without a record count as attending.
func (s *Service) Report(ctx context.Context, m meal.Type) ([]ReportEntry, error) {
	start := time.Now()
	defer func() { metrics.ReportDuration.WithLabelValues(string(m)).Observe(time.Since(start).Seconds()) }()

	now := s.clock.Now()
	if err := s.schedule.CheckReport(m, now); err != nil {
		return nil, err
	}
	today := s.schedule.Today(now)

	active, err := s.roster.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active users: %w", err)
	}
	records, err := s.store.FindByDate(ctx, m, today)
	if err != nil {
		return nil, fmt.Errorf("find %s records for %s: %w", m, today, err)
	}
	byUser := make(map[string]string, len(records))
	for _, rec := range records {
		byUser[rec.UserID] = rec.Status
	}

	report := make([]ReportEntry, 0, len(active))
	for i, u := range active {
		stored, found := byUser[u.ID]
		report = append(report, ReportEntry{
			SrNo:         i + 1,
			Name:         u.Name,
			Email:        u.Email,
			ProfilePhoto: u.ProfilePhoto,
			Status:       meal.AssumeAttending.Resolve(stored, found),
		})
	}
	slog.Debug("report generated", "meal", m, "date", today, "users", len(active), "records", len(records))
	return report, nil
}

// FillResult summarizes a default-fill run.
type FillResult struct {
	Meal     meal.Type `json:"meal"`
	Date     string    `json:"date"`
	Users    int       `json:"users"`
	Inserted int       `json:"inserted"`
	Skipped  int       `json:"skipped"`
	Failed   int       `json:"failed"`
}

// FillDate resolves the day a default-fill for m would cover. An empty
// rawDate means today. The date's submission window must already be closed.
func (s *Service) FillDate(m meal.Type, rawDate string) (string, error) {
	now := s.clock.Now()
	date := s.schedule.Today(now)
	if rawDate != "" {
		var err error
		if date, err = s.schedule.NormalizeDate(rawDate); err != nil {
			return "", err
		}
	}
	if err := s.schedule.CheckFill(m, date, now); err != nil {
		return "", err
	}
	return date, nil
}

// DefaultFill writes an explicit "yes" for every roster user without a
// record on rawDate (today when empty). It refuses dates whose submission
// window is still open. Per-user failures are logged and counted; the loop
// goes on. Re-running inserts nothing new.
func (s *Service) DefaultFill(ctx context.Context, m meal.Type, rawDate string) (FillResult, error) {
	date, err := s.FillDate(m, rawDate)
	if err != nil {
		return FillResult{Meal: m}, err
	}
	res := FillResult{Meal: m, Date: date}

	list := s.roster.ListAll
	if s.opts.FillActiveOnly {
		list = s.roster.ListActive
	}
	roster, err := list(ctx)
	if err != nil {
		return res, fmt.Errorf("list users: %w", err)
	}
	res.Users = len(roster)

	for _, u := range roster {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		switch outcome := s.fillOne(ctx, m, u, date); outcome {
		case "inserted":
			res.Inserted++
		case "skipped":
			res.Skipped++
		default:
			res.Failed++
		}
	}
	slog.Info("default-fill finished", "meal", m, "date", date,
		"users", res.Users, "inserted", res.Inserted, "skipped", res.Skipped, "failed", res.Failed)
	return res, nil
}

func (s *Service) fillOne(ctx context.Context, m meal.Type, u users.User, date string) (outcome string) {
	defer func() { metrics.FillRecords.WithLabelValues(string(m), outcome).Inc() }()

	existing, err := s.store.FindOne(ctx, m, u.ID, date)
	if err != nil {
		slog.Error("default-fill lookup failed", "meal", m, "user_id", u.ID, "date", date, "error", err)
		return "failed"
	}
	if existing != nil {
		return "skipped"
	}
	rec := Record{Meal: m, UserID: u.ID, Name: u.Name, Email: u.Email, Date: date, Status: meal.SubmitYes}
	if err := s.store.Create(ctx, &rec); err != nil {
		if errors.Is(err, meal.ErrDuplicateSubmission) {
			return "skipped"
		}
		slog.Error("default-fill insert failed", "meal", m, "user_id", u.ID, "date", date, "error", err)
		return "failed"
	}
	return "inserted"
}
