package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"mealattendance/internal/meal"
)

// FillSpec is the daily cron spec firing delay after the window's cutoff.
func FillSpec(w meal.Window, delay time.Duration) (string, error) {
	at, err := w.FillAt(delay)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d %d * * *", at.Minute, at.Hour), nil
}

// NewScheduler registers one daily default-fill trigger per meal in the
// schedule's timezone. Each trigger receives the date it fired on. The
// caller starts and stops the returned cron.
func NewScheduler(schedule meal.Schedule, delay time.Duration, trigger func(ctx context.Context, m meal.Type, date string) error) (*cron.Cron, error) {
	loc := schedule.Location
	if loc == nil {
		loc = time.UTC
	}
	logger := cron.PrintfLogger(slog.NewLogLogger(slog.Default().Handler(), slog.LevelInfo))
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	for _, m := range meal.Types {
		w, err := schedule.Window(m)
		if err != nil {
			return nil, err
		}
		spec, err := FillSpec(w, delay)
		if err != nil {
			return nil, fmt.Errorf("schedule %s default-fill: %w", m, err)
		}
		m := m
		if _, err := c.AddFunc(spec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			date := schedule.Today(time.Now())
			if err := trigger(ctx, m, date); err != nil {
				slog.Error("default-fill trigger failed", "meal", m, "date", date, "error", err)
			}
		}); err != nil {
			return nil, fmt.Errorf("schedule %s default-fill %q: %w", m, spec, err)
		}
		slog.Info("default-fill scheduled", "meal", m, "spec", spec, "tz", loc.String())
	}
	return c, nil
}
