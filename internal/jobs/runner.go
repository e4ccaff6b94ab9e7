// Package jobs runs the post-cutoff default-fill: a cron schedule publishes
// requests to the queue and the runner executes them under a run lock.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"mealattendance/internal/attendance"
	"mealattendance/internal/meal"
	"mealattendance/internal/metrics"
	"mealattendance/internal/queue"
)

// Filler performs one default-fill pass for a date.
type Filler interface {
	DefaultFill(ctx context.Context, m meal.Type, date string) (attendance.FillResult, error)
}

// FillRequest is the body of a default-fill queue message. Date pins the
// day to fill so a message consumed after midnight does not move on to
// the next day.
type FillRequest struct {
	Meal meal.Type `json:"meal"`
	Date string    `json:"date,omitempty"`
}

// parseFillRequest accepts the JSON body or a bare meal name.
func parseFillRequest(body []byte) (FillRequest, error) {
	var req FillRequest
	if err := json.Unmarshal(body, &req); err != nil {
		req = FillRequest{Meal: meal.Type(body)}
	}
	m, err := meal.ParseType(string(req.Meal))
	if err != nil {
		return FillRequest{}, err
	}
	req.Meal = m
	return req, nil
}

// Runner executes default-fill requests, one at a time per meal.
type Runner struct {
	filler  Filler
	locker  Locker
	timeout time.Duration
}

// NewRunner creates a runner. timeout bounds a single run.
func NewRunner(filler Filler, locker Locker, timeout time.Duration) *Runner {
	if locker == nil {
		locker = NewLocalLocker()
	}
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &Runner{filler: filler, locker: locker, timeout: timeout}
}

func lockKey(m meal.Type) string { return "meal-attendance:fill:" + string(m) }

// Run executes default-fill for m on date unless another run already holds
// the lock. An empty date means today.
func (r *Runner) Run(ctx context.Context, m meal.Type, date string) (attendance.FillResult, error) {
	unlock, err := r.locker.TryLock(ctx, lockKey(m), r.timeout)
	if err != nil {
		if errors.Is(err, ErrLocked) {
			slog.Info("default-fill already running, skipping", "meal", m)
			metrics.FillRuns.WithLabelValues(string(m), "locked").Inc()
		} else {
			metrics.FillRuns.WithLabelValues(string(m), "error").Inc()
		}
		return attendance.FillResult{Meal: m}, err
	}
	defer unlock()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	res, err := r.filler.DefaultFill(ctx, m, date)
	if errors.Is(err, meal.ErrTooEarly) {
		slog.Warn("default-fill refused, submissions still open", "meal", m, "date", date, "error", err)
		metrics.FillRuns.WithLabelValues(string(m), "too_early").Inc()
		return res, err
	}
	if err != nil {
		slog.Error("default-fill failed", "meal", m, "date", date, "error", err, "duration", time.Since(start))
		metrics.FillRuns.WithLabelValues(string(m), "error").Inc()
		return res, err
	}
	metrics.FillRuns.WithLabelValues(string(m), "ok").Inc()
	return res, nil
}

// Enqueue publishes a default-fill request for m on date.
func Enqueue(ctx context.Context, q queue.Queue, m meal.Type, date string) error {
	body, err := json.Marshal(FillRequest{Meal: m, Date: date})
	if err != nil {
		return err
	}
	return q.Publish(ctx, queue.Message{Type: queue.TypeDefaultFill, Body: body})
}

// Consume runs default-fill requests from q until ctx is done.
func (r *Runner) Consume(ctx context.Context, q queue.Queue) error {
	messages, err := q.Consume(ctx)
	if err != nil {
		return err
	}
	for msg := range messages {
		if msg.Type != queue.TypeDefaultFill {
			slog.Warn("ignoring unknown job", "type", msg.Type)
			continue
		}
		req, err := parseFillRequest(msg.Body)
		if err != nil {
			slog.Warn("ignoring default-fill for unknown meal", "body", string(msg.Body))
			continue
		}
		_, _ = r.Run(ctx, req.Meal, req.Date)
	}
	return nil
}
