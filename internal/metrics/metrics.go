// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"mealattendance/internal/meal"
)

var (
	Submissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "meal_attendance",
		Name:      "submissions_total",
		Help:      "Attendance submissions by meal and outcome.",
	}, []string{"meal", "outcome"})

	ReportDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "meal_attendance",
		Name:      "report_duration_seconds",
		Help:      "Time spent building daily reports.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"meal"})

	FillRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "meal_attendance",
		Name:      "default_fill_records_total",
		Help:      "Users visited by the default-fill job, by result.",
	}, []string{"meal", "result"})

	FillRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "meal_attendance",
		Name:      "default_fill_runs_total",
		Help:      "Default-fill job runs by result.",
	}, []string{"meal", "result"})

	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "meal_attendance",
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the rate limiter.",
	})
)

// Outcome labels an operation result.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, meal.ErrValidation):
		return "invalid"
	case errors.Is(err, meal.ErrCutoffExceeded):
		return "cutoff"
	case errors.Is(err, meal.ErrTooEarly):
		return "too_early"
	case errors.Is(err, meal.ErrDuplicateSubmission):
		return "duplicate"
	default:
		return "error"
	}
}
