package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"mealattendance/internal/app"
	"mealattendance/internal/config"
	"mealattendance/pkg/logging"
)

// Worker publishes the daily default-fill jobs on the meal schedule and
// runs them from the queue.
func main() {
	logging.Setup()
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		slog.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	c, err := a.Scheduler()
	if err != nil {
		slog.Error("scheduler setup failed", "error", err)
		os.Exit(1)
	}
	c.Start()
	for _, e := range c.Entries() {
		slog.Info("default-fill scheduled", "next", e.Next)
	}

	slog.Info("worker started, waiting for jobs", "queue", cfg.QueueBackend)
	if err := a.Runner.Consume(ctx, a.Queue); err != nil {
		slog.Error("queue consume failed", "error", err)
	}

	<-c.Stop().Done()
	slog.Info("worker stopped")
}
