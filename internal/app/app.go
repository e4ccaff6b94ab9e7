// Package app assembles the stores, services and job plumbing shared by
// the api and worker processes.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"mealattendance/internal/api"
	"mealattendance/internal/attendance"
	"mealattendance/internal/config"
	"mealattendance/internal/jobs"
	"mealattendance/internal/meal"
	"mealattendance/internal/queue"
	"mealattendance/internal/store"
	"mealattendance/internal/users"
)

// App holds the wired components for one process.
type App struct {
	Config     config.App
	DB         *store.DB
	Redis      *store.Redis
	Users      *users.Service
	Attendance *attendance.Service
	Queue      queue.Queue
	Runner     *jobs.Runner
}

// New connects backends according to cfg. Postgres is migrated on start.
func New(ctx context.Context, cfg config.App) (*App, error) {
	a := &App{Config: cfg}

	var (
		userStore   users.Store
		recordStore attendance.Store
	)
	switch cfg.StoreBackend {
	case "memory":
		slog.Warn("using in-memory stores; data is lost on restart")
		userStore, recordStore = users.NewMemoryStore(), attendance.NewMemoryStore()
	default:
		db, err := store.NewDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		a.DB = db
		userStore, recordStore = users.NewRepository(db.Client), attendance.NewRepository(db.Client)
	}

	var locker jobs.Locker
	switch cfg.QueueBackend {
	case "memory":
		a.Queue = queue.NewInMemory(16)
		locker = jobs.NewLocalLocker()
	default:
		a.Redis = store.NewRedis(cfg.RedisAddr)
		if !a.Redis.Healthy(ctx) {
			slog.Warn("redis not reachable at startup", "addr", cfg.RedisAddr)
		}
		a.Queue = queue.NewRedisQueue(a.Redis.Client, "")
		locker = jobs.NewRedisLocker(a.Redis.Client)
	}

	a.Users = users.NewService(userStore, users.LogMailer{BaseURL: cfg.PublicURL})
	a.Attendance = attendance.NewService(recordStore, userStore, cfg.Schedule, nil, attendance.Options{
		FillActiveOnly: cfg.FillActiveOnly,
	})
	a.Runner = jobs.NewRunner(a.Attendance, locker, cfg.FillTimeout)
	return a, nil
}

// Scheduler builds the daily default-fill cron, publishing each run to the queue.
func (a *App) Scheduler() (*cron.Cron, error) {
	return jobs.NewScheduler(a.Config.Schedule, a.Config.FillDelay, func(ctx context.Context, m meal.Type, date string) error {
		slog.Info("scheduling default-fill", "meal", m, "date", date)
		return jobs.Enqueue(ctx, a.Queue, m, date)
	})
}

// Health lists the configured backends for /healthz.
func (a *App) Health() map[string]api.Pinger {
	h := make(map[string]api.Pinger)
	if a.DB != nil {
		h["db"] = a.DB
	}
	if a.Redis != nil {
		h["redis"] = a.Redis
	}
	return h
}

// Close releases backend connections.
func (a *App) Close() {
	if err := a.Redis.Close(); err != nil {
		slog.Warn("close redis", "error", err)
	}
	if err := a.DB.Close(); err != nil {
		slog.Warn("close db", "error", err)
	}
}
