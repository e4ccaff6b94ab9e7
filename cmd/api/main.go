package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"

	"mealattendance/internal/api"
	"mealattendance/internal/app"
	"mealattendance/internal/auth"
	"mealattendance/internal/cloudinary"
	"mealattendance/internal/config"
	"mealattendance/internal/users"
	"mealattendance/pkg/logging"
)

func main() {
	logging.Setup()
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := runHTTP(ctx, cfg); err != nil {
		slog.Error("http server failed", "error", err)
		os.Exit(1)
	}
}

func runHTTP(ctx context.Context, cfg config.App) error {
	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	var photos users.PhotoStorage
	if cfg.CloudinaryCloudName != "" && cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "" {
		photos = cloudinary.New(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
		slog.Info("cloudinary configured", "cloud", cfg.CloudinaryCloudName)
	} else {
		slog.Warn("cloudinary not configured, photo uploads disabled")
	}

	// With the in-memory queue nothing else can consume jobs.
	if cfg.QueueBackend == "memory" {
		go func() {
			if err := a.Runner.Consume(ctx, a.Queue); err != nil {
				slog.Error("in-process job consumer stopped", "error", err)
			}
		}()
	}

	if cfg.SchedulerEnabled {
		c, err := a.Scheduler()
		if err != nil {
			return err
		}
		c.Start()
		defer func() { <-c.Stop().Done() }()
		slog.Info("default-fill scheduler started in api process")
		if cfg.QueueBackend != "memory" {
			// A worker on the same queue schedules too; the run lock and unique index absorb the duplicate.
			slog.Warn("SCHEDULER_ENABLED with a shared queue: fills are enqueued twice if a worker also runs")
		}
	}

	signer := auth.Signer{
		Key:        cfg.JWTSigningKey,
		Issuer:     cfg.JWTIssuer,
		AccessTTL:  cfg.AccessTTL,
		RefreshTTL: cfg.RefreshTTL,
	}
	router := api.NewRouter(api.Deps{
		Attendance:      a.Attendance,
		Users:           a.Users,
		Signer:          signer,
		Photos:          photos,
		Queue:           a.Queue,
		IsAdmin:         cfg.IsAdmin,
		RateLimitPerMin: cfg.RateLimitPerMin,
		CORSOrigins:     cfg.CORSOrigins,
		Health:          a.Health(),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "port", cfg.HTTPPort, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("server forced shutdown", "error", err)
	}
	slog.Info("server exited")
	return nil
}
