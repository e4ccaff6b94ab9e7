package config

import (
	"testing"
	"time"

	"mealattendance/internal/meal"
)

func TestDefaults(t *testing.T) {
	for _, k := range []string{"TIMEZONE", "LUNCH_CUTOFF", "DINNER_CUTOFF", "LUNCH_REPORT_AFTER", "DINNER_REPORT_AFTER", "FILL_DELAY", "FILL_ACTIVE_ONLY", "QUEUE_BACKEND", "STORE_BACKEND", "APP_ENV"} {
		t.Setenv(k, "")
	}
	cfg := FromEnv()

	lunch, _ := cfg.Schedule.Window(meal.Lunch)
	dinner, _ := cfg.Schedule.Window(meal.Dinner)
	if lunch.Cutoff != (meal.TimeOfDay{Hour: 9}) || lunch.ReportAfter != (meal.TimeOfDay{Hour: 7}) {
		t.Errorf("lunch window = %+v", lunch)
	}
	if dinner.Cutoff != (meal.TimeOfDay{Hour: 16, Minute: 30}) {
		t.Errorf("dinner window = %+v", dinner)
	}
	if cfg.FillDelay != time.Minute || cfg.FillActiveOnly {
		t.Errorf("fill settings = %v, %v", cfg.FillDelay, cfg.FillActiveOnly)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestScheduleOverrides(t *testing.T) {
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("LUNCH_CUTOFF", "10:15")
	t.Setenv("DINNER_REPORT_AFTER", "not-a-time")
	t.Setenv("FILL_ACTIVE_ONLY", "true")
	t.Setenv("FILL_DELAY", "5m")
	t.Setenv("ADMIN_EMAILS", "boss@example.com, cook@example.com")

	cfg := FromEnv()
	if cfg.Schedule.Location.String() != "UTC" {
		t.Errorf("location = %s", cfg.Schedule.Location)
	}
	lunch, _ := cfg.Schedule.Window(meal.Lunch)
	if lunch.Cutoff != (meal.TimeOfDay{Hour: 10, Minute: 15}) {
		t.Errorf("lunch cutoff = %v", lunch.Cutoff)
	}
	dinner, _ := cfg.Schedule.Window(meal.Dinner)
	if dinner.ReportAfter != (meal.TimeOfDay{Hour: 7}) {
		t.Errorf("invalid value should fall back, got %v", dinner.ReportAfter)
	}
	if !cfg.FillActiveOnly || cfg.FillDelay != 5*time.Minute {
		t.Errorf("fill settings = %v, %v", cfg.FillActiveOnly, cfg.FillDelay)
	}
	if !cfg.IsAdmin("Cook@Example.com") || cfg.IsAdmin("guest@example.com") {
		t.Errorf("admin list = %v", cfg.AdminEmails)
	}
}

func TestValidate(t *testing.T) {
	cfg := FromEnv()
	cfg.Env = "production"
	cfg.JWTSigningKey = "dev-signing-secret-change"
	if err := cfg.Validate(); err == nil {
		t.Error("expected default signing key to be rejected in production")
	}
	cfg.JWTSigningKey = "real"
	cfg.StoreBackend = "postgres"
	cfg.FillDelay = time.Minute
	cfg.QueueBackend = "kafka"
	if err := cfg.Validate(); err == nil {
		t.Error("expected unknown queue backend to be rejected")
	}
	cfg.QueueBackend = "memory"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	cfg.FillDelay = 8 * time.Hour
	if err := cfg.Validate(); err == nil {
		t.Error("expected dinner fill past midnight to be rejected")
	}
}
