package app

import (
	"context"
	"testing"
	"time"

	"mealattendance/internal/config"
	"mealattendance/internal/meal"
	"mealattendance/internal/users"
)

func memoryConfig() config.App {
	return config.App{
		StoreBackend: "memory",
		QueueBackend: "memory",
		Schedule:     meal.DefaultSchedule(),
		FillDelay:    time.Minute,
		FillTimeout:  time.Minute,
	}
}

func TestNewMemory(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, memoryConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	if a.DB != nil || a.Redis != nil {
		t.Fatal("memory mode should not open backends")
	}
	if len(a.Health()) != 0 {
		t.Fatalf("health = %v", a.Health())
	}

	u, err := a.Users.Signup(ctx, "Asha", "asha@example.com", "password123")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if _, err := a.Users.ToggleMembership(ctx, u.ID); err != nil {
		t.Fatal(err)
	}
	res, err := a.Runner.Run(ctx, meal.Lunch, "2020-01-01")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Users != 1 {
		t.Fatalf("fill = %+v", res)
	}
	got, _ := a.Users.Get(ctx, u.ID)
	if got.Membership != users.Active {
		t.Fatalf("membership = %s", got.Membership)
	}
}

func TestScheduler(t *testing.T) {
	a, err := New(context.Background(), memoryConfig())
	if err != nil {
		t.Fatal(err)
	}
	c, err := a.Scheduler()
	if err != nil {
		t.Fatalf("Scheduler: %v", err)
	}
	if n := len(c.Entries()); n != len(meal.Types) {
		t.Fatalf("entries = %d", n)
	}
}
