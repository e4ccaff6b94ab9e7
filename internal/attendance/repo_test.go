package attendance

import (
	"context"
	"errors"
	"os"
	"testing"

	"mealattendance/internal/meal"
	"mealattendance/internal/store"
	"mealattendance/internal/users"
)

// Runs against a real Postgres when TEST_DATABASE_URL is set.
func TestRepositoryPostgres(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	db, err := store.NewDB(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	userRepo := users.NewRepository(db.Client)
	u := &users.User{Name: "Repo Test", Email: "repo-test-" + t.Name() + "@example.com", PasswordHash: "x", Membership: users.Active}
	if err := userRepo.CreateUser(ctx, u); err != nil && !errors.Is(err, users.ErrEmailExists) {
		t.Fatalf("create user: %v", err)
	}
	if existing, err := userRepo.GetUserByEmail(ctx, u.Email); err == nil {
		u = existing
	}
	t.Cleanup(func() { _, _ = db.Client.Exec(`DELETE FROM users WHERE id = $1`, u.ID) })

	repo := NewRepository(db.Client)
	const date = "2031-01-02"

	t.Run("FindOne returns nil when missing", func(t *testing.T) {
		rec, err := repo.FindOne(ctx, meal.Lunch, u.ID, date)
		if err != nil || rec != nil {
			t.Fatalf("got %+v, %v", rec, err)
		}
	})

	t.Run("Create then duplicate", func(t *testing.T) {
		rec := &Record{Meal: meal.Lunch, UserID: u.ID, Name: u.Name, Email: u.Email, Date: date, Status: "no"}
		if err := repo.Create(ctx, rec); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		dup := &Record{Meal: meal.Lunch, UserID: u.ID, Date: date, Status: "yes"}
		if err := repo.Create(ctx, dup); !errors.Is(err, meal.ErrDuplicateSubmission) {
			t.Fatalf("expected duplicate, got %v", err)
		}
		// Dinner is a separate table.
		if err := repo.Create(ctx, &Record{Meal: meal.Dinner, UserID: u.ID, Date: date, Status: "yes"}); err != nil {
			t.Fatalf("dinner create failed: %v", err)
		}
	})

	t.Run("FindByDate", func(t *testing.T) {
		recs, err := repo.FindByDate(ctx, meal.Lunch, date)
		if err != nil {
			t.Fatalf("FindByDate failed: %v", err)
		}
		found := false
		for _, r := range recs {
			if r.UserID == u.ID && r.Status == "no" {
				found = true
			}
		}
		if !found {
			t.Errorf("record not returned: %+v", recs)
		}
	})
}
