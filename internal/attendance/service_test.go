package attendance

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"mealattendance/internal/meal"
	"mealattendance/internal/users"
)

type fixture struct {
	store    *MemoryStore
	roster   *users.MemoryStore
	schedule meal.Schedule
	clock    *meal.FixedClock
	svc      *Service
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	f := &fixture{
		store:    NewMemoryStore(),
		roster:   users.NewMemoryStore(),
		schedule: meal.DefaultSchedule(),
		clock:    &meal.FixedClock{},
	}
	f.setNow("2026-10-17", 8, 0)
	f.svc = NewService(f.store, f.roster, f.schedule, clockFunc(func() time.Time { return f.clock.T }), opts)
	return f
}

type clockFunc func() time.Time

func (c clockFunc) Now() time.Time { return c() }

func (f *fixture) setNow(date string, hour, minute int) {
	d, err := time.ParseInLocation(meal.DateLayout, date, f.schedule.Location)
	if err != nil {
		panic(err)
	}
	f.clock.T = d.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func (f *fixture) addUser(t *testing.T, name string, m users.Membership) users.User {
	t.Helper()
	u := &users.User{Name: name, Email: name + "@example.com", Membership: m}
	if err := f.roster.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return *u
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	u := f.addUser(t, "asha", users.Active)

	t.Run("before cutoff today", func(t *testing.T) {
		rec, err := f.svc.Submit(ctx, meal.Lunch, u, "2026-10-17", "no")
		if err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
		if rec.ID == "" || rec.Name != "asha" || rec.Email != "asha@example.com" {
			t.Errorf("unexpected record %+v", rec)
		}
	})

	t.Run("duplicate", func(t *testing.T) {
		_, err := f.svc.Submit(ctx, meal.Lunch, u, "2026-10-17", "yes")
		if !errors.Is(err, meal.ErrDuplicateSubmission) {
			t.Fatalf("expected duplicate, got %v", err)
		}
		if f.store.Len(meal.Lunch) != 1 {
			t.Errorf("expected 1 record, got %d", f.store.Len(meal.Lunch))
		}
	})

	t.Run("same date other meal is independent", func(t *testing.T) {
		if _, err := f.svc.Submit(ctx, meal.Dinner, u, "2026-10-17", "yes"); err != nil {
			t.Fatalf("dinner submit failed: %v", err)
		}
	})

	t.Run("missing date", func(t *testing.T) {
		_, err := f.svc.Submit(ctx, meal.Lunch, u, "", "yes")
		if !errors.Is(err, meal.ErrValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("bad status", func(t *testing.T) {
		_, err := f.svc.Submit(ctx, meal.Lunch, u, "2026-10-19", "maybe")
		if !errors.Is(err, meal.ErrValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("past date", func(t *testing.T) {
		_, err := f.svc.Submit(ctx, meal.Lunch, u, "2026-10-16", "yes")
		if !errors.Is(err, meal.ErrCutoffExceeded) {
			t.Fatalf("expected cutoff error, got %v", err)
		}
	})
}

func TestSubmitAfterCutoff(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	u := f.addUser(t, "ravi", users.Active)

	f.setNow("2026-10-17", 9, 0)
	if _, err := f.svc.Submit(ctx, meal.Lunch, u, "2026-10-17", "yes"); !errors.Is(err, meal.ErrCutoffExceeded) {
		t.Fatalf("expected lunch cutoff at 09:00, got %v", err)
	}
	if _, err := f.svc.Submit(ctx, meal.Dinner, u, "2026-10-17", "yes"); err != nil {
		t.Fatalf("dinner still open at 09:00: %v", err)
	}

	f.setNow("2026-10-17", 23, 30)
	if _, err := f.svc.Submit(ctx, meal.Lunch, u, "2026-10-18", "no"); err != nil {
		t.Fatalf("tomorrow is always open: %v", err)
	}
	if f.store.Len(meal.Lunch) != 1 {
		t.Errorf("expected only tomorrow's lunch record, got %d", f.store.Len(meal.Lunch))
	}
}

func TestQueryDefaultsToNoResponse(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	u := f.addUser(t, "mei", users.Active)

	got, err := f.svc.Query(ctx, meal.Lunch, u.ID, "2026-10-17")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if got.Record != nil || got.Status != meal.NoResponse || got.Date != "2026-10-17" {
		t.Errorf("unexpected lookup %+v", got)
	}

	if _, err := f.svc.Submit(ctx, meal.Lunch, u, "2026-10-17", "no"); err != nil {
		t.Fatal(err)
	}
	got, err = f.svc.Query(ctx, meal.Lunch, u.ID, "2026-10-17")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if got.Record == nil || got.Record.Status != "no" || got.Status != meal.No {
		t.Errorf("unexpected lookup %+v", got)
	}

	if _, err := f.svc.Query(ctx, meal.Lunch, u.ID, ""); !errors.Is(err, meal.ErrValidation) {
		t.Errorf("expected validation error for missing date, got %v", err)
	}
}

func TestReport(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	a := f.addUser(t, "asha", users.Active)
	f.addUser(t, "bo", users.Inactive)
	c := f.addUser(t, "chen", users.Active)
	d := f.addUser(t, "dev", users.Active)

	if err := f.store.Create(ctx, &Record{Meal: meal.Lunch, UserID: c.ID, Date: "2026-10-17", Status: "NO"}); err != nil {
		t.Fatal(err)
	}
	if err := f.store.Create(ctx, &Record{Meal: meal.Lunch, UserID: d.ID, Date: "2026-10-17", Status: "garbled"}); err != nil {
		t.Fatal(err)
	}
	// Other days and meals must not leak into today's lunch report.
	if err := f.store.Create(ctx, &Record{Meal: meal.Lunch, UserID: a.ID, Date: "2026-10-16", Status: "no"}); err != nil {
		t.Fatal(err)
	}
	if err := f.store.Create(ctx, &Record{Meal: meal.Dinner, UserID: a.ID, Date: "2026-10-17", Status: "no"}); err != nil {
		t.Fatal(err)
	}

	t.Run("too early", func(t *testing.T) {
		f.setNow("2026-10-17", 6, 59)
		_, err := f.svc.Report(ctx, meal.Lunch)
		if !errors.Is(err, meal.ErrTooEarly) {
			t.Fatalf("expected too early, got %v", err)
		}
	})

	t.Run("after threshold", func(t *testing.T) {
		f.setNow("2026-10-17", 8, 0)
		report, err := f.svc.Report(ctx, meal.Lunch)
		if err != nil {
			t.Fatalf("Report failed: %v", err)
		}
		want := []ReportEntry{
			{SrNo: 1, Name: "asha", Email: "asha@example.com", Status: meal.Yes},
			{SrNo: 2, Name: "chen", Email: "chen@example.com", Status: meal.No},
			{SrNo: 3, Name: "dev", Email: "dev@example.com", Status: meal.Yes},
		}
		if len(report) != len(want) {
			t.Fatalf("got %d entries, want %d: %+v", len(report), len(want), report)
		}
		for i := range want {
			if report[i] != want[i] {
				t.Errorf("entry %d = %+v, want %+v", i, report[i], want[i])
			}
		}
	})
}

func TestReportAfterTomorrowSubmission(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	u := f.addUser(t, "asha", users.Active)

	f.setNow("2026-10-17", 22, 0)
	if _, err := f.svc.Submit(ctx, meal.Lunch, u, "2026-10-18", "no"); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	f.setNow("2026-10-18", 7, 30)
	report, err := f.svc.Report(ctx, meal.Lunch)
	if err != nil {
		t.Fatalf("Report failed: %v", err)
	}
	if len(report) != 1 || report[0].Status != meal.No {
		t.Errorf("unexpected report %+v", report)
	}
}

func TestDefaultFillIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	a := f.addUser(t, "asha", users.Active)
	f.addUser(t, "bo", users.Inactive)
	f.addUser(t, "chen", users.Active)

	if _, err := f.svc.Submit(ctx, meal.Lunch, a, "2026-10-17", "no"); err != nil {
		t.Fatal(err)
	}

	f.setNow("2026-10-17", 9, 1)
	first, err := f.svc.DefaultFill(ctx, meal.Lunch, "")
	if err != nil {
		t.Fatalf("first fill: %v", err)
	}
	if first.Users != 3 || first.Inserted != 2 || first.Skipped != 1 || first.Failed != 0 {
		t.Errorf("first fill = %+v", first)
	}
	if f.store.Len(meal.Lunch) != 3 {
		t.Fatalf("expected 3 records, got %d", f.store.Len(meal.Lunch))
	}

	second, err := f.svc.DefaultFill(ctx, meal.Lunch, "")
	if err != nil {
		t.Fatalf("second fill: %v", err)
	}
	if second.Inserted != 0 || second.Skipped != 3 {
		t.Errorf("second fill = %+v", second)
	}
	if f.store.Len(meal.Lunch) != 3 {
		t.Errorf("record count changed to %d", f.store.Len(meal.Lunch))
	}

	rec, _ := f.store.FindOne(ctx, meal.Lunch, a.ID, "2026-10-17")
	if rec == nil || rec.Status != "no" {
		t.Errorf("explicit answer overwritten: %+v", rec)
	}
	if f.store.Len(meal.Dinner) != 0 {
		t.Error("lunch fill touched dinner records")
	}
}

func TestDefaultFillActiveOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{FillActiveOnly: true})
	f.addUser(t, "asha", users.Active)
	bo := f.addUser(t, "bo", users.Inactive)

	f.setNow("2026-10-17", 16, 31)
	res, err := f.svc.DefaultFill(ctx, meal.Dinner, "2026-10-17")
	if err != nil {
		t.Fatal(err)
	}
	if res.Users != 1 || res.Inserted != 1 {
		t.Errorf("fill = %+v", res)
	}
	if rec, _ := f.store.FindOne(ctx, meal.Dinner, bo.ID, "2026-10-17"); rec != nil {
		t.Error("inactive user was filled")
	}
}

type flakyStore struct {
	*MemoryStore
	failUser string
}

func (s flakyStore) Create(ctx context.Context, rec *Record) error {
	if rec.UserID == s.failUser {
		return errors.New("connection reset")
	}
	return s.MemoryStore.Create(ctx, rec)
}

func TestDefaultFillContinuesAfterFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	a := f.addUser(t, "asha", users.Active)
	f.addUser(t, "bo", users.Active)

	f.setNow("2026-10-17", 9, 1)
	svc := NewService(flakyStore{MemoryStore: f.store, failUser: a.ID}, f.roster, f.schedule, meal.FixedClock{T: f.clock.T}, Options{})
	res, err := svc.DefaultFill(ctx, meal.Lunch, "")
	if err != nil {
		t.Fatalf("fill should not fail as a whole: %v", err)
	}
	if res.Failed != 1 || res.Inserted != 1 {
		t.Errorf("fill = %+v", res)
	}
}

func TestConcurrentFillAndLateWriteKeepOneRecord(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	var roster []users.User
	for _, n := range []string{"a", "b", "c", "d", "e", "f"} {
		roster = append(roster, f.addUser(t, n, users.Active))
	}
	// A submission accepted at 08:59:59 can still be writing when the fill starts.
	f.setNow("2026-10-17", 9, 0)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.DefaultFill(ctx, meal.Lunch, ""); err != nil {
				t.Errorf("fill: %v", err)
			}
		}()
	}
	for _, u := range roster {
		wg.Add(1)
		go func(u users.User) {
			defer wg.Done()
			rec := Record{Meal: meal.Lunch, UserID: u.ID, Name: u.Name, Email: u.Email, Date: "2026-10-17", Status: "no"}
			if err := f.store.Create(ctx, &rec); err != nil && !errors.Is(err, meal.ErrDuplicateSubmission) {
				t.Errorf("create: %v", err)
			}
		}(u)
	}
	wg.Wait()

	if got := f.store.Len(meal.Lunch); got != len(roster) {
		t.Errorf("expected %d records, got %d", len(roster), got)
	}
}

func TestDefaultFillWaitsForCutoff(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	u := f.addUser(t, "asha", users.Active)

	f.setNow("2026-10-17", 8, 0)
	res, err := f.svc.DefaultFill(ctx, meal.Lunch, "")
	if !errors.Is(err, meal.ErrTooEarly) {
		t.Fatalf("expected fill to be refused before cutoff, got %+v, %v", res, err)
	}
	if res.Inserted != 0 || f.store.Len(meal.Lunch) != 0 {
		t.Fatalf("fill wrote records before cutoff: %+v", res)
	}
	if _, err := f.svc.Submit(ctx, meal.Lunch, u, "2026-10-17", "no"); err != nil {
		t.Fatalf("submission after refused fill: %v", err)
	}

	t.Run("future date", func(t *testing.T) {
		f.setNow("2026-10-17", 23, 0)
		if _, err := f.svc.DefaultFill(ctx, meal.Dinner, "2026-10-18"); !errors.Is(err, meal.ErrTooEarly) {
			t.Errorf("expected tomorrow to be refused, got %v", err)
		}
	})

	t.Run("late message fills its own date", func(t *testing.T) {
		f.setNow("2026-10-18", 0, 20)
		res, err := f.svc.DefaultFill(ctx, meal.Dinner, "2026-10-17")
		if err != nil {
			t.Fatalf("fill yesterday: %v", err)
		}
		if res.Date != "2026-10-17" || res.Inserted != 1 {
			t.Errorf("fill = %+v", res)
		}
		if rec, _ := f.store.FindOne(ctx, meal.Dinner, u.ID, "2026-10-18"); rec != nil {
			t.Error("fill wrote the following day")
		}
	})
}
