package attendance

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"mealattendance/internal/meal"
)

var _ Store = (*Repository)(nil)

// Repository persists attendance in Postgres, one table per meal.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func table(m meal.Type) (string, error) {
	switch m {
	case meal.Lunch:
		return "lunch_attendance", nil
	case meal.Dinner:
		return "dinner_attendance", nil
	}
	return "", meal.Invalidf("unknown meal %q", m)
}

// FindOne returns nil, nil when no record exists.
func (r *Repository) FindOne(ctx context.Context, m meal.Type, userID, date string) (*Record, error) {
	tbl, err := table(m)
	if err != nil {
		return nil, err
	}
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, email, date, status, created_at
		FROM `+tbl+` WHERE user_id = $1 AND date = $2
	`, userID, date)
	rec := Record{Meal: m}
	if err := row.Scan(&rec.ID, &rec.UserID, &rec.Name, &rec.Email, &rec.Date, &rec.Status, &rec.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// FindByDate returns every record for date.
func (r *Repository) FindByDate(ctx context.Context, m meal.Type, date string) ([]Record, error) {
	tbl, err := table(m)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, name, email, date, status, created_at
		FROM `+tbl+` WHERE date = $1
		ORDER BY created_at
	`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Record
	for rows.Next() {
		rec := Record{Meal: m}
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Name, &rec.Email, &rec.Date, &rec.Status, &rec.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}

// Create inserts rec. The (user_id, date) unique index turns a concurrent
// second insert into meal.ErrDuplicateSubmission.
func (r *Repository) Create(ctx context.Context, rec *Record) error {
	tbl, err := table(rec.Meal)
	if err != nil {
		return err
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO `+tbl+` (id, user_id, name, email, date, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, rec.ID, rec.UserID, rec.Name, rec.Email, rec.Date, rec.Status, rec.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return &meal.DuplicateError{Meal: rec.Meal, UserID: rec.UserID, Date: rec.Date}
	}
	return err
}
