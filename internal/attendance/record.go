package attendance

import (
	"context"
	"time"

	"mealattendance/internal/meal"
)

// Record is one stored attendance answer for (meal, user, date). Name and
// email are a snapshot taken when the record was written.
type Record struct {
	ID        string    `json:"id"`
	Meal      meal.Type `json:"meal"`
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Date      string    `json:"date"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store is the per-meal record table. Create must return
// meal.ErrDuplicateSubmission when (meal, user, date) already exists.
type Store interface {
	FindOne(ctx context.Context, m meal.Type, userID, date string) (*Record, error)
	FindByDate(ctx context.Context, m meal.Type, date string) ([]Record, error)
	Create(ctx context.Context, rec *Record) error
}
