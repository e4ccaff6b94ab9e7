package attendance

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"mealattendance/internal/meal"
)

var _ Store = (*MemoryStore)(nil)

type recordKey struct {
	meal   meal.Type
	userID string
	date   string
}

// MemoryStore is an in-process Store with the same uniqueness guarantee as
// the Postgres tables.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[recordKey]Record
	order   []recordKey
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[recordKey]Record)}
}

func (s *MemoryStore) FindOne(_ context.Context, m meal.Type, userID, date string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[recordKey{m, userID, date}]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *MemoryStore) FindByDate(_ context.Context, m meal.Type, date string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []Record
	for _, k := range s.order {
		if k.meal == m && k.date == date {
			res = append(res, s.records[k])
		}
	}
	return res, nil
}

func (s *MemoryStore) Create(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := recordKey{rec.Meal, rec.UserID, rec.Date}
	if _, ok := s.records[k]; ok {
		return &meal.DuplicateError{Meal: rec.Meal, UserID: rec.UserID, Date: rec.Date}
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	s.records[k] = *rec
	s.order = append(s.order, k)
	return nil
}

// Len returns the number of stored records for m.
func (s *MemoryStore) Len(m meal.Type) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for k := range s.records {
		if k.meal == m {
			n++
		}
	}
	return n
}
