package users

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps users in process, for dev mode and tests.
type MemoryStore struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]*User
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]*User)}
}

func (s *MemoryStore) CreateUser(_ context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	for _, existing := range s.byID {
		if existing.Email == u.Email {
			return ErrEmailExists
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	if u.Membership == "" {
		u.Membership = Inactive
	}
	cp := *u
	s.byID[u.ID] = &cp
	s.order = append(s.order, u.ID)
	return nil
}

func (s *MemoryStore) GetUserByID(_ context.Context, id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, id := range s.order {
		if u := s.byID[id]; u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrUserNotFound
}

func (s *MemoryStore) ListActive(_ context.Context) ([]User, error) {
	return s.list(func(u *User) bool { return u.Membership == Active }), nil
}

func (s *MemoryStore) ListAll(_ context.Context) ([]User, error) {
	return s.list(func(*User) bool { return true }), nil
}

func (s *MemoryStore) list(keep func(*User) bool) []User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []User
	for _, id := range s.order {
		if u := s.byID[id]; keep(u) {
			res = append(res, *u)
		}
	}
	return res
}

func (s *MemoryStore) SetMembership(_ context.Context, id string, m Membership) error {
	return s.mutate(id, func(u *User) { u.Membership = m })
}

func (s *MemoryStore) SetProfilePhoto(_ context.Context, id, url, publicID string) error {
	return s.mutate(id, func(u *User) {
		u.ProfilePhoto = url
		u.ProfilePhotoID = publicID
	})
}

func (s *MemoryStore) GetUserByVerificationToken(_ context.Context, token string) (*User, error) {
	return s.find(func(u *User) bool { return token != "" && u.VerificationToken == token })
}

func (s *MemoryStore) MarkVerified(_ context.Context, id string) error {
	return s.mutate(id, func(u *User) {
		u.Verified = true
		u.VerificationToken = ""
	})
}

func (s *MemoryStore) SetResetToken(_ context.Context, id, token string, expires time.Time) error {
	return s.mutate(id, func(u *User) {
		u.ResetToken = token
		u.ResetExpires = expires
	})
}

func (s *MemoryStore) GetUserByResetToken(_ context.Context, token string) (*User, error) {
	return s.find(func(u *User) bool { return token != "" && u.ResetToken == token })
}

func (s *MemoryStore) SetPassword(_ context.Context, id, hash string) error {
	return s.mutate(id, func(u *User) {
		u.PasswordHash = hash
		u.ResetToken = ""
		u.ResetExpires = time.Time{}
	})
}

func (s *MemoryStore) find(match func(*User) bool) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.order {
		if u := s.byID[id]; match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrUserNotFound
}

func (s *MemoryStore) mutate(id string, fn func(*User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return ErrUserNotFound
	}
	fn(u)
	return nil
}
