// Package users owns the canteen roster: accounts, membership status and
// profile photos. Attendance reads it to decide who is eligible.
package users

import (
	"context"
	"errors"
	"time"
)

// Membership gates eligibility for reports and default-fill.
type Membership string

const (
	Active   Membership = "Active"
	Inactive Membership = "Inactive"
)

// Toggle flips Active and Inactive.
func (m Membership) Toggle() Membership {
	if m == Active {
		return Inactive
	}
	return Active
}

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailExists        = errors.New("user already exists, please login")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrNotVerified        = errors.New("Please verify your email before logging in")
	ErrInvalidToken       = errors.New("Invalid or expired token")
)

// User is a roster entry.
type User struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	PasswordHash   string     `json:"-"`
	ProfilePhoto   string     `json:"profilePhoto"`
	ProfilePhotoID string     `json:"-"`
	Membership     Membership `json:"membershipActive"`
	Verified       bool       `json:"isVerified"`
	CreatedAt      time.Time  `json:"createdAt"`

	VerificationToken string    `json:"-"`
	ResetToken        string    `json:"-"`
	ResetExpires      time.Time `json:"-"`
}

// Store persists users. Lists return the roster in creation order.
type Store interface {
	CreateUser(ctx context.Context, u *User) error
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	ListActive(ctx context.Context) ([]User, error)
	ListAll(ctx context.Context) ([]User, error)
	SetMembership(ctx context.Context, id string, m Membership) error
	SetProfilePhoto(ctx context.Context, id, url, publicID string) error

	GetUserByVerificationToken(ctx context.Context, token string) (*User, error)
	MarkVerified(ctx context.Context, id string) error
	SetResetToken(ctx context.Context, id, token string, expires time.Time) error
	GetUserByResetToken(ctx context.Context, token string) (*User, error)
	// SetPassword stores a new hash and clears any reset token.
	SetPassword(ctx context.Context, id, hash string) error
}
