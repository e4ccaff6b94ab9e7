package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"mealattendance/internal/meal"
)

// PhotoStorage uploads and removes profile photos.
type PhotoStorage interface {
	UploadPhoto(ctx context.Context, data []byte, filename string) (url, publicID string, err error)
	DeletePhoto(ctx context.Context, publicID string) error
}

// ResetTTL is how long a password reset token stays valid.
const ResetTTL = 10 * time.Minute

// Service implements account and membership operations over a Store.
type Service struct {
	store  Store
	mailer Mailer
	now    func() time.Time
}

// NewService creates a service backed by store. A nil mailer logs instead of sending.
func NewService(store Store, mailer Mailer) *Service {
	if mailer == nil {
		mailer = LogMailer{}
	}
	return &Service{store: store, mailer: mailer, now: time.Now}
}

func newToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Signup registers an Inactive, unverified user with a bcrypt-hashed
// password and sends the verification link.
func (s *Service) Signup(ctx context.Context, name, email, password string) (*User, error) {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return nil, meal.Invalidf("All fields are required")
	}
	if len(password) < 8 {
		return nil, ErrWeakPassword
	}
	if existing, err := s.store.GetUserByEmail(ctx, email); err == nil && existing != nil {
		return nil, ErrEmailExists
	} else if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &User{Name: name, Email: email, PasswordHash: string(hash), Membership: Inactive, VerificationToken: newToken()}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	slog.Info("user registered", "user_id", u.ID, "email", u.Email)
	if err := s.mailer.SendVerification(ctx, *u, u.VerificationToken); err != nil {
		slog.Warn("verification email failed", "user_id", u.ID, "error", err)
	}
	return u, nil
}

// Verify consumes a verification token and marks its user verified.
func (s *Service) Verify(ctx context.Context, token string) (*User, error) {
	u, err := s.store.GetUserByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if err := s.store.MarkVerified(ctx, u.ID); err != nil {
		return nil, err
	}
	u.Verified, u.VerificationToken = true, ""
	slog.Info("email verified", "user_id", u.ID)
	return u, nil
}

// RequestPasswordReset issues a reset token valid for ResetTTL. Unknown
// emails succeed silently so the endpoint does not reveal accounts.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return meal.Invalidf("Email is required")
	}
	u, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		slog.Info("password reset for unknown email", "email", email)
		return nil
	}
	if err != nil {
		return err
	}
	token := newToken()
	if err := s.store.SetResetToken(ctx, u.ID, token, s.now().Add(ResetTTL)); err != nil {
		return err
	}
	return s.mailer.SendPasswordReset(ctx, *u, token)
}

// ResetPassword sets a new password using an unexpired reset token.
func (s *Service) ResetPassword(ctx context.Context, token, password string) error {
	if len(password) < 8 {
		return ErrWeakPassword
	}
	u, err := s.store.GetUserByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrInvalidToken
		}
		return err
	}
	if !s.now().Before(u.ResetExpires) {
		return ErrInvalidToken
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.store.SetPassword(ctx, u.ID, string(hash)); err != nil {
		return err
	}
	slog.Info("password reset", "user_id", u.ID)
	return nil
}

// Login checks credentials and returns the user. Unverified users are refused.
func (s *Service) Login(ctx context.Context, email, password string) (*User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, meal.Invalidf("Email and password are required")
	}
	u, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !u.Verified {
		return nil, ErrNotVerified
	}
	return u, nil
}

// Get returns the user with id.
func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	return s.store.GetUserByID(ctx, id)
}

// ToggleMembership flips the user's membership and returns the updated user.
func (s *Service) ToggleMembership(ctx context.Context, id string) (*User, error) {
	u, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	next := u.Membership.Toggle()
	if err := s.store.SetMembership(ctx, id, next); err != nil {
		return nil, err
	}
	u.Membership = next
	slog.Info("membership toggled", "user_id", id, "membership", next)
	return u, nil
}

// UpdatePhoto uploads a new profile photo, stores it, and only then removes
// the previous one. Failing to delete the old photo is logged and does not
// fail the update.
func (s *Service) UpdatePhoto(ctx context.Context, id string, photos PhotoStorage, data []byte, filename string) (*User, error) {
	if len(data) == 0 {
		return nil, meal.Invalidf("No file uploaded")
	}
	u, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	url, publicID, err := photos.UploadPhoto(ctx, data, filename)
	if err != nil {
		return nil, fmt.Errorf("upload photo: %w", err)
	}
	if err := s.store.SetProfilePhoto(ctx, id, url, publicID); err != nil {
		if derr := photos.DeletePhoto(ctx, publicID); derr != nil {
			slog.Warn("failed to delete orphaned photo", "user_id", id, "public_id", publicID, "error", derr)
		}
		return nil, err
	}
	if previous := u.ProfilePhotoID; previous != "" && previous != publicID {
		if err := photos.DeletePhoto(ctx, previous); err != nil {
			slog.Warn("failed to delete previous photo", "user_id", id, "public_id", previous, "error", err)
		}
	}
	u.ProfilePhoto, u.ProfilePhotoID = url, publicID
	return u, nil
}
