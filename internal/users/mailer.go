package users

import (
	"context"
	"log/slog"
	"strings"
)

// Mailer delivers account emails.
type Mailer interface {
	SendVerification(ctx context.Context, u User, token string) error
	SendPasswordReset(ctx context.Context, u User, token string) error
}

// LogMailer writes the links to the log instead of sending mail. Used in dev.
type LogMailer struct {
	BaseURL string
}

func (m LogMailer) SendVerification(_ context.Context, u User, token string) error {
	slog.Info("verification email", "to", u.Email, "link", m.link("/auth/verify/", token))
	return nil
}

func (m LogMailer) SendPasswordReset(_ context.Context, u User, token string) error {
	slog.Info("password reset email", "to", u.Email, "link", m.link("/auth/reset-password/", token))
	return nil
}

func (m LogMailer) link(path, token string) string {
	return strings.TrimRight(m.BaseURL, "/") + path + token
}
