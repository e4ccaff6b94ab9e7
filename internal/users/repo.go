package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

var _ Store = (*Repository)(nil)

// Repository persists users in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const userColumns = `id, name, email, password_hash, profile_photo, profile_photo_id, membership, created_at,
	verified, verification_token, reset_token, reset_expires`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	var membership string
	var resetExpires sql.NullTime
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.ProfilePhoto, &u.ProfilePhotoID, &membership, &u.CreatedAt,
		&u.Verified, &u.VerificationToken, &u.ResetToken, &resetExpires)
	u.Membership = Membership(membership)
	if resetExpires.Valid {
		u.ResetExpires = resetExpires.Time
	}
	return u, err
}

// CreateUser inserts u, assigning ID and CreatedAt when unset.
func (r *Repository) CreateUser(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	if u.Membership == "" {
		u.Membership = Inactive
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, u.ID, u.Name, u.Email, u.PasswordHash, u.ProfilePhoto, u.ProfilePhotoID, string(u.Membership), u.CreatedAt,
		u.Verified, u.VerificationToken, u.ResetToken, nullTime(u.ResetExpires))
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrEmailExists
	}
	return err
}

// GetUserByID returns ErrUserNotFound when no row matches.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetUserByEmail matches case-insensitively.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, strings.ToLower(strings.TrimSpace(email)))
}

func (r *Repository) getOne(ctx context.Context, query string, arg string) (*User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// ListActive returns Active users in roster order.
func (r *Repository) ListActive(ctx context.Context) ([]User, error) {
	return r.list(ctx, `SELECT `+userColumns+` FROM users WHERE membership = $1 ORDER BY created_at, id`, string(Active))
}

// ListAll returns every user in roster order.
func (r *Repository) ListAll(ctx context.Context) ([]User, error) {
	return r.list(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, u)
	}
	return res, rows.Err()
}

// SetMembership updates the membership flag.
func (r *Repository) SetMembership(ctx context.Context, id string, m Membership) error {
	return r.update(ctx, `UPDATE users SET membership = $2, updated_at = NOW() WHERE id = $1`, id, string(m))
}

// SetProfilePhoto records the uploaded photo URL and its storage id.
func (r *Repository) SetProfilePhoto(ctx context.Context, id, url, publicID string) error {
	return r.update(ctx, `UPDATE users SET profile_photo = $2, profile_photo_id = $3, updated_at = NOW() WHERE id = $1`, id, url, publicID)
}

// GetUserByVerificationToken finds the user holding an unused verification token.
func (r *Repository) GetUserByVerificationToken(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, ErrUserNotFound
	}
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE verification_token = $1`, token)
}

// MarkVerified sets verified and consumes the verification token.
func (r *Repository) MarkVerified(ctx context.Context, id string) error {
	return r.update(ctx, `UPDATE users SET verified = TRUE, verification_token = '', updated_at = NOW() WHERE id = $1`, id)
}

// SetResetToken stores a password reset token and its expiry.
func (r *Repository) SetResetToken(ctx context.Context, id, token string, expires time.Time) error {
	return r.update(ctx, `UPDATE users SET reset_token = $2, reset_expires = $3, updated_at = NOW() WHERE id = $1`, id, token, nullTime(expires))
}

// GetUserByResetToken finds the user holding a reset token. Expiry is checked by the caller.
func (r *Repository) GetUserByResetToken(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, ErrUserNotFound
	}
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE reset_token = $1`, token)
}

// SetPassword replaces the hash and clears the reset token.
func (r *Repository) SetPassword(ctx context.Context, id, hash string) error {
	return r.update(ctx, `UPDATE users SET password_hash = $2, reset_token = '', reset_expires = NULL, updated_at = NOW() WHERE id = $1`, id, hash)
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func (r *Repository) update(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}
