package store

import (
	"context"
	"fmt"
)

// schema is applied on startup. Each meal table carries a unique index on
// (user_id, date) so the store itself rejects a second answer.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id               TEXT PRIMARY KEY,
    name             TEXT NOT NULL,
    email            TEXT NOT NULL UNIQUE,
    password_hash    TEXT NOT NULL,
    profile_photo    TEXT NOT NULL DEFAULT '',
    profile_photo_id TEXT NOT NULL DEFAULT '',
    membership       TEXT NOT NULL DEFAULT 'Inactive' CHECK (membership IN ('Active', 'Inactive')),
    created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

ALTER TABLE users ADD COLUMN IF NOT EXISTS verified           BOOLEAN NOT NULL DEFAULT FALSE;
ALTER TABLE users ADD COLUMN IF NOT EXISTS verification_token TEXT NOT NULL DEFAULT '';
ALTER TABLE users ADD COLUMN IF NOT EXISTS reset_token        TEXT NOT NULL DEFAULT '';
ALTER TABLE users ADD COLUMN IF NOT EXISTS reset_expires      TIMESTAMPTZ;

CREATE TABLE IF NOT EXISTS lunch_attendance (
    id         TEXT PRIMARY KEY,
    user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    name       TEXT NOT NULL DEFAULT '',
    email      TEXT NOT NULL DEFAULT '',
    date       TEXT NOT NULL CHECK (date ~ '^\d{4}-\d{2}-\d{2}$'),
    status     TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS dinner_attendance (
    id         TEXT PRIMARY KEY,
    user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    name       TEXT NOT NULL DEFAULT '',
    email      TEXT NOT NULL DEFAULT '',
    date       TEXT NOT NULL CHECK (date ~ '^\d{4}-\d{2}-\d{2}$'),
    status     TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS ux_lunch_attendance_user_date ON lunch_attendance(user_id, date);
CREATE UNIQUE INDEX IF NOT EXISTS ux_dinner_attendance_user_date ON dinner_attendance(user_id, date);
CREATE INDEX IF NOT EXISTS idx_lunch_attendance_date ON lunch_attendance(date);
CREATE INDEX IF NOT EXISTS idx_dinner_attendance_date ON dinner_attendance(date);
CREATE INDEX IF NOT EXISTS idx_users_membership ON users(membership, created_at);
CREATE INDEX IF NOT EXISTS idx_users_verification_token ON users(verification_token) WHERE verification_token <> '';
CREATE INDEX IF NOT EXISTS idx_users_reset_token ON users(reset_token) WHERE reset_token <> '';
`

// Migrate creates the tables and indexes if they do not exist.
func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.Client.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
