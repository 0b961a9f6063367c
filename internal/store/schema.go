package store

import (
	"context"
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS pending_enrollments (
	seq         BIGSERIAL PRIMARY KEY,
	id          TEXT UNIQUE NOT NULL,
	name        TEXT NOT NULL,
	department  TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'pending',
	created_at  TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_pending_created ON pending_enrollments (created_at DESC, seq DESC);

CREATE TABLE IF NOT EXISTS persons (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	department    TEXT NOT NULL,
	biometric_id  INTEGER NOT NULL UNIQUE,
	created_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS day_records (
	person_id      TEXT NOT NULL REFERENCES persons(id),
	day            TEXT NOT NULL,
	check_in       TIMESTAMPTZ,
	check_out      TIMESTAMPTZ,
	working_hours  TEXT,
	PRIMARY KEY (person_id, day),
	CHECK (check_out IS NULL OR check_in IS NOT NULL)
);

CREATE TABLE IF NOT EXISTS system_mode (
	id          INTEGER PRIMARY KEY CHECK (id = 1),
	mode        TEXT NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS devices (
	device_id   TEXT PRIMARY KEY,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS refresh_tokens (
	token       TEXT PRIMARY KEY,
	device_id   TEXT NOT NULL REFERENCES devices(device_id),
	expires_at  TIMESTAMPTZ NOT NULL,
	revoked     BOOLEAN NOT NULL DEFAULT FALSE
);
`

// Migrate creates any missing tables. It is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
