package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS pending_enrollments (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	id          TEXT UNIQUE NOT NULL,
	name        TEXT NOT NULL,
	department  TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'pending',
	created_at  TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_pending_created ON pending_enrollments (created_at DESC, seq DESC);

CREATE TABLE IF NOT EXISTS persons (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	department    TEXT NOT NULL,
	biometric_id  INTEGER NOT NULL UNIQUE,
	created_at    TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS day_records (
	person_id      TEXT NOT NULL REFERENCES persons(id),
	day            TEXT NOT NULL,
	check_in       TIMESTAMP,
	check_out      TIMESTAMP,
	working_hours  TEXT,
	PRIMARY KEY (person_id, day),
	CHECK (check_out IS NULL OR check_in IS NOT NULL)
);

CREATE TABLE IF NOT EXISTS system_mode (
	id          INTEGER PRIMARY KEY CHECK (id = 1),
	mode        TEXT NOT NULL,
	updated_at  TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS devices (
	device_id   TEXT PRIMARY KEY,
	created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS refresh_tokens (
	token       TEXT PRIMARY KEY,
	device_id   TEXT NOT NULL REFERENCES devices(device_id),
	expires_at  TIMESTAMP NOT NULL,
	revoked     BOOLEAN NOT NULL DEFAULT FALSE
);
`

// NewSQLite opens a single-file database for one-box deployments and applies
// the schema. Transactions start with BEGIN IMMEDIATE so read-modify-write
// sequences serialize.
func NewSQLite(ctx context.Context, path string) (*DB, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create db dir: %w", err)
			}
		}
	}
	dsn := path
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	db, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// one writer; also keeps a :memory: database alive on a single connection
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &DB{Client: db, Dialect: SQLite}, nil
}
