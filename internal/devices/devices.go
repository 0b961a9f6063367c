// Package devices tracks sensor/display units allowed to post scans.
package devices

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"

	"fpattend/internal/store"
)

// ErrDeviceRequired is returned for a blank device id.
var ErrDeviceRequired = errors.New("device id required")

// Registry persists devices and their refresh tokens.
type Registry interface {
	UpsertDevice(ctx context.Context, deviceID string) error
	SaveRefreshToken(ctx context.Context, deviceID, token string, expiresAt time.Time) error
	Known(ctx context.Context, deviceID string) (bool, error)
}

// Repository persists devices in Postgres or SQLite.
type Repository struct {
	db *sql.DB
	d  store.Dialect
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB, d store.Dialect) *Repository {
	return &Repository{db: db, d: d}
}

// UpsertDevice ensures a device record exists.
func (r *Repository) UpsertDevice(ctx context.Context, deviceID string) error {
	if strings.TrimSpace(deviceID) == "" {
		return ErrDeviceRequired
	}
	_, err := r.db.ExecContext(ctx, r.d.Rebind(`
		INSERT INTO devices (device_id)
		VALUES (?)
		ON CONFLICT (device_id) DO NOTHING
	`), deviceID)
	return err
}

// SaveRefreshToken stores a refresh token for rotation checks.
func (r *Repository) SaveRefreshToken(ctx context.Context, deviceID, token string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, r.d.Rebind(`
		INSERT INTO refresh_tokens (device_id, token, expires_at)
		VALUES (?, ?, ?)
	`), deviceID, token, expiresAt)
	return err
}

// Known reports whether deviceID was registered.
func (r *Repository) Known(ctx context.Context, deviceID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, r.d.Rebind(`SELECT EXISTS (SELECT 1 FROM devices WHERE device_id = ?)`), deviceID).Scan(&exists)
	return exists, err
}

// Memory is an in-process Registry.
type Memory struct {
	mu      sync.Mutex
	devices map[string]time.Time
	tokens  map[string]string
}

// NewMemory returns an empty registry.
func NewMemory() *Memory {
	return &Memory{devices: make(map[string]time.Time), tokens: make(map[string]string)}
}

func (m *Memory) UpsertDevice(_ context.Context, deviceID string) error {
	if strings.TrimSpace(deviceID) == "" {
		return ErrDeviceRequired
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.devices[deviceID]; !ok {
		m.devices[deviceID] = time.Now()
	}
	return nil
}

func (m *Memory) SaveRefreshToken(_ context.Context, deviceID, token string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.devices[deviceID]; !ok {
		return errors.New("unknown device")
	}
	m.tokens[token] = deviceID
	return nil
}

func (m *Memory) Known(_ context.Context, deviceID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.devices[deviceID]
	return ok, nil
}
