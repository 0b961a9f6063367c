package mode

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fpattend/internal/store"
)

// SQLStore keeps the mode in the single-row system_mode table so it
// survives restarts and is shared by every API instance on the database.
type SQLStore struct {
	db *sql.DB
	d  store.Dialect
}

// NewSQLStore builds a store on db speaking dialect d.
func NewSQLStore(db *sql.DB, d store.Dialect) *SQLStore {
	return &SQLStore{db: db, d: d}
}

// Load reads the row; no row or an unreadable value is reported as unset.
func (s *SQLStore) Load(ctx context.Context) (State, bool, error) {
	var (
		raw       string
		updatedAt time.Time
	)
	err := s.db.QueryRowContext(ctx, `SELECT mode, updated_at FROM system_mode WHERE id = 1`).Scan(&raw, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, fmt.Errorf("read mode: %w", err)
	}
	m, err := Parse(raw)
	if err != nil {
		return State{}, false, nil
	}
	return State{Mode: m, UpdatedAt: updatedAt}, true, nil
}

// Save upserts the row.
func (s *SQLStore) Save(ctx context.Context, st State) error {
	_, err := s.db.ExecContext(ctx, s.d.Rebind(`
		INSERT INTO system_mode (id, mode, updated_at)
		VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			mode = EXCLUDED.mode,
			updated_at = EXCLUDED.updated_at
	`), string(st.Mode), st.UpdatedAt)
	if err != nil {
		return fmt.Errorf("write mode: %w", err)
	}
	return nil
}
