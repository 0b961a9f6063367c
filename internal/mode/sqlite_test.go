package mode

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fpattend/internal/clock"
	"fpattend/internal/store"
)

func openSQLite(t *testing.T, path string) *store.DB {
	t.Helper()
	db, err := store.NewSQLite(context.Background(), path)
	if err != nil && strings.Contains(err.Error(), "cgo") {
		t.Skip("sqlite3 requires cgo")
	}
	require.NoError(t, err)
	return db
}

func TestSQLStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "mode.db")
	clk := clock.NewManual(t0)

	db := openSQLite(t, path)
	g := NewGate(NewSQLStore(db.Client, db.Dialect), clk)
	st, err := g.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, Attendance, st.Mode)

	_, err = g.Set(ctx, "register")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db = openSQLite(t, path)
	t.Cleanup(func() { _ = db.Close() })
	g = NewGate(NewSQLStore(db.Client, db.Dialect), clk)
	st, err = g.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, Register, st.Mode)
	assert.True(t, st.UpdatedAt.Equal(t0))

	// last write wins on the single row
	_, err = g.Set(ctx, "attendance")
	require.NoError(t, err)
	var rows int
	require.NoError(t, db.Client.QueryRowContext(ctx, `SELECT COUNT(*) FROM system_mode`).Scan(&rows))
	assert.Equal(t, 1, rows)
	st, err = g.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, Attendance, st.Mode)
}

func TestSQLStoreUnreadableValueIsUnset(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t, filepath.Join(t.TempDir(), "mode.db"))
	t.Cleanup(func() { _ = db.Close() })

	_, err := db.Client.ExecContext(ctx, `INSERT INTO system_mode (id, mode, updated_at) VALUES (1, 'maintenance', ?)`, t0)
	require.NoError(t, err)

	_, ok, err := NewSQLStore(db.Client, db.Dialect).Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	st, err := NewGate(NewSQLStore(db.Client, db.Dialect), clock.NewManual(t0)).Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, Attendance, st.Mode)
}
