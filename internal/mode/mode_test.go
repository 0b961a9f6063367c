package mode

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fpattend/internal/apperr"
	"fpattend/internal/clock"
)

var t0 = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type failingStore struct{}

func (failingStore) Load(context.Context) (State, bool, error) {
	return State{}, false, errors.New("redis down")
}
func (failingStore) Save(context.Context, State) error { return errors.New("redis down") }

func TestParse(t *testing.T) {
	for _, raw := range []string{"register", "REGISTER", " attendance "} {
		_, err := Parse(raw)
		assert.NoError(t, err, raw)
	}
	_, err := Parse("maintenance")
	assert.Equal(t, apperr.InvalidMode, apperr.KindOf(err))
	_, err = Parse("")
	assert.Equal(t, apperr.InvalidMode, apperr.KindOf(err))
}

func TestAuthorize(t *testing.T) {
	assert.NoError(t, Authorize(SubmitIdentity, Register))
	assert.NoError(t, Authorize(CompleteEnrollment, Register))
	assert.NoError(t, Authorize(RecordAttendance, Attendance))

	err := Authorize(RecordAttendance, Register)
	require.Equal(t, apperr.ModeDenied, apperr.KindOf(err))
	assert.Equal(t, "System is in register mode", err.Error())

	err = Authorize(SubmitIdentity, Attendance)
	require.Equal(t, apperr.ModeDenied, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "System is in attendance mode")

	err = Authorize(CompleteEnrollment, Attendance)
	assert.Equal(t, "System is in attendance mode", err.Error())
}

func TestGateDefaultsToAttendance(t *testing.T) {
	store := NewMemoryStore()
	g := NewGate(store, clock.NewManual(t0))

	st, err := g.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Attendance, st.Mode)

	// Reading must not create the singleton.
	_, ok, _ := store.Load(context.Background())
	assert.False(t, ok)
}

func TestGateLastWriteWins(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewManual(t0)
	g := NewGate(NewMemoryStore(), clk)

	for i, raw := range []string{"register", "attendance", "register"} {
		clk.Advance(time.Minute)
		st, err := g.Set(ctx, raw)
		require.NoError(t, err, i)
		assert.Equal(t, clk.Now(), st.UpdatedAt)
	}
	_, err := g.Set(ctx, "bogus")
	assert.Equal(t, apperr.InvalidMode, apperr.KindOf(err))

	st, err := g.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, Register, st.Mode)
	assert.Equal(t, t0.Add(3*time.Minute), st.UpdatedAt)
}

func TestGateRequire(t *testing.T) {
	ctx := context.Background()
	g := NewGate(NewMemoryStore(), clock.NewManual(t0))

	_, err := g.Require(ctx, RecordAttendance)
	assert.NoError(t, err)
	_, err = g.Require(ctx, CompleteEnrollment)
	assert.Equal(t, apperr.ModeDenied, apperr.KindOf(err))
}

func TestGateStoreFailureIsNotBusinessError(t *testing.T) {
	g := NewGate(failingStore{}, clock.NewManual(t0))
	_, err := g.Current(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperr.Kind(""), apperr.KindOf(err))

	_, err = g.Set(context.Background(), "register")
	require.Error(t, err)
	assert.Equal(t, apperr.Kind(""), apperr.KindOf(err))
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := NewRedisStore(client, "")
	_, ok, err := store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Save(ctx, State{Mode: Register, UpdatedAt: t0}))
	st, ok, err := store.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Register, st.Mode)
	assert.True(t, st.UpdatedAt.Equal(t0))
	assert.Equal(t, "register", mr.HGet("fpattend:mode", "mode"))

	mr.HSet("fpattend:mode", "mode", "garbage")
	_, ok, err = store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}
