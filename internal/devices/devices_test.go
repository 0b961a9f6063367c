package devices

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRegistry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	assert.ErrorIs(t, m.UpsertDevice(ctx, " "), ErrDeviceRequired)
	assert.Error(t, m.SaveRefreshToken(ctx, "esp32-1", "tok", time.Now()))

	require.NoError(t, m.UpsertDevice(ctx, "esp32-1"))
	require.NoError(t, m.UpsertDevice(ctx, "esp32-1"))
	require.NoError(t, m.SaveRefreshToken(ctx, "esp32-1", "tok", time.Now().Add(time.Hour)))

	ok, err := m.Known(ctx, "esp32-1")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, _ = m.Known(ctx, "esp32-2")
	assert.False(t, ok)
}
