package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	// UTC avoids depending on tzdata on the test host.
	t.Setenv("APP_TIMEZONE", "UTC")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8000", cfg.HTTPPort)
	assert.Equal(t, BackendPostgres, cfg.StoreBackend)
	assert.Equal(t, BackendRedis, cfg.QueueBackend)
	assert.Equal(t, 15*time.Minute, cfg.Cooldown())
	assert.Equal(t, 120, cfg.RateLimitPerMin)
	assert.False(t, cfg.DeviceAuth)
	assert.False(t, cfg.IsProduction())
	assert.True(t, cfg.UsesRedis())
	assert.Equal(t, BackendSQL, cfg.ModeStore())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_TIMEZONE", "UTC")
	t.Setenv("STORE_BACKEND", " Memory ")
	t.Setenv("QUEUE_BACKEND", "memory")
	t.Setenv("COOLDOWN_MINUTES", "5")
	t.Setenv("ACCESS_TTL", "1h")
	t.Setenv("APP_ENV", "production")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.False(t, cfg.UsesRedis())
	assert.Equal(t, 5*time.Minute, cfg.Cooldown())
	assert.Equal(t, time.Hour, cfg.AccessTTL)
	assert.True(t, cfg.IsProduction())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoadSQLite(t *testing.T) {
	t.Setenv("APP_TIMEZONE", "UTC")
	t.Setenv("STORE_BACKEND", "sqlite")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, cfg.StoreBackend)
	assert.Equal(t, "data/fpattend.db", cfg.SQLitePath)

	t.Setenv("SQLITE_PATH", " ")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string][2]string{
		"store backend": {"STORE_BACKEND", "mongo"},
		"queue backend": {"QUEUE_BACKEND", "kafka"},
		"cooldown":      {"COOLDOWN_MINUTES", "0"},
		"cooldown type": {"COOLDOWN_MINUTES", "soon"},
		"timezone":      {"APP_TIMEZONE", "Mars/Olympus"},
		"mode backend":  {"MODE_BACKEND", "etcd"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("APP_TIMEZONE", "UTC")
			t.Setenv(kv[0], kv[1])
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("QUEUE_KEY=site:events\nHTTP_PORT=7000\n"), 0o600))
	t.Chdir(dir)
	t.Setenv("APP_TIMEZONE", "UTC")
	t.Setenv("HTTP_PORT", "9000")
	t.Cleanup(func() { _ = os.Unsetenv("QUEUE_KEY") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "site:events", cfg.QueueKey)
	assert.Equal(t, "9000", cfg.HTTPPort, "environment wins over .env")
}

func TestModeStoreResolution(t *testing.T) {
	cases := []struct {
		store, queue, mode string
		want               string
		redis              bool
	}{
		{store: BackendSQLite, queue: BackendMemory, want: BackendSQL},
		{store: BackendPostgres, queue: BackendRedis, want: BackendSQL, redis: true},
		{store: BackendMemory, queue: BackendRedis, want: BackendRedis, redis: true},
		{store: BackendMemory, queue: BackendMemory, want: BackendMemory},
		{store: BackendSQLite, queue: BackendMemory, mode: "Redis", want: BackendRedis, redis: true},
		{store: BackendPostgres, queue: BackendRedis, mode: BackendMemory, want: BackendMemory, redis: true},
	}
	for _, tc := range cases {
		t.Run(tc.store+"/"+tc.queue+"/"+tc.mode, func(t *testing.T) {
			t.Setenv("APP_TIMEZONE", "UTC")
			t.Setenv("STORE_BACKEND", tc.store)
			t.Setenv("QUEUE_BACKEND", tc.queue)
			t.Setenv("MODE_BACKEND", tc.mode)
			cfg, err := Load()
			require.NoError(t, err)
			assert.Equal(t, tc.want, cfg.ModeStore())
			assert.Equal(t, tc.redis, cfg.UsesRedis())
		})
	}
}

func TestModeSQLNeedsDatabase(t *testing.T) {
	t.Setenv("APP_TIMEZONE", "UTC")
	t.Setenv("STORE_BACKEND", BackendMemory)
	t.Setenv("MODE_BACKEND", BackendSQL)
	_, err := Load()
	assert.Error(t, err)
}

func TestProductionDeviceAuthNeedsRegistrationSecret(t *testing.T) {
	t.Setenv("APP_TIMEZONE", "UTC")
	t.Setenv("APP_ENV", "production")
	t.Setenv("DEVICE_AUTH", "true")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("DEVICE_REGISTRATION_SECRET", "site-secret")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "site-secret", cfg.RegistrationKey)
}
