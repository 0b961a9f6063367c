package mode

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// MemoryStore keeps the mode in process memory.
type MemoryStore struct {
	mu  sync.RWMutex
	st  State
	set bool
}

// NewMemoryStore returns an empty (unset) store.
func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

// Load returns the stored state.
func (s *MemoryStore) Load(context.Context) (State, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st, s.set, nil
}

// Save overwrites the stored state.
func (s *MemoryStore) Save(_ context.Context, st State) error {
	s.mu.Lock()
	s.st, s.set = st, true
	s.mu.Unlock()
	return nil
}

// RedisStore keeps the mode in a Redis hash {mode, updated_at}.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore builds a store on key (defaults to "fpattend:mode").
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = "fpattend:mode"
	}
	return &RedisStore{client: client, key: key}
}

// Load reads the hash; a missing key is reported as unset.
func (s *RedisStore) Load(ctx context.Context) (State, bool, error) {
	vals, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return State{}, false, nil
		}
		return State{}, false, err
	}
	raw, ok := vals["mode"]
	if !ok {
		return State{}, false, nil
	}
	m, err := Parse(raw)
	if err != nil {
		// Unreadable value counts as unset so the safe default applies.
		return State{}, false, nil
	}
	st := State{Mode: m}
	if ts := vals["updated_at"]; ts != "" {
		if parsed, perr := time.Parse(time.RFC3339Nano, ts); perr == nil {
			st.UpdatedAt = parsed
		}
	}
	return st, true, nil
}

// Save writes both fields in one HSET.
func (s *RedisStore) Save(ctx context.Context, st State) error {
	return s.client.HSet(ctx, s.key,
		"mode", string(st.Mode),
		"updated_at", st.UpdatedAt.Format(time.RFC3339Nano),
	).Err()
}
