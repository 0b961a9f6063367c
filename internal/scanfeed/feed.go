// Package scanfeed keeps the most recent accepted scan per workflow so the
// admin page and the device display can poll for it. Feed state is
// advisory and never participates in enrollment or attendance decisions.
package scanfeed

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Kind selects a feed slot.
type Kind string

const (
	Enrollment Kind = "enrollment"
	Attendance Kind = "attendance"
)

// Entry is the last accepted scan for a slot.
type Entry struct {
	FingerprintID int    `json:"fingerprint_id"`
	TeacherID     string `json:"teacher_id"`
	Name          string `json:"name"`
	Department    string `json:"department"`
	Action        string `json:"action,omitempty"`
	Timestamp     string `json:"timestamp"`
}

// Feed stores the latest Entry per Kind.
type Feed interface {
	Record(ctx context.Context, kind Kind, e Entry) error
	Latest(ctx context.Context, kind Kind) (Entry, bool, error)
	Clear(ctx context.Context, kind Kind) error
}

// MemoryFeed is an in-process Feed.
type MemoryFeed struct {
	mu      sync.RWMutex
	entries map[Kind]Entry
}

// NewMemoryFeed returns an empty feed.
func NewMemoryFeed() *MemoryFeed {
	return &MemoryFeed{entries: make(map[Kind]Entry)}
}

func (f *MemoryFeed) Record(_ context.Context, kind Kind, e Entry) error {
	f.mu.Lock()
	f.entries[kind] = e
	f.mu.Unlock()
	return nil
}

func (f *MemoryFeed) Latest(_ context.Context, kind Kind) (Entry, bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	e, ok := f.entries[kind]
	return e, ok, nil
}

func (f *MemoryFeed) Clear(_ context.Context, kind Kind) error {
	f.mu.Lock()
	delete(f.entries, kind)
	f.mu.Unlock()
	return nil
}

// RedisFeed keeps each slot as a JSON string under prefix+kind.
type RedisFeed struct {
	client *redis.Client
	prefix string
}

// NewRedisFeed builds a feed on client.
func NewRedisFeed(client *redis.Client, prefix string) *RedisFeed {
	if prefix == "" {
		prefix = "fpattend:feed:"
	}
	return &RedisFeed{client: client, prefix: prefix}
}

func (f *RedisFeed) key(kind Kind) string { return f.prefix + string(kind) }

func (f *RedisFeed) Record(ctx context.Context, kind Kind, e Entry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return f.client.Set(ctx, f.key(kind), raw, 0).Err()
}

func (f *RedisFeed) Latest(ctx context.Context, kind Kind) (Entry, bool, error) {
	raw, err := f.client.Get(ctx, f.key(kind)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		// a corrupt slot reads as empty
		return Entry{}, false, nil
	}
	return e, true, nil
}

func (f *RedisFeed) Clear(ctx context.Context, kind Kind) error {
	return f.client.Del(ctx, f.key(kind)).Err()
}
