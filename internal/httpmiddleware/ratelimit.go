package httpmiddleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// idleTTL is how long an untouched bucket is kept before the sweep drops it.
const idleTTL = 10 * time.Minute

// KeyFunc picks the bucket a request is charged to.
type KeyFunc func(c *gin.Context) string

// ClientIP charges requests to the client address gin resolves.
func ClientIP(c *gin.Context) string {
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}

// Limiter is an in-memory token bucket per key. Scanners on a shared
// network sit behind one address, so capacity should cover a whole site.
type Limiter struct {
	capacity  float64
	perMinute float64
	key       KeyFunc
	now       func() time.Time

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

type bucket struct {
	tokens float64
	seen   time.Time
}

// NewLimiter allows bursts of capacity and refills perMinute tokens each minute.
// A non-positive perMinute disables limiting.
func NewLimiter(capacity, perMinute int) *Limiter {
	if capacity <= 0 {
		capacity = perMinute
	}
	return &Limiter{
		capacity:  float64(capacity),
		perMinute: float64(perMinute),
		key:       ClientIP,
		now:       time.Now,
		buckets:   make(map[string]*bucket),
	}
}

// WithClock replaces the time source.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	return l
}

// WithKey replaces the bucket key function.
func (l *Limiter) WithKey(fn KeyFunc) *Limiter {
	l.key = fn
	return l
}

// Middleware rejects requests over the limit with 429 and a Retry-After hint.
func (l *Limiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l.perMinute <= 0 {
			c.Next()
			return
		}
		ok, wait := l.take(l.key(c))
		if !ok {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"status": "error", "message": "Too many requests"})
			return
		}
		c.Next()
	}
}

// take spends one token for key. When empty it reports how long until the next token.
func (l *Limiter) take(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: l.capacity, seen: now}
		l.buckets[key] = b
	}
	if elapsed := now.Sub(b.seen); elapsed > 0 {
		b.tokens = math.Min(l.capacity, b.tokens+elapsed.Minutes()*l.perMinute)
	}
	b.seen = now

	if b.tokens < 1 {
		missing := 1 - b.tokens
		return false, time.Duration(missing / l.perMinute * float64(time.Minute))
	}
	b.tokens--
	return true, 0
}

func (l *Limiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < idleTTL {
		return
	}
	for k, b := range l.buckets {
		if now.Sub(b.seen) >= idleTTL {
			delete(l.buckets, k)
		}
	}
	l.lastSweep = now
}

// size is the number of live buckets.
func (l *Limiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
