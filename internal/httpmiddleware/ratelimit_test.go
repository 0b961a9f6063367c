package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestLimiterTake(t *testing.T) {
	now := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	l := NewLimiter(2, 60).WithClock(func() time.Time { return now })

	ok, _ := l.take("a")
	assert.True(t, ok)
	ok, _ = l.take("a")
	assert.True(t, ok)
	ok, wait := l.take("a")
	assert.False(t, ok)
	assert.Equal(t, time.Second, wait)
	ok, _ = l.take("b")
	assert.True(t, ok, "buckets are per key")

	// refill is capped at capacity
	now = now.Add(time.Minute)
	ok, _ = l.take("a")
	assert.True(t, ok)
	ok, _ = l.take("a")
	assert.True(t, ok)
	ok, _ = l.take("a")
	assert.False(t, ok)
}

func TestLimiterSweepsIdleBuckets(t *testing.T) {
	now := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	l := NewLimiter(5, 5).WithClock(func() time.Time { return now })
	l.take("a")
	l.take("b")
	assert.Equal(t, 2, l.size())

	now = now.Add(idleTTL + time.Minute)
	l.take("c")
	assert.Equal(t, 1, l.size())
}

func newEngine(l *Limiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(l.Middleware())
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestMiddleware(t *testing.T) {
	now := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	r := newEngine(NewLimiter(1, 1).WithClock(func() time.Time { return now }))

	do := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		return w
	}
	assert.Equal(t, http.StatusOK, do().Code)
	w := do()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"status":"error","message":"Too many requests"}`, w.Body.String())
}

func TestMiddlewareCustomKey(t *testing.T) {
	byDevice := func(c *gin.Context) string { return c.GetHeader("X-Device") }
	r := newEngine(NewLimiter(1, 1).WithKey(byDevice))

	do := func(device string) int {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("X-Device", device)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}
	assert.Equal(t, http.StatusOK, do("gate-1"))
	assert.Equal(t, http.StatusOK, do("gate-2"))
	assert.Equal(t, http.StatusTooManyRequests, do("gate-1"))
}

func TestDisabledWhenRateZero(t *testing.T) {
	r := newEngine(NewLimiter(0, 0))
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
