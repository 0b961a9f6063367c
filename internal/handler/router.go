package handler

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/unrolled/secure"

	"fpattend/internal/httpmiddleware"
)

// RouterOptions configures the shared middleware chain.
type RouterOptions struct {
	RateLimitPerMin int
	Gatherer        prometheus.Gatherer
	AccessLog       bool
	Production      bool
}

// NewRouter builds the engine with recovery, access logs, CORS, security
// headers, rate limiting and metrics in front of h's routes.
func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if opts.AccessLog {
		r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
			SkipPaths: []string{"/healthz", "/metrics"},
		}))
	}
	r.Use(securityHeaders(opts.Production))
	r.Use(corsMiddleware())

	if opts.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	limited := r.Group("", httpmiddleware.NewLimiter(opts.RateLimitPerMin, opts.RateLimitPerMin).Middleware())
	h.Register(limited)

	r.NoRoute(func(c *gin.Context) {
		h.reply(c, http.StatusNotFound, gin.H{"status": "error", "message": "Not found"})
	})
	return r
}

// CORS for the admin page and display, which may be served from another origin.
func corsMiddleware() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOriginFunc:  func(string) bool { return true },
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", registrationHeader},
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
	})
}

// Security headers middleware. HSTS is only sent in production behind TLS.
func securityHeaders(production bool) gin.HandlerFunc {
	sec := secure.New(secure.Options{
		FrameDeny:            true,
		ContentTypeNosniff:   true,
		ReferrerPolicy:       "strict-origin-when-cross-origin",
		STSSeconds:           31536000,
		STSIncludeSubdomains: true,
		SSLProxyHeaders:      map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:        !production,
	})
	return func(c *gin.Context) {
		if err := sec.Process(c.Writer, c.Request); err != nil {
			c.Abort()
			return
		}
		c.Next()
	}
}
