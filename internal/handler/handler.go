// Package handler exposes the enrollment, attendance and admin endpoints over gin.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fpattend/internal/apperr"
	"fpattend/internal/attendance"
	"fpattend/internal/auth"
	"fpattend/internal/clock"
	"fpattend/internal/devices"
	"fpattend/internal/enrollment"
	"fpattend/internal/ledger"
	"fpattend/internal/metrics"
	"fpattend/internal/mode"
	"fpattend/internal/queue"
	"fpattend/internal/scanfeed"
)

const internalMessage = "Internal server error"

// Pinger reports backend reachability for healthz.
type Pinger interface {
	Healthy(ctx context.Context) bool
}

// Deps are the collaborators a Handler needs. Redis and Metrics may be nil.
type Deps struct {
	Log        *slog.Logger
	Clock      clock.Clock
	Mode       *mode.Gate
	Enrollment *enrollment.Service
	Attendance *attendance.Service
	Ledger     ledger.Store
	Feed       scanfeed.Feed
	Queue      queue.Queue
	Devices    devices.Registry
	Issuer     *auth.Issuer
	Metrics    *metrics.Metrics
	Redis      Pinger
	DeviceAuth bool

	// RegistrationSecret, when set, must accompany POST /devices/register
	// in the X-Registration-Secret header.
	RegistrationSecret string
}

type Handler struct {
	log        *slog.Logger
	clock      clock.Clock
	mode       *mode.Gate
	enrollment *enrollment.Service
	attendance *attendance.Service
	ledger     ledger.Store
	feed       scanfeed.Feed
	queue      queue.Queue
	devices    devices.Registry
	issuer     *auth.Issuer
	metrics    *metrics.Metrics
	redis      Pinger
	deviceAuth bool
	regSecret  []byte
}

func New(d Deps) *Handler {
	log := d.Log
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		log:        log,
		clock:      d.Clock,
		mode:       d.Mode,
		enrollment: d.Enrollment,
		attendance: d.Attendance,
		ledger:     d.Ledger,
		feed:       d.Feed,
		queue:      d.Queue,
		devices:    d.Devices,
		issuer:     d.Issuer,
		metrics:    d.Metrics,
		redis:      d.Redis,
		deviceAuth: d.DeviceAuth,
		regSecret:  []byte(d.RegistrationSecret),
	}
}

// Register mounts every route on r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/health", h.Health)
	r.GET("/healthz", h.Healthz)

	r.GET("/mode", h.GetMode)
	r.POST("/mode", h.SetMode)

	r.POST("/register", h.SubmitIdentity)
	r.GET("/register-fingerprint/latest", h.LatestEnrollment)
	r.POST("/register-fingerprint/clear", h.ClearEnrollment)
	r.GET("/attendance/latest", h.LatestAttendance)
	r.GET("/teachers", h.ListTeachers)

	r.POST("/devices/register", h.RegisterDevice)

	// device endpoints
	dev := r.Group("")
	if h.deviceAuth {
		dev.Use(auth.DeviceAuth(h.issuer, h.devices, h.log))
	}
	dev.POST("/register-fingerprint", h.CompleteEnrollment)
	dev.POST("/attendance", h.RecordAttendance)
}

// ---------- Responses ----------

func (h *Handler) now() time.Time { return h.clock.Now() }

func (h *Handler) serverTime() string { return clock.ISO(h.now()) }

// localTime renders a stored timestamp as HH:MM:SS in the clock's zone.
func (h *Handler) localTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return clock.TimeOfDay(t.In(h.now().Location()))
}

func (h *Handler) reply(c *gin.Context, code int, body gin.H) {
	body["server_time"] = h.serverTime()
	c.JSON(code, body)
}

func (h *Handler) badRequest(c *gin.Context, msg string) {
	h.reply(c, http.StatusBadRequest, gin.H{"status": "error", "message": msg})
}

// fail writes err as a display-sized error. extra is merged into the body for
// business errors only.
func (h *Handler) fail(c *gin.Context, err error, extra gin.H) {
	if ae, ok := apperr.As(err); ok {
		body := gin.H{"status": "error", "message": ae.Message}
		if ae.Kind == apperr.CooldownActive {
			body["remaining_minutes"] = ae.RemainingMinutes
		}
		for k, v := range extra {
			body[k] = v
		}
		h.reply(c, statusFor(ae.Kind), body)
		return
	}
	if errors.Is(err, context.Canceled) {
		h.log.Warn("request canceled", "path", c.FullPath())
	} else {
		h.log.Error("request failed", "path", c.FullPath(), "err", err)
	}
	h.reply(c, http.StatusInternalServerError, gin.H{"status": "error", "message": internalMessage})
}

func statusFor(k apperr.Kind) int {
	switch k {
	case apperr.ModeDenied:
		return http.StatusForbidden
	case apperr.NoPendingEnrollment, apperr.UnregisteredBiometric:
		return http.StatusNotFound
	case apperr.InvalidMode, apperr.DuplicateBiometric, apperr.CooldownActive, apperr.AttendanceComplete:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// publish hands an accepted event to the queue. Failures only affect the scan
// feed, so they are logged and the request still succeeds.
func (h *Handler) publish(ctx context.Context, typ string, e scanfeed.Entry) {
	if h.queue == nil {
		return
	}
	msg, err := queue.NewJSON(typ, e)
	if err != nil {
		h.log.Error("encode event", "type", typ, "err", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := h.queue.Publish(ctx, msg); err != nil {
		h.log.Warn("queue publish failed", "type", typ, "err", err)
	}
}
