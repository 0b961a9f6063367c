package handler

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fpattend/internal/auth"
	"fpattend/internal/devices"
)

// ---------- Health ----------

func (h *Handler) Health(c *gin.Context) {
	h.reply(c, http.StatusOK, gin.H{"status": "healthy"})
}

// Healthz pings the configured backends.
func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	storeOK := h.ledger.Ping(ctx) == nil
	body := gin.H{"status": "ok", "store": storeOK}
	healthy := storeOK
	if h.redis != nil {
		redisOK := h.redis.Healthy(ctx)
		body["redis"] = redisOK
		healthy = healthy && redisOK
	}
	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
		body["status"] = "degraded"
	}
	h.reply(c, code, body)
}

// ---------- Devices ----------

const registrationHeader = "X-Registration-Secret"

// RegisterDevice upserts a sensor unit and issues its token pair. Without a
// configured registration secret any caller can mint a device token.
func (h *Handler) RegisterDevice(c *gin.Context) {
	if len(h.regSecret) > 0 && subtle.ConstantTimeCompare([]byte(c.GetHeader(registrationHeader)), h.regSecret) != 1 {
		h.reply(c, http.StatusUnauthorized, gin.H{"status": "error", "message": "Invalid registration secret"})
		return
	}
	var req deviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Missing device_id")
		return
	}
	ctx := c.Request.Context()
	if err := h.devices.UpsertDevice(ctx, req.DeviceID); err != nil {
		if errors.Is(err, devices.ErrDeviceRequired) {
			h.badRequest(c, "Missing device_id")
			return
		}
		h.fail(c, err, nil)
		return
	}
	tokens, err := h.issuer.Issue(req.DeviceID, auth.RoleDevice)
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	if err := h.devices.SaveRefreshToken(ctx, req.DeviceID, tokens.RefreshToken, tokens.RefreshExp); err != nil {
		h.fail(c, err, nil)
		return
	}
	h.log.Info("device registered", "device_id", req.DeviceID)
	h.reply(c, http.StatusCreated, gin.H{
		"status":        "success",
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"expires_at":    tokens.AccessExp.Unix(),
	})
}
