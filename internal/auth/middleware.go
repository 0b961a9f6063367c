package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ClaimsKey is the gin context key holding validated Claims.
const ClaimsKey = "claims"

// DeviceLookup reports whether a device id is registered.
type DeviceLookup interface {
	Known(ctx context.Context, deviceID string) (bool, error)
}

// DeviceAuth enforces bearer JWT tokens whose subject is a registered device.
func DeviceAuth(issuer *Issuer, devices DeviceLookup, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if len(authz) < len("bearer ") || !strings.EqualFold(authz[:len("bearer ")], "bearer ") {
			deny(c, "Missing bearer token")
			return
		}
		claims, err := issuer.Parse(strings.TrimSpace(authz[len("bearer "):]))
		if err != nil || claims.Role != RoleDevice {
			deny(c, "Invalid token")
			return
		}
		known, err := devices.Known(c.Request.Context(), claims.Subject)
		if err != nil {
			log.Error("device lookup failed", "device_id", claims.Subject, "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Internal server error"})
			return
		}
		if !known {
			deny(c, "Unknown device")
			return
		}
		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

func deny(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": "error", "message": msg})
}
