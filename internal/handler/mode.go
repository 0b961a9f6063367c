package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetMode answers the device's poll for the active workflow.
func (h *Handler) GetMode(c *gin.Context) {
	st, err := h.mode.Current(c.Request.Context())
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	h.reply(c, http.StatusOK, gin.H{"status": "success", "mode": st.Mode})
}

// SetMode switches the workflow. Admin only.
func (h *Handler) SetMode(c *gin.Context) {
	var req modeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Request must be JSON")
		return
	}
	st, err := h.mode.Set(c.Request.Context(), req.Mode)
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	h.metrics.ObserveModeChange(string(st.Mode))
	h.log.Info("mode changed", "mode", st.Mode)
	h.reply(c, http.StatusOK, gin.H{
		"status":  "success",
		"message": "System mode set to " + string(st.Mode),
		"mode":    st.Mode,
	})
}
