package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fpattend/internal/scanfeed"
)

// LatestEnrollment is polled by the admin page after submitting an identity.
func (h *Handler) LatestEnrollment(c *gin.Context) {
	h.latest(c, scanfeed.Enrollment, "No fingerprint scanned yet")
}

// LatestAttendance is polled by the display for the last accepted scan.
func (h *Handler) LatestAttendance(c *gin.Context) {
	h.latest(c, scanfeed.Attendance, "No attendance scanned yet")
}

func (h *Handler) latest(c *gin.Context, kind scanfeed.Kind, waiting string) {
	e, ok, err := h.feed.Latest(c.Request.Context(), kind)
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	if !ok {
		h.reply(c, http.StatusOK, gin.H{"status": "waiting", "message": waiting})
		return
	}
	body := gin.H{
		"status":         "ready",
		"fingerprint_id": e.FingerprintID,
		"teacher_id":     e.TeacherID,
		"name":           e.Name,
		"department":     e.Department,
		"timestamp":      e.Timestamp,
	}
	if e.Action != "" {
		body["action"] = e.Action
	}
	h.reply(c, http.StatusOK, body)
}

// ClearEnrollment resets the enrollment slot.
func (h *Handler) ClearEnrollment(c *gin.Context) {
	if err := h.feed.Clear(c.Request.Context(), scanfeed.Enrollment); err != nil {
		h.fail(c, err, nil)
		return
	}
	h.reply(c, http.StatusOK, gin.H{"status": "success", "message": "Fingerprint ID cleared"})
}
