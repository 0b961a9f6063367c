package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"fpattend/internal/enrollment"
	"fpattend/internal/queue"
	"fpattend/internal/scanfeed"
)

const (
	stepSubmit   = "submit"
	stepComplete = "complete"
)

// SubmitIdentity stores the admin's name and department until a fingerprint arrives.
// Accepts JSON or form bodies.
func (h *Handler) SubmitIdentity(c *gin.Context) {
	var req identityRequest
	if err := c.ShouldBind(&req); err != nil {
		h.badRequest(c, "Invalid request body")
		return
	}
	p, err := h.enrollment.SubmitIdentity(c.Request.Context(), req.Name, req.Department)
	h.metrics.ObserveEnrollment(stepSubmit, err)
	if errors.Is(err, enrollment.ErrMissingIdentity) {
		h.badRequest(c, "Missing required fields: name, department")
		return
	}
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	h.log.Info("pending enrollment saved", "pending_id", p.ID)
	h.reply(c, http.StatusCreated, gin.H{
		"status":     "success",
		"message":    fmt.Sprintf("Waiting for fingerprint for %s", p.Name),
		"pending_id": p.ID,
	})
}

// CompleteEnrollment is posted by the sensor after enrolling a template.
func (h *Handler) CompleteEnrollment(c *gin.Context) {
	var req fingerprintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, bindError(err, "Request must be JSON"))
		return
	}
	fid, msg := req.id()
	if msg != "" {
		h.badRequest(c, msg)
		return
	}
	ctx := c.Request.Context()
	person, err := h.enrollment.CompleteWithBiometric(ctx, fid, enrollment.Hint{Name: req.Name, Department: req.Department})
	h.metrics.ObserveEnrollment(stepComplete, err)
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	h.log.Info("person enrolled", "teacher_id", person.ID, "fingerprint_id", fid)
	h.publish(ctx, queue.TypeEnrolled, scanfeed.Entry{
		FingerprintID: fid,
		TeacherID:     person.ID,
		Name:          person.Name,
		Department:    person.Department,
		Timestamp:     h.serverTime(),
	})
	h.reply(c, http.StatusCreated, gin.H{
		"status":         "success",
		"message":        fmt.Sprintf("Teacher %s registered successfully", person.Name),
		"teacher_id":     person.ID,
		"name":           person.Name,
		"department":     person.Department,
		"fingerprint_id": fid,
	})
}
