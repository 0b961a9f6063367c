package handler

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"fpattend/internal/apperr"
	"fpattend/internal/attendance"
	"fpattend/internal/queue"
	"fpattend/internal/scanfeed"
)

// RecordAttendance is posted by the sensor on every matched scan. Only server time counts.
func (h *Handler) RecordAttendance(c *gin.Context) {
	var req fingerprintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, bindError(err, "Request must be JSON with fingerprint_id"))
		return
	}
	fid, msg := req.id()
	if msg != "" {
		h.badRequest(c, msg)
		return
	}
	ctx := c.Request.Context()
	res, err := h.attendance.RecordEvent(ctx, fid)
	h.metrics.ObserveAttendance(string(res.Action), err)
	if err != nil {
		extra := gin.H{"action": actionFor(err)}
		if res.Person.ID != "" {
			extra["teacher"] = gin.H{"name": res.Person.Name, "department": res.Person.Department}
			extra["check_in"] = h.localTime(res.Record.CheckIn)
		}
		h.fail(c, err, extra)
		return
	}

	body := gin.H{
		"status":   "success",
		"action":   res.Action,
		"message":  res.Message,
		"teacher":  gin.H{"name": res.Person.Name, "department": res.Person.Department},
		"check_in": h.localTime(res.Record.CheckIn),
	}
	typ := queue.TypeCheckIn
	if res.Action == attendance.CheckOut {
		typ = queue.TypeCheckOut
		body["check_out"] = h.localTime(res.Record.CheckOut)
		body["working_hours"] = res.Record.WorkingHours
	}
	h.log.Info("attendance recorded", "teacher_id", res.Person.ID, "action", res.Action, "date", res.Date)
	h.publish(ctx, typ, scanfeed.Entry{
		FingerprintID: fid,
		TeacherID:     res.Person.ID,
		Name:          res.Person.Name,
		Department:    res.Person.Department,
		Action:        string(res.Action),
		Timestamp:     h.serverTime(),
	})
	h.reply(c, http.StatusOK, body)
}

// actionFor names the rejected outcome for the device display.
func actionFor(err error) string {
	switch apperr.KindOf(err) {
	case apperr.UnregisteredBiometric:
		return "not_found"
	case apperr.CooldownActive:
		return "cooldown"
	case apperr.AttendanceComplete:
		return "completed"
	case apperr.ModeDenied:
		return "mode_denied"
	}
	return "error"
}

type teacherRecord struct {
	TeacherID    string  `json:"teacher_id"`
	Name         string  `json:"name"`
	Department   string  `json:"department"`
	Date         *string `json:"date"`
	CheckIn      any     `json:"check_in"`
	CheckOut     any     `json:"check_out"`
	WorkingHours *string `json:"working_hours"`
}

// ListTeachers flattens every person's attendance into one row per date.
// A person with no attendance yields a single row with null date fields.
func (h *Handler) ListTeachers(c *gin.Context) {
	persons, err := h.ledger.ListPersons(c.Request.Context())
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	records := make([]teacherRecord, 0, len(persons))
	for _, p := range persons {
		if len(p.Attendance) == 0 {
			records = append(records, teacherRecord{TeacherID: p.ID, Name: p.Name, Department: p.Department})
			continue
		}
		dates := make([]string, 0, len(p.Attendance))
		for d := range p.Attendance {
			dates = append(dates, d)
		}
		sort.Strings(dates)
		for _, d := range dates {
			rec := p.Attendance[d]
			row := teacherRecord{
				TeacherID:  p.ID,
				Name:       p.Name,
				Department: p.Department,
				Date:       &d,
				CheckIn:    h.localTime(rec.CheckIn),
				CheckOut:   h.localTime(rec.CheckOut),
			}
			if rec.WorkingHours != "" {
				wh := rec.WorkingHours
				row.WorkingHours = &wh
			}
			records = append(records, row)
		}
	}
	h.reply(c, http.StatusOK, gin.H{"status": "success", "records": records})
}
