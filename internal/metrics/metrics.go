// Package metrics exposes Prometheus counters for enrollment, attendance and mode changes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"fpattend/internal/apperr"
)

// Outcome labels besides the apperr kinds.
const (
	OutcomeOK       = "ok"
	OutcomeInternal = "internal"
)

// Metrics holds the service counters.
type Metrics struct {
	Attendance  *prometheus.CounterVec
	Enrollment  *prometheus.CounterVec
	ModeChanges *prometheus.CounterVec
	FeedUpdates *prometheus.CounterVec
}

// New registers all counters on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Attendance: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fpattend_attendance_events_total",
			Help: "Attendance scans by outcome (check_in, check_out or error kind)",
		}, []string{"outcome"}),
		Enrollment: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fpattend_enrollment_total",
			Help: "Enrollment calls by step and outcome",
		}, []string{"step", "outcome"}),
		ModeChanges: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fpattend_mode_changes_total",
			Help: "Applied mode changes by target mode",
		}, []string{"mode"}),
		FeedUpdates: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fpattend_feed_updates_total",
			Help: "Queue messages applied to the scan feed by type",
		}, []string{"type"}),
	}
}

// Outcome maps an operation error to a label value.
func Outcome(err error) string {
	if err == nil {
		return OutcomeOK
	}
	if k := apperr.KindOf(err); k != "" {
		return string(k)
	}
	return OutcomeInternal
}

// ObserveAttendance counts a scan. action is used when err is nil.
func (m *Metrics) ObserveAttendance(action string, err error) {
	if m == nil {
		return
	}
	outcome := Outcome(err)
	if err == nil {
		outcome = action
	}
	m.Attendance.WithLabelValues(outcome).Inc()
}

// ObserveEnrollment counts a submit or complete call.
func (m *Metrics) ObserveEnrollment(step string, err error) {
	if m == nil {
		return
	}
	m.Enrollment.WithLabelValues(step, Outcome(err)).Inc()
}

// ObserveModeChange counts an applied mode change.
func (m *Metrics) ObserveModeChange(mode string) {
	if m == nil {
		return
	}
	m.ModeChanges.WithLabelValues(mode).Inc()
}

// ObserveFeedUpdate counts a consumed queue message.
func (m *Metrics) ObserveFeedUpdate(typ string) {
	if m == nil {
		return
	}
	m.FeedUpdates.WithLabelValues(typ).Inc()
}
