// Package mode holds the single deployment-wide operating mode and gates
// enrollment and attendance operations on it.
package mode

import (
	"strings"
	"time"

	"fpattend/internal/apperr"
)

// Mode is the global operating mode.
type Mode string

const (
	Register   Mode = "register"
	Attendance Mode = "attendance"
)

// Default is assumed whenever no mode has been stored.
const Default = Attendance

// Parse validates a submitted mode value. Matching ignores case and surrounding space.
func Parse(raw string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(raw))); m {
	case Register, Attendance:
		return m, nil
	}
	return "", apperr.New(apperr.InvalidMode, `Mode must be "register" or "attendance"`)
}

// State is the stored mode singleton.
type State struct {
	Mode      Mode      `json:"mode"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Operation identifies a gated coordinator operation.
type Operation int

const (
	SubmitIdentity Operation = iota
	CompleteEnrollment
	RecordAttendance
)

// Required returns the mode an operation needs.
func (op Operation) Required() Mode {
	if op == RecordAttendance {
		return Attendance
	}
	return Register
}

// Authorize reports whether op may run while current is active. A denial is an
// *apperr.Error of kind ModeDenied naming the active mode.
func Authorize(op Operation, current Mode) error {
	if op.Required() == current {
		return nil
	}
	if op == SubmitIdentity {
		return apperr.New(apperr.ModeDenied, "System is in %s mode. Switch to register mode to register teachers.", current)
	}
	return apperr.New(apperr.ModeDenied, "System is in %s mode", current)
}
