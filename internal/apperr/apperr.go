// Package apperr defines the business outcomes the coordinators report to callers.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a business-rule violation.
type Kind string

const (
	ModeDenied            Kind = "mode_denied"
	InvalidMode           Kind = "invalid_mode"
	NoPendingEnrollment   Kind = "no_pending_enrollment"
	DuplicateBiometric    Kind = "duplicate_biometric"
	UnregisteredBiometric Kind = "unregistered_biometric"
	CooldownActive        Kind = "cooldown"
	AttendanceComplete    Kind = "completed"
)

// Error is an expected, reportable outcome. Message is short enough for the device display.
type Error struct {
	Kind             Kind
	Message          string
	RemainingMinutes int
}

func (e *Error) Error() string { return e.Message }

// New builds an Error with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Cooldown reports a check-out attempted too early.
func Cooldown(remaining int) *Error {
	return &Error{
		Kind:             CooldownActive,
		Message:          fmt.Sprintf("Please try again after %d minute(s)", remaining),
		RemainingMinutes: remaining,
	}
}

// As extracts a business error from err.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the Kind of err, or "" when err is not a business error.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return ""
}
