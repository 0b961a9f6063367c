// Package ledger owns the two durable collections: pending enrollments waiting
// for a fingerprint and enrolled persons with their per-day attendance.
package ledger

import (
	"context"
	"errors"
	"sort"
	"time"
)

var (
	// ErrNotFound is returned when a person does not exist.
	ErrNotFound = errors.New("ledger: not found")
	// ErrBiometricTaken is returned when the fingerprint id is already enrolled.
	ErrBiometricTaken = errors.New("ledger: biometric id already enrolled")
	// ErrPendingMissing is returned when a chosen pending enrollment is not outstanding.
	ErrPendingMissing = errors.New("ledger: pending enrollment not outstanding")
)

// StatusPending is the only status a stored PendingEnrollment ever has.
const StatusPending = "pending"

// PendingEnrollment is a write-once, consume-once identity waiting for a fingerprint.
type PendingEnrollment struct {
	ID         string    `json:"pending_id"`
	Seq        int64     `json:"-"`
	Name       string    `json:"name"`
	Department string    `json:"department"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// DayRecord is one person's attendance for one calendar date.
type DayRecord struct {
	CheckIn      *time.Time
	CheckOut     *time.Time
	WorkingHours string
}

// Complete reports whether both events were recorded.
func (d DayRecord) Complete() bool { return d.CheckIn != nil && d.CheckOut != nil }

// Person is an enrolled identity.
type Person struct {
	ID          string
	Name        string
	Department  string
	BiometricID int
	CreatedAt   time.Time
	// Attendance is keyed by YYYY-MM-DD. Only populated by ListPersons.
	Attendance map[string]DayRecord
}

// ChooseFunc picks the pending enrollment to consume from the outstanding ones
// (newest first) and returns the person to create for it. Returning an error
// aborts the enrollment without side effects.
type ChooseFunc func(pending []PendingEnrollment) (pendingID string, p Person, err error)

// DayFunc computes the next state of a day record. When write is false nothing
// is stored. Returning an error aborts without side effects.
type DayFunc func(cur DayRecord) (next DayRecord, write bool, err error)

// Store is the persistence contract shared by the memory and Postgres ledgers.
// Finalize and UpdateDay are atomic with respect to concurrent calls on the same key.
type Store interface {
	AddPending(ctx context.Context, p PendingEnrollment) (PendingEnrollment, error)
	ListPending(ctx context.Context) ([]PendingEnrollment, error)
	// Finalize creates the person chosen by fn and deletes the consumed pending
	// enrollment in one step. It fails with ErrBiometricTaken if biometricID is
	// already enrolled.
	Finalize(ctx context.Context, biometricID int, fn ChooseFunc) (Person, error)
	PersonByBiometric(ctx context.Context, biometricID int) (Person, error)
	ListPersons(ctx context.Context) ([]Person, error)
	UpdateDay(ctx context.Context, personID, date string, fn DayFunc) (DayRecord, error)
	Ping(ctx context.Context) error
}

// NewestFirst orders pending enrollments by created_at, ties broken by insertion order.
func NewestFirst(pending []PendingEnrollment) {
	sort.SliceStable(pending, func(i, j int) bool {
		if !pending[i].CreatedAt.Equal(pending[j].CreatedAt) {
			return pending[i].CreatedAt.After(pending[j].CreatedAt)
		}
		return pending[i].Seq > pending[j].Seq
	})
}
