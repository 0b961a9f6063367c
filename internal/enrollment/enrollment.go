// Package enrollment implements two-step registration: an administrator submits
// a name and department, then the sensor reports the fingerprint id that completes it.
package enrollment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"fpattend/internal/apperr"
	"fpattend/internal/clock"
	"fpattend/internal/ledger"
	"fpattend/internal/mode"
)

// ErrMissingIdentity is returned when name or department is blank.
var ErrMissingIdentity = errors.New("missing required fields: name, department")

// Gate authorizes an operation against the current mode.
type Gate interface {
	Require(ctx context.Context, op mode.Operation) (mode.State, error)
}

// Hint optionally narrows which pending enrollment a fingerprint completes.
// It only applies when both fields are set; a half hint is ignored.
type Hint struct {
	Name       string
	Department string
}

func (h Hint) complete() bool { return h.Name != "" && h.Department != "" }

func (h Hint) matches(p ledger.PendingEnrollment) bool {
	return p.Name == h.Name && p.Department == h.Department
}

// Service coordinates the enrollment protocol.
type Service struct {
	gate  Gate
	store ledger.Store
	clock clock.Clock
	newID func() (string, error)
}

// NewService creates an enrollment coordinator.
func NewService(gate Gate, store ledger.Store, clk clock.Clock) *Service {
	return &Service{gate: gate, store: store, clock: clk, newID: newPendingID}
}

func newPendingID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// SubmitIdentity queues a pending enrollment. Duplicate names are allowed.
func (s *Service) SubmitIdentity(ctx context.Context, name, department string) (ledger.PendingEnrollment, error) {
	if _, err := s.gate.Require(ctx, mode.SubmitIdentity); err != nil {
		return ledger.PendingEnrollment{}, err
	}
	name, department = strings.TrimSpace(name), strings.TrimSpace(department)
	if name == "" || department == "" {
		return ledger.PendingEnrollment{}, ErrMissingIdentity
	}
	id, err := s.newID()
	if err != nil {
		return ledger.PendingEnrollment{}, fmt.Errorf("generate pending id: %w", err)
	}
	p, err := s.store.AddPending(ctx, ledger.PendingEnrollment{
		ID:         id,
		Name:       name,
		Department: department,
		CreatedAt:  s.clock.Now(),
	})
	if err != nil {
		return ledger.PendingEnrollment{}, fmt.Errorf("save pending enrollment: %w", err)
	}
	return p, nil
}

// CompleteWithBiometric matches a fingerprint id to a pending enrollment and
// creates the person. Retrying after success fails with DuplicateBiometric.
func (s *Service) CompleteWithBiometric(ctx context.Context, biometricID int, hint Hint) (ledger.Person, error) {
	if _, err := s.gate.Require(ctx, mode.CompleteEnrollment); err != nil {
		return ledger.Person{}, err
	}
	hint = Hint{Name: strings.TrimSpace(hint.Name), Department: strings.TrimSpace(hint.Department)}
	now := s.clock.Now()

	person, err := s.store.Finalize(ctx, biometricID, func(pending []ledger.PendingEnrollment) (string, ledger.Person, error) {
		chosen, ok := Select(pending, hint)
		if !ok {
			return "", ledger.Person{}, apperr.New(apperr.NoPendingEnrollment, "No pending registration found")
		}
		return chosen.ID, ledger.Person{
			ID:         PersonID(now, biometricID),
			Name:       chosen.Name,
			Department: chosen.Department,
			CreatedAt:  now,
		}, nil
	})
	switch {
	case err == nil:
		return person, nil
	case errors.Is(err, ledger.ErrBiometricTaken):
		return ledger.Person{}, apperr.New(apperr.DuplicateBiometric, "Fingerprint ID %d already registered", biometricID)
	case errors.Is(err, ledger.ErrPendingMissing):
		return ledger.Person{}, apperr.New(apperr.NoPendingEnrollment, "No pending registration found")
	}
	if _, ok := apperr.As(err); ok {
		return ledger.Person{}, err
	}
	return ledger.Person{}, fmt.Errorf("finalize enrollment: %w", err)
}

// Select picks the pending enrollment a fingerprint completes: the newest one
// matching every non-empty hint field, otherwise the newest overall.
// Identical name and department on several pending records resolve to the newest.
func Select(pending []ledger.PendingEnrollment, hint Hint) (ledger.PendingEnrollment, bool) {
	if len(pending) == 0 {
		return ledger.PendingEnrollment{}, false
	}
	ordered := append([]ledger.PendingEnrollment(nil), pending...)
	ledger.NewestFirst(ordered)
	if hint.complete() {
		for _, p := range ordered {
			if hint.matches(p) {
				return p, true
			}
		}
	}
	return ordered[0], true
}

// PersonID derives the enrolled id from the finalize time and fingerprint id.
func PersonID(at time.Time, biometricID int) string {
	return "teacher_" + at.Format("20060102150405") + "_" + strconv.Itoa(biometricID)
}
