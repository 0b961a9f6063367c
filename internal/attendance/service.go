package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fpattend/internal/apperr"
	"fpattend/internal/clock"
	"fpattend/internal/ledger"
	"fpattend/internal/mode"
)

// DefaultCooldown is the minimum gap between check-in and check-out.
const DefaultCooldown = 15 * time.Minute

// Gate authorizes an operation against the current mode.
type Gate interface {
	Require(ctx context.Context, op mode.Operation) (mode.State, error)
}

// Result describes an accepted attendance event.
type Result struct {
	Action  Action
	Person  ledger.Person
	Date    string
	Record  ledger.DayRecord
	Worked  time.Duration
	Message string
}

// Service coordinates check-in and check-out decisions.
type Service struct {
	gate     Gate
	store    ledger.Store
	clock    clock.Clock
	cooldown time.Duration
}

// NewService creates a service backed by the ledger.
func NewService(gate Gate, store ledger.Store, clk clock.Clock, cooldown time.Duration) *Service {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Service{gate: gate, store: store, clock: clk, cooldown: cooldown}
}

// RecordEvent evaluates a fingerprint scan against today's record. Only server
// time is used. A retried scan is judged against whatever is stored by then.
func (s *Service) RecordEvent(ctx context.Context, biometricID int) (Result, error) {
	if _, err := s.gate.Require(ctx, mode.RecordAttendance); err != nil {
		return Result{}, err
	}

	person, err := s.store.PersonByBiometric(ctx, biometricID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return Result{}, apperr.New(apperr.UnregisteredBiometric, "Fingerprint ID %d not registered", biometricID)
		}
		return Result{}, fmt.Errorf("find person: %w", err)
	}

	now := s.clock.Now()
	date := clock.DateKey(now)
	var action Action
	rec, err := s.store.UpdateDay(ctx, person.ID, date, func(cur ledger.DayRecord) (ledger.DayRecord, bool, error) {
		next, a, err := Decide(cur, now, s.cooldown)
		if err != nil {
			return cur, false, err
		}
		action = a
		return next, true, nil
	})
	if err != nil {
		if _, ok := apperr.As(err); ok {
			return Result{Person: person, Date: date, Record: rec}, err
		}
		if errors.Is(err, ledger.ErrNotFound) {
			return Result{}, apperr.New(apperr.UnregisteredBiometric, "Fingerprint ID %d not registered", biometricID)
		}
		return Result{}, fmt.Errorf("update day record: %w", err)
	}

	res := Result{Action: action, Person: person, Date: date, Record: rec}
	switch action {
	case CheckIn:
		res.Message = "Check-in successful"
	case CheckOut:
		res.Worked = rec.CheckOut.Sub(*rec.CheckIn)
		res.Message = "Check-out successful. Worked " + FormatDuration(res.Worked)
	}
	return res, nil
}
