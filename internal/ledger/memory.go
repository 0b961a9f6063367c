package ledger

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-process ledger for development and tests.
type MemoryStore struct {
	mu          sync.Mutex
	seq         int64
	pending     map[string]PendingEnrollment
	persons     map[string]Person
	byBiometric map[int]string
}

// NewMemoryStore returns an empty ledger.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		pending:     make(map[string]PendingEnrollment),
		persons:     make(map[string]Person),
		byBiometric: make(map[int]string),
	}
}

// AddPending stores p and assigns its insertion sequence.
func (s *MemoryStore) AddPending(_ context.Context, p PendingEnrollment) (PendingEnrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	p.Seq = s.seq
	p.Status = StatusPending
	s.pending[p.ID] = p
	return p, nil
}

// ListPending returns outstanding enrollments, newest first.
func (s *MemoryStore) ListPending(context.Context) ([]PendingEnrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingLocked(), nil
}

func (s *MemoryStore) pendingLocked() []PendingEnrollment {
	out := make([]PendingEnrollment, 0, len(s.pending))
	for _, p := range s.pending {
		out = append(out, p)
	}
	NewestFirst(out)
	return out
}

// Finalize consumes a pending enrollment and creates the person under one lock.
func (s *MemoryStore) Finalize(_ context.Context, biometricID int, fn ChooseFunc) (Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byBiometric[biometricID]; taken {
		return Person{}, ErrBiometricTaken
	}
	pendingID, p, err := fn(s.pendingLocked())
	if err != nil {
		return Person{}, err
	}
	if _, ok := s.pending[pendingID]; !ok {
		return Person{}, ErrPendingMissing
	}
	p.BiometricID = biometricID
	p.Attendance = nil
	s.persons[p.ID] = p
	s.byBiometric[biometricID] = p.ID
	delete(s.pending, pendingID)
	return p, nil
}

// PersonByBiometric looks a person up by fingerprint id.
func (s *MemoryStore) PersonByBiometric(_ context.Context, biometricID int) (Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byBiometric[biometricID]
	if !ok {
		return Person{}, ErrNotFound
	}
	p := s.persons[id]
	p.Attendance = nil
	return p, nil
}

// ListPersons returns every person with a copy of its attendance, oldest first.
func (s *MemoryStore) ListPersons(context.Context) ([]Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Person, 0, len(s.persons))
	for _, p := range s.persons {
		cp := p
		cp.Attendance = make(map[string]DayRecord, len(p.Attendance))
		for k, v := range p.Attendance {
			cp.Attendance[k] = v
		}
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// UpdateDay applies fn to the person's record for date under the store lock.
func (s *MemoryStore) UpdateDay(_ context.Context, personID, date string, fn DayFunc) (DayRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.persons[personID]
	if !ok {
		return DayRecord{}, ErrNotFound
	}
	cur := p.Attendance[date]
	next, write, err := fn(cur)
	if err != nil {
		return cur, err
	}
	if !write {
		return cur, nil
	}
	if p.Attendance == nil {
		p.Attendance = make(map[string]DayRecord)
	}
	p.Attendance[date] = next
	s.persons[personID] = p
	return next, nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(context.Context) error { return nil }
