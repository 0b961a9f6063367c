package mode

import (
	"context"
	"fmt"

	"fpattend/internal/clock"
)

// Store persists the mode singleton.
type Store interface {
	// Load returns the stored state; ok is false when nothing was ever stored.
	Load(ctx context.Context) (st State, ok bool, err error)
	// Save overwrites the stored state.
	Save(ctx context.Context, st State) error
}

// Gate is the single access point for reading, changing and enforcing the mode.
type Gate struct {
	store Store
	clock clock.Clock
}

// NewGate creates a gate over store.
func NewGate(store Store, clk clock.Clock) *Gate {
	return &Gate{store: store, clock: clk}
}

// Current returns the active mode, defaulting to attendance when unset. It never writes.
func (g *Gate) Current(ctx context.Context) (State, error) {
	st, ok, err := g.store.Load(ctx)
	if err != nil {
		return State{}, fmt.Errorf("load mode: %w", err)
	}
	if !ok || st.Mode == "" {
		return State{Mode: Default}, nil
	}
	return st, nil
}

// Set validates raw and unconditionally overwrites the stored mode.
func (g *Gate) Set(ctx context.Context, raw string) (State, error) {
	m, err := Parse(raw)
	if err != nil {
		return State{}, err
	}
	st := State{Mode: m, UpdatedAt: g.clock.Now()}
	if err := g.store.Save(ctx, st); err != nil {
		return State{}, fmt.Errorf("save mode: %w", err)
	}
	return st, nil
}

// Require re-reads the mode and authorizes op against it.
func (g *Gate) Require(ctx context.Context, op Operation) (State, error) {
	st, err := g.Current(ctx)
	if err != nil {
		return State{}, err
	}
	return st, Authorize(op, st.Mode)
}
