// Package solver implements the interchangeable constraint solving
// strategies. A strategy is chosen once per simulation by its Mode.
//
//   - [Dual]: projected, preconditioned gradient ascent on the constraint
//     multipliers (XPBD-style compliant constraints).
//   - [Primal]: diagonally preconditioned gradient descent on the
//     backward-Euler force balance.
//   - [Projection]: a single Jacobi sweep of inverse-mass weighted overlap
//     corrections folded into a persistent displacement.
//
// Every iteration reads the state committed by the previous iteration and
// commits its own updates only after all rows were computed.
package solver

import (
	"fmt"

	"github.com/san-kum/pbdsim/internal/contact"
	"github.com/san-kum/pbdsim/internal/particle"
)

type Mode uint8

const (
	ModeDual Mode = iota
	ModePrimal
	ModeProjection
)

func (m Mode) String() string {
	switch m {
	case ModeDual:
		return "dual"
	case ModePrimal:
		return "primal"
	case ModeProjection:
		return "projection"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

func ParseMode(s string) (Mode, error) {
	switch s {
	case "dual", "xpbd", "":
		return ModeDual, nil
	case "primal":
		return ModePrimal, nil
	case "projection", "pbd":
		return ModeProjection, nil
	}
	return 0, fmt.Errorf("solver: unknown mode %q", s)
}

// Solver advances one simulation step in three phases. The driver calls
// Predict, generates contacts from the predicted positions, then calls
// Solve and Finalize.
type Solver interface {
	Mode() Mode
	Predict(st *particle.Store, dt float64)
	Solve(st *particle.Store, cs *contact.Set, dt float64)
	Finalize(st *particle.Store, dt float64)
	AddObserver(o Observer)
}

// Observer sees the committed state after every solver iteration.
type Observer interface {
	OnIteration(iter int, st *particle.Store, cs *contact.Set)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(iter int, st *particle.Store, cs *contact.Set)

func (f ObserverFunc) OnIteration(iter int, st *particle.Store, cs *contact.Set) {
	f(iter, st, cs)
}

type Params struct {
	Iterations int
	Relaxation float64
}

// New builds the strategy for mode.
func New(mode Mode, p Params) (Solver, error) {
	switch mode {
	case ModeDual:
		return NewDual(p), nil
	case ModePrimal:
		return NewPrimal(p), nil
	case ModeProjection:
		return NewProjection(), nil
	}
	return nil, fmt.Errorf("solver: unknown mode %v", mode)
}

type observers []Observer

func (o *observers) AddObserver(obs Observer) { *o = append(*o, obs) }

func (o observers) notify(iter int, st *particle.Store, cs *contact.Set) {
	for _, obs := range o {
		obs.OnIteration(iter, st, cs)
	}
}

func grow(buf []float64, n int) []float64 {
	if cap(buf) < n {
		return make([]float64, n)
	}
	buf = buf[:n]
	for i := range buf {
		buf[i] = 0
	}
	return buf
}
