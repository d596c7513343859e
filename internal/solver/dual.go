package solver

import (
	"math"

	"github.com/san-kum/pbdsim/internal/contact"
	"github.com/san-kum/pbdsim/internal/integrators"
	"github.com/san-kum/pbdsim/internal/particle"
)

// Dual relaxes one Lagrange multiplier per constraint. Inequality rows are
// projected onto λ ≥ 0 so contacts never pull. Compliance is taken per
// step squared (α/dt²), so λ is a position-level impulse and the result
// matches the primal solver for any dt.
type Dual struct {
	integrators.SymplecticEuler
	observers

	iterations int
	relaxation float64
	applied    []float64
}

func NewDual(p Params) *Dual {
	return &Dual{iterations: p.Iterations, relaxation: p.Relaxation}
}

func (d *Dual) Mode() Mode { return ModeDual }

func (d *Dual) Solve(st *particle.Store, cs *contact.Set, dt float64) {
	n := cs.Len()
	invDt2 := 1 / (dt * dt)
	for iter := 0; iter < d.iterations; iter++ {
		d.applied = grow(d.applied, n)

		// every row reads the positions committed by the last iteration
		for c := 0; c < n; c++ {
			a, b := cs.Pairs[c][0], cs.Pairs[c][1]
			alpha := cs.Compliance[c] * invDt2
			lambda := cs.Multiplier[c]

			violation := cs.Violation(c, st.Position)
			cs.Residual[c] = -violation - alpha*lambda
			cs.Preconditioner[c] = 1 / (st.InvMass[a] + st.InvMass[b] + alpha)
			step := d.relaxation * cs.Preconditioner[c] * cs.Residual[c]

			if cs.Kind[c] == contact.Inequality {
				next := math.Max(0, lambda+step)
				d.applied[c] = next - lambda
				cs.Multiplier[c] = next
			} else {
				d.applied[c] = step
				cs.Multiplier[c] = lambda + step
			}
		}

		for c := 0; c < n; c++ {
			a, b := cs.Pairs[c][0], cs.Pairs[c][1]
			impulse := cs.Normal[c].Mul(d.applied[c] / dt)
			if st.Movable(a) {
				st.Velocity[a] = st.Velocity[a].Add(impulse.Mul(st.InvMass[a]))
			}
			if st.Movable(b) {
				st.Velocity[b] = st.Velocity[b].Sub(impulse.Mul(st.InvMass[b]))
			}
		}

		d.Finalize(st, dt)
		d.notify(iter, st, cs)
	}
}
