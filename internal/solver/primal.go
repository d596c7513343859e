package solver

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/pbdsim/internal/contact"
	"github.com/san-kum/pbdsim/internal/integrators"
	"github.com/san-kum/pbdsim/internal/particle"
)

// Primal works in velocity space: it drives the residual of
// m(v - v_last) = dt·f toward zero, using m + dt²·Σk as a diagonal stand-in
// for the Hessian.
type Primal struct {
	integrators.SymplecticEuler
	observers

	iterations int
	relaxation float64
	force      []mgl64.Vec2
	diag       []float64
}

func NewPrimal(p Params) *Primal {
	return &Primal{iterations: p.Iterations, relaxation: p.Relaxation}
}

func (p *Primal) Mode() Mode { return ModePrimal }

func (p *Primal) Solve(st *particle.Store, cs *contact.Set, dt float64) {
	n := st.Len()
	if cap(p.force) < n {
		p.force = make([]mgl64.Vec2, n)
	}
	p.force = p.force[:n]

	for iter := 0; iter < p.iterations; iter++ {
		for i := range p.force {
			p.force[i] = mgl64.Vec2{}
		}
		p.diag = grow(p.diag, n)

		for c := 0; c < cs.Len(); c++ {
			i, j := cs.Pairs[c][0], cs.Pairs[c][1]
			k := 1 / cs.Compliance[c]

			pen := cs.Violation(c, st.Position)
			if cs.Kind[c] == contact.Inequality {
				pen = math.Min(pen, 0)
			}
			cs.Residual[c] = pen
			// position-level equivalent of the dual multiplier
			cs.Multiplier[c] = -k * pen * dt * dt

			f := cs.Normal[c].Mul(k * pen)
			p.force[i] = p.force[i].Sub(f)
			p.force[j] = p.force[j].Add(f)
			p.diag[i] += k
			p.diag[j] += k
		}

		for i := 0; i < n; i++ {
			if !st.Movable(i) {
				continue
			}
			m := 1 / st.InvMass[i]
			precond := 1 / (m + dt*dt*p.diag[i])
			residual := st.Velocity[i].Sub(st.LastVelocity[i]).Mul(m).Sub(p.force[i].Mul(dt))
			st.Velocity[i] = st.Velocity[i].Sub(residual.Mul(p.relaxation * precond))
		}

		p.Finalize(st, dt)
		p.notify(iter, st, cs)
	}
}
