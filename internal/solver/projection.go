package solver

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/pbdsim/internal/contact"
	"github.com/san-kum/pbdsim/internal/particle"
)

// Projection is the simplified position-based variant. Motion lives in the
// store's Displacement slice, which is both the step and the velocity proxy.
// It performs exactly one Jacobi sweep per step and does not iterate to
// convergence; stacked contacts are therefore only partly resolved per step.
type Projection struct {
	observers

	correction []mgl64.Vec2
}

func NewProjection() *Projection {
	return &Projection{}
}

func (p *Projection) Mode() Mode { return ModeProjection }

// Predict moves every particle by its displacement and extrapolates one more
// displacement ahead for the overlap test.
func (p *Projection) Predict(st *particle.Store, dt float64) {
	copy(st.LastPosition, st.Position)
	copy(st.LastVelocity, st.Velocity)
	for i := range st.Position {
		st.Position[i] = st.Position[i].Add(st.Displacement[i])
		st.Predicted[i] = st.Position[i].Add(st.Displacement[i])
	}
}

// Solve accumulates every overlap correction into scratch and commits them
// together, so the result does not depend on contact order.
func (p *Projection) Solve(st *particle.Store, cs *contact.Set, dt float64) {
	n := st.Len()
	if cap(p.correction) < n {
		p.correction = make([]mgl64.Vec2, n)
	}
	p.correction = p.correction[:n]
	for i := range p.correction {
		p.correction[i] = mgl64.Vec2{}
	}

	for c := 0; c < cs.Len(); c++ {
		a, b := cs.Pairs[c][0], cs.Pairs[c][1]
		wa, wb := st.InvMass[a], st.InvMass[b]
		penetration := cs.Rest[c] - st.Predicted[a].Sub(st.Predicted[b]).Len()
		cs.Residual[c] = penetration
		if penetration <= 0 || wa+wb == 0 {
			continue
		}
		push := cs.Normal[c].Mul(penetration / (wa + wb))
		p.correction[a] = p.correction[a].Add(push.Mul(wa))
		p.correction[b] = p.correction[b].Sub(push.Mul(wb))
		cs.Multiplier[c] = penetration / (wa + wb)
	}

	for i := range st.Displacement {
		st.Displacement[i] = st.Displacement[i].Add(p.correction[i])
	}
	p.notify(0, st, cs)
}

// Finalize keeps the reported velocity in step with the displacement.
func (p *Projection) Finalize(st *particle.Store, dt float64) {
	for i := range st.Velocity {
		st.Velocity[i] = st.Displacement[i].Mul(1 / dt)
	}
}
