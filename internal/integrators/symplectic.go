package integrators

import "github.com/san-kum/pbdsim/internal/particle"

// SymplecticEuler is the semi-implicit Euler predictor shared by the
// velocity-level solvers. Positions are always re-derived from the fixed
// step start and the current velocity, never accumulated.
type SymplecticEuler struct{}

func NewSymplecticEuler() SymplecticEuler {
	return SymplecticEuler{}
}

// Predict snapshots the step start and moves every particle, immovable ones
// included, to its unconstrained position.
func (SymplecticEuler) Predict(st *particle.Store, dt float64) {
	copy(st.LastPosition, st.Position)
	copy(st.LastVelocity, st.Velocity)
	for i := range st.Position {
		st.Predicted[i] = st.Position[i].Add(st.Velocity[i].Mul(dt))
		st.Position[i] = st.Predicted[i]
	}
}

// Finalize re-derives position from the step start and the current velocity.
func (SymplecticEuler) Finalize(st *particle.Store, dt float64) {
	for i := range st.Position {
		st.Position[i] = st.LastPosition[i].Add(st.Velocity[i].Mul(dt))
	}
}
