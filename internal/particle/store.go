// Package particle holds the kinematic state of every simulated particle.
//
// The store is laid out as parallel slices indexed by particle id. A slot in
// one slice always describes the same particle as the slot with the same
// index in every other slice.
package particle

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Store is a structure-of-arrays particle container. The particle set is
// fixed once the simulation starts stepping.
type Store struct {
	Position     []mgl64.Vec2
	Predicted    []mgl64.Vec2
	LastPosition []mgl64.Vec2
	LastVelocity []mgl64.Vec2
	Velocity     []mgl64.Vec2
	// Displacement is the per-step motion carried by the projection solver
	// in place of a velocity.
	Displacement []mgl64.Vec2
	InvMass      []float64
	Radius       []float64
}

func New(capacity int) *Store {
	return &Store{
		Position:     make([]mgl64.Vec2, 0, capacity),
		Predicted:    make([]mgl64.Vec2, 0, capacity),
		LastPosition: make([]mgl64.Vec2, 0, capacity),
		LastVelocity: make([]mgl64.Vec2, 0, capacity),
		Velocity:     make([]mgl64.Vec2, 0, capacity),
		Displacement: make([]mgl64.Vec2, 0, capacity),
		InvMass:      make([]float64, 0, capacity),
		Radius:       make([]float64, 0, capacity),
	}
}

func (s *Store) Len() int { return len(s.Position) }

// Add appends a particle and returns its index. Snapshots start equal to the
// current state so a store is consistent before its first step.
func (s *Store) Add(pos, vel mgl64.Vec2, invMass, radius float64) int {
	s.Position = append(s.Position, pos)
	s.Predicted = append(s.Predicted, pos)
	s.LastPosition = append(s.LastPosition, pos)
	s.LastVelocity = append(s.LastVelocity, vel)
	s.Velocity = append(s.Velocity, vel)
	s.Displacement = append(s.Displacement, mgl64.Vec2{})
	s.InvMass = append(s.InvMass, invMass)
	s.Radius = append(s.Radius, radius)
	return len(s.Position) - 1
}

// Movable reports whether particle i can be moved by a constraint.
func (s *Store) Movable(i int) bool { return s.InvMass[i] > 0 }

// Mass returns +Inf for immovable particles.
func (s *Store) Mass(i int) float64 {
	if s.InvMass[i] == 0 {
		return math.Inf(1)
	}
	return 1 / s.InvMass[i]
}

// Momentum sums m*v over finite-mass particles.
func (s *Store) Momentum() mgl64.Vec2 {
	var p mgl64.Vec2
	for i := range s.Velocity {
		if !s.Movable(i) {
			continue
		}
		p = p.Add(s.Velocity[i].Mul(1 / s.InvMass[i]))
	}
	return p
}

// KineticEnergy sums ½mv² over finite-mass particles.
func (s *Store) KineticEnergy() float64 {
	e := 0.0
	for i, v := range s.Velocity {
		if !s.Movable(i) {
			continue
		}
		e += 0.5 * v.Dot(v) / s.InvMass[i]
	}
	return e
}
