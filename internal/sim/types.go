package sim

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/pbdsim/internal/contact"
	"github.com/san-kum/pbdsim/internal/particle"
	"github.com/san-kum/pbdsim/internal/solver"
)

// Particle is the initial state of one particle.
type Particle struct {
	Position mgl64.Vec2
	Velocity mgl64.Vec2
	// InvMass of zero makes the particle immovable.
	InvMass float64
	Radius  float64
}

// Config is the whole scenario, supplied once at construction.
type Config struct {
	Solver       solver.Mode
	Constraint   contact.Kind
	LinkDistance float64
	Dt           float64
	Iterations   int
	Relaxation   float64
	Stiffness    float64
	Particles    []Particle
}

func DefaultConfig() Config {
	return Config{
		Solver:       solver.ModeDual,
		Constraint:   contact.Inequality,
		LinkDistance: 1.0,
		Dt:           1.0,
		Iterations:   10,
		Relaxation:   1.0,
		Stiffness:    1.0,
	}
}

// Compliance is the inverse of the configured stiffness.
func (c Config) Compliance() float64 { return 1 / c.Stiffness }

// ParticleView is the read-only snapshot handed to presentation code.
type ParticleView struct {
	Position mgl64.Vec2
	Velocity mgl64.Vec2
	Radius   float64
	InvMass  float64
}

// Metric is sampled once after every completed step.
type Metric interface {
	Name() string
	Observe(st *particle.Store, cs *contact.Set)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(step int, st *particle.Store, cs *contact.Set)
}

type Result struct {
	Steps   int
	Metrics map[string]float64
	// Series holds one sample per step for every metric.
	Series    map[string][]float64
	Particles []ParticleView
}
