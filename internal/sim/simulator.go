package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/pbdsim/internal/contact"
	"github.com/san-kum/pbdsim/internal/particle"
	"github.com/san-kum/pbdsim/internal/solver"
)

// Simulation owns every piece of state for one run. Independent simulations
// share nothing and may be stepped from different goroutines.
type Simulation struct {
	cfg       Config
	store     *particle.Store
	contacts  *contact.Set
	generator *contact.Generator
	solver    solver.Solver
	steps     int
	metrics   []Metric
	observers []Observer
	iterObs   []solver.Observer
}

// New validates cfg and builds the simulation. The solver strategy is fixed
// for the lifetime of the value.
func New(cfg Config) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Particles = append([]Particle(nil), cfg.Particles...)

	s := &Simulation{cfg: cfg}
	if err := s.build(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Simulation) build() error {
	slv, err := solver.New(s.cfg.Solver, solver.Params{
		Iterations: s.cfg.Iterations,
		Relaxation: s.cfg.Relaxation,
	})
	if err != nil {
		return err
	}
	for _, o := range s.iterObs {
		slv.AddObserver(o)
	}

	n := len(s.cfg.Particles)
	st := particle.New(n)
	for _, p := range s.cfg.Particles {
		i := st.Add(p.Position, p.Velocity, p.InvMass, p.Radius)
		st.Displacement[i] = p.Velocity.Mul(s.cfg.Dt)
	}

	s.store = st
	s.contacts = contact.NewSet(n * 2)
	s.generator = contact.NewGenerator(s.cfg.Constraint, s.cfg.LinkDistance, s.cfg.Compliance())
	s.solver = slv
	s.steps = 0
	return nil
}

// Validate reports the first configuration problem found.
func (c Config) Validate() error {
	if !finite(c.Stiffness) || c.Stiffness <= 0 {
		return fieldError("stiffness", c.Stiffness, ErrStiffness)
	}
	if !finite(c.Dt) || c.Dt <= 0 {
		return fieldError("dt", c.Dt, ErrTimestep)
	}
	if c.Iterations < 1 {
		return fieldError("iterations", float64(c.Iterations), ErrIterations)
	}
	if !finite(c.Relaxation) || c.Relaxation <= 0 || c.Relaxation > 1 {
		return fieldError("relaxation", c.Relaxation, ErrRelaxation)
	}
	if c.Constraint == contact.Equality {
		if !finite(c.LinkDistance) || c.LinkDistance <= 0 {
			return fieldError("link_distance", c.LinkDistance, ErrLink)
		}
		if c.Solver == solver.ModeProjection {
			return fmt.Errorf("%w: %v with %v constraints", ErrUnsupported, c.Solver, c.Constraint)
		}
	}
	for i, p := range c.Particles {
		if !finite(p.InvMass) || p.InvMass < 0 {
			return &ConfigError{Field: "inv_mass", Particle: i, Value: p.InvMass, Wrapped: ErrInvMass}
		}
		if !finite(p.Radius) || p.Radius < 0 {
			return &ConfigError{Field: "radius", Particle: i, Value: p.Radius, Wrapped: ErrRadius}
		}
		for _, v := range []float64{p.Position.X(), p.Position.Y(), p.Velocity.X(), p.Velocity.Y()} {
			if !finite(v) {
				return &ConfigError{Field: "state", Particle: i, Value: v, Wrapped: ErrState}
			}
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (s *Simulation) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulation) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// AddIterationObserver is called after every solver iteration.
func (s *Simulation) AddIterationObserver(o solver.Observer) {
	s.iterObs = append(s.iterObs, o)
	s.solver.AddObserver(o)
}

// Step advances the simulation by one step and returns when it is complete.
func (s *Simulation) Step() {
	dt := s.cfg.Dt
	s.solver.Predict(s.store, dt)
	s.generator.Generate(s.store.Predicted, s.store.Radius, s.contacts)
	s.solver.Solve(s.store, s.contacts, dt)
	s.solver.Finalize(s.store, dt)
	s.steps++

	for _, m := range s.metrics {
		m.Observe(s.store, s.contacts)
	}
	for _, o := range s.observers {
		o.OnStep(s.steps, s.store, s.contacts)
	}
}

// Snapshot copies the state a renderer needs.
func (s *Simulation) Snapshot() []ParticleView {
	out := make([]ParticleView, s.store.Len())
	for i := range out {
		out[i] = ParticleView{
			Position: s.store.Position[i],
			Velocity: s.store.Velocity[i],
			Radius:   s.store.Radius[i],
			InvMass:  s.store.InvMass[i],
		}
	}
	return out
}

// Contacts copies the constraint rows of the last step.
func (s *Simulation) Contacts() []contact.Contact { return s.contacts.Rows() }

func (s *Simulation) Steps() int     { return s.steps }
func (s *Simulation) Config() Config { return s.cfg }
func (s *Simulation) Len() int       { return s.store.Len() }

// Momentum is the total linear momentum of the finite-mass particles.
func (s *Simulation) Momentum() mgl64.Vec2 { return s.store.Momentum() }

// Reset rebuilds the initial scenario. Metrics are reset; observers stay.
func (s *Simulation) Reset() {
	// the configuration was validated in New, so build cannot fail here
	if err := s.build(); err != nil {
		panic(err)
	}
	for _, m := range s.metrics {
		m.Reset()
	}
}

// Run steps the simulation n times, sampling every metric after each step.
// The context is only checked between steps.
func (s *Simulation) Run(ctx context.Context, n int) (*Result, error) {
	if n < 0 {
		return nil, fmt.Errorf("sim: step count must be non-negative, got %d", n)
	}
	result := &Result{
		Metrics: make(map[string]float64),
		Series:  make(map[string][]float64),
	}
	for _, m := range s.metrics {
		result.Series[m.Name()] = make([]float64, 0, n)
	}

	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			result.Particles = s.Snapshot()
			return result, ctx.Err()
		default:
		}

		s.Step()
		result.Steps++
		for _, m := range s.metrics {
			result.Series[m.Name()] = append(result.Series[m.Name()], m.Value())
		}
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	result.Particles = s.Snapshot()
	return result, nil
}
