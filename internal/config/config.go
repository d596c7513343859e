package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/pbdsim/internal/contact"
	"github.com/san-kum/pbdsim/internal/sim"
	"github.com/san-kum/pbdsim/internal/solver"
	"gopkg.in/gcfg.v1"
	"gopkg.in/yaml.v3"
)

const (
	DefaultSolver       = "dual"
	DefaultConstraint   = "contact"
	DefaultLinkDistance = 1.0
	DefaultDt           = 1.0
	DefaultSteps        = 100
	DefaultIterations   = 10
	DefaultRelaxation   = 1.0
	DefaultStiffness    = 1.0
)

// Config is a scenario as written in a file. Names stay strings here and are
// parsed in ToSim so file errors point at the offending value.
type Config struct {
	Name         string           `yaml:"name,omitempty"`
	Solver       string           `yaml:"solver"`
	Constraint   string           `yaml:"constraint"`
	LinkDistance float64          `yaml:"link_distance"`
	Dt           float64          `yaml:"dt"`
	Steps        int              `yaml:"steps"`
	Iterations   int              `yaml:"iterations"`
	Relaxation   float64          `yaml:"relaxation"`
	Stiffness    float64          `yaml:"stiffness"`
	Particles    []ParticleConfig `yaml:"particles"`
}

type ParticleConfig struct {
	X       float64 `yaml:"x"`
	Y       float64 `yaml:"y"`
	VX      float64 `yaml:"vx,omitempty"`
	VY      float64 `yaml:"vy,omitempty"`
	InvMass float64 `yaml:"inv_mass"`
	Radius  float64 `yaml:"radius"`
}

func DefaultConfig() *Config {
	return &Config{
		Solver:       DefaultSolver,
		Constraint:   DefaultConstraint,
		LinkDistance: DefaultLinkDistance,
		Dt:           DefaultDt,
		Steps:        DefaultSteps,
		Iterations:   DefaultIterations,
		Relaxation:   DefaultRelaxation,
		Stiffness:    DefaultStiffness,
	}
}

// Load reads a scenario file. Files ending in .ini, .cfg or .gcfg are read as
// gcfg; everything else as YAML.
func Load(path string) (*Config, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ini", ".cfg", ".gcfg":
		return loadGcfg(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// gcfgFile mirrors the INI layout:
//
//	[Scenario]
//	Solver = dual
//	Stiffness = 10000
//
//	[Particle "0"]
//	X = 0
//	Radius = 0.5
//
// Particle subsections are ordered by their numeric name.
type gcfgFile struct {
	Scenario struct {
		Name         string
		Solver       string
		Constraint   string
		LinkDistance float64
		Dt           float64
		Steps        int
		Iterations   int
		Relaxation   float64
		Stiffness    float64
	}
	Particle map[string]*struct {
		X, Y, VX, VY    float64
		InvMass, Radius float64
	}
}

func loadGcfg(path string) (*Config, error) {
	def := DefaultConfig()
	f := gcfgFile{}
	f.Scenario.Solver = def.Solver
	f.Scenario.Constraint = def.Constraint
	f.Scenario.LinkDistance = def.LinkDistance
	f.Scenario.Dt = def.Dt
	f.Scenario.Steps = def.Steps
	f.Scenario.Iterations = def.Iterations
	f.Scenario.Relaxation = def.Relaxation
	f.Scenario.Stiffness = def.Stiffness

	if err := gcfg.ReadFileInto(&f, path); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	s := f.Scenario
	cfg := &Config{
		Name:         s.Name,
		Solver:       s.Solver,
		Constraint:   s.Constraint,
		LinkDistance: s.LinkDistance,
		Dt:           s.Dt,
		Steps:        s.Steps,
		Iterations:   s.Iterations,
		Relaxation:   s.Relaxation,
		Stiffness:    s.Stiffness,
	}

	type indexed struct {
		idx int
		p   ParticleConfig
	}
	ps := make([]indexed, 0, len(f.Particle))
	for name, p := range f.Particle {
		idx, err := strconv.Atoi(name)
		if err != nil {
			return nil, fmt.Errorf("config: particle section %q must be numbered", name)
		}
		ps = append(ps, indexed{idx, ParticleConfig{
			X: p.X, Y: p.Y, VX: p.VX, VY: p.VY, InvMass: p.InvMass, Radius: p.Radius,
		}})
	}
	sort.Slice(ps, func(i, j int) bool { return ps[i].idx < ps[j].idx })
	for _, p := range ps {
		cfg.Particles = append(cfg.Particles, p.p)
	}
	return cfg, nil
}

// ToSim converts the file form into the simulation's construction value.
// Numeric validation is left to sim.New.
func (c *Config) ToSim() (sim.Config, error) {
	mode, err := solver.ParseMode(c.Solver)
	if err != nil {
		return sim.Config{}, err
	}
	kind, err := contact.ParseKind(c.Constraint)
	if err != nil {
		return sim.Config{}, err
	}

	out := sim.Config{
		Solver:       mode,
		Constraint:   kind,
		LinkDistance: c.LinkDistance,
		Dt:           c.Dt,
		Iterations:   c.Iterations,
		Relaxation:   c.Relaxation,
		Stiffness:    c.Stiffness,
		Particles:    make([]sim.Particle, len(c.Particles)),
	}
	for i, p := range c.Particles {
		out.Particles[i] = sim.Particle{
			Position: mgl64.Vec2{p.X, p.Y},
			Velocity: mgl64.Vec2{p.VX, p.VY},
			InvMass:  p.InvMass,
			Radius:   p.Radius,
		}
	}
	return out, nil
}

// Clone returns a deep copy so presets are never mutated by flag overrides.
func (c *Config) Clone() *Config {
	out := *c
	out.Particles = append([]ParticleConfig(nil), c.Particles...)
	return &out
}
