package config

import "sort"

// Presets are the built-in scenarios, keyed by name.
var Presets = map[string]*Config{
	// two unit masses overlapping a rest distance of 1.0 by 0.2
	"scenario_a": {
		Name: "scenario_a", Solver: "dual", Constraint: "contact",
		LinkDistance: 1.0, Dt: 1.0, Steps: 1, Iterations: 100, Relaxation: 0.1, Stiffness: 10000,
		Particles: []ParticleConfig{
			{X: 0, Y: 0, InvMass: 1, Radius: 0.5},
			{X: 0.8, Y: 0, InvMass: 1, Radius: 0.5},
		},
	},
	// a heavy particle drifting into a wall-anchored pair
	"scenario_b": {
		Name: "scenario_b", Solver: "projection", Constraint: "contact",
		LinkDistance: 1.0, Dt: 1.0, Steps: 80, Iterations: 1, Relaxation: 1.0, Stiffness: 1.0,
		Particles: []ParticleConfig{
			{X: 0, Y: 0, InvMass: 0, Radius: 0.5},
			{X: 1, Y: 0, InvMass: 1, Radius: 0.5},
			{X: 10, Y: 0, VX: -0.1, InvMass: 0.01, Radius: 1.0},
		},
	},
	"rod_chain": {
		Name: "rod_chain", Solver: "dual", Constraint: "link",
		LinkDistance: 1.0, Dt: 1.0, Steps: 100, Iterations: 10, Relaxation: 1.0, Stiffness: 1.0,
		Particles: []ParticleConfig{
			{X: 0, Y: 0, VX: 0.1, InvMass: 1, Radius: 0.5},
			{X: 5, Y: 0, InvMass: 1, Radius: 0.5},
			{X: 6, Y: 0, InvMass: 1, Radius: 0.5},
			{X: 7, Y: 0, InvMass: 1, Radius: 0.5},
		},
	},
	"cradle": {
		Name: "cradle", Solver: "dual", Constraint: "contact",
		LinkDistance: 1.0, Dt: 1.0, Steps: 120, Iterations: 20, Relaxation: 0.5, Stiffness: 1000,
		Particles: []ParticleConfig{
			{X: -3, Y: 0, VX: 0.1, InvMass: 1, Radius: 0.5},
			{X: 0, Y: 0, InvMass: 1, Radius: 0.5},
			{X: 1, Y: 0, InvMass: 1, Radius: 0.5},
			{X: 2, Y: 0, InvMass: 1, Radius: 0.5},
			{X: 3, Y: 0, InvMass: 1, Radius: 0.5},
		},
	},
	// overlapping cluster around an immovable core that pushes itself apart
	"pile": {
		Name: "pile", Solver: "primal", Constraint: "contact",
		LinkDistance: 1.0, Dt: 1.0, Steps: 60, Iterations: 30, Relaxation: 0.5, Stiffness: 100,
		Particles: []ParticleConfig{
			{X: 0, Y: 0, InvMass: 0, Radius: 0.6},
			{X: 0.8, Y: 0, InvMass: 1, Radius: 0.5},
			{X: -0.8, Y: 0, InvMass: 1, Radius: 0.5},
			{X: 0, Y: 0.8, InvMass: 1, Radius: 0.5},
			{X: 0, Y: -0.8, InvMass: 1, Radius: 0.5},
			{X: 0.6, Y: 0.6, InvMass: 2, Radius: 0.4},
			{X: -0.6, Y: -0.6, InvMass: 2, Radius: 0.4},
		},
	},
}

// DefaultPreset is opened by the bare command.
const DefaultPreset = "rod_chain"

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
