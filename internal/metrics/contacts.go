package metrics

import (
	"math"

	"github.com/san-kum/pbdsim/internal/contact"
	"github.com/san-kum/pbdsim/internal/particle"
	"github.com/san-kum/pbdsim/internal/sim"
)

// ContactCount is the number of constraint rows generated in the latest step.
type ContactCount struct {
	name  string
	value int
}

func NewContactCount() *ContactCount {
	return &ContactCount{name: "contacts"}
}

func (c *ContactCount) Name() string { return c.name }

func (c *ContactCount) Observe(_ *particle.Store, cs *contact.Set) { c.value = cs.Len() }

func (c *ContactCount) Value() float64 { return float64(c.value) }

func (c *ContactCount) Reset() { c.value = 0 }

// MaxMultiplier is the largest multiplier magnitude of the latest step.
type MaxMultiplier struct {
	name  string
	value float64
}

func NewMaxMultiplier() *MaxMultiplier {
	return &MaxMultiplier{name: "max_multiplier"}
}

func (m *MaxMultiplier) Name() string { return m.name }

func (m *MaxMultiplier) Observe(_ *particle.Store, cs *contact.Set) {
	m.value = 0
	for _, l := range cs.Multiplier {
		m.value = math.Max(m.value, math.Abs(l))
	}
}

func (m *MaxMultiplier) Value() float64 { return m.value }

func (m *MaxMultiplier) Reset() { m.value = 0 }

// Default returns a fresh instance of every diagnostic the CLI records.
func Default() []sim.Metric {
	return []sim.Metric{
		NewViolation(),
		NewContactCount(),
		NewMaxMultiplier(),
		NewKineticEnergy(),
		NewMomentumDrift(),
	}
}
