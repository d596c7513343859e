package metrics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/pbdsim/internal/contact"
	"github.com/san-kum/pbdsim/internal/particle"
	"github.com/stretchr/testify/assert"
)

func pair(gap float64) (*particle.Store, *contact.Set) {
	st := particle.New(2)
	st.Add(mgl64.Vec2{0, 0}, mgl64.Vec2{1, 0}, 1, 0.5)
	st.Add(mgl64.Vec2{1 + gap, 0}, mgl64.Vec2{0, 0}, 0.5, 0.5)
	cs := contact.NewSet(1)
	cs.Add(0, 1, mgl64.Vec2{-1, 0}, 1, 1, contact.Inequality)
	return st, cs
}

func TestViolation(t *testing.T) {
	tests := []struct {
		name string
		gap  float64
		kind contact.Kind
		want float64
	}{
		{"overlap", -0.25, contact.Inequality, 0.25},
		{"touching", 0, contact.Inequality, 0},
		{"separated contact", 0.5, contact.Inequality, 0},
		{"stretched link", 0.5, contact.Equality, 0.5},
		{"compressed link", -0.125, contact.Equality, 0.125},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, cs := pair(tt.gap)
			cs.Kind[0] = tt.kind
			m := NewViolation()
			m.Observe(st, cs)
			assert.InDelta(t, tt.want, m.Value(), 1e-12)
		})
	}
}

func TestViolationEmpty(t *testing.T) {
	st, _ := pair(0)
	m := NewViolation()
	m.Observe(st, contact.NewSet(0))
	assert.Equal(t, 0.0, m.Value())
}

func TestKineticEnergy(t *testing.T) {
	st, cs := pair(0)
	m := NewKineticEnergy()
	m.Observe(st, cs)
	assert.InDelta(t, 0.5, m.Value(), 1e-12)

	m.Reset()
	assert.Equal(t, 0.0, m.Value())
}

func TestKineticEnergyIgnoresImmovable(t *testing.T) {
	st := particle.New(1)
	st.Add(mgl64.Vec2{}, mgl64.Vec2{3, 4}, 0, 1)
	m := NewKineticEnergy()
	m.Observe(st, contact.NewSet(0))
	assert.Equal(t, 0.0, m.Value())
}

func TestEnergyDrift(t *testing.T) {
	st, cs := pair(0)
	m := NewEnergyDrift()
	m.Observe(st, cs)
	assert.Equal(t, 0.0, m.Value())

	st.Velocity[0] = mgl64.Vec2{0.5, 0}
	m.Observe(st, cs)
	assert.InDelta(t, 0.75, m.Value(), 1e-12)

	st.Velocity[0] = mgl64.Vec2{1, 0}
	m.Observe(st, cs)
	assert.InDelta(t, 0.75, m.Value(), 1e-12, "drift keeps its maximum")

	m.Reset()
	assert.Equal(t, 0.0, m.Value())
}

func TestMomentumDrift(t *testing.T) {
	st, cs := pair(0)
	m := NewMomentumDrift()
	m.Observe(st, cs)
	assert.Equal(t, 0.0, m.Value())

	// exchange momentum between the two particles
	st.Velocity[0] = mgl64.Vec2{0, 0}
	st.Velocity[1] = mgl64.Vec2{0.5, 0}
	m.Observe(st, cs)
	assert.InDelta(t, 0, m.Value(), 1e-12)

	st.Velocity[1] = mgl64.Vec2{0.5, 1}
	m.Observe(st, cs)
	assert.InDelta(t, 2, m.Value(), 1e-12)
}

func TestContactMetrics(t *testing.T) {
	st, cs := pair(-0.1)
	cs.Add(0, 1, mgl64.Vec2{-1, 0}, 1, 1, contact.Equality)
	cs.Multiplier[0] = 0.3
	cs.Multiplier[1] = -0.7

	count := NewContactCount()
	count.Observe(st, cs)
	assert.Equal(t, 2.0, count.Value())

	maxl := NewMaxMultiplier()
	maxl.Observe(st, cs)
	assert.InDelta(t, 0.7, maxl.Value(), 1e-12)

	cs.Reset()
	count.Observe(st, cs)
	maxl.Observe(st, cs)
	assert.Equal(t, 0.0, count.Value())
	assert.Equal(t, 0.0, maxl.Value())
}

func TestStability(t *testing.T) {
	st, cs := pair(0)
	m := NewStability(10)
	assert.Equal(t, 1.0, m.Value())

	m.Observe(st, cs)
	st.Position[1] = mgl64.Vec2{math.NaN(), 0}
	m.Observe(st, cs)
	assert.InDelta(t, 0.5, m.Value(), 1e-12)

	m.Reset()
	st.Position[1] = mgl64.Vec2{20, 0}
	m.Observe(st, cs)
	assert.Equal(t, 0.0, m.Value())
}

func TestDefaultNames(t *testing.T) {
	seen := map[string]bool{}
	for _, m := range Default() {
		assert.False(t, seen[m.Name()], "duplicate metric %s", m.Name())
		seen[m.Name()] = true
	}
	assert.True(t, seen["violation"])
	assert.True(t, seen["contacts"])
}
