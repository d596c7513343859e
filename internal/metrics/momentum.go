package metrics

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/pbdsim/internal/contact"
	"github.com/san-kum/pbdsim/internal/particle"
)

// MomentumDrift is the distance between the current total momentum and the
// momentum seen at the first observed step. Contacts only exchange momentum
// between movable particles, so this stays near zero unless an immovable
// particle takes part.
type MomentumDrift struct {
	name    string
	initial mgl64.Vec2
	value   float64
	samples int
}

func NewMomentumDrift() *MomentumDrift {
	return &MomentumDrift{name: "momentum_drift"}
}

func (m *MomentumDrift) Name() string { return m.name }

func (m *MomentumDrift) Observe(st *particle.Store, _ *contact.Set) {
	p := st.Momentum()
	if m.samples == 0 {
		m.initial = p
	}
	m.samples++
	m.value = p.Sub(m.initial).Len()
}

func (m *MomentumDrift) Value() float64 { return m.value }

func (m *MomentumDrift) Reset() {
	m.initial = mgl64.Vec2{}
	m.value = 0
	m.samples = 0
}
