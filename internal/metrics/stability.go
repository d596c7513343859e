package metrics

import (
	"math"

	"github.com/san-kum/pbdsim/internal/contact"
	"github.com/san-kum/pbdsim/internal/particle"
)

// Violation is the worst constraint error of the latest step, measured on
// the committed positions. Separating contacts count as satisfied.
type Violation struct {
	name  string
	value float64
}

func NewViolation() *Violation {
	return &Violation{name: "violation"}
}

func (v *Violation) Name() string { return v.name }

func (v *Violation) Observe(st *particle.Store, cs *contact.Set) {
	v.value = 0
	for i := 0; i < cs.Len(); i++ {
		c := cs.Violation(i, st.Position)
		if cs.Kind[i] == contact.Inequality {
			c = math.Min(c, 0)
		}
		v.value = math.Max(v.value, math.Abs(c))
	}
}

func (v *Violation) Value() float64 { return v.value }

func (v *Violation) Reset() { v.value = 0 }

// Stability is the fraction of observed steps whose particle state stayed
// finite and within threshold of the origin.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(st *particle.Store, _ *contact.Set) {
	s.samples++
	for i, p := range st.Position {
		v := st.Velocity[i]
		if !finite(p.X(), p.Y(), v.X(), v.Y()) || p.Len() > s.threshold {
			s.violations++
			break
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
