package contact

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// FallbackNormal is used when two particles sit exactly on top of each
// other and the separation direction is undefined.
var FallbackNormal = mgl64.Vec2{1, 0}

// Generator performs the all-pairs proximity test. It is O(n²) per call.
type Generator struct {
	Kind Kind
	// LinkDistance is the fixed threshold and rest length of Equality
	// constraints. Inequality contacts use the sum of the two radii.
	LinkDistance float64
	Compliance   float64
}

func NewGenerator(kind Kind, linkDistance, compliance float64) *Generator {
	return &Generator{Kind: kind, LinkDistance: linkDistance, Compliance: compliance}
}

func (g *Generator) threshold(radii []float64, i, j int) float64 {
	if g.Kind == Equality {
		return g.LinkDistance
	}
	return radii[i] + radii[j]
}

// Generate clears out and fills it with one row for every pair i<j whose
// distance is at most the threshold.
func (g *Generator) Generate(positions []mgl64.Vec2, radii []float64, out *Set) {
	out.Reset()
	for i := 0; i < len(positions); i++ {
		for j := i + 1; j < len(positions); j++ {
			thr := g.threshold(radii, i, j)
			d := positions[i].Sub(positions[j])
			d2 := d.Dot(d)
			if d2 > thr*thr {
				continue
			}
			out.Add(i, j, separation(d, d2), thr, g.Compliance, g.Kind)
		}
	}
}

func separation(d mgl64.Vec2, d2 float64) mgl64.Vec2 {
	if d2 == 0 {
		return FallbackNormal
	}
	return d.Mul(1 / math.Sqrt(d2))
}
