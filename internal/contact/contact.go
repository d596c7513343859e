// Package contact builds the per-step constraint set between particle pairs.
package contact

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Kind selects how a constraint may act on its pair.
type Kind uint8

const (
	// Inequality is a unilateral contact: it may push but never pull.
	Inequality Kind = iota
	// Equality is a linked rod: it holds the pair at the rest length.
	Equality
)

func (k Kind) String() string {
	switch k {
	case Inequality:
		return "contact"
	case Equality:
		return "link"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// ParseKind accepts the names used in scenario files and CLI flags.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "contact", "inequality", "":
		return Inequality, nil
	case "link", "equality", "rod":
		return Equality, nil
	}
	return 0, fmt.Errorf("contact: unknown constraint kind %q", s)
}

// Contact is a copy of one constraint row, for callers outside the solver.
type Contact struct {
	A, B           int
	Normal         mgl64.Vec2
	Rest           float64
	Compliance     float64
	Kind           Kind
	Multiplier     float64
	Residual       float64
	Preconditioner float64
}

// Set is the per-step constraint arena. Rows are index aligned across the
// slices and live only until the next Reset.
type Set struct {
	Pairs          [][2]int
	Normal         []mgl64.Vec2
	Rest           []float64
	Compliance     []float64
	Kind           []Kind
	Multiplier     []float64
	Residual       []float64
	Preconditioner []float64
}

func NewSet(capacity int) *Set {
	return &Set{
		Pairs:          make([][2]int, 0, capacity),
		Normal:         make([]mgl64.Vec2, 0, capacity),
		Rest:           make([]float64, 0, capacity),
		Compliance:     make([]float64, 0, capacity),
		Kind:           make([]Kind, 0, capacity),
		Multiplier:     make([]float64, 0, capacity),
		Residual:       make([]float64, 0, capacity),
		Preconditioner: make([]float64, 0, capacity),
	}
}

func (s *Set) Len() int { return len(s.Pairs) }

// Reset drops every row and keeps the backing storage.
func (s *Set) Reset() {
	s.Pairs = s.Pairs[:0]
	s.Normal = s.Normal[:0]
	s.Rest = s.Rest[:0]
	s.Compliance = s.Compliance[:0]
	s.Kind = s.Kind[:0]
	s.Multiplier = s.Multiplier[:0]
	s.Residual = s.Residual[:0]
	s.Preconditioner = s.Preconditioner[:0]
}

// Add appends a row with zeroed solver scratch.
func (s *Set) Add(a, b int, normal mgl64.Vec2, rest, compliance float64, kind Kind) {
	s.Pairs = append(s.Pairs, [2]int{a, b})
	s.Normal = append(s.Normal, normal)
	s.Rest = append(s.Rest, rest)
	s.Compliance = append(s.Compliance, compliance)
	s.Kind = append(s.Kind, kind)
	s.Multiplier = append(s.Multiplier, 0)
	s.Residual = append(s.Residual, 0)
	s.Preconditioner = append(s.Preconditioner, 0)
}

func (s *Set) At(i int) Contact {
	return Contact{
		A:              s.Pairs[i][0],
		B:              s.Pairs[i][1],
		Normal:         s.Normal[i],
		Rest:           s.Rest[i],
		Compliance:     s.Compliance[i],
		Kind:           s.Kind[i],
		Multiplier:     s.Multiplier[i],
		Residual:       s.Residual[i],
		Preconditioner: s.Preconditioner[i],
	}
}

// Rows copies the whole set.
func (s *Set) Rows() []Contact {
	out := make([]Contact, s.Len())
	for i := range out {
		out[i] = s.At(i)
	}
	return out
}

// Violation returns the signed constraint value of row i for the given
// positions; negative means the pair is closer than its rest length.
func (s *Set) Violation(i int, positions []mgl64.Vec2) float64 {
	a, b := s.Pairs[i][0], s.Pairs[i][1]
	return positions[a].Sub(positions[b]).Dot(s.Normal[i]) - s.Rest[i]
}
