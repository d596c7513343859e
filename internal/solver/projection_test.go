package solver_test

import (
	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/san-kum/pbdsim/internal/contact"
	"github.com/san-kum/pbdsim/internal/particle"
	"github.com/san-kum/pbdsim/internal/solver"
)

var _ = Describe("Projection", func() {
	var (
		cs  *contact.Set
		gen *contact.Generator
	)

	BeforeEach(func() {
		cs = contact.NewSet(4)
		gen = contact.NewGenerator(contact.Inequality, 0, 1)
	})

	It("moves by the displacement and extrapolates one more", func() {
		st := newStore(body{pos: mgl64.Vec2{1, 1}, vel: mgl64.Vec2{0.5, 0}, invMass: 1, radius: 0.5})
		s := solver.NewProjection()
		step(s, st, gen, cs)

		Expect(st.Position[0]).To(Equal(mgl64.Vec2{1.5, 1}))
		Expect(st.Predicted[0]).To(Equal(mgl64.Vec2{2, 1}))
		Expect(st.Velocity[0]).To(Equal(mgl64.Vec2{0.5, 0}))
	})

	It("splits an overlap by inverse mass in one sweep", func() {
		st := newStore(
			body{pos: mgl64.Vec2{0, 0}, invMass: 1, radius: 0.5},
			body{pos: mgl64.Vec2{0.7, 0}, invMass: 2, radius: 0.5},
		)
		s := solver.NewProjection()
		step(s, st, gen, cs)

		// overlap 0.3 shared 1:2
		Expect(st.Displacement[0].X()).To(BeNumerically("~", -0.1, 1e-12))
		Expect(st.Displacement[1].X()).To(BeNumerically("~", 0.2, 1e-12))
		next := st.Position[1].Add(st.Displacement[1]).Sub(st.Position[0].Add(st.Displacement[0]))
		Expect(next.Len()).To(BeNumerically("~", 1, 1e-12))
	})

	It("conserves momentum", func() {
		st := newStore(
			body{pos: mgl64.Vec2{0, 0}, vel: mgl64.Vec2{0.1, 0}, invMass: 1, radius: 0.5},
			body{pos: mgl64.Vec2{0.9, 0.3}, vel: mgl64.Vec2{-0.05, 0}, invMass: 0.25, radius: 0.5},
		)
		before := st.Momentum()
		step(solver.NewProjection(), st, gen, cs)

		Expect(cs.Len()).To(Equal(1))
		after := st.Momentum()
		Expect(after.X()).To(BeNumerically("~", before.X(), 1e-12))
		Expect(after.Y()).To(BeNumerically("~", before.Y(), 1e-12))
	})

	It("never displaces an immovable particle", func() {
		st := newStore(
			body{pos: mgl64.Vec2{0, 0}, invMass: 0, radius: 0.5},
			body{pos: mgl64.Vec2{0.5, 0}, invMass: 1, radius: 0.5},
			body{pos: mgl64.Vec2{-0.2, 0.4}, invMass: 1, radius: 0.5},
		)
		s := solver.NewProjection()
		for i := 0; i < 3; i++ {
			step(s, st, gen, cs)
			Expect(st.Displacement[0]).To(Equal(mgl64.Vec2{0, 0}))
			Expect(st.Position[0]).To(Equal(mgl64.Vec2{0, 0}))
		}
	})

	It("ignores pairs of immovable particles", func() {
		st := newStore(
			body{pos: mgl64.Vec2{0, 0}, invMass: 0, radius: 0.5},
			body{pos: mgl64.Vec2{0.5, 0}, invMass: 0, radius: 0.5},
		)
		step(solver.NewProjection(), st, gen, cs)
		Expect(cs.Len()).To(Equal(1))
		Expect(st.Displacement[0]).To(Equal(mgl64.Vec2{0, 0}))
		Expect(st.Displacement[1]).To(Equal(mgl64.Vec2{0, 0}))
	})

	It("reports one sweep per step", func() {
		st := newStore(
			body{pos: mgl64.Vec2{0, 0}, invMass: 1, radius: 0.5},
			body{pos: mgl64.Vec2{0.5, 0}, invMass: 1, radius: 0.5},
		)
		s := solver.NewProjection()
		sweeps := 0
		s.AddObserver(solver.ObserverFunc(func(iter int, _ *particle.Store, _ *contact.Set) {
			Expect(iter).To(Equal(0))
			sweeps++
		}))
		step(s, st, gen, cs)
		Expect(sweeps).To(Equal(1))
	})
})
