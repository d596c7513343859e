package solver_test

import (
	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/san-kum/pbdsim/internal/contact"
	"github.com/san-kum/pbdsim/internal/solver"
)

var _ = Describe("Primal", func() {
	var cs *contact.Set

	BeforeEach(func() {
		cs = contact.NewSet(4)
	})

	It("converges to the compliant contact fixed point", func() {
		st := newStore(
			body{pos: mgl64.Vec2{0, 0}, invMass: 1, radius: 0.5},
			body{pos: mgl64.Vec2{0.8, 0}, invMass: 1, radius: 0.5},
		)
		s := solver.NewPrimal(solver.Params{Iterations: 200, Relaxation: 0.5})
		step(s, st, contact.NewGenerator(contact.Inequality, 0, 1e-2), cs)

		// λ = 0.2 / (w_a + w_b + α), each side moves by λ
		lambda := 0.2 / (2 + 1e-2)
		Expect(distance(st, 0, 1)).To(BeNumerically("~", 0.8+2*lambda, 1e-9))
		Expect(cs.Multiplier[0]).To(BeNumerically("~", lambda, 1e-9))
	})

	It("conserves momentum for a symmetric pair", func() {
		st := newStore(
			body{pos: mgl64.Vec2{0, 0}, vel: mgl64.Vec2{0.2, 0.1}, invMass: 1, radius: 0.5},
			body{pos: mgl64.Vec2{0.9, 0.1}, vel: mgl64.Vec2{-0.1, 0.1}, invMass: 1, radius: 0.5},
		)
		before := st.Momentum()
		s := solver.NewPrimal(solver.Params{Iterations: 30, Relaxation: 0.5})
		step(s, st, contact.NewGenerator(contact.Inequality, 0, 1e-3), cs)

		Expect(cs.Len()).To(Equal(1))
		after := st.Momentum()
		Expect(after.X()).To(BeNumerically("~", before.X(), 1e-9))
		Expect(after.Y()).To(BeNumerically("~", before.Y(), 1e-9))
	})

	It("leaves immovable particles untouched", func() {
		st := newStore(
			body{pos: mgl64.Vec2{0, 0}, invMass: 0, radius: 0.5},
			body{pos: mgl64.Vec2{0.6, 0}, invMass: 1, radius: 0.5},
		)
		s := solver.NewPrimal(solver.Params{Iterations: 100, Relaxation: 0.5})
		step(s, st, contact.NewGenerator(contact.Inequality, 0, 1e-2), cs)

		Expect(st.Position[0]).To(Equal(mgl64.Vec2{0, 0}))
		Expect(st.Velocity[0]).To(Equal(mgl64.Vec2{0, 0}))
		Expect(st.Velocity[1].X()).To(BeNumerically(">", 0))
	})

	It("only resists interpenetration", func() {
		st := newStore(
			body{pos: mgl64.Vec2{0, 0}, vel: mgl64.Vec2{-0.1, 0}, invMass: 1, radius: 0.5},
			body{pos: mgl64.Vec2{1.2, 0}, vel: mgl64.Vec2{0.1, 0}, invMass: 1, radius: 0.5},
		)
		s := solver.NewPrimal(solver.Params{Iterations: 10, Relaxation: 1})
		s.Predict(st, 1)
		cs.Add(0, 1, mgl64.Vec2{-1, 0}, 1, 1e-4, contact.Inequality)
		s.Solve(st, cs, 1)
		s.Finalize(st, 1)

		Expect(st.Velocity[0]).To(Equal(mgl64.Vec2{-0.1, 0}))
		Expect(st.Velocity[1]).To(Equal(mgl64.Vec2{0.1, 0}))
		Expect(cs.Multiplier[0]).To(BeNumerically("==", 0))
	})
})
