package solver_test

import (
	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/san-kum/pbdsim/internal/contact"
	"github.com/san-kum/pbdsim/internal/particle"
	"github.com/san-kum/pbdsim/internal/solver"
)

var _ = Describe("Dual", func() {
	var cs *contact.Set

	BeforeEach(func() {
		cs = contact.NewSet(4)
	})

	Context("with a penetrating contact pair", func() {
		It("separates the pair and keeps a positive multiplier", func() {
			st := newStore(
				body{pos: mgl64.Vec2{0, 0}, invMass: 1, radius: 0.5},
				body{pos: mgl64.Vec2{0.8, 0}, invMass: 1, radius: 0.5},
			)
			s := solver.NewDual(solver.Params{Iterations: 100, Relaxation: 0.1})
			step(s, st, contact.NewGenerator(contact.Inequality, 0, 1e-4), cs)

			Expect(cs.Len()).To(Equal(1))
			Expect(distance(st, 0, 1)).To(BeNumerically(">=", 1-1e-3))
			Expect(cs.Multiplier[0]).To(BeNumerically(">", 0))
			Expect(cs.Preconditioner[0]).To(BeNumerically("~", 1/(2+1e-4), 1e-12))
		})

		It("never lets a contact multiplier go negative", func() {
			st := newStore(
				body{pos: mgl64.Vec2{0, 0}, vel: mgl64.Vec2{0.3, 0}, invMass: 1, radius: 0.5},
				body{pos: mgl64.Vec2{0.9, 0.2}, vel: mgl64.Vec2{-0.2, 0}, invMass: 1, radius: 0.5},
				body{pos: mgl64.Vec2{1.6, -0.3}, vel: mgl64.Vec2{-0.4, 0.1}, invMass: 0.5, radius: 0.5},
			)
			s := solver.NewDual(solver.Params{Iterations: 50, Relaxation: 1})
			checked := 0
			s.AddObserver(solver.ObserverFunc(func(_ int, _ *particle.Store, cs *contact.Set) {
				for c := 0; c < cs.Len(); c++ {
					Expect(cs.Multiplier[c]).To(BeNumerically(">=", 0))
					checked++
				}
			}))
			step(s, st, contact.NewGenerator(contact.Inequality, 0, 1e-3), cs)
			Expect(checked).To(BeNumerically(">", 0))
		})

		It("conserves momentum between finite masses", func() {
			st := newStore(
				body{pos: mgl64.Vec2{0, 0}, vel: mgl64.Vec2{0.3, 0.05}, invMass: 1, radius: 0.5},
				body{pos: mgl64.Vec2{0.8, 0.1}, vel: mgl64.Vec2{-0.1, 0}, invMass: 0.5, radius: 0.5},
			)
			before := st.Momentum()
			s := solver.NewDual(solver.Params{Iterations: 40, Relaxation: 0.5})
			step(s, st, contact.NewGenerator(contact.Inequality, 0, 1e-2), cs)

			Expect(cs.Len()).To(Equal(1))
			after := st.Momentum()
			Expect(after.X()).To(BeNumerically("~", before.X(), 1e-12))
			Expect(after.Y()).To(BeNumerically("~", before.Y(), 1e-12))
		})
	})

	It("leaves immovable particles untouched", func() {
		st := newStore(
			body{pos: mgl64.Vec2{0, 0}, invMass: 0, radius: 0.5},
			body{pos: mgl64.Vec2{0.7, 0}, invMass: 1, radius: 0.5},
			body{pos: mgl64.Vec2{-0.6, 0.2}, invMass: 1, radius: 0.5},
		)
		s := solver.NewDual(solver.Params{Iterations: 100, Relaxation: 1})
		for i := 0; i < 5; i++ {
			step(s, st, contact.NewGenerator(contact.Inequality, 0, 1e-4), cs)
			Expect(st.Position[0]).To(Equal(mgl64.Vec2{0, 0}))
			Expect(st.Velocity[0]).To(Equal(mgl64.Vec2{0, 0}))
		}
		Expect(distance(st, 0, 1)).To(BeNumerically(">=", 1-1e-3))
	})

	It("does not pull a separating contact", func() {
		st := newStore(
			body{pos: mgl64.Vec2{0, 0}, vel: mgl64.Vec2{-0.1, 0}, invMass: 1, radius: 0.5},
			body{pos: mgl64.Vec2{1.2, 0}, vel: mgl64.Vec2{0.1, 0}, invMass: 1, radius: 0.5},
		)
		s := solver.NewDual(solver.Params{Iterations: 10, Relaxation: 1})
		s.Predict(st, 1)
		cs.Add(0, 1, mgl64.Vec2{-1, 0}, 1, 1e-4, contact.Inequality)
		s.Solve(st, cs, 1)
		s.Finalize(st, 1)

		Expect(cs.Multiplier[0]).To(Equal(0.0))
		Expect(st.Velocity[0]).To(Equal(mgl64.Vec2{-0.1, 0}))
		Expect(st.Velocity[1]).To(Equal(mgl64.Vec2{0.1, 0}))
	})

	It("satisfies an equality constraint at rest length", func() {
		st := newStore(
			body{pos: mgl64.Vec2{0, 0}, invMass: 1},
			body{pos: mgl64.Vec2{0.9, 0}, invMass: 1},
		)
		s := solver.NewDual(solver.Params{Iterations: 50, Relaxation: 1})
		step(s, st, contact.NewGenerator(contact.Equality, 1, 1e-4), cs)

		Expect(cs.Kind[0]).To(Equal(contact.Equality))
		Expect(distance(st, 0, 1)).To(BeNumerically("~", 1, 1e-3))
	})

	It("lets an equality constraint pull", func() {
		st := newStore(
			body{pos: mgl64.Vec2{0, 0}, invMass: 1},
			body{pos: mgl64.Vec2{1.2, 0}, invMass: 1},
		)
		s := solver.NewDual(solver.Params{Iterations: 50, Relaxation: 1})
		s.Predict(st, 1)
		cs.Add(0, 1, mgl64.Vec2{-1, 0}, 1, 1e-4, contact.Equality)
		s.Solve(st, cs, 1)
		s.Finalize(st, 1)

		Expect(cs.Multiplier[0]).To(BeNumerically("<", 0))
		Expect(distance(st, 0, 1)).To(BeNumerically("~", 1, 1e-3))
	})

	It("gives the same answer for any row order", func() {
		bodies := []body{
			{pos: mgl64.Vec2{0, 0}, vel: mgl64.Vec2{0.05, 0}, invMass: 1},
			{pos: mgl64.Vec2{0.8, 0}, invMass: 1},
			{pos: mgl64.Vec2{1.6, 0.1}, vel: mgl64.Vec2{-0.05, 0}, invMass: 0.5},
		}
		forward, backward := newStore(bodies...), newStore(bodies...)
		gen := contact.NewGenerator(contact.Equality, 1, 1e-3)
		s1 := solver.NewDual(solver.Params{Iterations: 20, Relaxation: 1})
		s2 := solver.NewDual(solver.Params{Iterations: 20, Relaxation: 1})

		s1.Predict(forward, 1)
		gen.Generate(forward.Predicted, forward.Radius, cs)
		Expect(cs.Len()).To(Equal(2))

		s2.Predict(backward, 1)
		reversed := contact.NewSet(cs.Len())
		for c := cs.Len() - 1; c >= 0; c-- {
			row := cs.At(c)
			reversed.Add(row.A, row.B, row.Normal, row.Rest, row.Compliance, row.Kind)
		}

		s1.Solve(forward, cs, 1)
		s2.Solve(backward, reversed, 1)
		for i := range bodies {
			Expect(forward.Position[i].X()).To(BeNumerically("~", backward.Position[i].X(), 1e-12))
			Expect(forward.Position[i].Y()).To(BeNumerically("~", backward.Position[i].Y(), 1e-12))
		}
	})
})
