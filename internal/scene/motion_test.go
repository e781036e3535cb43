package scene_test

import (
	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/cartbox/internal/physics"
	"github.com/san-kum/cartbox/internal/scene"
)

func cartAt(x, vx, mass float64) *physics.Body {
	b := physics.NewBody("cart", physics.NewTransform(mgl64.Vec3{x, 0.7, 0}),
		physics.BodyTypeDynamic, mass, physics.BoxCollider(mgl64.Vec3{1, 0.25, 0.5}))
	b.SetLinearVelocity(mgl64.Vec3{vx, 0, 0})
	return b
}

var _ = Describe("Motion", func() {
	var p scene.Params

	BeforeEach(func() {
		p = scene.DefaultParams()
	})

	DescribeTable("adds acceleration·dt below max speed",
		func(dt, mass, v0 float64) {
			p.CartMass = mass
			cart := cartAt(0, v0, mass)

			done := scene.Motion{}.Step(cart, &scene.Session{}, dt, p)

			Expect(done).To(BeFalse())
			Expect(cart.LinearVelocity().X()).To(BeNumerically("~", v0+p.Acceleration*dt, 1e-9))
		},
		Entry("60 fps from rest", 1.0/60, 10.0, 0.0),
		Entry("30 fps, light cart", 1.0/30, 2.5, 3.0),
		Entry("144 fps, heavy cart", 1.0/144, 40.0, 9.9),
		Entry("reversing cart", 1.0/60, 10.0, -4.0),
	)

	It("stops pushing at max speed", func() {
		cart := cartAt(0, p.MaxSpeed, p.CartMass)
		scene.Motion{}.Step(cart, &scene.Session{}, 1.0/60, p)
		Expect(cart.LinearVelocity().X()).To(Equal(p.MaxSpeed))
	})

	It("brakes past the target regardless of the velocity sign", func() {
		s := &scene.Session{}
		cart := cartAt(p.TargetDistance+2, -0.5, p.CartMass)
		dt := 1.0 / 60

		Expect(scene.Motion{}.Step(cart, s, dt, p)).To(BeFalse())
		Expect(s.Braking).To(BeTrue())
		Expect(cart.LinearVelocity().X()).To(BeNumerically("~", -0.5-p.Deceleration*dt, 1e-9))
	})

	It("keeps braking once latched, even back behind the target", func() {
		s := &scene.Session{Braking: true}
		cart := cartAt(p.TargetDistance-1, 4, p.CartMass)
		dt := 1.0 / 60

		scene.Motion{}.Step(cart, s, dt, p)
		Expect(cart.LinearVelocity().X()).To(BeNumerically("~", 4-p.Deceleration*dt, 1e-9))
	})

	It("applies both impulses in legacy overlap mode", func() {
		s := &scene.Session{}
		cart := cartAt(p.TargetDistance, 5, p.CartMass)
		dt := 1.0 / 60

		scene.Motion{LegacyOverlap: true}.Step(cart, s, dt, p)
		Expect(cart.LinearVelocity().X()).To(BeNumerically("~", 5+(p.Acceleration-p.Deceleration)*dt, 1e-9))
	})

	It("reports completion exactly once", func() {
		s := &scene.Session{Braking: true}
		cart := cartAt(p.TargetDistance+10, 0.05, p.CartMass)
		m := scene.Motion{}

		Expect(m.Step(cart, s, 1.0/60, p)).To(BeTrue())
		Expect(s.Completed).To(BeTrue())

		v := cart.LinearVelocity()
		for range 10 {
			Expect(m.Step(cart, s, 1.0/60, p)).To(BeFalse())
		}
		Expect(cart.LinearVelocity()).To(Equal(v), "no impulses after completion")
	})

	It("finishes on distance when there is no deceleration", func() {
		p.Deceleration = 0
		s := &scene.Session{}
		cart := cartAt(p.TargetDistance, p.MaxSpeed, p.CartMass)

		Expect(scene.Motion{}.Step(cart, s, 1.0/60, p)).To(BeTrue())
	})

	It("keeps braking past the target while decelerating", func() {
		s := &scene.Session{}
		cart := cartAt(p.TargetDistance+0.1, p.MaxSpeed, p.CartMass)

		Expect(scene.Motion{}.Step(cart, s, 1.0/60, p)).To(BeFalse())
		Expect(s.Braking).To(BeTrue())
		Expect(s.Completed).To(BeFalse())
	})

	It("finishes on distance in legacy mode", func() {
		s := &scene.Session{}
		cart := cartAt(p.TargetDistance+0.1, p.MaxSpeed, p.CartMass)

		Expect(scene.Motion{LegacyOverlap: true}.Step(cart, s, 1.0/60, p)).To(BeTrue())
	})

	It("does nothing without a cart", func() {
		Expect(scene.Motion{}.Step(nil, &scene.Session{}, 1.0/60, p)).To(BeFalse())
	})
})
