package scene_test

import (
	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/cartbox/internal/geometry"
	"github.com/san-kum/cartbox/internal/physics"
	"github.com/san-kum/cartbox/internal/scene"
)

var _ = Describe("Stabilizer", func() {
	var (
		layout    geometry.Layout
		reg       *scene.Registry
		cart, box *physics.Body
		st        scene.Stabilizer
		tilted    mgl64.Quat
	)

	BeforeEach(func() {
		layout = geometry.Compute(geometry.DefaultDimensions())
		reg = scene.NewRegistry(layout, scene.DefaultParams())
		cart, box = reg.Cart, reg.Box
		st = scene.DefaultStabilizer()
		tilted = mgl64.QuatRotate(0.5, mgl64.Vec3{1, 0, 0})
	})

	It("starts with the box stacked on the cart", func() {
		Expect(box.Translation()).To(Equal(layout.BoxOn(cart.Translation())))
	})

	It("leaves a box past the cart's edge alone", func() {
		pos := cart.Translation().Add(mgl64.Vec3{1.5, 0.3, 0})
		box.SetTranslation(pos)
		box.SetRotation(tilted)
		box.SetLinearVelocity(mgl64.Vec3{0, 2, 0})
		box.SetAngularVelocity(mgl64.Vec3{1, 0, 1})

		Expect(st.Correct(box, cart, layout)).To(BeFalse())
		Expect(box.Translation()).To(Equal(pos))
		Expect(box.Rotation().ApproxEqual(tilted)).To(BeTrue())
		Expect(box.LinearVelocity()).To(Equal(mgl64.Vec3{0, 2, 0}))
		Expect(box.AngularVelocity()).To(Equal(mgl64.Vec3{1, 0, 1}))
	})

	It("leaves a box past the cart's side alone", func() {
		box.SetTranslation(cart.Translation().Add(mgl64.Vec3{0, 0.3, 0.45}))
		box.SetRotation(tilted)

		Expect(st.Correct(box, cart, layout)).To(BeFalse())
		Expect(box.Rotation().ApproxEqual(tilted)).To(BeTrue())
	})

	It("straightens a tilted box and damps vertical bounce", func() {
		box.SetTranslation(cart.Translation().Add(mgl64.Vec3{0.3, 0.65, 0}))
		box.SetRotation(tilted)
		box.SetLinearVelocity(mgl64.Vec3{1, 2, 0})
		box.SetAngularVelocity(mgl64.Vec3{3, 0.5, -1})

		Expect(st.Correct(box, cart, layout)).To(BeTrue())
		Expect(scene.Tilt(box.Rotation())).To(BeNumerically("<", 1e-6))
		Expect(box.AngularVelocity()).To(Equal(mgl64.Vec3{0, 0.5, 0}))
		Expect(box.LinearVelocity()).To(Equal(mgl64.Vec3{1, 1, 0}))
	})

	It("keeps yaw when straightening", func() {
		yaw := mgl64.QuatRotate(0.7, mgl64.Vec3{0, 1, 0})
		box.SetRotation(yaw.Mul(tilted))

		st.Correct(box, cart, layout)
		Expect(scene.Tilt(box.Rotation())).To(BeNumerically("<", 1e-6))
		Expect(box.Rotation().V.Y()).NotTo(BeZero())
	})

	It("ignores small tilts and slow vertical motion", func() {
		small := mgl64.QuatRotate(0.05, mgl64.Vec3{0, 0, 1})
		box.SetRotation(small)
		box.SetLinearVelocity(mgl64.Vec3{0, 0.3, 0})

		st.Correct(box, cart, layout)
		Expect(box.Rotation().ApproxEqual(small)).To(BeTrue())
		Expect(box.LinearVelocity().Y()).To(Equal(0.3))
	})

	It("locks the box onto the cart's top surface", func() {
		cart.SetTranslation(mgl64.Vec3{12, layout.CartCenterY, 0.2})
		cart.SetLinearVelocity(mgl64.Vec3{4, -0.2, 0.1})
		box.SetTranslation(mgl64.Vec3{11, 3, 0})
		box.SetRotation(tilted)
		box.SetLinearVelocity(mgl64.Vec3{0, -5, 1})
		box.SetAngularVelocity(mgl64.Vec3{1, 1, 1})

		st.Lock(box, cart, layout)

		Expect(box.Translation()).To(Equal(mgl64.Vec3{12, layout.CartTopY + layout.BoxHalf.Y(), 0.2}))
		Expect(box.LinearVelocity()).To(Equal(mgl64.Vec3{4, 0, 0}))
		Expect(box.AngularVelocity()).To(Equal(mgl64.Vec3{}))
		Expect(box.Rotation()).To(Equal(mgl64.QuatIdent()))
	})
})
