package scene

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/cartbox/internal/geometry"
	"github.com/san-kum/cartbox/internal/physics"
)

const floorHalfLength = 2000

// Registry holds the three bodies of the scene. The world owns them; a nil
// handle means the body has not been created yet.
type Registry struct {
	World *physics.World
	Floor *physics.Body
	Cart  *physics.Body
	Box   *physics.Body
}

// NewRegistry builds the floor, the cart with its four wheels and the box
// resting on the cart, all at their initial transforms.
func NewRegistry(layout geometry.Layout, p Params) *Registry {
	world := physics.NewWorld(physics.DefaultGravity)
	d := layout.Dimensions

	floor := physics.NewBody("floor",
		physics.NewTransform(mgl64.Vec3{0, layout.FloorCenterY, 0}),
		physics.BodyTypeStatic, 0,
		physics.BoxCollider(mgl64.Vec3{floorHalfLength, d.FloorThickness / 2, floorHalfLength}),
	)

	colliders := []physics.Collider{physics.BoxCollider(d.CartHalf)}
	for _, offset := range layout.WheelOffsets {
		colliders = append(colliders, physics.Collider{HalfExtents: layout.WheelHalf(), Offset: offset})
	}
	cart := physics.NewBody("cart", physics.NewTransform(layout.CartStart()),
		physics.BodyTypeDynamic, p.CartMass, colliders...)
	cart.Material.AngularDamping = 0.5

	box := physics.NewBody("box", physics.NewTransform(layout.BoxOn(layout.CartStart())),
		physics.BodyTypeDynamic, p.BoxMass, physics.BoxCollider(d.BoxHalf))
	box.Material.AngularDamping = 0.5

	world.AddBody(floor)
	world.AddBody(cart)
	world.AddBody(box)

	r := &Registry{World: world, Floor: floor, Cart: cart, Box: box}
	r.Apply(p)
	return r
}

// Ready reports whether the moving bodies exist.
func (r *Registry) Ready() bool {
	return r != nil && r.Cart != nil && r.Box != nil
}

// Apply pushes masses and friction coefficients onto the bodies.
func (r *Registry) Apply(p Params) {
	if r == nil {
		return
	}
	if r.Cart != nil {
		r.Cart.SetMass(p.CartMass)
		r.Cart.Material.Friction = p.FloorFriction
	}
	if r.Box != nil {
		r.Box.SetMass(p.BoxMass)
		r.Box.Material.Friction = p.CartBoxFriction
	}
	if r.Floor != nil {
		r.Floor.Material.Friction = p.FloorFriction
	}
	if r.World == nil {
		return
	}
	if r.Floor != nil && r.Cart != nil {
		r.World.SetPairFriction(r.Floor, r.Cart, p.FloorFriction)
	}
	if r.Floor != nil && r.Box != nil {
		r.World.SetPairFriction(r.Floor, r.Box, p.FloorFriction)
	}
	if r.Cart != nil && r.Box != nil {
		r.World.SetPairFriction(r.Cart, r.Box, p.CartBoxFriction)
	}
}

// Body returns the handle for a selection, nil for SelectNone.
func (r *Registry) Body(s Selection) *physics.Body {
	if r == nil {
		return nil
	}
	switch s {
	case SelectCart:
		return r.Cart
	case SelectBox:
		return r.Box
	default:
		return nil
	}
}
