package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/cartbox/internal/geometry"
	"github.com/san-kum/cartbox/internal/physics"
)

// Stabilizer keeps the box riding on the cart. It is a soft constraint on
// top of the contact solver and not physically exact.
type Stabilizer struct {
	Margin float64 `yaml:"margin" env:"STABILIZER_MARGIN"`

	// radians
	TiltThreshold float64 `yaml:"tilt_threshold" env:"STABILIZER_TILT_THRESHOLD"`

	// m/s
	VerticalSpeedLimit float64 `yaml:"vertical_speed_limit" env:"STABILIZER_VERTICAL_SPEED_LIMIT"`

	// factor applied to v.y above the limit
	VerticalDamping float64 `yaml:"vertical_damping" env:"STABILIZER_VERTICAL_DAMPING"`
}

func DefaultStabilizer() Stabilizer {
	return Stabilizer{
		Margin:             0.1,
		TiltThreshold:      0.1,
		VerticalSpeedLimit: 0.5,
		VerticalDamping:    0.5,
	}
}

// Lock pins the box to the cart's top surface and matches the cart's
// forward speed.
func (st Stabilizer) Lock(box, cart *physics.Body, layout geometry.Layout) {
	if box == nil || cart == nil {
		return
	}
	box.SetTranslation(layout.BoxOn(cart.Translation()))
	box.SetRotation(mgl64.QuatIdent())
	box.SetLinearVelocity(mgl64.Vec3{cart.LinearVelocity().X(), 0, 0})
	box.SetAngularVelocity(mgl64.Vec3{})
}

// InTolerance reports whether the box is still above the cart.
func (st Stabilizer) InTolerance(box, cart *physics.Body, layout geometry.Layout) bool {
	offset := box.Translation().Sub(cart.Translation())
	return math.Abs(offset.X()) <= layout.CartHalf.X()-st.Margin &&
		math.Abs(offset.Z()) <= layout.CartHalf.Z()-st.Margin
}

// Correct straightens a tilted box and damps vertical bounce. A box that has
// slid past the cart's edge is left alone. It reports whether the box was in
// tolerance.
func (st Stabilizer) Correct(box, cart *physics.Body, layout geometry.Layout) bool {
	if box == nil || cart == nil {
		return false
	}
	if !st.InTolerance(box, cart, layout) {
		return false
	}

	if Tilt(box.Rotation()) > st.TiltThreshold {
		q := box.Rotation()
		q.V[0], q.V[2] = 0, 0
		if q.Len() < 1e-9 {
			q = mgl64.QuatIdent()
		}
		box.SetRotation(q)
		w := box.AngularVelocity()
		box.SetAngularVelocity(mgl64.Vec3{0, w.Y(), 0})
	}

	if v := box.LinearVelocity(); math.Abs(v.Y()) > st.VerticalSpeedLimit {
		box.SetLinearVelocity(mgl64.Vec3{v.X(), v.Y() * st.VerticalDamping, v.Z()})
	}
	return true
}

// Tilt is the angle between the body's up axis and world up.
func Tilt(q mgl64.Quat) float64 {
	up := q.Rotate(mgl64.Vec3{0, 1, 0})
	return math.Acos(mgl64.Clamp(up.Y(), -1, 1))
}
