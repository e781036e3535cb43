package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/cartbox/internal/physics"
)

// StopSpeed is the cart speed below which a braking run counts as finished.
const StopSpeed = 0.1

// Motion pushes the cart along +x.
type Motion struct {
	// LegacyOverlap keeps pushing forward after braking has started, so both
	// impulses land in the same frame while the cart is under max speed.
	LegacyOverlap bool
}

// Step applies this frame's impulses to the cart and reports whether the run
// finished on this frame. A braking run finishes when the cart is nearly
// stopped. Reaching the target distance finishes the run only in legacy
// overlap mode or when Deceleration is not positive.
func (m Motion) Step(cart *physics.Body, s *Session, dt float64, p Params) bool {
	if cart == nil || s == nil || dt <= 0 {
		return false
	}
	if s.Completed && !m.LegacyOverlap {
		return false
	}

	pos := cart.Translation()
	vx := cart.LinearVelocity().X()

	if pos.X() >= p.TargetDistance {
		s.Braking = true
	}

	if math.Abs(vx) < p.MaxSpeed && (m.LegacyOverlap || !s.Braking) {
		cart.ApplyImpulse(mgl64.Vec3{p.Acceleration * dt * p.CartMass, 0, 0})
	}
	if s.Braking {
		cart.ApplyImpulse(mgl64.Vec3{-p.Deceleration * dt * p.CartMass, 0, 0})
	}

	if s.Completed {
		return false
	}
	if s.Braking && math.Abs(vx) < StopSpeed {
		s.Completed = true
		return true
	}
	// without deceleration the cart never slows down, so reaching the target
	// is the end of the run
	if (m.LegacyOverlap || p.Deceleration <= 0) && s.Traveled(pos) >= p.TargetDistance {
		s.Completed = true
		return true
	}
	return false
}
