package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// BodyType represents how the world treats a rigid body.
type BodyType int

const (
	// BodyTypeDynamic bodies are affected by gravity, impulses and contacts.
	BodyTypeDynamic BodyType = iota

	// BodyTypeStatic bodies never move and have infinite mass (floor, walls).
	BodyTypeStatic

	// BodyTypeKinematic bodies keep their transform until moved by hand.
	// Contacts treat them as immovable.
	BodyTypeKinematic
)

func (t BodyType) String() string {
	switch t {
	case BodyTypeDynamic:
		return "dynamic"
	case BodyTypeStatic:
		return "static"
	case BodyTypeKinematic:
		return "kinematic"
	default:
		return "unknown"
	}
}

type Material struct {
	Friction       float64
	Restitution    float64 // 0 = no rebound, 1 = perfect restitution
	LinearDamping  float64 // per second, typical 0.01
	AngularDamping float64 // per second, typical 0.05
}

type Transform struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
}

func NewTransform(position mgl64.Vec3) Transform {
	return Transform{Position: position, Rotation: mgl64.QuatIdent()}
}

// Body is a rigid body owned by a World. Callers hold *Body as a handle and
// read or write its state between steps.
type Body struct {
	Name      string
	Transform Transform
	Material  Material
	Colliders []Collider

	velocity        mgl64.Vec3
	angularVelocity mgl64.Vec3

	bodyType BodyType
	mass     float64
	invMass  float64

	inertiaLocal    mgl64.Mat3
	invInertiaLocal mgl64.Mat3

	sleeping   bool
	sleepTimer float64
}

// NewBody creates a body. mass is ignored for static bodies. The first
// collider defines the inertia tensor.
func NewBody(name string, transform Transform, bodyType BodyType, mass float64, colliders ...Collider) *Body {
	if transform.Rotation == (mgl64.Quat{}) {
		transform.Rotation = mgl64.QuatIdent()
	}
	b := &Body{
		Name:      name,
		Transform: transform,
		Colliders: colliders,
		bodyType:  bodyType,
	}
	b.SetMass(mass)
	return b
}

func (b *Body) Type() BodyType { return b.bodyType }

// SetBodyType switches the body type. Leaving the dynamic type clears the
// body's motion.
func (b *Body) SetBodyType(t BodyType) {
	if b.bodyType == t {
		return
	}
	b.bodyType = t
	if t != BodyTypeDynamic {
		b.velocity = mgl64.Vec3{}
		b.angularVelocity = mgl64.Vec3{}
	}
	b.WakeUp()
}

func (b *Body) Mass() float64 { return b.mass }

// InverseMass is zero for anything that is not dynamic.
func (b *Body) InverseMass() float64 {
	if b.bodyType != BodyTypeDynamic {
		return 0
	}
	return b.invMass
}

// SetMass updates mass and inertia. Non-positive masses are treated as
// infinite.
func (b *Body) SetMass(mass float64) {
	if b.bodyType == BodyTypeStatic || mass <= 0 {
		b.mass = math.Inf(1)
		b.invMass = 0
		b.inertiaLocal = mgl64.Mat3{}
		b.invInertiaLocal = mgl64.Mat3{}
		return
	}
	b.mass = mass
	b.invMass = 1.0 / mass
	if len(b.Colliders) > 0 {
		b.inertiaLocal = b.Colliders[0].Inertia(mass)
		b.invInertiaLocal = b.inertiaLocal.Inv()
	}
}

func (b *Body) Translation() mgl64.Vec3 { return b.Transform.Position }

func (b *Body) SetTranslation(p mgl64.Vec3) {
	b.Transform.Position = p
	b.WakeUp()
}

func (b *Body) Rotation() mgl64.Quat { return b.Transform.Rotation }

func (b *Body) SetRotation(q mgl64.Quat) {
	b.Transform.Rotation = q.Normalize()
	b.WakeUp()
}

func (b *Body) LinearVelocity() mgl64.Vec3 { return b.velocity }

func (b *Body) SetLinearVelocity(v mgl64.Vec3) {
	if b.bodyType != BodyTypeDynamic {
		return
	}
	b.velocity = v
	b.WakeUp()
}

func (b *Body) AngularVelocity() mgl64.Vec3 { return b.angularVelocity }

func (b *Body) SetAngularVelocity(w mgl64.Vec3) {
	if b.bodyType != BodyTypeDynamic {
		return
	}
	b.angularVelocity = w
	b.WakeUp()
}

// ApplyImpulse changes the linear momentum by j (N·s), so Δv = j/m.
func (b *Body) ApplyImpulse(j mgl64.Vec3) {
	if b.bodyType != BodyTypeDynamic {
		return
	}
	b.WakeUp()
	b.velocity = b.velocity.Add(j.Mul(b.invMass))
}

// ApplyAngularImpulse changes the angular momentum by j (N·m·s).
func (b *Body) ApplyAngularImpulse(j mgl64.Vec3) {
	if b.bodyType != BodyTypeDynamic {
		return
	}
	b.WakeUp()
	b.angularVelocity = b.angularVelocity.Add(b.inverseInertiaWorld().Mul3x1(j))
}

func (b *Body) IsSleeping() bool { return b.sleeping }

func (b *Body) WakeUp() {
	b.sleeping = false
	b.sleepTimer = 0
}

func (b *Body) sleep() {
	b.sleeping = true
	b.sleepTimer = 0
	b.velocity = mgl64.Vec3{}
	b.angularVelocity = mgl64.Vec3{}
}

func (b *Body) trySleep(dt, timeThreshold, velocityThreshold float64) {
	if b.bodyType != BodyTypeDynamic || b.sleeping {
		return
	}
	if b.velocity.Len() < velocityThreshold && b.angularVelocity.Len() < velocityThreshold {
		b.sleepTimer += dt
		if b.sleepTimer >= timeThreshold {
			b.sleep()
		}
		return
	}
	b.sleepTimer = 0
}

func (b *Body) integrate(dt float64, gravity mgl64.Vec3) {
	if b.bodyType != BodyTypeDynamic || b.sleeping {
		return
	}

	b.velocity = b.velocity.Add(gravity.Mul(dt))
	b.velocity = b.velocity.Mul(math.Exp(-b.Material.LinearDamping * dt))
	b.Transform.Position = b.Transform.Position.Add(b.velocity.Mul(dt))

	b.angularVelocity = b.angularVelocity.Mul(math.Exp(-b.Material.AngularDamping * dt))
	if b.angularVelocity.Len() > 0 {
		omega := mgl64.Quat{V: b.angularVelocity, W: 0}
		qDot := omega.Mul(b.Transform.Rotation).Scale(0.5)
		b.Transform.Rotation = b.Transform.Rotation.Add(qDot.Scale(dt)).Normalize()
	}
}

// inverseInertiaWorld is R * I_local^-1 * R^T.
func (b *Body) inverseInertiaWorld() mgl64.Mat3 {
	if b.bodyType != BodyTypeDynamic {
		return mgl64.Mat3{}
	}
	r := b.Transform.Rotation.Mat4().Mat3()
	return r.Mul3(b.invInertiaLocal).Mul3(r.Transpose())
}

// AABB bounds all colliders of the body in world space.
func (b *Body) AABB() AABB {
	if len(b.Colliders) == 0 {
		return AABB{Min: b.Transform.Position, Max: b.Transform.Position}
	}
	box := b.Colliders[0].WorldAABB(b.Transform)
	for _, c := range b.Colliders[1:] {
		box = box.Union(c.WorldAABB(b.Transform))
	}
	return box
}
