package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Contact is an overlap between one collider of BodyA and one of BodyB. The
// normal is a world axis pointing from A towards B.
type Contact struct {
	BodyA, BodyB *Body
	Normal       mgl64.Vec3
	Point        mgl64.Vec3
	Depth        float64

	colliderA, colliderB int
	axis                 int
}

func collide(a *Body, ia int, b *Body, ib int) (*Contact, bool) {
	boxA := a.Colliders[ia].WorldAABB(a.Transform)
	boxB := b.Colliders[ib].WorldAABB(b.Transform)
	if !boxA.Overlaps(boxB) {
		return nil, false
	}

	axis, depth := minOverlap(boxA, boxB)
	normal := mgl64.Vec3{}
	if boxB.Center()[axis] >= boxA.Center()[axis] {
		normal[axis] = 1
	} else {
		normal[axis] = -1
	}

	lo := mgl64.Vec3{}
	hi := mgl64.Vec3{}
	for k := 0; k < 3; k++ {
		lo[k] = math.Max(boxA.Min[k], boxB.Min[k])
		hi[k] = math.Min(boxA.Max[k], boxB.Max[k])
	}

	return &Contact{
		BodyA:     a,
		BodyB:     b,
		Normal:    normal,
		Point:     lo.Add(hi).Mul(0.5),
		Depth:     depth,
		colliderA: ia,
		colliderB: ib,
		axis:      axis,
	}, true
}

func minOverlap(a, b AABB) (int, float64) {
	axis, depth := 0, math.Inf(1)
	for k := 0; k < 3; k++ {
		o := math.Min(a.Max[k], b.Max[k]) - math.Max(a.Min[k], b.Min[k])
		if o < depth {
			axis, depth = k, o
		}
	}
	return axis, depth
}

// solveVelocity removes the approaching normal velocity and applies Coulomb
// friction bounded by mu times the normal impulse of this pass.
func (c *Contact) solveVelocity(mu float64) {
	a, b := c.BodyA, c.BodyB
	invA, invB := a.InverseMass(), b.InverseMass()
	invSum := invA + invB
	if invSum < 1e-12 {
		return
	}

	rel := b.velocity.Sub(a.velocity)
	vn := rel.Dot(c.Normal)
	if vn >= 0 {
		return
	}

	e := (a.Material.Restitution + b.Material.Restitution) / 2
	jn := -(1 + e) * vn / invSum
	impulse := c.Normal.Mul(jn)
	applyLinear(a, impulse.Mul(-1))
	applyLinear(b, impulse)

	rel = b.velocity.Sub(a.velocity)
	tangent := rel.Sub(c.Normal.Mul(rel.Dot(c.Normal)))
	speed := tangent.Len()
	if speed < 1e-9 || mu <= 0 {
		return
	}

	jt := math.Min(speed/invSum, mu*jn)
	friction := tangent.Mul(-jt / speed)
	applyLinear(a, friction.Mul(-1))
	applyLinear(b, friction)
}

// solvePosition pushes the pair apart along the contact axis using the
// current transforms, so stacked contacts on one body do not over-correct.
func (c *Contact) solvePosition() {
	a, b := c.BodyA, c.BodyB
	invA, invB := a.InverseMass(), b.InverseMass()
	invSum := invA + invB
	if invSum < 1e-12 {
		return
	}

	boxA := a.Colliders[c.colliderA].WorldAABB(a.Transform)
	boxB := b.Colliders[c.colliderB].WorldAABB(b.Transform)
	if !boxA.Overlaps(boxB) {
		return
	}
	k := c.axis
	depth := math.Min(boxA.Max[k], boxB.Max[k]) - math.Max(boxA.Min[k], boxB.Min[k])
	if depth <= penetrationTol {
		return
	}

	correction := c.Normal.Mul((depth - penetrationTol) * baumgarte / invSum)
	a.Transform.Position = a.Transform.Position.Sub(correction.Mul(invA))
	b.Transform.Position = b.Transform.Position.Add(correction.Mul(invB))
}

func applyLinear(b *Body, impulse mgl64.Vec3) {
	if b.bodyType != BodyTypeDynamic {
		return
	}
	if b.sleeping {
		if impulse.Len()*b.invMass <= sleepVelocity {
			return
		}
		b.WakeUp()
	}
	b.velocity = b.velocity.Add(impulse.Mul(b.invMass))
}
