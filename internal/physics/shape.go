package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

type AABB struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

func (a AABB) Overlaps(b AABB) bool {
	return a.Min.X() < b.Max.X() && a.Max.X() > b.Min.X() &&
		a.Min.Y() < b.Max.Y() && a.Max.Y() > b.Min.Y() &&
		a.Min.Z() < b.Max.Z() && a.Max.Z() > b.Min.Z()
}

func (a AABB) Union(b AABB) AABB {
	return AABB{
		Min: mgl64.Vec3{math.Min(a.Min[0], b.Min[0]), math.Min(a.Min[1], b.Min[1]), math.Min(a.Min[2], b.Min[2])},
		Max: mgl64.Vec3{math.Max(a.Max[0], b.Max[0]), math.Max(a.Max[1], b.Max[1]), math.Max(a.Max[2], b.Max[2])},
	}
}

func (a AABB) Center() mgl64.Vec3 {
	return a.Min.Add(a.Max).Mul(0.5)
}

func (a AABB) Contains(p mgl64.Vec3) bool {
	return p.X() >= a.Min.X() && p.X() <= a.Max.X() &&
		p.Y() >= a.Min.Y() && p.Y() <= a.Max.Y() &&
		p.Z() >= a.Min.Z() && p.Z() <= a.Max.Z()
}

// Collider is an oriented box attached to a body at a local offset.
type Collider struct {
	HalfExtents mgl64.Vec3
	Offset      mgl64.Vec3
}

func BoxCollider(halfExtents mgl64.Vec3) Collider {
	return Collider{HalfExtents: halfExtents}
}

// Corners returns the eight corners of the collider in world space.
func (c Collider) Corners(t Transform) [8]mgl64.Vec3 {
	hx, hy, hz := c.HalfExtents.X(), c.HalfExtents.Y(), c.HalfExtents.Z()
	local := [8]mgl64.Vec3{
		{-hx, -hy, -hz}, {hx, -hy, -hz}, {-hx, hy, -hz}, {hx, hy, -hz},
		{-hx, -hy, hz}, {hx, -hy, hz}, {-hx, hy, hz}, {hx, hy, hz},
	}
	var out [8]mgl64.Vec3
	for i, p := range local {
		out[i] = t.Rotation.Rotate(p.Add(c.Offset)).Add(t.Position)
	}
	return out
}

func (c Collider) WorldAABB(t Transform) AABB {
	corners := c.Corners(t)
	lo, hi := corners[0], corners[0]
	for _, p := range corners[1:] {
		for k := 0; k < 3; k++ {
			lo[k] = math.Min(lo[k], p[k])
			hi[k] = math.Max(hi[k], p[k])
		}
	}
	return AABB{Min: lo, Max: hi}
}

// Inertia of a solid box: I = m/12 * (d1² + d2²).
func (c Collider) Inertia(mass float64) mgl64.Mat3 {
	x := c.HalfExtents.X() * 2
	y := c.HalfExtents.Y() * 2
	z := c.HalfExtents.Z() * 2

	f := mass / 12.0
	return mgl64.Mat3{
		f * (y*y + z*z), 0, 0,
		0, f * (x*x + z*z), 0,
		0, 0, f * (x*x + y*y),
	}
}
