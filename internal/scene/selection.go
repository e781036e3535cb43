package scene

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/cartbox/internal/geometry"
)

type Selection int

const (
	SelectNone Selection = iota
	SelectCart
	SelectBox
)

func (s Selection) String() string {
	switch s {
	case SelectNone:
		return "none"
	case SelectCart:
		return "cart"
	case SelectBox:
		return "box"
	default:
		return fmt.Sprintf("selection(%d)", int(s))
	}
}

// ParseSelection accepts "cart", "box" and "none" (or "").
func ParseSelection(s string) (Selection, error) {
	switch s {
	case "cart":
		return SelectCart, nil
	case "box":
		return SelectBox, nil
	case "none", "":
		return SelectNone, nil
	default:
		return SelectNone, fmt.Errorf("scene: unknown selection %q", s)
	}
}

// ObjectInfo describes a selected body for display.
type ObjectInfo struct {
	Kind       Selection  `json:"-"`
	Name       string     `json:"name"`
	Mass       float64    `json:"mass"`
	Friction   float64    `json:"friction"`
	Dimensions mgl64.Vec3 `json:"dimensions"` // full size in metres
	Position   mgl64.Vec3 `json:"position"`
	Velocity   mgl64.Vec3 `json:"velocity"`
	Speed      float64    `json:"speed"`
}

// Describe projects a selection onto the registry. It returns nil for
// SelectNone or a body that does not exist.
func Describe(s Selection, r *Registry, layout geometry.Layout, p Params) *ObjectInfo {
	body := r.Body(s)
	if body == nil {
		return nil
	}

	info := &ObjectInfo{
		Kind:     s,
		Name:     s.String(),
		Position: body.Translation(),
		Velocity: body.LinearVelocity(),
	}
	info.Speed = info.Velocity.Len()

	switch s {
	case SelectCart:
		info.Mass = p.CartMass
		info.Friction = p.FloorFriction
		info.Dimensions = layout.CartHalf.Mul(2)
	case SelectBox:
		info.Mass = p.BoxMass
		info.Friction = p.CartBoxFriction
		info.Dimensions = layout.BoxHalf.Mul(2)
	}
	return info
}

// Pick returns the body hit first by a ray, box before cart on ties.
func (r *Registry) Pick(origin, dir mgl64.Vec3) Selection {
	best, hit := math.Inf(1), SelectNone
	for _, s := range []Selection{SelectBox, SelectCart} {
		body := r.Body(s)
		if body == nil {
			continue
		}
		if t, ok := rayAABB(origin, dir, body.AABB().Min, body.AABB().Max); ok && t < best {
			best, hit = t, s
		}
	}
	return hit
}

// rayAABB is the slab test. It returns the entry distance along dir.
func rayAABB(origin, dir, lo, hi mgl64.Vec3) (float64, bool) {
	tmin, tmax := 0.0, math.Inf(1)
	for k := 0; k < 3; k++ {
		if math.Abs(dir[k]) < 1e-12 {
			if origin[k] < lo[k] || origin[k] > hi[k] {
				return 0, false
			}
			continue
		}
		t1 := (lo[k] - origin[k]) / dir[k]
		t2 := (hi[k] - origin[k]) / dir[k]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math.Max(tmin, t1)
		tmax = math.Min(tmax, t2)
		if tmin > tmax {
			return 0, false
		}
	}
	return tmin, true
}
