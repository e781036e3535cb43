// Package geometry derives the resting placement of the cart, its wheels and
// the box from a handful of size constants.
//
// Everything here is plain arithmetic evaluated once when a scene is built;
// nothing is recomputed per frame.
package geometry

import "github.com/go-gl/mathgl/mgl64"

const (
	DefaultFloorThickness = 0.2
	DefaultFloorTop       = 0.0
	DefaultWheelRadius    = 0.3
	DefaultWheelWidth     = 0.2
)

// Wheel positions, front/back along +x/-x and left/right along -z/+z.
const (
	FrontLeft = iota
	FrontRight
	BackLeft
	BackRight
)

type Dimensions struct {
	FloorThickness float64
	FloorTop       float64
	WheelRadius    float64
	WheelWidth     float64
	// half extents (x = length, y = height, z = width)
	CartHalf mgl64.Vec3
	BoxHalf  mgl64.Vec3
}

func DefaultDimensions() Dimensions {
	return Dimensions{
		FloorThickness: DefaultFloorThickness,
		FloorTop:       DefaultFloorTop,
		WheelRadius:    DefaultWheelRadius,
		WheelWidth:     DefaultWheelWidth,
		CartHalf:       mgl64.Vec3{1.0, 0.25, 0.5},
		BoxHalf:        mgl64.Vec3{0.4, 0.4, 0.4},
	}
}

type Layout struct {
	Dimensions

	FloorCenterY float64
	WheelCenterY float64
	CartCenterY  float64
	CartTopY     float64
	BoxCenterY   float64

	// Wheel centres relative to the cart centre, indexed by FrontLeft..BackRight.
	WheelOffsets [4]mgl64.Vec3
}

// Compute derives the layout. The cart body rides half a wheel radius above
// the wheel centres, so the upper half of each wheel is embedded in the body.
func Compute(d Dimensions) Layout {
	l := Layout{Dimensions: d}

	l.FloorCenterY = d.FloorTop - d.FloorThickness/2
	l.WheelCenterY = d.FloorTop + d.WheelRadius
	l.CartCenterY = l.WheelCenterY + d.WheelRadius/2 + d.CartHalf.Y()
	l.CartTopY = l.CartCenterY + d.CartHalf.Y()
	l.BoxCenterY = l.BoxRestY(l.CartCenterY)

	dx := d.CartHalf.X() - d.WheelRadius
	dy := l.WheelCenterY - l.CartCenterY
	dz := d.CartHalf.Z() - d.WheelWidth/2

	l.WheelOffsets[FrontLeft] = mgl64.Vec3{dx, dy, -dz}
	l.WheelOffsets[FrontRight] = mgl64.Vec3{dx, dy, dz}
	l.WheelOffsets[BackLeft] = mgl64.Vec3{-dx, dy, -dz}
	l.WheelOffsets[BackRight] = mgl64.Vec3{-dx, dy, dz}

	return l
}

// BoxRestY is the box centre height when it sits on a cart centred at cartY.
func (l Layout) BoxRestY(cartY float64) float64 {
	return cartY + l.CartHalf.Y() + l.BoxHalf.Y()
}

// CartStart is the cart centre at the start of every run.
func (l Layout) CartStart() mgl64.Vec3 {
	return mgl64.Vec3{0, l.CartCenterY, 0}
}

// BoxOn returns the box resting centre above the given cart centre.
func (l Layout) BoxOn(cart mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{cart.X(), l.BoxRestY(cart.Y()), cart.Z()}
}

// WheelHalf is the half extent of the box collider that stands in for a wheel.
func (l Layout) WheelHalf() mgl64.Vec3 {
	return mgl64.Vec3{l.WheelRadius, l.WheelRadius, l.WheelWidth / 2}
}
