package scene

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Camera is a look-at camera.
type Camera struct {
	Position mgl64.Vec3 `json:"position"`
	Target   mgl64.Vec3 `json:"target"`
}

// View returns the world-to-camera matrix with +Y up.
func (c Camera) View() mgl64.Mat4 {
	return mgl64.LookAtV(c.Position, c.Target, mgl64.Vec3{0, 1, 0})
}

// Direction is the unit look direction.
func (c Camera) Direction() mgl64.Vec3 {
	d := c.Target.Sub(c.Position)
	if d.Len() == 0 {
		return mgl64.Vec3{0, 0, -1}
	}
	return d.Normalize()
}

// DefaultCamera looks at the cart from behind and above, slightly to the
// side of the travel axis.
func DefaultCamera(cartStart mgl64.Vec3) Camera {
	return Camera{
		Position: cartStart.Add(mgl64.Vec3{-6, 4, 10}),
		Target:   cartStart,
	}
}

// CameraFollow is captured when a run starts and dropped when it ends.
type CameraFollow struct {
	Offset    mgl64.Vec3
	Smoothing float64

	height, depth float64
}

func NewCameraFollow(cam Camera, cart mgl64.Vec3, smoothing float64) CameraFollow {
	return CameraFollow{
		Offset:    cam.Position.Sub(cart),
		Smoothing: smoothing,
		height:    cam.Position.Y(),
		depth:     cam.Position.Z(),
	}
}

// Update moves the camera a fixed fraction of the way towards the cart's x
// plus the captured offset. The factor is per frame, not per second. Height
// and depth stay where they were when the run started.
func (f CameraFollow) Update(cam Camera, cart mgl64.Vec3) Camera {
	targetX := cart.X() + f.Offset.X()
	x := cam.Position.X() + (targetX-cam.Position.X())*f.Smoothing
	cam.Position = mgl64.Vec3{x, f.height, f.depth}
	cam.Target = cart
	return cam
}
