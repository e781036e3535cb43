package viz

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/cartbox/internal/scene"
)

const (
	fieldOfView = 50.0 // degrees, vertical
	nearPlane   = 0.1
	farPlane    = 500.0
)

// Projector maps world points to canvas dots through a perspective camera.
type Projector struct {
	viewProj mgl64.Mat4
	inverse  mgl64.Mat4
	w, h     int
}

// NewProjector builds a projector for a canvas of w×h dots. Braille dots are
// close to square, so the aspect ratio is taken from the dot counts.
func NewProjector(cam scene.Camera, w, h int) Projector {
	aspect := float64(w) / float64(max(1, h))
	proj := mgl64.Perspective(mgl64.DegToRad(fieldOfView), aspect, nearPlane, farPlane)
	vp := proj.Mul4(cam.View())
	return Projector{viewProj: vp, inverse: vp.Inv(), w: w, h: h}
}

// Project returns the dot coordinates of p and its clip depth. ok is false
// for points behind the camera.
func (p Projector) Project(v mgl64.Vec3) (x, y int, depth float64, ok bool) {
	clip := p.viewProj.Mul4x1(v.Vec4(1))
	if clip.W() <= nearPlane {
		return 0, 0, 0, false
	}
	ndc := clip.Vec3().Mul(1 / clip.W())
	x = int(math.Floor((ndc.X() + 1) / 2 * float64(p.w)))
	y = int(math.Floor((1 - ndc.Y()) / 2 * float64(p.h)))
	return x, y, clip.W(), true
}

// Ray returns the world-space ray through the centre of dot (x, y).
func (p Projector) Ray(x, y int) (origin, dir mgl64.Vec3) {
	nx := 2*(float64(x)+0.5)/float64(p.w) - 1
	ny := 1 - 2*(float64(y)+0.5)/float64(p.h)

	unproject := func(z float64) mgl64.Vec3 {
		v := p.inverse.Mul4x1(mgl64.Vec4{nx, ny, z, 1})
		return v.Vec3().Mul(1 / v.W())
	}
	near, far := unproject(-1), unproject(1)
	return near, far.Sub(near).Normalize()
}
