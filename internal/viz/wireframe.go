package viz

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/cartbox/internal/physics"
	"github.com/san-kum/cartbox/internal/scene"
)

// Edge is a world-space line segment.
type Edge struct {
	A, B mgl64.Vec3
}

const (
	gridBehind  = 30.0
	gridAhead   = 60.0
	gridSpacing = 5.0
	gridHalfZ   = 4.0
	markerTall  = 3.0
)

// BoxEdges returns the 12 edges of a box given its corners in
// physics.Collider.Corners order (bit 0 = x, bit 1 = y, bit 2 = z).
func BoxEdges(c [8]mgl64.Vec3) []Edge {
	edges := make([]Edge, 0, 12)
	for i := range 8 {
		for _, bit := range []int{1, 2, 4} {
			if i&bit == 0 {
				edges = append(edges, Edge{c[i], c[i|bit]})
			}
		}
	}
	return edges
}

// BodyEdges outlines every collider of b.
func BodyEdges(b *physics.Body) []Edge {
	if b == nil {
		return nil
	}
	var edges []Edge
	for _, col := range b.Colliders {
		edges = append(edges, BoxEdges(col.Corners(b.Transform))...)
	}
	return edges
}

// FloorEdges draws a grid on the floor top around centreX and a vertical
// marker at the target distance.
func FloorEdges(floorTop, centreX, target float64) []Edge {
	x0 := math.Floor((centreX-gridBehind)/gridSpacing) * gridSpacing
	x1 := centreX + gridAhead

	edges := []Edge{
		{mgl64.Vec3{x0, floorTop, -gridHalfZ}, mgl64.Vec3{x1, floorTop, -gridHalfZ}},
		{mgl64.Vec3{x0, floorTop, gridHalfZ}, mgl64.Vec3{x1, floorTop, gridHalfZ}},
	}
	for x := x0; x <= x1; x += gridSpacing {
		edges = append(edges, Edge{mgl64.Vec3{x, floorTop, -gridHalfZ}, mgl64.Vec3{x, floorTop, gridHalfZ}})
	}
	if target >= x0 && target <= x1 {
		edges = append(edges,
			Edge{mgl64.Vec3{target, floorTop, -gridHalfZ}, mgl64.Vec3{target, floorTop + markerTall, -gridHalfZ}},
			Edge{mgl64.Vec3{target, floorTop, gridHalfZ}, mgl64.Vec3{target, floorTop + markerTall, gridHalfZ}},
			Edge{mgl64.Vec3{target, floorTop + markerTall, -gridHalfZ}, mgl64.Vec3{target, floorTop + markerTall, gridHalfZ}},
		)
	}
	return edges
}

// Renderer draws the scene onto a canvas through the controller's camera.
type Renderer struct {
	Canvas *Canvas
}

func NewRenderer(w, h int) *Renderer {
	return &Renderer{Canvas: NewCanvas(w, h)}
}

// Projector returns the projector matching the canvas and cam.
func (r *Renderer) Projector(cam scene.Camera) Projector {
	w, h := r.Canvas.Size()
	return NewProjector(cam, w, h)
}

// Render clears the canvas and draws the floor grid, the cart and the box.
// The selected body gets a dot on each corner.
func (r *Renderer) Render(c *scene.Controller) {
	r.Canvas.Clear()
	proj := r.Projector(c.Camera())
	reg := c.Registry()
	layout := c.Layout()

	centre := c.Camera().Target.X()
	r.drawEdges(proj, FloorEdges(layout.FloorTop, centre, c.Params().TargetDistance))
	if reg == nil {
		return
	}
	r.drawEdges(proj, BodyEdges(reg.Cart))
	r.drawEdges(proj, BodyEdges(reg.Box))

	if b := reg.Body(c.Selection()); b != nil && len(b.Colliders) > 0 {
		for _, p := range b.Colliders[0].Corners(b.Transform) {
			if x, y, _, ok := proj.Project(p); ok {
				r.Canvas.Blob(x, y, 1)
			}
		}
	}
}

func (r *Renderer) drawEdges(proj Projector, edges []Edge) {
	w, h := r.Canvas.Size()
	for _, e := range edges {
		x0, y0, _, ok0 := proj.Project(e.A)
		x1, y1, _, ok1 := proj.Project(e.B)
		if !ok0 || !ok1 {
			continue
		}
		if outside(x0, x1, w) || outside(y0, y1, h) {
			continue
		}
		if absInt(x1-x0) > 8*w || absInt(y1-y0) > 8*h {
			continue
		}
		r.Canvas.DrawLine(x0, y0, x1, y1)
	}
}

// outside reports whether both coordinates fall on the same side of [0, n).
func outside(a, b, n int) bool {
	return (a < 0 && b < 0) || (a >= n && b >= n)
}
