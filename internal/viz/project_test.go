package viz

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/cartbox/internal/scene"
)

func TestProjector_TargetAtCentre(t *testing.T) {
	cam := scene.Camera{Position: mgl64.Vec3{0, 0, 10}}
	p := NewProjector(cam, 100, 80)

	x, y, depth, ok := p.Project(mgl64.Vec3{})
	if !ok {
		t.Fatal("target not visible")
	}
	if absInt(x-50) > 1 || absInt(y-40) > 1 {
		t.Errorf("Project(target) = %d,%d, want ~50,40", x, y)
	}
	if math.Abs(depth-10) > 1e-9 {
		t.Errorf("depth = %v, want 10", depth)
	}
}

func TestProjector_UpIsUp(t *testing.T) {
	p := NewProjector(scene.Camera{Position: mgl64.Vec3{0, 0, 10}}, 100, 80)
	_, yHigh, _, _ := p.Project(mgl64.Vec3{0, 1, 0})
	_, yLow, _, _ := p.Project(mgl64.Vec3{0, -1, 0})
	xRight, _, _, _ := p.Project(mgl64.Vec3{1, 0, 0})
	if yHigh >= yLow {
		t.Errorf("+y drawn below -y: %d >= %d", yHigh, yLow)
	}
	if xRight <= 50 {
		t.Errorf("+x drawn left of centre: %d", xRight)
	}
}

func TestProjector_BehindCamera(t *testing.T) {
	p := NewProjector(scene.Camera{Position: mgl64.Vec3{0, 0, 10}}, 100, 80)
	if _, _, _, ok := p.Project(mgl64.Vec3{0, 0, 20}); ok {
		t.Error("point behind the camera reported visible")
	}
}

func TestProjector_RayHitsProjectedPoint(t *testing.T) {
	cam := scene.DefaultCamera(mgl64.Vec3{0, 0.7, 0})
	p := NewProjector(cam, 128, 80)

	for _, pt := range []mgl64.Vec3{{0, 0.7, 0}, {1, 0.95, 0.5}, {-0.8, 0.2, 0.5}, {5, 0, -3}} {
		x, y, depth, ok := p.Project(pt)
		if !ok {
			t.Fatalf("%v not visible", pt)
		}
		origin, dir := p.Ray(x, y)
		if math.Abs(dir.Len()-1) > 1e-9 {
			t.Fatalf("ray direction not normalised: %v", dir.Len())
		}
		// Distance from the point to the ray, allowing one dot of error.
		v := pt.Sub(origin)
		miss := v.Sub(dir.Mul(v.Dot(dir))).Len()
		dot := 2 * depth * math.Tan(mgl64.DegToRad(fieldOfView)/2) / 80
		if miss > 1.5*dot {
			t.Errorf("ray through %v misses by %.3f (dot %.3f)", pt, miss, dot)
		}
	}
}
