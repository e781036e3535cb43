package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/san-kum/cartbox/internal/schedule"
)

// Telemetry is reported every running frame.
type Telemetry struct {
	Elapsed  float64 `json:"elapsed"`  // seconds since start
	Distance float64 `json:"distance"` // metres along +x from the start position
	Speed    float64 `json:"speed"`    // horizontal speed, m/s
}

// Session is the state of one run, from start until the scene is idle again.
type Session struct {
	ID        string
	Start     mgl64.Vec3
	Telemetry Telemetry
	Follow    CameraFollow

	Braking   bool
	Completed bool

	completion schedule.ID
}

func newSession(start mgl64.Vec3, follow CameraFollow) *Session {
	return &Session{
		ID:     uuid.NewString(),
		Start:  start,
		Follow: follow,
	}
}

// Traveled is the displacement along the travel axis.
func (s *Session) Traveled(cart mgl64.Vec3) float64 {
	return cart.X() - s.Start.X()
}

func (s *Session) record(dt float64, cart, velocity mgl64.Vec3) Telemetry {
	s.Telemetry.Elapsed += dt
	s.Telemetry.Distance = math.Max(s.Telemetry.Distance, math.Max(0, s.Traveled(cart)))
	s.Telemetry.Speed = math.Hypot(velocity.X(), velocity.Z())
	return s.Telemetry
}
