package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	DefaultSubsteps   = 4
	DefaultIterations = 4

	sleepTime      = 0.5
	sleepVelocity  = 0.02
	penetrationTol = 1e-3
	baumgarte      = 0.8
)

var DefaultGravity = mgl64.Vec3{0, -9.81, 0}

type pairKey struct {
	a, b *Body
}

type World struct {
	Bodies     []*Body
	Gravity    mgl64.Vec3
	Substeps   int
	Iterations int

	enabled      bool
	pairFriction map[pairKey]float64
	contacts     []*Contact
}

func NewWorld(gravity mgl64.Vec3) *World {
	return &World{
		Gravity:      gravity,
		Substeps:     DefaultSubsteps,
		Iterations:   DefaultIterations,
		enabled:      true,
		pairFriction: make(map[pairKey]float64),
	}
}

// AddBody adds a rigid body to the world
func (w *World) AddBody(body *Body) {
	w.Bodies = append(w.Bodies, body)
}

// RemoveBody removes a rigid body and any friction override involving it
func (w *World) RemoveBody(body *Body) {
	for i, b := range w.Bodies {
		if b == body {
			w.Bodies = append(w.Bodies[:i], w.Bodies[i+1:]...)
			break
		}
	}
	for key := range w.pairFriction {
		if key.a == body || key.b == body {
			delete(w.pairFriction, key)
		}
	}
}

// SetEnabled suspends or resumes integration. A disabled world keeps every
// body exactly where it was put.
func (w *World) SetEnabled(enabled bool) {
	w.enabled = enabled
	if enabled {
		for _, b := range w.Bodies {
			b.WakeUp()
		}
	}
}

func (w *World) Enabled() bool { return w.enabled }

// SetPairFriction overrides the friction coefficient used between a and b.
func (w *World) SetPairFriction(a, b *Body, mu float64) {
	w.pairFriction[pairKey{a, b}] = mu
	w.pairFriction[pairKey{b, a}] = mu
}

// Friction returns the coefficient used between a and b: the override if
// one is set, otherwise the geometric mean of the materials.
func (w *World) Friction(a, b *Body) float64 {
	if mu, ok := w.pairFriction[pairKey{a, b}]; ok {
		return mu
	}
	return math.Sqrt(a.Material.Friction * b.Material.Friction)
}

// Contacts returns the contacts found during the last substep.
func (w *World) Contacts() []*Contact {
	return w.contacts
}

func (w *World) Step(dt float64) {
	if !w.enabled || dt <= 0 {
		return
	}
	substeps := max(1, w.Substeps)
	iterations := max(1, w.Iterations)
	h := dt / float64(substeps)

	for range substeps {
		for _, body := range w.Bodies {
			body.integrate(h, w.Gravity)
		}

		w.contacts = w.detectContacts()

		for range iterations {
			for _, c := range w.contacts {
				c.solveVelocity(w.Friction(c.BodyA, c.BodyB))
			}
		}
		for _, c := range w.contacts {
			c.solvePosition()
		}

		for _, body := range w.Bodies {
			body.trySleep(h, sleepTime, sleepVelocity)
		}
	}
}

func active(b *Body) bool {
	return b.bodyType == BodyTypeDynamic && !b.sleeping
}

func (w *World) detectContacts() []*Contact {
	contacts := w.contacts[:0]
	for i := 0; i < len(w.Bodies); i++ {
		a := w.Bodies[i]
		for j := i + 1; j < len(w.Bodies); j++ {
			b := w.Bodies[j]
			if !active(a) && !active(b) {
				continue
			}
			if !a.AABB().Overlaps(b.AABB()) {
				continue
			}
			wakeTouching(a, b)
			for ia := range a.Colliders {
				for ib := range b.Colliders {
					if c, ok := collide(a, ia, b, ib); ok {
						contacts = append(contacts, c)
					}
				}
			}
		}
	}
	return contacts
}

// wakeTouching wakes a sleeping body resting against one that moves.
func wakeTouching(a, b *Body) {
	if a.sleeping && active(b) && b.velocity.Len() > sleepVelocity {
		a.WakeUp()
	}
	if b.sleeping && active(a) && a.velocity.Len() > sleepVelocity {
		b.WakeUp()
	}
}
