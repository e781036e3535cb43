package scene_test

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/cartbox/internal/physics"
	"github.com/san-kum/cartbox/internal/scene"
)

const dt = 1.0 / 60

type recorder struct {
	updates   []scene.Telemetry
	completes []scene.Telemetry
	selected  []*scene.ObjectInfo
	phases    [][2]scene.Phase
}

func (r *recorder) hooks() scene.Hooks {
	return scene.Hooks{
		OnSimulationUpdate:   func(t scene.Telemetry) { r.updates = append(r.updates, t) },
		OnSimulationComplete: func(t scene.Telemetry) { r.completes = append(r.completes, t) },
		OnObjectSelect:       func(info *scene.ObjectInfo) { r.selected = append(r.selected, info) },
		OnPhaseChange: func(from, to scene.Phase) {
			r.phases = append(r.phases, [2]scene.Phase{from, to})
		},
	}
}

func frames(c *scene.Controller, p scene.Params, seconds float64) {
	for range int(math.Round(seconds / dt)) {
		c.Frame(dt, p)
	}
}

func near(a, b mgl64.Vec3, tol float64) bool {
	return a.Sub(b).Len() <= tol
}

var _ = Describe("Controller", func() {
	var (
		p   scene.Params
		rec *recorder
		c   *scene.Controller
	)

	BeforeEach(func() {
		p = scene.DefaultParams()
		rec = &recorder{}
		opts := scene.DefaultOptions()
		opts.Hooks = rec.hooks()
		c = scene.New(p, opts)
	})

	Describe("phase machine", func() {
		DescribeTable("transition table",
			func(from scene.Phase, cmd scene.Command, want scene.Phase, ok bool) {
				got, err := scene.Next(from, cmd)
				if !ok {
					Expect(err).To(MatchError(scene.ErrInvalidTransition))
					Expect(got).To(Equal(from))
					return
				}
				Expect(err).NotTo(HaveOccurred())
				Expect(got).To(Equal(want))
			},
			Entry("idle start", scene.PhaseIdle, scene.CommandStart, scene.PhaseRunning, true),
			Entry("idle stop", scene.PhaseIdle, scene.CommandStop, scene.PhaseIdle, false),
			Entry("idle reset", scene.PhaseIdle, scene.CommandReset, scene.PhaseSettling, true),
			Entry("running start", scene.PhaseRunning, scene.CommandStart, scene.PhaseRunning, false),
			Entry("running stop", scene.PhaseRunning, scene.CommandStop, scene.PhasePaused, true),
			Entry("running reset", scene.PhaseRunning, scene.CommandReset, scene.PhaseSettling, true),
			Entry("paused start", scene.PhasePaused, scene.CommandStart, scene.PhasePaused, false),
			Entry("paused reset", scene.PhasePaused, scene.CommandReset, scene.PhaseSettling, true),
			Entry("settling start", scene.PhaseSettling, scene.CommandStart, scene.PhaseSettling, false),
			Entry("settling reset", scene.PhaseSettling, scene.CommandReset, scene.PhaseSettling, true),
		)

		It("rejects commands the phase does not accept", func() {
			Expect(c.Stop()).To(MatchError(scene.ErrInvalidTransition))
			Expect(c.Start()).To(Succeed())
			Expect(c.Start()).To(MatchError(scene.ErrInvalidTransition))
			Expect(c.Stop()).To(Succeed())
			Expect(c.Start()).To(MatchError(scene.ErrInvalidTransition))
		})

		It("walks start, stop, reset back to idle", func() {
			Expect(c.Start()).To(Succeed())
			frames(c, p, 1)
			Expect(c.Stop()).To(Succeed())
			Expect(c.Reset()).To(Succeed())
			frames(c, p, 1)

			Expect(c.Phase()).To(Equal(scene.PhaseIdle))
			Expect(rec.phases).To(Equal([][2]scene.Phase{
				{scene.PhaseIdle, scene.PhaseRunning},
				{scene.PhaseRunning, scene.PhasePaused},
				{scene.PhasePaused, scene.PhaseSettling},
				{scene.PhaseSettling, scene.PhaseIdle},
			}))
		})
	})

	It("adds acceleration·dt to the cart velocity each frame", func() {
		p.FloorFriction = 0
		p.CartBoxFriction = 0
		Expect(c.Start()).To(Succeed())

		cart := c.Registry().Cart
		for range 5 {
			v0 := cart.LinearVelocity().X()
			c.Frame(dt, p)
			Expect(cart.LinearVelocity().X()).To(BeNumerically("~", v0+p.Acceleration*dt, 1e-9))
		}
	})

	It("does not move anything while idle", func() {
		frames(c, p, 1)
		Expect(rec.updates).To(BeEmpty())
		Expect(math.Abs(c.Registry().Cart.LinearVelocity().X())).To(BeNumerically("<", 1e-9))
	})

	Describe("the reference run", func() {
		// acceleration 5, deceleration 3, max speed 10, cart mass 10, distance 100
		It("reaches max speed, brakes at the target and completes once", func() {
			cart := c.Registry().Cart
			brakeX := math.NaN()
			var vxAtComplete float64

			Expect(c.Start()).To(Succeed())
			for i := 0; i < 90*60 && len(rec.completes) == 0; i++ {
				c.Frame(dt, p)
				if math.IsNaN(brakeX) && c.Session().Braking {
					brakeX = cart.Translation().X()
				}
				if len(rec.completes) > 0 {
					vxAtComplete = cart.LinearVelocity().X()
				}
			}

			Expect(rec.completes).To(HaveLen(1))
			Expect(math.Abs(vxAtComplete)).To(BeNumerically("<", scene.StopSpeed))
			Expect(brakeX).To(BeNumerically(">=", p.TargetDistance))
			Expect(brakeX).To(BeNumerically("<", p.TargetDistance+0.5))

			peak := 0.0
			for i, u := range rec.updates {
				peak = math.Max(peak, u.Speed)
				if i > 0 {
					Expect(u.Distance).To(BeNumerically(">=", rec.updates[i-1].Distance))
					Expect(u.Elapsed).To(BeNumerically(">", rec.updates[i-1].Elapsed))
				}
				Expect(u.Distance).To(BeNumerically(">=", 0))
				Expect(u.Speed).To(BeNumerically(">=", 0))
			}
			Expect(peak).To(BeNumerically("~", p.MaxSpeed, 0.5))

			box := c.Registry().Box
			Expect(c.Registry().Box.Translation().Y()).To(BeNumerically(">", cart.Translation().Y()),
				"box should still ride on the cart")
			Expect(math.Abs(box.Translation().X() - cart.Translation().X())).To(BeNumerically("<", 1))

			frames(c, p, 3)
			Expect(rec.completes).To(HaveLen(1))
		})

		It("completes once in legacy overlap mode too", func() {
			opts := scene.DefaultOptions()
			opts.LegacyOverlap = true
			opts.Hooks = rec.hooks()
			c = scene.New(p, opts)

			Expect(c.Start()).To(Succeed())
			frames(c, p, 40)
			Expect(rec.completes).To(HaveLen(1))
			Expect(rec.completes[0].Distance).To(BeNumerically(">=", p.TargetDistance))
		})
	})

	It("zeroes telemetry when idle again", func() {
		Expect(c.Start()).To(Succeed())
		frames(c, p, 2)
		Expect(c.Telemetry().Distance).To(BeNumerically(">", 0))

		Expect(c.Reset()).To(Succeed())
		frames(c, p, 1)
		Expect(c.Phase()).To(Equal(scene.PhaseIdle))
		Expect(c.Telemetry()).To(Equal(scene.Telemetry{}))
		Expect(c.Session()).To(BeNil())
	})

	Describe("reset", func() {
		It("freezes the scene within a frame and re-homes it after settling", func() {
			layout := c.Layout()
			cart, box := c.Registry().Cart, c.Registry().Box

			Expect(c.Start()).To(Succeed())
			frames(c, p, 3)
			Expect(cart.LinearVelocity().X()).To(BeNumerically(">", 1))

			Expect(c.Reset()).To(Succeed())
			Expect(c.PhysicsEnabled()).To(BeFalse())
			pos, vel := cart.Translation(), cart.LinearVelocity()
			updates := len(rec.updates)

			c.Frame(dt, p)
			Expect(cart.Translation()).To(Equal(pos))
			Expect(cart.LinearVelocity()).To(Equal(vel))
			Expect(rec.updates).To(HaveLen(updates))

			for i := 0; i < 60 && !c.Locked(); i++ {
				c.Frame(dt, p)
			}
			Expect(c.Locked()).To(BeTrue())
			Expect(c.Phase()).To(Equal(scene.PhaseSettling))
			Expect(cart.Translation()).To(Equal(layout.CartStart()))
			Expect(box.Translation()).To(Equal(layout.BoxOn(cart.Translation())))
			Expect(cart.LinearVelocity()).To(Equal(mgl64.Vec3{}))
			Expect(box.LinearVelocity()).To(Equal(mgl64.Vec3{}))
			Expect(cart.AngularVelocity()).To(Equal(mgl64.Vec3{}))
			Expect(cart.Rotation()).To(Equal(mgl64.QuatIdent()))
			Expect(c.Camera()).To(Equal(scene.DefaultCamera(layout.CartStart())))

			frames(c, p, 1)
			Expect(c.Phase()).To(Equal(scene.PhaseIdle))
			Expect(c.PhysicsEnabled()).To(BeTrue())
			Expect(near(cart.Translation(), layout.CartStart(), 0.01)).To(BeTrue())
			Expect(near(box.Translation(), layout.BoxOn(layout.CartStart()), 0.01)).To(BeTrue())
			Expect(cart.LinearVelocity().Len()).To(BeNumerically("<", 0.05))
			Expect(box.LinearVelocity().Len()).To(BeNumerically("<", 0.05))
		})

		It("restarts the sequence when requested again", func() {
			Expect(c.Start()).To(Succeed())
			frames(c, p, 1)
			Expect(c.Reset()).To(Succeed())
			frames(c, p, 0.05)
			Expect(c.Reset()).To(Succeed())

			frames(c, p, 0.08)
			Expect(c.Locked()).To(BeFalse(), "first snap should have been cancelled")
			frames(c, p, 0.05)
			Expect(c.Locked()).To(BeTrue())

			frames(c, p, 1)
			idle := 0
			for _, ph := range rec.phases {
				if ph[1] == scene.PhaseIdle {
					idle++
				}
			}
			Expect(idle).To(Equal(1))
		})

		It("still reports a pending completion once after stop", func() {
			p.TargetDistance = 3
			Expect(c.Start()).To(Succeed())
			for i := 0; i < 20*60 && !c.Session().Completed; i++ {
				c.Frame(dt, p)
			}
			Expect(c.Session().Completed).To(BeTrue())
			Expect(rec.completes).To(BeEmpty())

			Expect(c.Stop()).To(Succeed())
			frames(c, p, 2)
			Expect(c.Phase()).To(Equal(scene.PhasePaused))
			Expect(rec.completes).To(HaveLen(1))

			frames(c, p, 2)
			Expect(rec.completes).To(HaveLen(1))
		})

		It("drops a pending completion", func() {
			p.TargetDistance = 3
			Expect(c.Start()).To(Succeed())
			for i := 0; i < 20*60 && !c.Session().Completed; i++ {
				c.Frame(dt, p)
			}
			Expect(c.Session().Completed).To(BeTrue())

			Expect(c.Reset()).To(Succeed())
			frames(c, p, 2)
			Expect(rec.completes).To(BeEmpty())
		})
	})

	Describe("camera", func() {
		It("follows the cart horizontally and snaps home on stop", func() {
			home := c.Camera()
			Expect(c.Start()).To(Succeed())
			frames(c, p, 4)

			cam := c.Camera()
			cart := c.Registry().Cart.Translation()
			Expect(cam.Position.X()).To(BeNumerically(">", home.Position.X()+5))
			Expect(cam.Position.Y()).To(Equal(home.Position.Y()))
			Expect(cam.Position.Z()).To(Equal(home.Position.Z()))
			Expect(near(cam.Target, cart, 0.5)).To(BeTrue())

			Expect(c.Stop()).To(Succeed())
			Expect(c.Camera()).To(Equal(home))
		})

		It("moves a tenth of the remaining gap per frame", func() {
			start := scene.Camera{Position: mgl64.Vec3{0, 4, 10}}
			f := scene.NewCameraFollow(start, mgl64.Vec3{0, 0.7, 0}, 0.1)

			cam := f.Update(start, mgl64.Vec3{10, 0.7, 0})
			Expect(cam.Position).To(Equal(mgl64.Vec3{1, 4, 10}))
			Expect(cam.Target).To(Equal(mgl64.Vec3{10, 0.7, 0}))

			cam = f.Update(cam, mgl64.Vec3{10, 3, 2})
			Expect(cam.Position.X()).To(BeNumerically("~", 1.9, 1e-12))
			Expect(cam.Position.Y()).To(Equal(4.0))
			Expect(cam.Position.Z()).To(Equal(10.0))
		})
	})

	Describe("selection", func() {
		It("describes the selected body and reports nil for none", func() {
			c.Select(scene.SelectCart)
			c.Select(scene.SelectBox)
			c.Select(scene.SelectNone)

			Expect(rec.selected).To(HaveLen(3))
			Expect(rec.selected[0].Name).To(Equal("cart"))
			Expect(rec.selected[0].Mass).To(Equal(p.CartMass))
			Expect(rec.selected[0].Dimensions).To(Equal(mgl64.Vec3{2, 0.5, 1}))
			Expect(rec.selected[1].Name).To(Equal("box"))
			Expect(rec.selected[1].Friction).To(Equal(p.CartBoxFriction))
			Expect(rec.selected[2]).To(BeNil())
		})

		It("picks the body under a ray", func() {
			layout := c.Layout()
			from := mgl64.Vec3{0, 5, 10}
			toBox := layout.BoxOn(layout.CartStart()).Sub(from).Normalize()
			toCart := layout.CartStart().Add(mgl64.Vec3{0.9, 0, 0}).Sub(from).Normalize()

			Expect(c.Registry().Pick(from, toBox)).To(Equal(scene.SelectBox))
			Expect(c.Registry().Pick(from, toCart)).To(Equal(scene.SelectCart))
			Expect(c.Registry().Pick(from, mgl64.Vec3{0, 1, 0})).To(Equal(scene.SelectNone))
		})

		DescribeTable("parses names",
			func(in string, want scene.Selection, ok bool) {
				got, err := scene.ParseSelection(in)
				if ok {
					Expect(err).NotTo(HaveOccurred())
					Expect(got).To(Equal(want))
				} else {
					Expect(err).To(HaveOccurred())
				}
			},
			Entry("cart", "cart", scene.SelectCart, true),
			Entry("box", "box", scene.SelectBox, true),
			Entry("none", "none", scene.SelectNone, true),
			Entry("empty", "", scene.SelectNone, true),
			Entry("floor", "floor", scene.SelectNone, false),
		)
	})

	Describe("missing bodies", func() {
		It("turns frames into no-ops", func() {
			reg := &scene.Registry{World: physics.NewWorld(physics.DefaultGravity)}
			opts := scene.DefaultOptions()
			opts.Hooks = rec.hooks()
			c = scene.NewWithRegistry(reg, p, opts)

			Expect(c.Start()).To(Succeed())
			Expect(func() { frames(c, p, 1) }).NotTo(Panic())
			Expect(rec.updates).To(BeEmpty())

			c.Select(scene.SelectCart)
			Expect(rec.selected).To(Equal([]*scene.ObjectInfo{nil}))

			Expect(c.Reset()).To(Succeed())
			Expect(func() { frames(c, p, 1) }).NotTo(Panic())
			Expect(c.Phase()).To(Equal(scene.PhaseIdle))
		})
	})
})
