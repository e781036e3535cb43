// Package scene drives the cart-and-box demo: a cart is pushed along +x by
// an acceleration profile, brakes once it passes a target distance and
// carries a box the whole way.
//
// A Controller is single-threaded. Every piece of per-frame logic runs inside
// Frame, and delayed actions (the reset sequence, the completion signal) run
// on the same frame clock.
package scene

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/san-kum/cartbox/internal/geometry"
	"github.com/san-kum/cartbox/internal/physics"
	"github.com/san-kum/cartbox/internal/schedule"
)

// Hooks are called from inside Start, Stop, Reset, Select and Frame. Any of
// them may be nil.
type Hooks struct {
	OnObjectSelect       func(*ObjectInfo)
	OnSimulationComplete func(Telemetry)
	OnSimulationUpdate   func(Telemetry)
	OnPhaseChange        func(from, to Phase)
}

type Options struct {
	Dimensions      geometry.Dimensions
	Timing          Timing
	Stabilizer      Stabilizer
	CameraSmoothing float64
	// Camera is the resting camera. Zero means DefaultCamera.
	Camera        Camera
	LegacyOverlap bool
	Hooks         Hooks
	Logger        *zap.Logger
}

func DefaultOptions() Options {
	return Options{
		Dimensions:      geometry.DefaultDimensions(),
		Timing:          DefaultTiming(),
		Stabilizer:      DefaultStabilizer(),
		CameraSmoothing: 0.1,
	}
}

type Controller struct {
	opts   Options
	log    *zap.Logger
	layout geometry.Layout
	reg    *Registry
	clock  *schedule.Scheduler
	motion Motion

	phase     Phase
	session   *Session
	params    Params
	camera    Camera
	home      Camera
	selection Selection

	locked bool
	lockID schedule.ID
	resets []schedule.ID
}

// New builds the scene bodies and returns an idle controller.
func New(p Params, opts Options) *Controller {
	layout := geometry.Compute(opts.Dimensions)
	return NewWithRegistry(NewRegistry(layout, p), p, opts)
}

// NewWithRegistry wraps existing bodies. Missing handles turn every frame
// into a no-op.
func NewWithRegistry(reg *Registry, p Params, opts Options) *Controller {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	layout := geometry.Compute(opts.Dimensions)
	home := opts.Camera
	if home == (Camera{}) {
		home = DefaultCamera(layout.CartStart())
	}
	return &Controller{
		opts:   opts,
		log:    log,
		layout: layout,
		reg:    reg,
		clock:  schedule.New(),
		motion: Motion{LegacyOverlap: opts.LegacyOverlap},
		params: p,
		camera: home,
		home:   home,
	}
}

func (c *Controller) Phase() Phase            { return c.phase }
func (c *Controller) Registry() *Registry     { return c.reg }
func (c *Controller) Layout() geometry.Layout { return c.layout }
func (c *Controller) Camera() Camera          { return c.camera }
func (c *Controller) Params() Params          { return c.params }
func (c *Controller) Session() *Session       { return c.session }
func (c *Controller) Selection() Selection    { return c.selection }
func (c *Controller) Locked() bool            { return c.locked }
func (c *Controller) Now() time.Duration      { return c.clock.Now() }
func (c *Controller) SetHooks(h Hooks)        { c.opts.Hooks = h }

func (c *Controller) PhysicsEnabled() bool {
	return c.reg != nil && c.reg.World != nil && c.reg.World.Enabled()
}

// SelectedInfo describes the current selection with live body state.
func (c *Controller) SelectedInfo() *ObjectInfo {
	return Describe(c.selection, c.reg, c.layout, c.params)
}

// Telemetry of the current run, zero when idle.
func (c *Controller) Telemetry() Telemetry {
	if c.session == nil {
		return Telemetry{}
	}
	return c.session.Telemetry
}

// Start begins a run from Idle.
func (c *Controller) Start() error {
	to, err := Next(c.phase, CommandStart)
	if err != nil {
		return err
	}

	start := c.layout.CartStart()
	if c.reg.Ready() {
		start = c.reg.Cart.Translation()
	}
	c.session = newSession(start, NewCameraFollow(c.camera, start, c.opts.CameraSmoothing))
	if c.reg != nil && c.reg.World != nil {
		c.reg.World.SetEnabled(true)
	}

	c.log.Info("run started", zap.String("session", c.session.ID), zap.Any("params", c.params))
	c.setPhase(to)
	return nil
}

// Stop freezes a running cart and box in place. A completion that is already
// pending still reports once while Paused.
func (c *Controller) Stop() error {
	to, err := Next(c.phase, CommandStop)
	if err != nil {
		return err
	}

	if c.reg.Ready() {
		c.reg.Cart.SetBodyType(physics.BodyTypeKinematic)
		c.reg.Box.SetBodyType(physics.BodyTypeKinematic)
	}
	c.camera = c.home

	c.log.Info("run stopped", zap.String("session", c.session.ID), zap.Any("telemetry", c.session.Telemetry))
	c.setPhase(to)
	return nil
}

// Reset disables physics now, puts the bodies back at their initial
// transforms after Timing.ResetDisable and returns to Idle after a further
// Timing.ResetSettle. A reset during a pending reset starts over.
func (c *Controller) Reset() error {
	to, err := Next(c.phase, CommandReset)
	if err != nil {
		return err
	}

	c.cancelReset()
	if c.session != nil {
		c.clock.Cancel(c.session.completion)
	}
	if c.reg != nil && c.reg.World != nil {
		c.reg.World.SetEnabled(false)
	}
	c.camera = c.home

	c.log.Info("reset requested", zap.Stringer("from", c.phase))
	c.setPhase(to)

	c.resets = append(c.resets, c.clock.After(c.opts.Timing.ResetDisable, "reset-snap", c.snap))
	return nil
}

// Select reports the chosen body to OnObjectSelect, or nil for SelectNone.
func (c *Controller) Select(s Selection) {
	c.selection = s
	if h := c.opts.Hooks.OnObjectSelect; h != nil {
		h(c.SelectedInfo())
	}
}

// Frame advances the scene by dt seconds. Order within a frame: delayed
// actions, motion, stabilization, camera, telemetry, physics step.
func (c *Controller) Frame(dt float64, p Params) {
	if dt <= 0 {
		return
	}
	if p != c.params {
		c.reg.Apply(p)
		c.params = p
	}

	c.clock.Advance(schedule.Seconds(dt))

	if !c.reg.Ready() {
		return
	}
	cart, box := c.reg.Cart, c.reg.Box
	running := c.phase == PhaseRunning && c.session != nil

	if running {
		if c.motion.Step(cart, c.session, dt, p) {
			c.complete()
		}
	}

	switch {
	case c.locked:
		c.opts.Stabilizer.Lock(box, cart, c.layout)
	case running:
		c.opts.Stabilizer.Correct(box, cart, c.layout)
	}

	if running {
		c.camera = c.session.Follow.Update(c.camera, cart.Translation())
		t := c.session.record(dt, cart.Translation(), cart.LinearVelocity())
		if h := c.opts.Hooks.OnSimulationUpdate; h != nil {
			h(t)
		}
	}

	if c.reg.World != nil {
		c.reg.World.Step(dt)
	}
}

func (c *Controller) complete() {
	s := c.session
	c.log.Info("run finished",
		zap.String("session", s.ID),
		zap.Float64("x", c.reg.Cart.Translation().X()),
		zap.Float64("vx", c.reg.Cart.LinearVelocity().X()),
	)
	s.completion = c.clock.After(c.opts.Timing.CompletionGrace, "complete", func() {
		if c.session != s {
			return
		}
		c.log.Info("run complete", zap.String("session", s.ID), zap.Any("telemetry", s.Telemetry))
		if h := c.opts.Hooks.OnSimulationComplete; h != nil {
			h(s.Telemetry)
		}
	})
}

func (c *Controller) snap() {
	if c.reg.Ready() {
		cart, box := c.reg.Cart, c.reg.Box
		for _, b := range []*physics.Body{cart, box} {
			b.SetBodyType(physics.BodyTypeDynamic)
			b.SetLinearVelocity(mgl64.Vec3{})
			b.SetAngularVelocity(mgl64.Vec3{})
			b.SetRotation(mgl64.QuatIdent())
		}
		cart.SetTranslation(c.layout.CartStart())
		box.SetTranslation(c.layout.BoxOn(cart.Translation()))
	}
	c.camera = c.home

	c.locked = true
	c.lockID = c.clock.After(c.opts.Timing.LockWindow, "lock-window", func() { c.locked = false })
	c.resets = append(c.resets, c.clock.After(c.opts.Timing.ResetSettle, "reset-settle", c.settle))
	c.log.Debug("bodies re-homed")
}

func (c *Controller) settle() {
	if c.reg != nil && c.reg.World != nil {
		c.reg.World.SetEnabled(true)
	}
	c.resets = c.resets[:0]
	c.session = nil
	c.setPhase(PhaseIdle)
}

func (c *Controller) cancelReset() {
	for _, id := range c.resets {
		c.clock.Cancel(id)
	}
	c.resets = c.resets[:0]
	c.clock.Cancel(c.lockID)
	c.locked = false
}

func (c *Controller) setPhase(to Phase) {
	from := c.phase
	c.phase = to
	if from == to {
		return
	}
	c.log.Debug("phase change", zap.Stringer("from", from), zap.Stringer("to", to))
	if h := c.opts.Hooks.OnPhaseChange; h != nil {
		h(from, to)
	}
}
