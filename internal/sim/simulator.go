package sim

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/san-kum/cartbox/internal/scene"
)

var ErrUnknownCommand = errors.New("sim: unknown command")

// Simulator runs the scene headless at a fixed frame step.
type Simulator struct {
	opts      scene.Options
	log       *zap.Logger
	metrics   []Metric
	observers []Observer
}

func New(opts scene.Options) *Simulator {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Simulator{
		opts:      opts,
		log:       log,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Run(ctx context.Context, p scene.Params, cfg Config) (*Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	steps := int(cfg.Duration/cfg.Dt + 0.5)
	every := max(1, cfg.SampleEvery)
	result := &Result{
		Samples: make([]Sample, 0, steps/every+1),
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	t := 0.0
	opts := s.opts
	onComplete := opts.Hooks.OnSimulationComplete
	opts.Hooks.OnSimulationComplete = func(tel scene.Telemetry) {
		result.Completed = true
		result.CompletedAt = t
		if onComplete != nil {
			onComplete(tel)
		}
	}
	ctrl := scene.New(p, opts)

	commands := slices.Clone(cfg.Commands)
	if len(commands) == 0 {
		commands = []Command{{At: 0, Action: "start"}}
	}
	slices.SortStableFunc(commands, func(a, b Command) int {
		switch {
		case a.At < b.At:
			return -1
		case a.At > b.At:
			return 1
		}
		return 0
	})

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		for len(commands) > 0 && commands[0].At <= t+1e-9 {
			if err := Apply(ctrl, commands[0]); err != nil {
				result.Errors = append(result.Errors, SimError{Time: t, Step: i, Message: err.Error()})
			}
			commands = commands[1:]
		}

		ctrl.Frame(cfg.Dt, p)
		t += cfg.Dt
		result.StepsTaken++

		sample := Snapshot(t, ctrl)
		if cfg.ValidateState && !sample.IsValid() {
			result.Errors = append(result.Errors, SimError{Time: t, Step: i, Message: "invalid state (NaN/Inf)"})
			break
		}
		for _, m := range s.metrics {
			m.Observe(sample)
		}
		for _, obs := range s.observers {
			obs.OnFrame(sample)
		}
		if i%every == 0 || i == steps-1 {
			result.Samples = append(result.Samples, sample)
		}

		if cfg.StopOnComplete && result.Completed {
			if ctrl.Phase() == scene.PhaseRunning {
				_ = ctrl.Stop()
			}
			final := Snapshot(t, ctrl)
			if n := len(result.Samples); n > 0 && result.Samples[n-1].Time == t {
				result.Samples[n-1] = final
			} else {
				result.Samples = append(result.Samples, final)
			}
			break
		}
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	s.log.Debug("headless run finished",
		zap.Int("steps", result.StepsTaken),
		zap.Bool("completed", result.Completed),
		zap.Int("errors", len(result.Errors)),
	)
	return result, nil
}

// Apply issues one command to a controller.
func Apply(c *scene.Controller, cmd Command) error {
	switch cmd.Action {
	case "start":
		return c.Start()
	case "stop":
		return c.Stop()
	case "reset":
		return c.Reset()
	case "select":
		sel, err := scene.ParseSelection(cmd.Target)
		if err != nil {
			return err
		}
		c.Select(sel)
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Action)
	}
}

// Snapshot reads the controller's bodies into a Sample.
func Snapshot(t float64, c *scene.Controller) Sample {
	s := Sample{Time: t, Phase: c.Phase().String()}
	tel := c.Telemetry()
	s.Distance, s.Speed = tel.Distance, tel.Speed
	if sess := c.Session(); sess != nil {
		s.Braking, s.Completed = sess.Braking, sess.Completed
	}

	reg := c.Registry()
	if !reg.Ready() {
		return s
	}
	cart, box := reg.Cart.Translation(), reg.Box.Translation()
	s.CartX, s.CartY, s.CartVX = cart.X(), cart.Y(), reg.Cart.LinearVelocity().X()
	s.BoxX, s.BoxY, s.BoxVX = box.X(), box.Y(), reg.Box.LinearVelocity().X()
	s.BoxTilt = scene.Tilt(reg.Box.Rotation())
	return s
}

func validateConfig(cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}
	if cfg.SampleEvery < 0 {
		return fmt.Errorf("sample interval must not be negative, got %d", cfg.SampleEvery)
	}
	for _, c := range cfg.Commands {
		if c.At < 0 {
			return fmt.Errorf("command %s at negative time %f", c.Action, c.At)
		}
	}
	return nil
}
