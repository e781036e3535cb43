package automation

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"slices"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/cartbox/internal/config"
	"github.com/san-kum/cartbox/internal/metrics"
	"github.com/san-kum/cartbox/internal/scene"
	"github.com/san-kum/cartbox/internal/sim"
	"github.com/san-kum/cartbox/internal/storage"
)

var (
	ErrUnknownParam  = errors.New("automation: unknown parameter")
	ErrUnknownPreset = errors.New("automation: unknown preset")
)

// Script is a sequence of scripted runs.
type Script struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Steps       []ScriptStep `yaml:"steps"`
}

// ScriptStep is one run: a preset, parameter overrides and timed commands.
type ScriptStep struct {
	Preset         string             `yaml:"preset"`
	Params         map[string]float64 `yaml:"params"`
	Duration       float64            `yaml:"duration"`
	Dt             float64            `yaml:"dt"`
	Commands       []sim.Command      `yaml:"commands"`
	StopOnComplete bool               `yaml:"stop_on_complete"`
	SaveAs         string             `yaml:"save_as"`
}

// StepResult pairs a step with its run.
type StepResult struct {
	Step   int
	Label  string
	RunID  string
	Params scene.Params
	Result *sim.Result
}

func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var script Script
	if err := yaml.Unmarshal(data, &script); err != nil {
		return nil, fmt.Errorf("parse script %s: %w", path, err)
	}
	return &script, nil
}

// Runner executes scripts, sweeps and Monte Carlo trials on top of a base
// config. Store is optional; when set, script steps are saved.
type Runner struct {
	Base  *config.Config
	Store *storage.Store
	Log   *zap.Logger
}

func NewRunner(base *config.Config, store *storage.Store, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{Base: base, Store: store, Log: log}
}

func (r *Runner) simConfig(dt, duration float64) sim.Config {
	cfg := sim.Config{Dt: r.Base.Frame.Dt, Duration: r.Base.Frame.Duration, ValidateState: true}
	if dt > 0 {
		cfg.Dt = dt
	}
	if duration > 0 {
		cfg.Duration = duration
	}
	return cfg
}

func (r *Runner) cartHalfLength() float64 {
	return r.Base.SceneOptions(nil).Dimensions.CartHalf.X()
}

// RunScript executes every step in order.
func (r *Runner) RunScript(ctx context.Context, script *Script) ([]StepResult, error) {
	results := make([]StepResult, 0, len(script.Steps))

	for i, step := range script.Steps {
		p := r.Base.Params
		label := step.SaveAs
		duration := step.Duration
		if step.Preset != "" {
			preset, ok := config.Presets[step.Preset]
			if !ok {
				return results, fmt.Errorf("step %d: %w: %s", i+1, ErrUnknownPreset, step.Preset)
			}
			p = preset.Params
			if duration <= 0 {
				duration = preset.Duration
			}
			if label == "" {
				label = step.Preset
			}
		}
		for name, v := range step.Params {
			if err := SetParam(&p, name, v); err != nil {
				return results, fmt.Errorf("step %d: %w", i+1, err)
			}
		}

		cfg := r.simConfig(step.Dt, duration)
		cfg.Commands = step.Commands
		cfg.StopOnComplete = step.StopOnComplete

		r.Log.Info("script step",
			zap.Int("step", i+1),
			zap.Int("of", len(script.Steps)),
			zap.String("label", label),
		)

		s := sim.New(r.Base.SceneOptions(r.Log))
		for _, m := range metrics.Standard(r.cartHalfLength()) {
			s.AddMetric(m)
		}
		res, err := s.Run(ctx, p, cfg)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		sr := StepResult{Step: i + 1, Label: label, Params: p, Result: res}
		if r.Store != nil {
			id, err := r.Store.Save(label, p, cfg, res)
			if err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
			sr.RunID = id
		}
		results = append(results, sr)
	}

	return results, nil
}

// Sweep varies one parameter linearly between Min and Max.
type Sweep struct {
	Param    string
	Min      float64
	Max      float64
	Steps    int
	Duration float64
	Dt       float64
	Workers  int
}

type SweepResult struct {
	Value       float64
	Completed   bool
	CompletedAt float64
	Metrics     map[string]float64
}

// RunSweep runs the sweep concurrently, one controller per value, and returns
// results in ascending parameter order.
func (r *Runner) RunSweep(ctx context.Context, sw Sweep) ([]SweepResult, error) {
	if sw.Steps < 1 {
		return nil, fmt.Errorf("sweep needs at least one step, got %d", sw.Steps)
	}

	values := make([]float64, sw.Steps)
	params := make([]scene.Params, sw.Steps)
	for i := range values {
		values[i] = sw.Min
		if sw.Steps > 1 {
			values[i] += float64(i) * (sw.Max - sw.Min) / float64(sw.Steps-1)
		}
		params[i] = r.Base.Params
		if err := SetParam(&params[i], sw.Param, values[i]); err != nil {
			return nil, err
		}
	}

	cfg := r.simConfig(sw.Dt, sw.Duration)
	cfg.StopOnComplete = true
	cfg.SampleEvery = 10

	half := r.cartHalfLength()
	ens := sim.NewEnsemble(r.Base.SceneOptions(nil), func() []sim.Metric { return metrics.Standard(half) }, sw.Workers)
	runs, err := ens.Run(ctx, params, cfg)
	if err != nil {
		return nil, err
	}

	results := make([]SweepResult, len(runs))
	for i, res := range runs {
		results[i] = SweepResult{
			Value:       values[i],
			Completed:   res.Completed,
			CompletedAt: res.CompletedAt,
			Metrics:     res.Metrics,
		}
	}
	r.Log.Info("sweep finished", zap.String("param", sw.Param), zap.Int("runs", len(results)))
	return results, nil
}

// MonteCarlo perturbs every parameter by a relative amount drawn uniformly
// from [-Perturbation, Perturbation].
type MonteCarlo struct {
	Perturbation float64
	Trials       int
	Duration     float64
	Dt           float64
	Seed         int64
	Workers      int
}

type MonteCarloResult struct {
	Trial   int
	Params  scene.Params
	Held    bool // the box stayed on the cart
	Metrics map[string]float64
}

func (r *Runner) RunMonteCarlo(ctx context.Context, mc MonteCarlo) ([]MonteCarloResult, error) {
	seed := mc.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	params := make([]scene.Params, mc.Trials)
	for i := range params {
		p := r.Base.Params
		for _, name := range ParamNames() {
			ref, _ := paramRef(&p, name)
			*ref *= 1 + (rng.Float64()-0.5)*2*mc.Perturbation
		}
		params[i] = p
	}

	cfg := r.simConfig(mc.Dt, mc.Duration)
	cfg.StopOnComplete = true
	cfg.SampleEvery = 10

	half := r.cartHalfLength()
	ens := sim.NewEnsemble(r.Base.SceneOptions(nil), func() []sim.Metric { return metrics.Standard(half) }, mc.Workers)
	runs, err := ens.Run(ctx, params, cfg)
	if err != nil {
		return nil, err
	}

	results := make([]MonteCarloResult, len(runs))
	for i, res := range runs {
		results[i] = MonteCarloResult{
			Trial:   i,
			Params:  params[i],
			Held:    res.Metrics["box_lost"] == 0,
			Metrics: res.Metrics,
		}
	}
	return results, nil
}

// MonteCarloStats counts trials where the box stayed on the cart.
func MonteCarloStats(results []MonteCarloResult) (held int, lost int) {
	for _, r := range results {
		if r.Held {
			held++
		} else {
			lost++
		}
	}
	return
}

var paramFields = map[string]func(*scene.Params) *float64{
	"floor_friction":    func(p *scene.Params) *float64 { return &p.FloorFriction },
	"cart_box_friction": func(p *scene.Params) *float64 { return &p.CartBoxFriction },
	"cart_mass":         func(p *scene.Params) *float64 { return &p.CartMass },
	"box_mass":          func(p *scene.Params) *float64 { return &p.BoxMass },
	"max_speed":         func(p *scene.Params) *float64 { return &p.MaxSpeed },
	"acceleration":      func(p *scene.Params) *float64 { return &p.Acceleration },
	"deceleration":      func(p *scene.Params) *float64 { return &p.Deceleration },
	"target_distance":   func(p *scene.Params) *float64 { return &p.TargetDistance },
}

func paramRef(p *scene.Params, name string) (*float64, error) {
	field, ok := paramFields[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownParam, name)
	}
	return field(p), nil
}

// SetParam sets a parameter by its config key, e.g. "floor_friction".
func SetParam(p *scene.Params, name string, v float64) error {
	ref, err := paramRef(p, name)
	if err != nil {
		return err
	}
	*ref = v
	return nil
}

// ParamNames returns the parameter keys in sorted order.
func ParamNames() []string {
	names := make([]string, 0, len(paramFields))
	for name := range paramFields {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
