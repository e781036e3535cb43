package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/cartbox/internal/geometry"
	"github.com/san-kum/cartbox/internal/scene"
)

const (
	DefaultDt        = 1.0 / 60
	DefaultFPS       = 60
	DefaultDuration  = 60.0
	DefaultSmoothing = 0.1
	DefaultDataDir   = ".cartbox"
	DefaultTheme     = "default"

	// EnvPrefix is prepended to every environment override.
	EnvPrefix = "CARTBOX_"
)

var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Params     scene.Params     `yaml:"params"`
	Frame      FrameConfig      `yaml:"frame"`
	Timing     scene.Timing     `yaml:"timing"`
	Stabilizer scene.Stabilizer `yaml:"stabilizer"`
	Camera     CameraConfig     `yaml:"camera"`
	Braking    BrakingConfig    `yaml:"braking"`
	Log        LogConfig        `yaml:"log"`
	DataDir    string           `yaml:"data_dir" env:"DATA_DIR"`
	Theme      string           `yaml:"theme" env:"THEME"`
}

type FrameConfig struct {
	Dt       float64 `yaml:"dt" env:"DT"`
	FPS      int     `yaml:"fps" env:"FPS"`
	Duration float64 `yaml:"duration" env:"DURATION"`
}

type CameraConfig struct {
	Smoothing float64 `yaml:"smoothing" env:"CAMERA_SMOOTHING"`
}

type BrakingConfig struct {
	LegacyOverlap bool `yaml:"legacy_overlap" env:"LEGACY_OVERLAP"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL"`
	File  string `yaml:"file" env:"LOG_FILE"`
}

func DefaultConfig() *Config {
	return &Config{
		Params: scene.DefaultParams(),
		Frame: FrameConfig{
			Dt:       DefaultDt,
			FPS:      DefaultFPS,
			Duration: DefaultDuration,
		},
		Timing:     scene.DefaultTiming(),
		Stabilizer: scene.DefaultStabilizer(),
		Camera:     CameraConfig{Smoothing: DefaultSmoothing},
		Log:        LogConfig{Level: "info"},
		DataDir:    DefaultDataDir,
		Theme:      DefaultTheme,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ApplyEnv overrides fields from CARTBOX_* environment variables. Unset
// variables leave the current values alone.
func (c *Config) ApplyEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("config: parse env: %w", err)
	}
	return nil
}

// Validate checks the ranges a UI would normally enforce.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...)))
		}
	}

	p := c.Params
	check(p.CartMass > 0, "cart_mass must be positive, got %g", p.CartMass)
	check(p.BoxMass > 0, "box_mass must be positive, got %g", p.BoxMass)
	check(p.FloorFriction >= 0, "floor_friction must not be negative, got %g", p.FloorFriction)
	check(p.CartBoxFriction >= 0, "cart_box_friction must not be negative, got %g", p.CartBoxFriction)
	check(p.MaxSpeed > 0, "max_speed must be positive, got %g", p.MaxSpeed)
	check(p.Acceleration >= 0, "acceleration must not be negative, got %g", p.Acceleration)
	check(p.Deceleration >= 0, "deceleration must not be negative, got %g", p.Deceleration)
	check(p.TargetDistance > 0, "target_distance must be positive, got %g", p.TargetDistance)

	check(c.Frame.Dt > 0, "frame.dt must be positive, got %g", c.Frame.Dt)
	check(c.Frame.FPS > 0, "frame.fps must be positive, got %d", c.Frame.FPS)
	check(c.Frame.Duration > 0, "frame.duration must be positive, got %g", c.Frame.Duration)

	t := c.Timing
	check(t.ResetDisable >= 0 && t.ResetSettle >= 0 && t.LockWindow >= 0 && t.CompletionGrace >= 0,
		"timing delays must not be negative")

	check(c.Camera.Smoothing > 0 && c.Camera.Smoothing <= 1,
		"camera.smoothing must be in (0, 1], got %g", c.Camera.Smoothing)
	check(c.Stabilizer.VerticalDamping >= 0 && c.Stabilizer.VerticalDamping <= 1,
		"stabilizer.vertical_damping must be in [0, 1], got %g", c.Stabilizer.VerticalDamping)
	check(c.Stabilizer.Margin >= 0, "stabilizer.margin must not be negative, got %g", c.Stabilizer.Margin)

	return errors.Join(errs...)
}

// SceneOptions maps the config onto controller options.
func (c *Config) SceneOptions(log *zap.Logger) scene.Options {
	return scene.Options{
		Dimensions:      geometry.DefaultDimensions(),
		Timing:          c.Timing,
		Stabilizer:      c.Stabilizer,
		CameraSmoothing: c.Camera.Smoothing,
		LegacyOverlap:   c.Braking.LegacyOverlap,
		Logger:          log,
	}
}

// Steps is the number of fixed frames in Frame.Duration.
func (c *Config) Steps() int {
	if c.Frame.Dt <= 0 {
		return 0
	}
	return int(c.Frame.Duration/c.Frame.Dt + 0.5)
}
