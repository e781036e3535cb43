package config

import (
	"slices"

	"github.com/san-kum/cartbox/internal/scene"
)

type Preset struct {
	Description string
	Params      scene.Params
	Duration    float64
}

func withParams(mod func(*scene.Params)) scene.Params {
	p := scene.DefaultParams()
	mod(&p)
	return p
}

var Presets = map[string]Preset{
	"reference": {
		Description: "accelerate to 10 m/s, brake at 100 m",
		Params:      scene.DefaultParams(),
		Duration:    60,
	},
	"gentle": {
		Description: "slow push over a short distance",
		Params: withParams(func(p *scene.Params) {
			p.Acceleration, p.Deceleration, p.MaxSpeed, p.TargetDistance = 2, 1, 5, 50
		}),
		Duration: 60,
	},
	"sprint": {
		Description: "hard acceleration and braking",
		Params: withParams(func(p *scene.Params) {
			p.Acceleration, p.Deceleration, p.MaxSpeed, p.TargetDistance = 8, 6, 15, 150
		}),
		Duration: 60,
	},
	"slippery": {
		Description: "low cart/box friction, the box slides",
		Params: withParams(func(p *scene.Params) {
			p.CartBoxFriction, p.Acceleration, p.Deceleration = 0.1, 6, 6
		}),
		Duration: 60,
	},
	"icy": {
		Description: "almost frictionless floor",
		Params: withParams(func(p *scene.Params) {
			p.FloorFriction = 0.005
		}),
		Duration: 60,
	},
	"heavy-box": {
		Description: "box heavier than the cart",
		Params: withParams(func(p *scene.Params) {
			p.BoxMass = 20
		}),
		Duration: 90,
	},
	"coast": {
		Description: "no braking, the run ends at the target distance",
		Params: withParams(func(p *scene.Params) {
			p.Deceleration = 0
		}),
		Duration: 30,
	},
}

// GetPreset returns a default config carrying the named preset, or nil.
func GetPreset(name string) *Config {
	preset, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.Params = preset.Params
	cfg.Frame.Duration = preset.Duration
	return cfg
}

// ListPresets returns the preset names in order.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
