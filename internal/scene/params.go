package scene

import (
	"time"
)

// Params are the run parameters. They are passed to every frame and may
// change between frames.
type Params struct {
	FloorFriction   float64 `yaml:"floor_friction" json:"floor_friction" env:"FLOOR_FRICTION"`
	CartBoxFriction float64 `yaml:"cart_box_friction" json:"cart_box_friction" env:"CART_BOX_FRICTION"`
	CartMass        float64 `yaml:"cart_mass" json:"cart_mass" env:"CART_MASS"`
	BoxMass         float64 `yaml:"box_mass" json:"box_mass" env:"BOX_MASS"`
	MaxSpeed        float64 `yaml:"max_speed" json:"max_speed" env:"MAX_SPEED"`
	Acceleration    float64 `yaml:"acceleration" json:"acceleration" env:"ACCELERATION"`
	Deceleration    float64 `yaml:"deceleration" json:"deceleration" env:"DECELERATION"`
	TargetDistance  float64 `yaml:"target_distance" json:"target_distance" env:"TARGET_DISTANCE"`
}

func DefaultParams() Params {
	return Params{
		FloorFriction:   0.05,
		CartBoxFriction: 0.8,
		CartMass:        10,
		BoxMass:         2,
		MaxSpeed:        10,
		Acceleration:    5,
		Deceleration:    3,
		TargetDistance:  100,
	}
}

// Timing holds the delays of the reset sequence and of the completion signal.
type Timing struct {
	ResetDisable    time.Duration `yaml:"reset_disable" env:"RESET_DISABLE"`
	ResetSettle     time.Duration `yaml:"reset_settle" env:"RESET_SETTLE"`
	LockWindow      time.Duration `yaml:"lock_window" env:"LOCK_WINDOW"`
	CompletionGrace time.Duration `yaml:"completion_grace" env:"COMPLETION_GRACE"`
}

func DefaultTiming() Timing {
	return Timing{
		ResetDisable:    100 * time.Millisecond,
		ResetSettle:     500 * time.Millisecond,
		LockWindow:      1500 * time.Millisecond,
		CompletionGrace: 500 * time.Millisecond,
	}
}
