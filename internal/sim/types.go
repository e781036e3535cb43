package sim

import (
	"fmt"
	"math"
)

// Sample is the scene state after one frame.
type Sample struct {
	Time      float64 `json:"t"`
	Phase     string  `json:"phase"`
	CartX     float64 `json:"cart_x"`
	CartY     float64 `json:"cart_y"`
	CartVX    float64 `json:"cart_vx"`
	BoxX      float64 `json:"box_x"`
	BoxY      float64 `json:"box_y"`
	BoxVX     float64 `json:"box_vx"`
	BoxTilt   float64 `json:"box_tilt"`
	Distance  float64 `json:"distance"`
	Speed     float64 `json:"speed"`
	Braking   bool    `json:"braking"`
	Completed bool    `json:"completed"`
}

func (s Sample) IsValid() bool {
	for _, v := range []float64{s.CartX, s.CartY, s.CartVX, s.BoxX, s.BoxY, s.BoxVX, s.BoxTilt} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

type Observer interface {
	OnFrame(s Sample)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Sample)

func (f ObserverFunc) OnFrame(s Sample) { f(s) }

// Command is issued to the controller once the run clock reaches At.
type Command struct {
	At     float64 `yaml:"at" json:"at"`
	Action string  `yaml:"action" json:"action"`
	Target string  `yaml:"target,omitempty" json:"target,omitempty"`
}

type Config struct {
	Dt       float64
	Duration float64
	// Commands default to a single start at t=0.
	Commands       []Command
	StopOnComplete bool
	ValidateState  bool
	// SampleEvery keeps every n-th frame in Result.Samples. Zero keeps all.
	SampleEvery int
}

type Result struct {
	Samples     []Sample
	Metrics     map[string]float64
	Completed   bool
	CompletedAt float64
	StepsTaken  int
	Errors      []error
}

// Final returns the last recorded sample.
func (r *Result) Final() Sample {
	if len(r.Samples) == 0 {
		return Sample{}
	}
	return r.Samples[len(r.Samples)-1]
}

type SimError struct {
	Time    float64
	Step    int
	Message string
}

func (e SimError) Error() string {
	return fmt.Sprintf("t=%.3f step=%d: %s", e.Time, e.Step, e.Message)
}
