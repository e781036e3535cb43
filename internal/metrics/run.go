package metrics

import (
	"math"

	"github.com/san-kum/cartbox/internal/sim"
)

// Standard returns a fresh set of the run summaries every command reports.
func Standard(cartHalfLength float64) []sim.Metric {
	return []sim.Metric{
		NewPeakSpeed(),
		NewBrakingDistance(),
		NewCompletionTime(),
		NewBoxSlip(),
		NewBoxLost(cartHalfLength),
		NewMaxTilt(),
	}
}

type PeakSpeed struct {
	name string
	peak float64
}

func NewPeakSpeed() *PeakSpeed {
	return &PeakSpeed{name: "peak_speed"}
}

func (m *PeakSpeed) Name() string { return m.name }

func (m *PeakSpeed) Observe(s sim.Sample) {
	m.peak = math.Max(m.peak, s.Speed)
}

func (m *PeakSpeed) Value() float64 { return m.peak }

func (m *PeakSpeed) Reset() { m.peak = 0 }

// BrakingDistance is how far the cart travelled after braking started.
type BrakingDistance struct {
	name    string
	started bool
	startX  float64
	lastX   float64
}

func NewBrakingDistance() *BrakingDistance {
	return &BrakingDistance{name: "braking_distance"}
}

func (m *BrakingDistance) Name() string { return m.name }

func (m *BrakingDistance) Observe(s sim.Sample) {
	if !s.Braking {
		return
	}
	if !m.started {
		m.started = true
		m.startX = s.CartX
	}
	m.lastX = s.CartX
}

func (m *BrakingDistance) Value() float64 {
	if !m.started {
		return 0
	}
	return m.lastX - m.startX
}

func (m *BrakingDistance) Reset() {
	m.started = false
	m.startX, m.lastX = 0, 0
}

// CompletionTime is the time the run was first flagged complete, or -1.
type CompletionTime struct {
	name string
	at   float64
}

func NewCompletionTime() *CompletionTime {
	return &CompletionTime{name: "completion_time", at: -1}
}

func (m *CompletionTime) Name() string { return m.name }

func (m *CompletionTime) Observe(s sim.Sample) {
	if s.Completed && m.at < 0 {
		m.at = s.Time
	}
}

func (m *CompletionTime) Value() float64 { return m.at }

func (m *CompletionTime) Reset() { m.at = -1 }
