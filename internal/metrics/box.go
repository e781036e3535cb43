package metrics

import (
	"math"

	"github.com/san-kum/cartbox/internal/sim"
)

// BoxSlip is the largest horizontal offset of the box from the cart centre.
type BoxSlip struct {
	name string
	max  float64
}

func NewBoxSlip() *BoxSlip {
	return &BoxSlip{name: "box_slip"}
}

func (m *BoxSlip) Name() string { return m.name }

func (m *BoxSlip) Observe(s sim.Sample) {
	m.max = math.Max(m.max, math.Abs(s.BoxX-s.CartX))
}

func (m *BoxSlip) Value() float64 { return m.max }

func (m *BoxSlip) Reset() { m.max = 0 }

// BoxLost is 1 once the box has left the cart: past its end or below its
// centre.
type BoxLost struct {
	name       string
	halfLength float64
	lost       bool
}

func NewBoxLost(cartHalfLength float64) *BoxLost {
	return &BoxLost{name: "box_lost", halfLength: cartHalfLength}
}

func (m *BoxLost) Name() string { return m.name }

func (m *BoxLost) Observe(s sim.Sample) {
	if math.Abs(s.BoxX-s.CartX) > m.halfLength || s.BoxY < s.CartY {
		m.lost = true
	}
}

func (m *BoxLost) Value() float64 {
	if m.lost {
		return 1
	}
	return 0
}

func (m *BoxLost) Reset() { m.lost = false }

type MaxTilt struct {
	name string
	max  float64
}

func NewMaxTilt() *MaxTilt {
	return &MaxTilt{name: "max_tilt"}
}

func (m *MaxTilt) Name() string { return m.name }

func (m *MaxTilt) Observe(s sim.Sample) {
	m.max = math.Max(m.max, s.BoxTilt)
}

func (m *MaxTilt) Value() float64 { return m.max }

func (m *MaxTilt) Reset() { m.max = 0 }
