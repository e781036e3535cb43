package stream

import (
	"github.com/san-kum/cartbox/internal/scene"
	"github.com/san-kum/cartbox/internal/sim"
)

const (
	TypeFrame    = "frame"
	TypeComplete = "complete"
	TypeSelect   = "select"
	TypePhase    = "phase"
	TypeError    = "error"
)

// Message is sent from the server to every client.
type Message struct {
	Type      string            `json:"type"`
	Time      float64           `json:"t"`
	Session   string            `json:"session,omitempty"`
	Phase     string            `json:"phase,omitempty"`
	From      string            `json:"from,omitempty"`
	Sample    *sim.Sample       `json:"sample,omitempty"`
	Telemetry *scene.Telemetry  `json:"telemetry,omitempty"`
	Object    *scene.ObjectInfo `json:"object,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// ClientCommand is sent by a client. Command is one of start, stop, reset,
// select or params.
type ClientCommand struct {
	Command string        `json:"command"`
	Target  string        `json:"target,omitempty"`
	Params  *scene.Params `json:"params,omitempty"`
}
