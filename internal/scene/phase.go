package scene

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned for a command the current phase does not
// accept.
var ErrInvalidTransition = errors.New("scene: invalid phase transition")

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRunning
	PhasePaused
	PhaseSettling
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRunning:
		return "running"
	case PhasePaused:
		return "paused"
	case PhaseSettling:
		return "settling"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Command drives the phase machine. Settling to Idle is automatic and has no
// command.
type Command string

const (
	CommandStart Command = "start"
	CommandStop  Command = "stop"
	CommandReset Command = "reset"
)

var transitions = map[Phase]map[Command]Phase{
	PhaseIdle: {
		CommandStart: PhaseRunning,
		CommandReset: PhaseSettling,
	},
	PhaseRunning: {
		CommandStop:  PhasePaused,
		CommandReset: PhaseSettling,
	},
	PhasePaused: {
		CommandReset: PhaseSettling,
	},
	PhaseSettling: {
		CommandReset: PhaseSettling,
	},
}

// Next returns the phase cmd leads to from p.
func Next(p Phase, cmd Command) (Phase, error) {
	to, ok := transitions[p][cmd]
	if !ok {
		return p, fmt.Errorf("%w: %s while %s", ErrInvalidTransition, cmd, p)
	}
	return to, nil
}
