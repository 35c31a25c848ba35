// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package transport defines the scrub/transport state machine: which
// gesture and transport events are legal in which state, and where they lead.
package transport

// State is the transport controller state.
type State string

const (
	StateIdle     State = "idle"
	StateDragging State = "dragging"
	StatePlaying  State = "playing"
)

// States lists every controller state.
var States = []State{StateIdle, StateDragging, StatePlaying}

// Derive computes the controller state from the store flags. Dragging wins
// over playing because a drag always pauses.
func Derive(dragging, playing bool) State {
	switch {
	case dragging:
		return StateDragging
	case playing:
		return StatePlaying
	default:
		return StateIdle
	}
}

func (s State) String() string { return string(s) }
