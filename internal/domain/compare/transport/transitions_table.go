// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package transport

// Transition is a single allowed edge in the transport state machine.
type Transition struct {
	From  State
	Event EventKind
	To    State
}

var transitionsTable = []Transition{
	// Scrub path
	{From: StateIdle, Event: EvGestureBegin, To: StateDragging},
	{From: StatePlaying, Event: EvGestureBegin, To: StateDragging}, // drag always pauses
	{From: StateDragging, Event: EvGestureMove, To: StateDragging},
	{From: StateDragging, Event: EvGestureEnd, To: StateIdle},
	{From: StateDragging, Event: EvGestureCancel, To: StateIdle},

	// Play / pause
	{From: StateIdle, Event: EvPlay, To: StatePlaying},
	{From: StatePlaying, Event: EvPause, To: StateIdle},
	{From: StatePlaying, Event: EvReachedEnd, To: StateIdle},

	// Frame stepping keeps the play flag as is
	{From: StateIdle, Event: EvPreviousFrame, To: StateIdle},
	{From: StateIdle, Event: EvNextFrame, To: StateIdle},
	{From: StatePlaying, Event: EvPreviousFrame, To: StatePlaying},
	{From: StatePlaying, Event: EvNextFrame, To: StatePlaying},

	// Hard stop. A held gesture stays held.
	{From: StateIdle, Event: EvReset, To: StateIdle},
	{From: StatePlaying, Event: EvReset, To: StateIdle},
	{From: StateDragging, Event: EvReset, To: StateDragging},
}

// TransitionFor returns the allowed transition for a given state+event.
func TransitionFor(from State, ev EventKind) (Transition, bool) {
	for _, tr := range transitionsTable {
		if tr.From == from && tr.Event == ev {
			return tr, true
		}
	}
	return Transition{}, false
}
