// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package transport

// EventKind is an input to the transport controller.
type EventKind string

const (
	EvGestureBegin  EventKind = "gesture_begin"
	EvGestureMove   EventKind = "gesture_move"
	EvGestureEnd    EventKind = "gesture_end"
	EvGestureCancel EventKind = "gesture_cancel"
	EvPlay          EventKind = "play"
	EvPause         EventKind = "pause"
	EvPreviousFrame EventKind = "previous_frame"
	EvNextFrame     EventKind = "next_frame"
	EvReset         EventKind = "reset"
	EvReachedEnd    EventKind = "reached_end" // clock hit duration while playing
)

// Events lists every event kind.
var Events = []EventKind{
	EvGestureBegin,
	EvGestureMove,
	EvGestureEnd,
	EvGestureCancel,
	EvPlay,
	EvPause,
	EvPreviousFrame,
	EvNextFrame,
	EvReset,
	EvReachedEnd,
}

func (e EventKind) String() string { return string(e) }
