// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package transport

const (
	ForbiddenAlreadyPlaying = "already_playing"
	ForbiddenNotPlaying     = "not_playing"
	ForbiddenNoGesture      = "no_active_gesture"
	ForbiddenGestureActive  = "gesture_already_active"
	ForbiddenDragInProgress = "drag_in_progress"
)

// Decision records whether an event is accepted in a state and why not.
type Decision struct {
	Allowed bool
	Reason  string
}

func allowed() Decision        { return Decision{Allowed: true} }
func forbid(r string) Decision { return Decision{Allowed: false, Reason: r} }

// decisionTable defines an explicit decision for every State×Event combination.
var decisionTable = map[State]map[EventKind]Decision{
	StateIdle: {
		EvGestureBegin:  allowed(),
		EvGestureMove:   forbid(ForbiddenNoGesture),
		EvGestureEnd:    forbid(ForbiddenNoGesture),
		EvGestureCancel: forbid(ForbiddenNoGesture),
		EvPlay:          allowed(),
		EvPause:         forbid(ForbiddenNotPlaying),
		EvPreviousFrame: allowed(),
		EvNextFrame:     allowed(),
		EvReset:         allowed(),
		EvReachedEnd:    forbid(ForbiddenNotPlaying),
	},
	StateDragging: {
		EvGestureBegin:  forbid(ForbiddenGestureActive),
		EvGestureMove:   allowed(),
		EvGestureEnd:    allowed(),
		EvGestureCancel: allowed(),
		EvPlay:          forbid(ForbiddenDragInProgress),
		EvPause:         forbid(ForbiddenNotPlaying),
		EvPreviousFrame: forbid(ForbiddenDragInProgress),
		EvNextFrame:     forbid(ForbiddenDragInProgress),
		EvReset:         allowed(),
		EvReachedEnd:    forbid(ForbiddenNotPlaying),
	},
	StatePlaying: {
		EvGestureBegin:  allowed(),
		EvGestureMove:   forbid(ForbiddenNoGesture),
		EvGestureEnd:    forbid(ForbiddenNoGesture),
		EvGestureCancel: forbid(ForbiddenNoGesture),
		EvPlay:          forbid(ForbiddenAlreadyPlaying),
		EvPause:         allowed(),
		EvPreviousFrame: allowed(),
		EvNextFrame:     allowed(),
		EvReset:         allowed(),
		EvReachedEnd:    allowed(),
	},
}

// DecisionFor returns the explicit decision for state×event.
func DecisionFor(from State, ev EventKind) (Decision, bool) {
	m, ok := decisionTable[from]
	if !ok {
		return Decision{}, false
	}
	d, ok := m[ev]
	return d, ok
}
