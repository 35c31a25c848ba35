// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/ManuGH/swinglab/internal/domain/compare/transport"
)

// GesturePhase is the phase of a scrub gesture.
type GesturePhase string

const (
	PhaseBegin  GesturePhase = "begin"
	PhaseMove   GesturePhase = "move"
	PhaseEnd    GesturePhase = "end"
	PhaseCancel GesturePhase = "cancel"
)

// ParseGesturePhase accepts the four phase names (case-insensitive).
func ParseGesturePhase(s string) (GesturePhase, error) {
	switch p := GesturePhase(strings.ToLower(strings.TrimSpace(s))); p {
	case PhaseBegin, PhaseMove, PhaseEnd, PhaseCancel:
		return p, nil
	default:
		return "", fmt.Errorf("unknown gesture phase %q", s)
	}
}

func (p GesturePhase) event() (transport.EventKind, bool) {
	switch p {
	case PhaseBegin:
		return transport.EvGestureBegin, true
	case PhaseMove:
		return transport.EvGestureMove, true
	case PhaseEnd:
		return transport.EvGestureEnd, true
	case PhaseCancel:
		return transport.EvGestureCancel, true
	default:
		return "", false
	}
}

// GestureEvent is one touch sample on the scrub track.
type GestureEvent struct {
	Phase    GesturePhase `json:"phase"`
	OffsetPx float64      `json:"offsetPx"` // horizontal offset along the track
	TrackPx  float64      `json:"trackPx"`  // track length in pixels
}

// ProgressFraction converts a touch offset into a scrub fraction clamped to
// [0,1]. A non-positive or non-finite track length yields ok=false.
func ProgressFraction(offsetPx, trackPx float64) (p float64, ok bool) {
	if trackPx <= 0 || math.IsNaN(trackPx) || math.IsInf(trackPx, 0) {
		return 0, false
	}
	return clamp(offsetPx/trackPx, 0, 1), true
}
