// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package engine

import "github.com/ManuGH/swinglab/internal/domain/compare/transport"

// Rejection reasons raised by engine guards (the transport tables supply the rest).
const (
	ReasonNoVideo         = "no_video"
	ReasonUnknownDuration = "unknown_duration"
	ReasonInvalidSlot     = "invalid_slot"
	ReasonNoTrack         = "no_track"
	ReasonInvalidDuration = "invalid_duration"
	ReasonStalePosition   = "stale_position"
	ReasonUnknownPhase    = "unknown_phase"
)

// Command names used in outcomes, logs and metrics.
const (
	CmdSetSlotVideo     = "set_slot_video"
	CmdSetActiveSlot    = "set_active_slot"
	CmdSwapActiveSlot   = "swap_active_slot"
	CmdToggleFlip       = "toggle_flip"
	CmdPlay             = "play"
	CmdPause            = "pause"
	CmdPreviousFrame    = "previous_frame"
	CmdNextFrame        = "next_frame"
	CmdReset            = "reset"
	CmdDurationLoaded   = "duration_loaded"
	CmdObservePosition  = "observe_position"
	CmdPlaybackFinished = "playback_finished"
	CmdAdvance          = "advance"
)

// Outcome reports what a command did. Rejected commands leave the store
// untouched; they are not errors.
type Outcome struct {
	Command string          `json:"command"`
	Applied bool            `json:"applied"`
	Reason  string          `json:"reason,omitempty"`
	From    transport.State `json:"from"`
	To      transport.State `json:"to"`
}
