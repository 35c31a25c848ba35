// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package player

import (
	"github.com/ManuGH/swinglab/internal/domain/compare/engine"
	"github.com/ManuGH/swinglab/internal/domain/compare/model"
)

// Message types on the bridge.
const (
	MsgCommand        = "command"
	MsgState          = "state"
	MsgError          = "error"
	MsgDurationLoaded = "durationLoaded"
	MsgPosition       = "position"
	MsgFinished       = "finished"
	MsgGesture        = "gesture"
)

// Outbound is a server to client message.
type Outbound struct {
	Type     string          `json:"type"`
	Slot     model.Slot      `json:"slot,omitempty"`
	Op       engine.Op       `json:"op,omitempty"`
	Time     *float64        `json:"time,omitempty"`
	Snapshot *model.Snapshot `json:"snapshot,omitempty"`
	View     *engine.View    `json:"view,omitempty"`
	Outcome  *engine.Outcome `json:"outcome,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// Inbound is a client to server message.
type Inbound struct {
	Type    string               `json:"type"`
	Slot    model.Slot           `json:"slot,omitempty"`
	Seconds float64              `json:"seconds,omitempty"`
	Message string               `json:"message,omitempty"`
	Gesture *engine.GestureEvent `json:"gesture,omitempty"`
}
