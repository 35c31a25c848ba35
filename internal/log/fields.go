// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldSessionID = "session_id"
	FieldRequestID = "request_id"
	FieldVideoID   = "video_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// Compare engine fields
	FieldSlot       = "slot"
	FieldActiveSlot = "active_slot"
	FieldCommand    = "command"
	FieldOp         = "op"
	FieldTime       = "time_s"
	FieldDuration   = "duration_s"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"
	FieldReason   = "reason"

	// Path / URL fields
	FieldPath = "path"
)
