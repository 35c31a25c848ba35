// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transportCommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swinglab_transport_commands_total",
		Help: "Compare engine commands by command, outcome and rejection reason",
	}, []string{"command", "outcome", "reason"})

	transportTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swinglab_transport_transitions_total",
		Help: "Transport state changes by source and destination state",
	}, []string{"from", "to"})

	primitiveInstructionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swinglab_primitive_instructions_total",
		Help: "Instructions issued to playback primitives by slot, op and result",
	}, []string{"slot", "op", "result"})

	seeksCoalescedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swinglab_seeks_coalesced_total",
		Help: "Seek instructions held back by the drag seek throttle",
	})

	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "swinglab_compare_sessions_active",
		Help: "Number of compare sessions held in memory",
	})

	snapshotPersistTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swinglab_snapshot_persist_total",
		Help: "Snapshot writes to the session store by backend and result",
	}, []string{"backend", "result"})
)

// RecordTransportCommand counts one engine command. Applied commands carry an empty reason.
func RecordTransportCommand(command string, applied bool, reason string) {
	outcome := "applied"
	if !applied {
		outcome = "rejected"
	}
	transportCommandsTotal.WithLabelValues(normalizeCommandLabel(command), outcome, normalizeReasonLabel(reason)).Inc()
}

// RecordTransportTransition counts a transport state change.
func RecordTransportTransition(from, to string) {
	if from == to {
		return
	}
	transportTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordPrimitiveInstruction counts an instruction sent to a playback primitive.
func RecordPrimitiveInstruction(slot, op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	primitiveInstructionsTotal.WithLabelValues(slot, op, result).Inc()
}

// RecordSeekCoalesced counts a seek withheld by the throttle.
func RecordSeekCoalesced() {
	seeksCoalescedTotal.Inc()
}

// SetActiveSessions publishes the in-memory session count.
func SetActiveSessions(n int) {
	activeSessions.Set(float64(n))
}

// RecordSnapshotPersist counts a snapshot write.
func RecordSnapshotPersist(backend string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	snapshotPersistTotal.WithLabelValues(backend, result).Inc()
}

func normalizeCommandLabel(command string) string {
	switch c := strings.ToLower(strings.TrimSpace(command)); c {
	case "set_slot_video", "set_active_slot", "swap_active_slot", "toggle_flip",
		"gesture_begin", "gesture_move", "gesture_end", "gesture_cancel",
		"play", "pause", "previous_frame", "next_frame", "reset",
		"duration_loaded", "observe_position", "playback_finished", "advance":
		return c
	default:
		return "unknown"
	}
}

func normalizeReasonLabel(reason string) string {
	switch r := strings.ToLower(strings.TrimSpace(reason)); r {
	case "":
		return "none"
	case "already_playing", "not_playing", "no_active_gesture", "gesture_already_active",
		"drag_in_progress", "no_video", "unknown_duration", "invalid_slot", "no_track",
		"invalid_duration", "stale_position", "unknown_phase":
		return r
	default:
		return "other"
	}
}
