// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	bridgeClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "swinglab_bridge_clients",
		Help: "Playback clients attached over websocket",
	})

	bridgeMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swinglab_bridge_messages_total",
		Help: "Websocket bridge messages by direction and type",
	}, []string{"direction", "type"})

	bridgeDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swinglab_bridge_dropped_total",
		Help: "Outbound bridge messages dropped because no client was attached or the client was too slow",
	})
)

func IncBridgeClients() { bridgeClients.Inc() }
func DecBridgeClients() { bridgeClients.Dec() }

// RecordBridgeMessage counts a message; direction is "in" or "out".
func RecordBridgeMessage(direction, msgType string) {
	switch msgType {
	case "command", "state", "error",
		"durationLoaded", "position", "finished", "gesture", "hello":
	default:
		msgType = "unknown"
	}
	bridgeMessagesTotal.WithLabelValues(direction, msgType).Inc()
}

func RecordBridgeDropped() { bridgeDroppedTotal.Inc() }
