// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var configReloadTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "swinglab_config_reload_total",
	Help: "Configuration reloads by result (ok, invalid)",
}, []string{"result"})

// RecordConfigReload counts a hot reload attempt.
func RecordConfigReload(err error) {
	result := "ok"
	if err != nil {
		result = "invalid"
	}
	configReloadTotal.WithLabelValues(result).Inc()
}
