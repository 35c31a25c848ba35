// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var catalogListTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "swinglab_catalog_list_total",
	Help: "Pro swing catalog listings by the source that served them",
}, []string{"source"})

// RecordCatalogList counts a catalog listing served from source (db, static, cache).
func RecordCatalogList(source string) {
	switch source {
	case "db", "static", "cache":
	default:
		source = "unknown"
	}
	catalogListTotal.WithLabelValues(source).Inc()
}
