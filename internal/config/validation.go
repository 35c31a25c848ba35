// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"strings"

	"github.com/ManuGH/swinglab/internal/domain/compare/store"
	"github.com/ManuGH/swinglab/internal/validate"
)

var (
	clockSources  = validate.NewEnum("playback.clock", ClockPrimitive, ClockServer)
	storeBackends = validate.NewEnum("store.backend",
		store.BackendMemory, store.BackendSqlite, store.BackendBadger, store.BackendFile)
	telemetryExporters = validate.NewEnum("telemetry.exporter", ExporterGRPC, ExporterHTTP)
)

// Validate validates an AppConfig using the centralized validation package
func Validate(cfg AppConfig) error {
	v := validate.New()

	v.ListenAddr("listenAddr", cfg.ListenAddr)
	v.Path("dataDir", cfg.DataDir)
	validate.Check(v, validate.LogLevels, cfg.LogLevel)

	v.PositiveDuration("playback.seekInterval", cfg.Playback.SeekInterval)
	if validate.Check(v, clockSources, cfg.Playback.Clock) == ClockServer {
		v.PositiveDuration("playback.tickInterval", cfg.Playback.TickInterval)
	}

	validate.Check(v, storeBackends, cfg.Store.Backend)

	v.NotEmpty("catalog.mediaBaseUrl", cfg.Catalog.MediaBaseURL)
	if strings.Contains(cfg.Catalog.MediaBaseURL, "://") {
		v.URL("catalog.mediaBaseUrl", cfg.Catalog.MediaBaseURL, []string{"http", "https"})
	}
	v.PositiveDuration("catalog.urlTTL", cfg.Catalog.URLTTL)
	v.PositiveDuration("catalog.cacheTTL", cfg.Catalog.CacheTTL)

	v.Range("redis.db", cfg.Redis.DB, 0, 15)

	if cfg.RateLimit.Requests > 0 {
		v.PositiveDuration("rateLimit.window", cfg.RateLimit.Window)
	} else {
		v.NonNegative("rateLimit.requests", cfg.RateLimit.Requests)
	}

	if cfg.Telemetry.Enabled {
		validate.Check(v, telemetryExporters, cfg.Telemetry.Exporter)
		v.NotEmpty("telemetry.endpoint", cfg.Telemetry.Endpoint)
		v.Fraction("telemetry.samplingRate", cfg.Telemetry.SamplingRate)
	}

	return v.Err()
}
