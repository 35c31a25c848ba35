// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package config provides configuration management for swinglab.
//
// Precedence is ENV > YAML file > defaults. The YAML file is parsed strictly:
// unknown keys and multiple documents are rejected.
package config

import (
	"path/filepath"
	"time"
)

// Clock sources for the playback clock.
const (
	ClockPrimitive = "primitive"
	ClockServer    = "server"
)

// Telemetry exporters.
const (
	ExporterGRPC = "grpc"
	ExporterHTTP = "http"
)

// AppConfig is the effective application configuration.
type AppConfig struct {
	Version string `yaml:"-"`

	ListenAddr string `yaml:"listenAddr"`
	DataDir    string `yaml:"dataDir"`
	LogLevel   string `yaml:"logLevel"`
	LogService string `yaml:"logService"`

	Playback  PlaybackConfig  `yaml:"playback"`
	Store     StoreConfig     `yaml:"store"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Redis     RedisConfig     `yaml:"redis"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// PlaybackConfig tunes the compare engine.
type PlaybackConfig struct {
	// SeekInterval throttles seeks issued while dragging.
	SeekInterval time.Duration `yaml:"seekInterval"`
	// Clock selects who drives the clock during playback: the attached players
	// (primitive) or a server-side ticker (server).
	Clock        string        `yaml:"clock"`
	TickInterval time.Duration `yaml:"tickInterval"`
}

// StoreConfig selects the session snapshot backend.
type StoreConfig struct {
	Backend string `yaml:"backend"`
}

// CatalogConfig configures the pro-swing catalog.
type CatalogConfig struct {
	SigningKey   string        `yaml:"signingKey"`
	MediaBaseURL string        `yaml:"mediaBaseUrl"`
	URLTTL       time.Duration `yaml:"urlTTL"`
	CacheTTL     time.Duration `yaml:"cacheTTL"`
}

// RedisConfig enables the shared catalog cache when Addr is set.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// RateLimitConfig bounds API requests per client IP.
type RateLimitConfig struct {
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

// TelemetryConfig configures OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"`
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"samplingRate"`
}

// Defaults returns the built-in configuration.
func Defaults() AppConfig {
	return AppConfig{
		ListenAddr: ":8080",
		DataDir:    "data",
		LogLevel:   "info",
		LogService: "swinglab",
		Playback: PlaybackConfig{
			SeekInterval: 33 * time.Millisecond,
			Clock:        ClockPrimitive,
			TickInterval: 50 * time.Millisecond,
		},
		Store: StoreConfig{Backend: "sqlite"},
		Catalog: CatalogConfig{
			MediaBaseURL: "/media",
			URLTTL:       time.Hour,
			CacheTTL:     5 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			Requests: 120,
			Window:   time.Minute,
		},
		Telemetry: TelemetryConfig{
			Exporter:     ExporterGRPC,
			Endpoint:     "localhost:4317",
			SamplingRate: 1.0,
		},
	}
}

// CatalogDBPath is the sqlite file backing the catalog.
func (c AppConfig) CatalogDBPath() string {
	return filepath.Join(c.DataDir, "catalog.sqlite")
}

// MediaDir holds uploaded swing videos.
func (c AppConfig) MediaDir() string {
	return filepath.Join(c.DataDir, "media")
}

// Redacted returns a copy safe for printing or logging.
func (c AppConfig) Redacted() AppConfig {
	if c.Catalog.SigningKey != "" {
		c.Catalog.SigningKey = redacted
	}
	if c.Redis.Password != "" {
		c.Redis.Password = redacted
	}
	return c
}

const redacted = "***"
