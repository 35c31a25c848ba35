// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ManuGH/swinglab/internal/log"
	"gopkg.in/yaml.v3"
)

// Loader handles configuration loading with precedence
type Loader struct {
	configPath      string
	version         string
	ConsumedEnvKeys map[string]struct{}
}

// NewLoader creates a new configuration loader
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

// ConfigPath returns the file the loader reads, empty for ENV-only setups.
func (l *Loader) ConfigPath() string {
	return l.configPath
}

func (l *Loader) envString(key, defaultVal string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, defaultVal)
}

func (l *Loader) envBool(key string, defaultVal bool) bool {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseBool(key, defaultVal)
}

func (l *Loader) envInt(key string, defaultVal int) int {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt(key, defaultVal)
}

func (l *Loader) envDuration(key string, defaultVal time.Duration) time.Duration {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseDuration(key, defaultVal)
}

func (l *Loader) envFloat(key string, defaultVal float64) float64 {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseFloat(key, defaultVal)
}

// Load loads configuration with precedence: ENV > File > Defaults.
// Order is fixed: defaults, strict file parse, env overrides, validate.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()

	if l.configPath != "" {
		if err := decodeFile(l.configPath, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	l.mergeEnvConfig(&cfg)
	l.warnUnknownEnv()

	if abs, err := filepath.Abs(cfg.DataDir); err == nil {
		cfg.DataDir = abs
	}
	cfg.Version = l.version

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (l *Loader) mergeEnvConfig(cfg *AppConfig) {
	cfg.ListenAddr = l.envString(EnvPrefix+"LISTEN_ADDR", cfg.ListenAddr)
	cfg.DataDir = l.envString(EnvPrefix+"DATA_DIR", cfg.DataDir)
	cfg.LogLevel = l.envString(EnvPrefix+"LOG_LEVEL", cfg.LogLevel)
	cfg.LogService = l.envString(EnvPrefix+"LOG_SERVICE", cfg.LogService)

	cfg.Playback.SeekInterval = l.envDuration(EnvPrefix+"SEEK_INTERVAL", cfg.Playback.SeekInterval)
	cfg.Playback.Clock = l.envString(EnvPrefix+"CLOCK", cfg.Playback.Clock)
	cfg.Playback.TickInterval = l.envDuration(EnvPrefix+"TICK_INTERVAL", cfg.Playback.TickInterval)

	cfg.Store.Backend = l.envString(EnvPrefix+"STORE_BACKEND", cfg.Store.Backend)

	cfg.Catalog.SigningKey = l.envString(EnvPrefix+"CATALOG_SIGNING_KEY", cfg.Catalog.SigningKey)
	cfg.Catalog.MediaBaseURL = l.envString(EnvPrefix+"MEDIA_BASE_URL", cfg.Catalog.MediaBaseURL)
	cfg.Catalog.URLTTL = l.envDuration(EnvPrefix+"MEDIA_URL_TTL", cfg.Catalog.URLTTL)
	cfg.Catalog.CacheTTL = l.envDuration(EnvPrefix+"CATALOG_CACHE_TTL", cfg.Catalog.CacheTTL)

	cfg.Redis.Addr = l.envString(EnvPrefix+"REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = l.envString(EnvPrefix+"REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = l.envInt(EnvPrefix+"REDIS_DB", cfg.Redis.DB)

	cfg.RateLimit.Requests = l.envInt(EnvPrefix+"RATE_LIMIT_REQUESTS", cfg.RateLimit.Requests)
	cfg.RateLimit.Window = l.envDuration(EnvPrefix+"RATE_LIMIT_WINDOW", cfg.RateLimit.Window)

	cfg.Telemetry.Enabled = l.envBool(EnvPrefix+"TELEMETRY_ENABLED", cfg.Telemetry.Enabled)
	cfg.Telemetry.Exporter = l.envString(EnvPrefix+"TELEMETRY_EXPORTER", cfg.Telemetry.Exporter)
	cfg.Telemetry.Endpoint = l.envString(EnvPrefix+"TELEMETRY_ENDPOINT", cfg.Telemetry.Endpoint)
	cfg.Telemetry.SamplingRate = l.envFloat(EnvPrefix+"TELEMETRY_SAMPLING_RATE", cfg.Telemetry.SamplingRate)
}

// UnknownEnvKeys lists SWINGLAB_* variables that no setting consumed.
func (l *Loader) UnknownEnvKeys() []string {
	var unknown []string
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if !strings.HasPrefix(key, EnvPrefix) {
			continue
		}
		if _, ok := l.ConsumedEnvKeys[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	return unknown
}

func (l *Loader) warnUnknownEnv() {
	unknown := l.UnknownEnvKeys()
	if len(unknown) == 0 {
		return
	}
	logger := log.WithComponent("config")
	logger.Warn().
		Strs("keys", unknown).
		Msg("ignoring unknown environment variables")
}

// LoadFile parses a YAML file on top of the defaults without env overrides.
// The result is not validated.
func LoadFile(path string) (AppConfig, error) {
	cfg := Defaults()
	if err := decodeFile(path, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// decodeFile parses a YAML file with STRICT parsing onto cfg.
// Keys absent from the file keep the values already in cfg.
func decodeFile(path string, cfg *AppConfig) error {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	return decode(data, cfg)
}

func decode(data []byte, cfg *AppConfig) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return fmt.Errorf("strict config parse error: %w: %w", ErrUnknownConfigField, err)
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return ErrMultipleDocuments
	}
	return nil
}

// Marshal renders cfg as YAML with secrets redacted.
func Marshal(cfg AppConfig) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg.Redacted()); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return buf.Bytes(), nil
}
