// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ManuGH/swinglab/internal/log"
	"github.com/rs/zerolog"
)

// EnvPrefix namespaces every environment variable read by the loader.
const EnvPrefix = "SWINGLAB_"

// ParseString reads a string from environment variable or returns default value.
// It logs the source (environment or default) for observability.
func ParseString(key, defaultValue string) string {
	return parseEnv(log.WithComponent("config"), key, defaultValue, func(v string) (string, error) {
		return v, nil
	})
}

// ParseInt reads an integer from environment variable or returns default value.
// It validates the input and falls back to default on parse errors.
func ParseInt(key string, defaultValue int) int {
	return parseEnv(log.WithComponent("config"), key, defaultValue, strconv.Atoi)
}

// ParseBool reads a boolean ("true", "1", "false", "0", ...) from the environment.
func ParseBool(key string, defaultValue bool) bool {
	return parseEnv(log.WithComponent("config"), key, defaultValue, strconv.ParseBool)
}

// ParseFloat reads a float from the environment.
func ParseFloat(key string, defaultValue float64) float64 {
	return parseEnv(log.WithComponent("config"), key, defaultValue, func(v string) (float64, error) {
		return strconv.ParseFloat(v, 64)
	})
}

// ParseDuration reads a duration from environment variable in Go duration format (e.g. "5s").
// It falls back to default on parse errors or empty variables and logs the choice.
func ParseDuration(key string, defaultValue time.Duration) time.Duration {
	return parseEnv(log.WithComponent("config"), key, defaultValue, time.ParseDuration)
}

func parseEnv[T any](logger zerolog.Logger, key string, defaultValue T, parse func(string) (T, error)) T {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	if value == "" {
		logger.Debug().
			Str("key", key).
			Str("source", "default").
			Msg("using default value (environment variable is empty)")
		return defaultValue
	}

	parsed, err := parse(value)
	if err != nil {
		logger.Warn().
			Str("key", key).
			Str("value", maskEnvValue(key, value)).
			Err(err).
			Msg("invalid value in environment variable, using default")
		return defaultValue
	}

	logger.Debug().
		Str("key", key).
		Str("value", maskEnvValue(key, value)).
		Str("source", "environment").
		Msg("using environment variable")
	return parsed
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, kw := range []string{"password", "secret", "token", "key"} {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func maskEnvValue(key, value string) string {
	if isSensitiveKey(key) {
		return redacted
	}
	return value
}
