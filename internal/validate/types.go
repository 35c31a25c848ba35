// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package validate

import (
	"fmt"
	"slices"
)

// Enum is the closed set of values a string setting accepts.
type Enum[T ~string] struct {
	Field  string
	Values []T
}

// NewEnum builds the accepted set for field.
func NewEnum[T ~string](field string, values ...T) Enum[T] {
	return Enum[T]{Field: field, Values: values}
}

// Parse returns s as a member of the set, or an Error naming the field.
func (e Enum[T]) Parse(s string) (T, error) {
	if slices.Contains(e.Values, T(s)) {
		return T(s), nil
	}
	return "", Error{
		Field:   e.Field,
		Value:   s,
		Message: fmt.Sprintf("value must be one of %v, got %q", e.Values, s),
	}
}

// Check parses s and records a failure on v. The zero value is returned for
// rejected input.
func Check[T ~string](v *Validator, e Enum[T], s string) T {
	val, err := e.Parse(s)
	if err != nil {
		v.AddError(e.Field, err.(Error).Message, s)
	}
	return val
}

// LogLevel is a zerolog level name accepted in configuration.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogLevels lists the configurable levels.
var LogLevels = NewEnum("logLevel", LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError)

func (l LogLevel) String() string {
	return string(l)
}

func ParseLogLevel(s string) (LogLevel, error) {
	return LogLevels.Parse(s)
}
