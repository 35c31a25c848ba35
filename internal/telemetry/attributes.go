// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent tracing across the application.
const (
	// Compare session attributes
	SessionIDKey      = "compare.session_id"
	CommandKey        = "compare.command"
	CommandAppliedKey = "compare.applied"
	CommandReasonKey  = "compare.reason"
	TransportFromKey  = "compare.transport.from"
	TransportToKey    = "compare.transport.to"
	CatalogSourceKey  = "catalog.source"
	CatalogEntriesKey = "catalog.entries"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// CommandAttributes describes the outcome of one compare command.
func CommandAttributes(sessionID, command string, applied bool, reason, from, to string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(SessionIDKey, sessionID),
		attribute.String(CommandKey, command),
		attribute.Bool(CommandAppliedKey, applied),
		attribute.String(TransportFromKey, from),
		attribute.String(TransportToKey, to),
	}
	if reason != "" {
		attrs = append(attrs, attribute.String(CommandReasonKey, reason))
	}
	return attrs
}

// CatalogAttributes describes a catalog listing.
func CatalogAttributes(source string, entries int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(CatalogSourceKey, source),
		attribute.Int(CatalogEntriesKey, entries),
	}
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(_ error, errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
