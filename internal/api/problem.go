// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ManuGH/swinglab/internal/api/middleware"
	"github.com/ManuGH/swinglab/internal/catalog"
	"github.com/ManuGH/swinglab/internal/domain/compare/manager"
	"github.com/ManuGH/swinglab/internal/domain/compare/model"
	"github.com/ManuGH/swinglab/internal/log"
	"github.com/ManuGH/swinglab/internal/player"
)

// Problem codes.
const (
	CodeBadRequest     = "BAD_REQUEST"
	CodeInvalidSlot    = "INVALID_SLOT"
	CodeNotFound       = "NOT_FOUND"
	CodeSignature      = "SIGNATURE_INVALID"
	CodeUnavailable    = "UNAVAILABLE"
	CodeInternal       = "INTERNAL"
	problemTypePrefix  = "swinglab/"
	problemContentType = "application/problem+json"
)

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeProblem writes an RFC 7807 problem details response carrying the
// request id.
func writeProblem(w http.ResponseWriter, r *http.Request, status int, code, detail string) {
	reqID := log.RequestIDFromContext(r.Context())
	if reqID == "" {
		reqID = w.Header().Get(middleware.HeaderRequestID)
	}

	res := map[string]any{
		"type":      problemTypePrefix + code,
		"title":     http.StatusText(status),
		"status":    status,
		"code":      code,
		"requestId": reqID,
		"instance":  r.URL.EscapedPath(),
	}
	if detail != "" {
		res["detail"] = detail
	}

	w.Header().Set("Content-Type", problemContentType)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(res); err != nil {
		log.FromContext(r.Context()).Error().
			Err(err).
			Str("code", code).
			Int("status", status).
			Msg("failed to encode problem response")
	}
}

// writeError maps domain errors to problem responses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, manager.ErrSessionNotFound), errors.Is(err, catalog.ErrNotFound):
		writeProblem(w, r, http.StatusNotFound, CodeNotFound, err.Error())
	case errors.Is(err, model.ErrInvalidSlot):
		writeProblem(w, r, http.StatusBadRequest, CodeInvalidSlot, err.Error())
	case errors.Is(err, catalog.ErrInvalidEntry):
		writeProblem(w, r, http.StatusBadRequest, CodeBadRequest, err.Error())
	case errors.Is(err, catalog.ErrSignatureExpired), errors.Is(err, catalog.ErrSignatureInvalid):
		writeProblem(w, r, http.StatusForbidden, CodeSignature, err.Error())
	case errors.Is(err, catalog.ErrUnavailable), errors.Is(err, player.ErrNoManager):
		writeProblem(w, r, http.StatusServiceUnavailable, CodeUnavailable, err.Error())
	default:
		log.FromContext(r.Context()).Error().Err(err).Str(log.FieldPath, r.URL.Path).Msg("request failed")
		writeProblem(w, r, http.StatusInternalServerError, CodeInternal, "")
	}
}
