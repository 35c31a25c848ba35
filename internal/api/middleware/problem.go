// SPDX-License-Identifier: MIT

package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/ManuGH/swinglab/internal/log"
)

// writeProblem writes the problem+json body used by the API handlers. The
// request id falls back to the response header for middleware that runs
// outside RequestID.
func writeProblem(w http.ResponseWriter, r *http.Request, status int, code, detail string) {
	reqID := log.RequestIDFromContext(r.Context())
	if reqID == "" {
		reqID = w.Header().Get(HeaderRequestID)
	}
	body := map[string]any{
		"type":      "swinglab/" + code,
		"title":     http.StatusText(status),
		"status":    status,
		"code":      code,
		"requestId": reqID,
		"instance":  r.URL.EscapedPath(),
	}
	if detail != "" {
		body["detail"] = detail
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
