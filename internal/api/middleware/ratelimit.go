// SPDX-License-Identifier: MIT

package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/ManuGH/swinglab/internal/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var httpRateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "swinglab_http_rate_limited_total",
	Help: "Requests rejected by the API rate limiter, by route pattern",
}, []string{"path"})

// RateLimitConfig bounds requests per key within a sliding window.
type RateLimitConfig struct {
	RequestLimit int
	WindowSize   time.Duration
	// KeyFunc defaults to the client IP.
	KeyFunc func(r *http.Request) (string, error)
}

// RateLimit limits requests with httprate's sliding window counter. Rejected
// requests get a RATE_LIMITED problem with Retry-After set to the window.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	keyFunc := cfg.KeyFunc
	if keyFunc == nil {
		keyFunc = httprate.KeyByIP
	}
	retryAfter := strconv.Itoa(int(cfg.WindowSize.Seconds()))

	return httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowSize,
		httprate.WithKeyFuncs(keyFunc),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				path = rctx.RoutePattern()
			}
			httpRateLimited.WithLabelValues(path).Inc()
			logger := log.WithComponentFromContext(r.Context(), "ratelimit")
			logger.Debug().
				Str(log.FieldEvent, "http.rate_limited").
				Str(log.FieldPath, r.URL.Path).
				Msg("request rate limited")

			w.Header().Set("Retry-After", retryAfter)
			writeProblem(w, r, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests, retry later")
		}),
	)
}
