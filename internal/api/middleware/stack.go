// SPDX-License-Identifier: MIT

package middleware

import (
	"time"

	xglog "github.com/ManuGH/swinglab/internal/log"
	"github.com/ManuGH/swinglab/internal/telemetry"
	"github.com/go-chi/chi/v5"
)

// StackConfig configures the canonical HTTP ingress middleware stack.
type StackConfig struct {
	EnableSecurityHeaders bool
	EnableMetrics         bool
	EnableTracing         bool
	EnableLogging         bool

	// RateLimitRequests <= 0 disables rate limiting.
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// NewRouter constructs a chi router with the canonical middleware stack applied.
func NewRouter(cfg StackConfig) *chi.Mux {
	r := chi.NewRouter()
	ApplyStack(r, cfg)
	return r
}

// ApplyStack applies the canonical middleware stack to r.
func ApplyStack(r chi.Router, cfg StackConfig) {
	// 1. Recoverer (outermost safety net)
	r.Use(Recoverer)
	// 2. RequestID (correlation early)
	r.Use(RequestID)
	// 3. Security headers
	if cfg.EnableSecurityHeaders {
		r.Use(SecurityHeaders())
	}
	// 4. Metrics (track all requests)
	if cfg.EnableMetrics {
		r.Use(Metrics())
	}
	// 5. Tracing
	if cfg.EnableTracing {
		r.Use(telemetry.Middleware(true, "swinglab-api"))
	}
	// 6. Logging (wraps handlers, captures full latency)
	if cfg.EnableLogging {
		r.Use(xglog.Middleware())
	}
	// 7. Rate limit
	if cfg.RateLimitRequests > 0 {
		r.Use(RateLimit(RateLimitConfig{
			RequestLimit: cfg.RateLimitRequests,
			WindowSize:   cfg.RateLimitWindow,
		}))
	}
}
