// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package engine

import (
	"time"

	"golang.org/x/time/rate"
)

// DefaultSeekInterval bounds drag seeks to roughly one per display frame.
const DefaultSeekInterval = 33 * time.Millisecond

// SeekThrottle gates seek instructions issued while dragging. It only ever
// wraps the downstream seek; the logical clock is updated on every event.
type SeekThrottle struct {
	limiter *rate.Limiter
	now     func() time.Time
}

// NewSeekThrottle allows at most one seek per interval. A non-positive
// interval disables throttling.
func NewSeekThrottle(interval time.Duration, now func() time.Time) *SeekThrottle {
	if now == nil {
		now = time.Now
	}
	lim := rate.NewLimiter(rate.Inf, 1)
	if interval > 0 {
		lim = rate.NewLimiter(rate.Every(interval), 1)
	}
	return &SeekThrottle{limiter: lim, now: now}
}

// Allow reports whether a seek may be issued now and consumes the token if so.
func (t *SeekThrottle) Allow() bool {
	return t.limiter.AllowN(t.now(), 1)
}
