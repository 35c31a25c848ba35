// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package manager

import (
	"context"
	"time"

	"github.com/ManuGH/swinglab/internal/domain/compare/engine"
	xglog "github.com/ManuGH/swinglab/internal/log"
)

// RunClock advances every playing session by the wall-clock time elapsed
// between ticks. It blocks until ctx is cancelled.
func (m *Manager) RunClock(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger := xglog.WithContext(ctx, m.logger)
	logger.Info().
		Str(xglog.FieldEvent, "compare.clock_started").
		Dur("interval", interval).
		Msg("server playback clock started")

	last := m.opts.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			now := m.opts.Now()
			m.Tick(ctx, now.Sub(last))
			last = now
		}
	}
}

// Tick advances every playing session by elapsed.
func (m *Manager) Tick(ctx context.Context, elapsed time.Duration) {
	if elapsed <= 0 {
		return
	}
	for _, id := range m.IDs() {
		_, _, err := m.Do(ctx, id, func(e *engine.Engine) engine.Outcome {
			if !e.IsPlaying() {
				return engine.Outcome{Command: engine.CmdAdvance}
			}
			return e.Advance(ctx, elapsed)
		})
		if err != nil {
			logger := xglog.WithContext(ctx, m.logger)
			logger.Debug().Err(err).Str(xglog.FieldSessionID, id).Msg("clock tick skipped session")
		}
	}
}
