// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package engine

import (
	"math"

	"github.com/ManuGH/swinglab/internal/domain/compare/model"
)

// FrameStep is the frame-step size. Source frame rates are never probed; every
// video is stepped as if it were 30 fps.
const FrameStep = 1.0 / 30

// Clock tracks the logical time position of each slot. It is never driven by
// wall-clock time directly; callers advance it explicitly.
//
// Invariant: 0 <= time <= duration for both slots.
type Clock struct {
	times     [2]float64
	durations [2]float64
}

// Time returns the slot's current time in seconds.
func (c *Clock) Time(s model.Slot) float64 { return c.times[s.Index()] }

// Duration returns the slot's duration in seconds; 0 means unknown.
func (c *Clock) Duration(s model.Slot) float64 { return c.durations[s.Index()] }

// Set writes a clamped time and returns the value stored.
func (c *Clock) Set(s model.Slot, t float64) float64 {
	v := clamp(t, 0, c.durations[s.Index()])
	c.times[s.Index()] = v
	return v
}

// SetDuration stores a new duration. Negative or non-finite values are
// treated as unknown (0). The current time is pulled back inside the new range.
func (c *Clock) SetDuration(s model.Slot, d float64) {
	if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
		d = 0
	}
	i := s.Index()
	c.durations[i] = d
	c.times[i] = clamp(c.times[i], 0, d)
}

// Step moves the slot by frames*FrameStep, clamped to [0, duration]. It is a
// no-op returning false when the duration is unknown.
func (c *Clock) Step(s model.Slot, frames int) (float64, bool) {
	if c.durations[s.Index()] <= 0 {
		return c.Time(s), false
	}
	return c.Set(s, c.Time(s)+float64(frames)*FrameStep), true
}

// AtEnd reports whether a slot with a known duration has reached it.
func (c *Clock) AtEnd(s model.Slot) bool {
	d := c.durations[s.Index()]
	return d > 0 && c.times[s.Index()] >= d
}

// Rewind zeroes both slots' times, keeping durations.
func (c *Clock) Rewind() {
	c.times = [2]float64{}
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
