// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package engine

import (
	"fmt"
	"math"

	"github.com/ManuGH/swinglab/internal/domain/compare/model"
)

// TrackGeometry is the pixel layout of the scrub track.
type TrackGeometry struct {
	TrackPx float64 `json:"trackPx"`
	ThumbPx float64 `json:"thumbPx"`
}

// View is the derived progress display for the active slot.
type View struct {
	ActiveSlot   model.Slot `json:"activeSlot"`
	Progress     float64    `json:"progress"`
	Percent      float64    `json:"percent"`
	ThumbOffset  float64    `json:"thumbOffsetPx"`
	CurrentLabel string     `json:"currentLabel"`
	TotalLabel   string     `json:"totalLabel"`
	Dragging     bool       `json:"dragging"`
	IsPlaying    bool       `json:"isPlaying"`
}

// View derives the scrubber display. While dragging, the thumb follows the
// raw gesture progress so it tracks the finger even before a duration is known.
func (e *Engine) View(geo TrackGeometry) View {
	t := e.clock.Time(e.active)
	d := e.clock.Duration(e.active)

	progress := 0.0
	if d > 0 {
		progress = clamp(t/d, 0, 1)
	}
	if e.dragging {
		progress = e.dragProgress
	}

	travel := math.Max(geo.TrackPx-geo.ThumbPx, 0)
	return View{
		ActiveSlot:   e.active,
		Progress:     progress,
		Percent:      progress * 100,
		ThumbOffset:  clamp(progress*travel, 0, travel),
		CurrentLabel: FormatTime(t),
		TotalLabel:   FormatTime(d),
		Dragging:     e.dragging,
		IsPlaying:    e.isPlaying,
	}
}

// FormatTime renders seconds as m:ss.ff (hundredths truncated).
func FormatTime(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		seconds = 0
	}
	hundredths := int64(math.Floor(seconds*100 + 1e-6))
	m := hundredths / 6000
	s := (hundredths / 100) % 60
	f := hundredths % 100
	return fmt.Sprintf("%d:%02d.%02d", m, s, f)
}
