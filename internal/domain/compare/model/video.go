// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package model

// VideoSource describes a loaded video. URI is an opaque locator; ID is the
// uniqueness key used by the recency list.
type VideoSource struct {
	ID        string   `json:"id"`
	URI       string   `json:"uri"`
	Name      string   `json:"name"`
	Thumbnail string   `json:"thumbnail,omitempty"`
	Duration  *float64 `json:"duration,omitempty"`
}

// Clone returns a deep copy so slots never share a descriptor with callers.
func (v *VideoSource) Clone() *VideoSource {
	if v == nil {
		return nil
	}
	out := *v
	if v.Duration != nil {
		d := *v.Duration
		out.Duration = &d
	}
	return &out
}

// DurationHint returns the descriptor's advertised duration, or 0 if absent or invalid.
func (v *VideoSource) DurationHint() float64 {
	if v == nil || v.Duration == nil || *v.Duration < 0 {
		return 0
	}
	return *v.Duration
}

// ProSwing is a catalog entry for a reference swing.
type ProSwing struct {
	VideoSource
	Golfer string `json:"golfer"`
	Club   string `json:"club,omitempty"`
	Year   int    `json:"year,omitempty"`
}
