// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package model

// SlotState is the per-slot portion of the compare store.
type SlotState struct {
	Video       *VideoSource `json:"video"`
	CurrentTime float64      `json:"currentTime"`
	Duration    float64      `json:"duration"`
	Flipped     bool         `json:"flipped"`
}

// Loaded reports whether a video occupies the slot.
func (s SlotState) Loaded() bool { return s.Video != nil }

// Clone returns a copy that shares no pointers with s.
func (s SlotState) Clone() SlotState {
	s.Video = s.Video.Clone()
	return s
}

// Snapshot is the serialisable form of a whole compare store.
type Snapshot struct {
	Top          SlotState    `json:"top"`
	Bottom       SlotState    `json:"bottom"`
	IsPlaying    bool         `json:"isPlaying"`
	ActiveSlot   Slot         `json:"activeSlot"`
	Transport    string       `json:"transport"`
	DragProgress *float64     `json:"dragProgress,omitempty"`
	RecentVideos RecentVideos `json:"recentVideos"`
	Revision     uint64       `json:"revision"`
}

// Slot returns the state for s.
func (s Snapshot) Slot(slot Slot) SlotState {
	if slot == SlotBottom {
		return s.Bottom
	}
	return s.Top
}
