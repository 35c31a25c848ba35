// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package engine

import (
	"context"

	"github.com/ManuGH/swinglab/internal/domain/compare/model"
)

// Snapshot returns a deep copy of the store.
func (e *Engine) Snapshot() model.Snapshot {
	snap := model.Snapshot{
		Top:          e.SlotState(model.SlotTop),
		Bottom:       e.SlotState(model.SlotBottom),
		IsPlaying:    e.isPlaying,
		ActiveSlot:   e.active,
		Transport:    string(e.State()),
		RecentVideos: e.Recents(),
		Revision:     e.revision,
	}
	if e.dragging {
		p := e.dragProgress
		snap.DragProgress = &p
	}
	return snap
}

// Restore replaces the store with snap. Restored sessions always come back
// paused with no gesture held; primitives are re-synced from scratch.
func (e *Engine) Restore(ctx context.Context, snap model.Snapshot) {
	for _, slot := range model.Slots {
		st := snap.Slot(slot)
		e.slots[slot.Index()] = slotMeta{video: st.Video.Clone(), flipped: st.Flipped}
		e.clock.SetDuration(slot, st.Duration)
		e.clock.Set(slot, st.CurrentTime)
	}
	e.active = model.SlotTop
	if snap.ActiveSlot.Valid() {
		e.active = snap.ActiveSlot
	}
	e.isPlaying = false
	e.dragging = false
	e.dragProgress = 0

	e.recents = model.RecentVideos{}
	for i := len(snap.RecentVideos) - 1; i >= 0; i-- {
		e.recents = e.recents.Push(snap.RecentVideos[i])
	}
	e.revision = snap.Revision

	e.Resync(ctx)
}
