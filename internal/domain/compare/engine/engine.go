// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package engine implements the dual-video compare engine: the playback clock,
// slot registry, active-slot selector, scrub/transport controller and the
// synchronizer that drives each slot's playback primitive.
//
// An Engine is an explicit, single-threaded store. It is not safe for
// concurrent use; callers serialise access (see the manager package).
package engine

import (
	"context"
	"time"

	"github.com/ManuGH/swinglab/internal/domain/compare/model"
	"github.com/ManuGH/swinglab/internal/domain/compare/transport"
	xglog "github.com/ManuGH/swinglab/internal/log"
	"github.com/ManuGH/swinglab/internal/metrics"
	"github.com/rs/zerolog"
)

// Options configures an Engine.
type Options struct {
	Logger       *zerolog.Logger
	Top, Bottom  Primitive
	SeekInterval time.Duration    // drag seek throttle; 0 selects DefaultSeekInterval, <0 disables
	Now          func() time.Time // clock for the seek throttle
}

type slotMeta struct {
	video   *model.VideoSource
	flipped bool
}

// Engine is the compare store plus the controller operating on it.
type Engine struct {
	slots        [2]slotMeta
	clock        Clock
	isPlaying    bool
	active       model.Slot
	dragging     bool
	dragProgress float64
	recents      model.RecentVideos
	revision     uint64

	sync      *Synchronizer
	logger    zerolog.Logger
	listeners map[int]func(model.Snapshot)
	nextID    int
}

// New creates an engine with both slots empty and the top slot active.
func New(opts Options) *Engine {
	logger := xglog.WithComponent("compare")
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	interval := opts.SeekInterval
	if interval == 0 {
		interval = DefaultSeekInterval
	}
	return &Engine{
		active:    model.SlotTop,
		recents:   model.RecentVideos{},
		sync:      newSynchronizer(opts.Top, opts.Bottom, NewSeekThrottle(interval, opts.Now), logger),
		logger:    logger,
		listeners: make(map[int]func(model.Snapshot)),
	}
}

// Subscribe registers fn to receive a snapshot after every applied mutation.
// The returned function removes the subscription.
func (e *Engine) Subscribe(fn func(model.Snapshot)) func() {
	id := e.nextID
	e.nextID++
	e.listeners[id] = fn
	return func() { delete(e.listeners, id) }
}

// SetPrimitive replaces the primitive for slot and re-sends its target.
func (e *Engine) SetPrimitive(ctx context.Context, slot model.Slot, p Primitive) {
	if !slot.Valid() {
		return
	}
	e.sync.setPrimitive(slot, p)
	e.reconcile(ctx, false)
}

// State returns the current transport controller state.
func (e *Engine) State() transport.State {
	return transport.Derive(e.dragging, e.isPlaying)
}

// IsPlaying reports the shared play flag.
func (e *Engine) IsPlaying() bool { return e.isPlaying }

// ActiveSlot returns the slot that receives scrub and transport commands.
func (e *Engine) ActiveSlot() model.Slot { return e.active }

// Recents returns a copy of the recency list.
func (e *Engine) Recents() model.RecentVideos {
	out := make(model.RecentVideos, len(e.recents))
	copy(out, e.recents)
	return out
}

// --- Dual slot registry ---------------------------------------------------

// SlotVideo returns the descriptor loaded in slot, or nil.
func (e *Engine) SlotVideo(slot model.Slot) *model.VideoSource {
	if !slot.Valid() {
		return nil
	}
	return e.slots[slot.Index()].video.Clone()
}

// SlotState returns a copy of the slot's state.
func (e *Engine) SlotState(slot model.Slot) model.SlotState {
	if !slot.Valid() {
		return model.SlotState{}
	}
	m := e.slots[slot.Index()]
	return model.SlotState{
		Video:       m.video.Clone(),
		CurrentTime: e.clock.Time(slot),
		Duration:    e.clock.Duration(slot),
		Flipped:     m.flipped,
	}
}

// SetSlotVideo loads v into slot (nil empties it), rewinds the slot, makes it
// active and records v in the recency list.
func (e *Engine) SetSlotVideo(ctx context.Context, slot model.Slot, v *model.VideoSource) Outcome {
	if !slot.Valid() {
		return e.reject(ctx, CmdSetSlotVideo, ReasonInvalidSlot)
	}
	from := e.State()

	e.slots[slot.Index()].video = v.Clone()
	e.clock.SetDuration(slot, v.DurationHint())
	e.clock.Set(slot, 0)
	e.active = slot
	if v != nil {
		e.recents = e.recents.Push(*v)
	}
	e.sync.forget(slot)
	// the scrubbed video changed under the gesture
	e.releaseDrag()
	e.enforceActiveLoaded()

	logger := xglog.WithContext(ctx, e.logger)
	logger.Debug().
		Str(xglog.FieldEvent, "compare.slot_video_set").
		Str(xglog.FieldSlot, slot.String()).
		Str(xglog.FieldVideoID, videoID(v)).
		Msg("slot video replaced")

	return e.commit(ctx, CmdSetSlotVideo, from, false)
}

// ToggleFlip flips the slot's presentation mirror flag.
func (e *Engine) ToggleFlip(ctx context.Context, slot model.Slot) Outcome {
	if !slot.Valid() {
		return e.reject(ctx, CmdToggleFlip, ReasonInvalidSlot)
	}
	from := e.State()
	e.slots[slot.Index()].flipped = !e.slots[slot.Index()].flipped
	return e.commit(ctx, CmdToggleFlip, from, false)
}

// --- Active-slot selector -------------------------------------------------

// SetActiveSlot makes slot the target of scrub and transport commands.
func (e *Engine) SetActiveSlot(ctx context.Context, slot model.Slot) Outcome {
	if !slot.Valid() {
		return e.reject(ctx, CmdSetActiveSlot, ReasonInvalidSlot)
	}
	from := e.State()
	if slot != e.active {
		e.releaseDrag()
	}
	e.active = slot
	e.enforceActiveLoaded()
	return e.commit(ctx, CmdSetActiveSlot, from, false)
}

// SwapActiveSlot toggles the active slot.
func (e *Engine) SwapActiveSlot(ctx context.Context) Outcome {
	from := e.State()
	e.releaseDrag()
	e.active = e.active.Other()
	e.enforceActiveLoaded()
	return e.commit(ctx, CmdSwapActiveSlot, from, false)
}

// enforceActiveLoaded stops playback and drops a held drag when the active
// slot has nothing to play or scrub.
func (e *Engine) enforceActiveLoaded() {
	if e.activeLoaded() {
		return
	}
	e.isPlaying = false
	e.releaseDrag()
}

// releaseDrag ends a held gesture without resuming playback. A drag belongs to
// the slot it began on and never carries over to another slot or video.
func (e *Engine) releaseDrag() {
	e.dragging = false
	e.dragProgress = 0
}

func (e *Engine) activeLoaded() bool {
	return e.slots[e.active.Index()].video != nil
}

// --- Scrub/transport controller ------------------------------------------

// Gesture applies one scrub gesture sample to the active slot.
func (e *Engine) Gesture(ctx context.Context, g GestureEvent) Outcome {
	ev, ok := g.Phase.event()
	if !ok {
		return e.reject(ctx, "gesture_"+string(g.Phase), ReasonUnknownPhase)
	}
	cmd := string(ev)
	if ev == transport.EvGestureBegin && !e.activeLoaded() {
		return e.reject(ctx, cmd, ReasonNoVideo)
	}

	from := e.State()
	if _, reason, ok := transport.Decide(from, ev); !ok {
		return e.reject(ctx, cmd, reason)
	}

	switch ev {
	case transport.EvGestureBegin, transport.EvGestureMove:
		p, ok := ProgressFraction(g.OffsetPx, g.TrackPx)
		if !ok && ev == transport.EvGestureMove {
			return e.reject(ctx, cmd, ReasonNoTrack)
		}
		e.isPlaying = false
		e.dragging = true
		if ok {
			e.dragProgress = p
			if d := e.clock.Duration(e.active); d > 0 {
				e.clock.Set(e.active, p*d)
			}
		}
		return e.commit(ctx, cmd, from, ev == transport.EvGestureMove)
	default:
		// end and cancel: release without resuming, flush any held seek
		e.releaseDrag()
		return e.commit(ctx, cmd, from, false)
	}
}

// Play starts playback of the active slot from its current time.
func (e *Engine) Play(ctx context.Context) Outcome {
	if !e.activeLoaded() {
		return e.reject(ctx, CmdPlay, ReasonNoVideo)
	}
	from := e.State()
	if _, reason, ok := transport.Decide(from, transport.EvPlay); !ok {
		return e.reject(ctx, CmdPlay, reason)
	}
	if e.clock.AtEnd(e.active) {
		e.clock.Set(e.active, 0)
	}
	e.isPlaying = true
	return e.commit(ctx, CmdPlay, from, false)
}

// Pause stops playback; the clock keeps its position.
func (e *Engine) Pause(ctx context.Context) Outcome {
	from := e.State()
	if _, reason, ok := transport.Decide(from, transport.EvPause); !ok {
		return e.reject(ctx, CmdPause, reason)
	}
	e.isPlaying = false
	return e.commit(ctx, CmdPause, from, false)
}

// TogglePlay is the play/pause button.
func (e *Engine) TogglePlay(ctx context.Context) Outcome {
	if e.isPlaying {
		return e.Pause(ctx)
	}
	return e.Play(ctx)
}

// PreviousFrame steps the active slot back one frame.
func (e *Engine) PreviousFrame(ctx context.Context) Outcome {
	return e.step(ctx, CmdPreviousFrame, transport.EvPreviousFrame, -1)
}

// NextFrame steps the active slot forward one frame.
func (e *Engine) NextFrame(ctx context.Context) Outcome {
	return e.step(ctx, CmdNextFrame, transport.EvNextFrame, 1)
}

func (e *Engine) step(ctx context.Context, cmd string, ev transport.EventKind, frames int) Outcome {
	from := e.State()
	if _, reason, ok := transport.Decide(from, ev); !ok {
		return e.reject(ctx, cmd, reason)
	}
	if !e.activeLoaded() {
		return e.reject(ctx, cmd, ReasonNoVideo)
	}
	if _, ok := e.clock.Step(e.active, frames); !ok {
		return e.reject(ctx, cmd, ReasonUnknownDuration)
	}
	e.stopAtEnd()
	return e.commit(ctx, cmd, from, false)
}

// Reset rewinds both slots and stops playback, whatever slot is active.
func (e *Engine) Reset(ctx context.Context) Outcome {
	from := e.State()
	if _, reason, ok := transport.Decide(from, transport.EvReset); !ok {
		return e.reject(ctx, CmdReset, reason)
	}
	e.clock.Rewind()
	e.isPlaying = false
	e.dragProgress = 0
	return e.commit(ctx, CmdReset, from, false)
}

// --- Primitive notifications ---------------------------------------------

// DurationLoaded records the duration measured by a slot's primitive,
// independent of play state.
func (e *Engine) DurationLoaded(ctx context.Context, slot model.Slot, seconds float64) Outcome {
	if !slot.Valid() {
		return e.reject(ctx, CmdDurationLoaded, ReasonInvalidSlot)
	}
	if e.slots[slot.Index()].video == nil {
		return e.reject(ctx, CmdDurationLoaded, ReasonNoVideo)
	}
	if !(seconds >= 0) {
		return e.reject(ctx, CmdDurationLoaded, ReasonInvalidDuration)
	}
	from := e.State()
	e.clock.SetDuration(slot, seconds)
	e.stopAtEnd()

	logger := xglog.WithContext(ctx, e.logger)
	logger.Debug().
		Str(xglog.FieldEvent, "compare.duration_loaded").
		Str(xglog.FieldSlot, slot.String()).
		Float64(xglog.FieldDuration, seconds).
		Msg("slot duration loaded")

	return e.commit(ctx, CmdDurationLoaded, from, false)
}

// ObservePosition records the playing position reported by the active slot's
// primitive. Reports from paused or inactive slots are stale and ignored.
func (e *Engine) ObservePosition(ctx context.Context, slot model.Slot, seconds float64) Outcome {
	if !slot.Valid() {
		return e.reject(ctx, CmdObservePosition, ReasonInvalidSlot)
	}
	if !e.isPlaying || e.dragging || slot != e.active {
		return e.reject(ctx, CmdObservePosition, ReasonStalePosition)
	}
	from := e.State()
	t := e.clock.Set(slot, seconds)
	e.sync.observe(slot, t, true)
	e.stopAtEnd()
	return e.commit(ctx, CmdObservePosition, from, false)
}

// PlaybackFinished handles the primitive reporting end of media.
func (e *Engine) PlaybackFinished(ctx context.Context, slot model.Slot) Outcome {
	if !slot.Valid() {
		return e.reject(ctx, CmdPlaybackFinished, ReasonInvalidSlot)
	}
	if !e.isPlaying || slot != e.active {
		return e.reject(ctx, CmdPlaybackFinished, ReasonStalePosition)
	}
	from := e.State()
	if _, reason, ok := transport.Decide(from, transport.EvReachedEnd); !ok {
		return e.reject(ctx, CmdPlaybackFinished, reason)
	}
	t := e.clock.Set(slot, e.clock.Duration(slot))
	e.sync.observe(slot, t, true)
	e.isPlaying = false
	return e.commit(ctx, CmdPlaybackFinished, from, false)
}

// Advance moves the playing slot forward by elapsed wall-clock time. It is
// used when the server, rather than the primitive, owns the clock.
func (e *Engine) Advance(ctx context.Context, elapsed time.Duration) Outcome {
	if !e.isPlaying || e.dragging {
		return e.reject(ctx, CmdAdvance, transport.ForbiddenNotPlaying)
	}
	if e.clock.Duration(e.active) <= 0 {
		return e.reject(ctx, CmdAdvance, ReasonUnknownDuration)
	}
	from := e.State()
	t := e.clock.Set(e.active, e.clock.Time(e.active)+elapsed.Seconds())
	e.sync.observe(e.active, t, true)
	e.stopAtEnd()
	return e.commit(ctx, CmdAdvance, from, false)
}

// Resync forgets what the primitives were last told and re-sends every target.
func (e *Engine) Resync(ctx context.Context) {
	e.sync.invalidate()
	e.reconcile(ctx, false)
}

// stopAtEnd applies the automatic end-of-video stop (no looping).
func (e *Engine) stopAtEnd() {
	if !e.isPlaying || !e.clock.AtEnd(e.active) {
		return
	}
	if _, _, ok := transport.Decide(e.State(), transport.EvReachedEnd); ok {
		e.isPlaying = false
	}
}

// --- internals ------------------------------------------------------------

func (e *Engine) targets() [2]target {
	var out [2]target
	for _, slot := range model.Slots {
		out[slot.Index()] = target{
			loaded:  e.slots[slot.Index()].video != nil,
			playing: e.isPlaying && slot == e.active,
			time:    e.clock.Time(slot),
		}
	}
	return out
}

func (e *Engine) reconcile(ctx context.Context, throttled bool) {
	e.sync.reconcile(ctx, e.targets(), throttled)
}

// commit finishes an applied command: the synchronizer re-runs, the revision
// advances and subscribers see the new snapshot.
func (e *Engine) commit(ctx context.Context, cmd string, from transport.State, throttled bool) Outcome {
	e.reconcile(ctx, throttled)
	e.revision++

	to := e.State()
	metrics.RecordTransportCommand(cmd, true, "")
	metrics.RecordTransportTransition(string(from), string(to))
	if from != to {
		logger := xglog.WithContext(ctx, e.logger)
		logger.Debug().
			Str(xglog.FieldEvent, "compare.transport_changed").
			Str(xglog.FieldCommand, cmd).
			Str(xglog.FieldOldState, string(from)).
			Str(xglog.FieldNewState, string(to)).
			Str(xglog.FieldActiveSlot, e.active.String()).
			Msg("transport state changed")
	}

	if len(e.listeners) > 0 {
		snap := e.Snapshot()
		for _, fn := range e.listeners {
			fn(snap)
		}
	}
	return Outcome{Command: cmd, Applied: true, From: from, To: to}
}

func (e *Engine) reject(ctx context.Context, cmd, reason string) Outcome {
	metrics.RecordTransportCommand(cmd, false, reason)
	logger := xglog.WithContext(ctx, e.logger)
	logger.Debug().
		Str(xglog.FieldEvent, "compare.command_ignored").
		Str(xglog.FieldCommand, cmd).
		Str(xglog.FieldReason, reason).
		Msg("command is a no-op in current state")
	s := e.State()
	return Outcome{Command: cmd, Applied: false, Reason: reason, From: s, To: s}
}

func videoID(v *model.VideoSource) string {
	if v == nil {
		return ""
	}
	return v.ID
}
