// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package engine

import (
	"context"

	"github.com/ManuGH/swinglab/internal/domain/compare/model"
	xglog "github.com/ManuGH/swinglab/internal/log"
	"github.com/ManuGH/swinglab/internal/metrics"
	"github.com/rs/zerolog"
)

// target is what one slot's primitive should be doing.
type target struct {
	loaded  bool
	playing bool
	time    float64
}

type instruction struct {
	op   Op
	time float64
}

// Synchronizer reconciles the logical clock against each slot's playback
// primitive. It remembers the last instruction per slot so that reconciling
// an unchanged target is free, and so that positions reported by the
// primitive itself never bounce back as seeks.
type Synchronizer struct {
	primitives [2]Primitive
	last       [2]*instruction
	throttle   *SeekThrottle
	logger     zerolog.Logger
}

func newSynchronizer(top, bottom Primitive, throttle *SeekThrottle, logger zerolog.Logger) *Synchronizer {
	if top == nil {
		top = NopPrimitive{}
	}
	if bottom == nil {
		bottom = NopPrimitive{}
	}
	return &Synchronizer{
		primitives: [2]Primitive{top, bottom},
		throttle:   throttle,
		logger:     logger,
	}
}

// reconcile brings both primitives in line with targets. When throttled is
// set, a seek-to-seek update may be held back; the skipped slot keeps a stale
// memo so the next unthrottled pass issues it.
func (s *Synchronizer) reconcile(ctx context.Context, targets [2]target, throttled bool) {
	for _, slot := range model.Slots {
		i := slot.Index()
		t := targets[i]
		if !t.loaded {
			s.last[i] = nil
			continue
		}

		want := instruction{op: OpSeekAndPause, time: t.time}
		if t.playing {
			want.op = OpPlayFrom
		}
		prev := s.last[i]
		if prev != nil && *prev == want {
			continue
		}

		if throttled && want.op == OpSeekAndPause && prev != nil && prev.op == OpSeekAndPause && !s.throttle.Allow() {
			metrics.RecordSeekCoalesced()
			continue
		}

		s.issue(ctx, slot, want)
	}
}

func (s *Synchronizer) issue(ctx context.Context, slot model.Slot, in instruction) {
	i := slot.Index()
	var err error
	switch in.op {
	case OpPlayFrom:
		err = s.primitives[i].PlayFrom(ctx, in.time)
	default:
		err = s.primitives[i].SeekAndPause(ctx, in.time)
	}
	metrics.RecordPrimitiveInstruction(slot.String(), string(in.op), err)

	if err != nil {
		// The store stays authoritative; the next reconcile retries.
		s.last[i] = nil
		logger := xglog.WithContext(ctx, s.logger)
		logger.Warn().
			Err(err).
			Str(xglog.FieldEvent, "primitive.instruction_failed").
			Str(xglog.FieldSlot, slot.String()).
			Str(xglog.FieldOp, string(in.op)).
			Float64(xglog.FieldTime, in.time).
			Msg("playback primitive rejected instruction")
		return
	}
	s.last[i] = &in
}

// observe records a position the primitive reached on its own.
func (s *Synchronizer) observe(slot model.Slot, seconds float64, playing bool) {
	in := instruction{op: OpSeekAndPause, time: seconds}
	if playing {
		in.op = OpPlayFrom
	}
	s.last[slot.Index()] = &in
}

// forget drops the memo for one slot, e.g. after a new video was loaded.
func (s *Synchronizer) forget(slot model.Slot) {
	s.last[slot.Index()] = nil
}

// invalidate drops every memo so the next reconcile re-sends all targets.
func (s *Synchronizer) invalidate() {
	s.last = [2]*instruction{}
}

// setPrimitive swaps the primitive driving slot and forgets its memo.
func (s *Synchronizer) setPrimitive(slot model.Slot, p Primitive) {
	if p == nil {
		p = NopPrimitive{}
	}
	s.primitives[slot.Index()] = p
	s.forget(slot)
}
