// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package engine

import (
	"context"
	"testing"
	"time"

	"github.com/ManuGH/swinglab/internal/domain/compare/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynchronizer_ReconcileIsIdempotent(t *testing.T) {
	top, bottom := &recordingPrimitive{}, &recordingPrimitive{}
	s := newSynchronizer(top, bottom, NewSeekThrottle(-1, nil), testLogger())
	targets := [2]target{{loaded: true, time: 1.25}, {loaded: true, playing: true, time: 4}}

	s.reconcile(context.Background(), targets, false)
	s.reconcile(context.Background(), targets, false)

	assert.Equal(t, []call{{Op: OpSeekAndPause, Time: 1.25}}, top.Calls())
	assert.Equal(t, []call{{Op: OpPlayFrom, Time: 4}}, bottom.Calls())
}

func TestSynchronizer_UnloadedSlotIsLeftAlone(t *testing.T) {
	top := &recordingPrimitive{}
	s := newSynchronizer(top, nil, NewSeekThrottle(-1, nil), testLogger())

	s.reconcile(context.Background(), [2]target{{loaded: false, time: 3}}, false)

	assert.Empty(t, top.Calls())
}

func TestSynchronizer_InvalidateResends(t *testing.T) {
	top := &recordingPrimitive{}
	s := newSynchronizer(top, nil, NewSeekThrottle(-1, nil), testLogger())
	targets := [2]target{{loaded: true, time: 2}}

	s.reconcile(context.Background(), targets, false)
	s.invalidate()
	s.reconcile(context.Background(), targets, false)

	assert.Len(t, top.Calls(), 2)
}

func TestSynchronizer_SetPrimitiveResendsTarget(t *testing.T) {
	f := newFixture(0)
	ctx := context.Background()
	f.eng.SetSlotVideo(ctx, model.SlotTop, clip("t", 10))
	f.eng.NextFrame(ctx)

	replacement := &recordingPrimitive{}
	f.eng.SetPrimitive(ctx, model.SlotTop, replacement)

	assert.Equal(t, []call{{Op: OpSeekAndPause, Time: FrameStep}}, replacement.Calls())
}

func TestDrag_SeeksAreCoalescedButClockIsNot(t *testing.T) {
	f := newFixture(DefaultSeekInterval)
	ctx := context.Background()
	f.eng.SetSlotVideo(ctx, model.SlotTop, clip("t", 10))
	f.eng.Gesture(ctx, GestureEvent{Phase: PhaseBegin, OffsetPx: 0, TrackPx: 100})
	f.top.Reset()

	// burst of moves within a single throttle window
	for _, off := range []float64{10, 20, 30, 40} {
		f.clock.Advance(5 * time.Millisecond)
		out := f.eng.Gesture(ctx, GestureEvent{Phase: PhaseMove, OffsetPx: off, TrackPx: 100})
		require.True(t, out.Applied)
		assert.InDelta(t, off/10, f.eng.SlotState(model.SlotTop).CurrentTime, 1e-9, "clock follows every move")
		assert.InDelta(t, off/100, f.eng.View(TrackGeometry{TrackPx: 100}).Progress, 1e-9, "thumb follows every move")
	}

	calls := f.top.Calls()
	assert.Less(t, len(calls), 4, "seeks are throttled")

	f.eng.Gesture(ctx, GestureEvent{Phase: PhaseEnd})

	last, ok := f.top.Last()
	require.True(t, ok)
	assert.Equal(t, OpSeekAndPause, last.Op)
	assert.InDelta(t, 4.0, last.Time, 1e-9, "release flushes the final position")
}

func TestDrag_SeeksPassAfterInterval(t *testing.T) {
	f := newFixture(DefaultSeekInterval)
	ctx := context.Background()
	f.eng.SetSlotVideo(ctx, model.SlotTop, clip("t", 10))
	f.eng.Gesture(ctx, GestureEvent{Phase: PhaseBegin, OffsetPx: 0, TrackPx: 100})
	f.top.Reset()

	for _, off := range []float64{10, 20, 30} {
		f.clock.Advance(50 * time.Millisecond)
		f.eng.Gesture(ctx, GestureEvent{Phase: PhaseMove, OffsetPx: off, TrackPx: 100})
	}

	assert.Len(t, f.top.Calls(), 3)
}

func TestSeekThrottle(t *testing.T) {
	clk := newFakeClock()
	th := NewSeekThrottle(33*time.Millisecond, clk.Now)

	assert.True(t, th.Allow())
	assert.False(t, th.Allow())
	clk.Advance(20 * time.Millisecond)
	assert.False(t, th.Allow())
	clk.Advance(20 * time.Millisecond)
	assert.True(t, th.Allow())

	unlimited := NewSeekThrottle(0, clk.Now)
	for i := 0; i < 100; i++ {
		require.True(t, unlimited.Allow())
	}
}
