// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressFraction(t *testing.T) {
	tests := []struct {
		name   string
		offset float64
		track  float64
		want   float64
		ok     bool
	}{
		{"middle", 150, 300, 0.5, true},
		{"negative offset", -20, 300, 0, true},
		{"past end", 450, 300, 1, true},
		{"nan offset", math.NaN(), 300, 0, true},
		{"zero track", 10, 0, 0, false},
		{"negative track", 10, -5, 0, false},
		{"infinite track", 10, math.Inf(1), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ProgressFraction(tt.offset, tt.track)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func FuzzProgressFraction(f *testing.F) {
	f.Add(0.0, 100.0)
	f.Add(-50.0, 100.0)
	f.Add(1e9, 1.0)
	f.Add(3.0, 0.0)
	f.Fuzz(func(t *testing.T, offset, track float64) {
		p, ok := ProgressFraction(offset, track)
		if !ok {
			return
		}
		if p < 0 || p > 1 || math.IsNaN(p) {
			t.Fatalf("progress %v out of [0,1] for offset=%v track=%v", p, offset, track)
		}
	})
}

func TestParseGesturePhase(t *testing.T) {
	p, err := ParseGesturePhase(" Move ")
	require.NoError(t, err)
	assert.Equal(t, PhaseMove, p)

	_, err = ParseGesturePhase("tap")
	assert.Error(t, err)
}

func TestFormatTime(t *testing.T) {
	assert.Equal(t, "0:00.00", FormatTime(0))
	assert.Equal(t, "0:03.50", FormatTime(3.5))
	assert.Equal(t, "1:05.03", FormatTime(65.034))
	assert.Equal(t, "0:00.00", FormatTime(math.NaN()))
	assert.Equal(t, "0:00.00", FormatTime(-2))
}

func TestView_ThumbStaysInsideTrack(t *testing.T) {
	f := newFixture(0)
	ctx := t.Context()
	f.eng.SetSlotVideo(ctx, "top", clip("t", 10))
	f.eng.Gesture(ctx, GestureEvent{Phase: PhaseBegin, OffsetPx: 300, TrackPx: 300})

	v := f.eng.View(TrackGeometry{TrackPx: 300, ThumbPx: 24})

	assert.Equal(t, 1.0, v.Progress)
	assert.Equal(t, 100.0, v.Percent)
	assert.Equal(t, 276.0, v.ThumbOffset)
	assert.Equal(t, "0:10.00", v.CurrentLabel)
	assert.Equal(t, "0:10.00", v.TotalLabel)
	assert.True(t, v.Dragging)
}
