// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ManuGH/swinglab/internal/domain/compare/model"
	"github.com/rs/zerolog"
)

type call struct {
	Op   Op
	Time float64
}

// recordingPrimitive captures every instruction it receives.
type recordingPrimitive struct {
	mu    sync.Mutex
	calls []call
	fail  bool
}

func (r *recordingPrimitive) SeekAndPause(_ context.Context, s float64) error {
	return r.record(OpSeekAndPause, s)
}

func (r *recordingPrimitive) PlayFrom(_ context.Context, s float64) error {
	return r.record(OpPlayFrom, s)
}

func (r *recordingPrimitive) record(op Op, s float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call{Op: op, Time: s})
	if r.fail {
		return errors.New("decoder busy")
	}
	return nil
}

func (r *recordingPrimitive) Calls() []call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]call, len(r.calls))
	copy(out, r.calls)
	return out
}

func (r *recordingPrimitive) Last() (call, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) == 0 {
		return call{}, false
	}
	return r.calls[len(r.calls)-1], true
}

func (r *recordingPrimitive) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

// fakeClock is a manually advanced time source.
type fakeClock struct{ t time.Time }

func newFakeClock() *fakeClock { return &fakeClock{t: time.Unix(1_700_000_000, 0)} }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func dur(v float64) *float64 { return &v }

func clip(id string, seconds float64) *model.VideoSource {
	return &model.VideoSource{ID: id, URI: "file:///swings/" + id + ".mp4", Name: "swing " + id, Duration: dur(seconds)}
}

type fixture struct {
	eng    *Engine
	top    *recordingPrimitive
	bottom *recordingPrimitive
	clock  *fakeClock
}

func newFixture(interval time.Duration) *fixture {
	f := &fixture{top: &recordingPrimitive{}, bottom: &recordingPrimitive{}, clock: newFakeClock()}
	f.eng = New(Options{Top: f.top, Bottom: f.bottom, SeekInterval: interval, Now: f.clock.Now})
	return f
}

func testLogger() zerolog.Logger { return zerolog.Nop() }
