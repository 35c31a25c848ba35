// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package player connects compare sessions to real playback primitives: a
// websocket bridge to a client-side video element, and a headless recorder.
package player

import (
	"context"
	"sync"
	"time"

	"github.com/ManuGH/swinglab/internal/domain/compare/engine"
)

// Instruction is one primitive call as seen by a Recorder or sent over the bridge.
type Instruction struct {
	Op   engine.Op `json:"op"`
	Time float64   `json:"time"`
	At   time.Time `json:"at"`
}

const defaultRecorderDepth = 64

// Recorder is a headless primitive that keeps the most recent instructions.
type Recorder struct {
	mu    sync.Mutex
	depth int
	log   []Instruction
	now   func() time.Time
}

func NewRecorder(depth int) *Recorder {
	if depth <= 0 {
		depth = defaultRecorderDepth
	}
	return &Recorder{depth: depth, now: time.Now}
}

func (r *Recorder) SeekAndPause(_ context.Context, seconds float64) error {
	r.record(engine.OpSeekAndPause, seconds)
	return nil
}

func (r *Recorder) PlayFrom(_ context.Context, seconds float64) error {
	r.record(engine.OpPlayFrom, seconds)
	return nil
}

func (r *Recorder) record(op engine.Op, seconds float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log = append(r.log, Instruction{Op: op, Time: seconds, At: r.now()})
	if over := len(r.log) - r.depth; over > 0 {
		r.log = append(r.log[:0], r.log[over:]...)
	}
}

// Instructions returns the retained instructions, oldest first.
func (r *Recorder) Instructions() []Instruction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Instruction, len(r.log))
	copy(out, r.log)
	return out
}

// Last returns the newest instruction.
func (r *Recorder) Last() (Instruction, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.log) == 0 {
		return Instruction{}, false
	}
	return r.log[len(r.log)-1], true
}
