// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package engine

import "context"

// Op names a playback primitive instruction.
type Op string

const (
	OpSeekAndPause Op = "seekAndPause"
	OpPlayFrom     Op = "playFrom"
)

// Primitive is the per-slot media player the engine drives. Calls must not
// block on media completion; the engine fires and moves on.
type Primitive interface {
	SeekAndPause(ctx context.Context, seconds float64) error
	PlayFrom(ctx context.Context, seconds float64) error
}

// NopPrimitive accepts and discards every instruction.
type NopPrimitive struct{}

func (NopPrimitive) SeekAndPause(context.Context, float64) error { return nil }
func (NopPrimitive) PlayFrom(context.Context, float64) error     { return nil }
