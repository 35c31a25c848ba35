// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package model holds the value types of the compare engine.
package model

import (
	"errors"
	"fmt"
	"strings"
)

// Slot identifies one of the two fixed video holders.
type Slot string

const (
	SlotTop    Slot = "top"    // reference ("pro") video
	SlotBottom Slot = "bottom" // user video
)

// Slots lists both slots in display order.
var Slots = [2]Slot{SlotTop, SlotBottom}

var ErrInvalidSlot = errors.New("invalid slot")

// ParseSlot accepts "top" or "bottom" (case-insensitive).
func ParseSlot(s string) (Slot, error) {
	switch Slot(strings.ToLower(strings.TrimSpace(s))) {
	case SlotTop:
		return SlotTop, nil
	case SlotBottom:
		return SlotBottom, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSlot, s)
	}
}

// Valid reports whether s is one of the two known slots.
func (s Slot) Valid() bool {
	return s == SlotTop || s == SlotBottom
}

// Other returns the opposite slot.
func (s Slot) Other() Slot {
	if s == SlotTop {
		return SlotBottom
	}
	return SlotTop
}

// Index maps the slot to 0 (top) or 1 (bottom).
func (s Slot) Index() int {
	if s == SlotBottom {
		return 1
	}
	return 0
}

func (s Slot) String() string { return string(s) }
