// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package transport

import "fmt"

// Decide resolves the next state for ev from the tables. A forbidden or
// unknown combination yields ok=false, the unchanged state and a reason.
func Decide(from State, ev EventKind) (to State, reason string, ok bool) {
	decision, known := DecisionFor(from, ev)
	if !known {
		return from, fmt.Sprintf("unknown transition: %s + %s", from, ev), false
	}
	if !decision.Allowed {
		return from, decision.Reason, false
	}
	tr, found := TransitionFor(from, ev)
	if !found {
		return from, fmt.Sprintf("missing transition: %s + %s", from, ev), false
	}
	return tr.To, "", true
}
