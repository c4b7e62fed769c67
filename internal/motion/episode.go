// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package motion

// MotionState is the caller-side view of a motion episode.
type MotionState int

const (
	Idle MotionState = iota
	InMotionPositive
	InMotionNegative
)

func (s MotionState) String() string {
	switch s {
	case InMotionPositive:
		return "in_motion_positive"
	case InMotionNegative:
		return "in_motion_negative"
	}
	return "idle"
}

// Episode remembers the last observed event so callers can act on state
// changes rather than on every classification.
type Episode struct {
	state MotionState
	last  Event
}

// State returns the current state.
func (e *Episode) State() MotionState {
	return e.state
}

// Last returns the last observed event.
func (e *Episode) Last() Event {
	return e.last
}

// Observe records ev and reports whether it moved the episode to a new state.
func (e *Episode) Observe(ev Event) bool {
	next := Idle
	switch ev {
	case EventStartPositive:
		next = InMotionPositive
	case EventStartNegative:
		next = InMotionNegative
	}
	changed := next != e.state
	e.state, e.last = next, ev
	return changed
}
