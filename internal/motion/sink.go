// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package motion

// FeedbackSink is implemented by whatever presents results: a log, a
// websocket feed, an LED, a display. Calls are fire-and-forget.
type FeedbackSink interface {
	SetIndicator(Color)
	AppendLogMessage(string)
}

// Deliver forwards ev to sink. The indicator is always updated; a log line is
// appended only when the event carries a message.
func Deliver(sink FeedbackSink, ev MotionEvent) {
	sink.SetIndicator(ev.Color)
	if ev.Message != "" {
		sink.AppendLogMessage(ev.Message)
	}
}

// Palette maps indicator tags to the identifiers a concrete sink understands,
// for example CSS color names.
type Palette struct {
	Positive string
	Negative string
	Neutral  string
}

// DefaultPalette is green for a start, red for an end and white when idle.
func DefaultPalette() Palette {
	return Palette{Positive: "green", Negative: "red", Neutral: "white"}
}

// Name returns the identifier for c.
func (p Palette) Name(c Color) string {
	switch c {
	case ColorPositive:
		return p.Positive
	case ColorNegative:
		return p.Negative
	}
	return p.Neutral
}

// ColorFor maps an event to its indicator tag.
func ColorFor(e Event) Color {
	switch e {
	case EventStartPositive:
		return ColorPositive
	case EventStartNegative:
		return ColorNegative
	}
	return ColorNeutral
}
