// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package motion

import (
	"fmt"
	"math"
)

// Event is the outcome of one classification.
type Event int

const (
	EventNone Event = iota
	EventStartPositive
	EventStartNegative
)

func (e Event) String() string {
	switch e {
	case EventNone:
		return "none"
	case EventStartPositive:
		return "start_positive"
	case EventStartNegative:
		return "start_negative"
	}
	return fmt.Sprintf("event(%d)", int(e))
}

// Trigger returns 1, -1 or 0 for positive, negative and no movement.
func (e Event) Trigger() int {
	switch e {
	case EventStartPositive:
		return 1
	case EventStartNegative:
		return -1
	}
	return 0
}

// Color is the indicator tag a sink should show.
type Color int

const (
	ColorNeutral Color = iota
	ColorPositive
	ColorNegative
)

func (c Color) String() string {
	switch c {
	case ColorNeutral:
		return "neutral"
	case ColorPositive:
		return "positive"
	case ColorNegative:
		return "negative"
	}
	return fmt.Sprintf("color(%d)", int(c))
}

// MotionEvent describes what the feedback sink should do. Message is empty
// for EventNone.
type MotionEvent struct {
	Event   Event
	Message string
	Color   Color
}

// DefaultHighRatio is how many times larger than a reference slope the
// classified slope has to be.
const DefaultHighRatio = 3.0

// Thresholds configures the classifier.
type Thresholds struct {
	// Threshold is the absolute slope magnitude that must be exceeded.
	Threshold float64
	// HighRatio multiplies the reference slopes.
	HighRatio float64
}

// Validate requires a non-negative threshold and a high ratio of at least 1.
func (t Thresholds) Validate() error {
	if !(t.Threshold >= 0) {
		return fmt.Errorf("%w: threshold must be >= 0, got %v", ErrInvalidConfiguration, t.Threshold)
	}
	if !(t.HighRatio >= 1) {
		return fmt.Errorf("%w: high ratio must be >= 1, got %v", ErrInvalidConfiguration, t.HighRatio)
	}
	return nil
}

// Classify decides whether meanSlope starts a movement.
//
// A positive start needs meanSlope > Threshold and meanSlope greater than
// HighRatio times at least one of the reference slopes. The negative case
// mirrors it. The function has no memory; tracking the previous event is up to
// the caller (see Episode).
func Classify(meanSlope, refSlope1, refSlope2 float64, th Thresholds, label string) MotionEvent {
	return classify(meanSlope, refSlope1, refSlope2, th, label, "End "+label)
}

func classify(meanSlope, ref1, ref2 float64, th Thresholds, posLabel, negLabel string) MotionEvent {
	hr := th.HighRatio
	switch {
	case meanSlope > th.Threshold && (meanSlope > hr*ref1 || meanSlope > hr*ref2):
		return MotionEvent{
			Event:   EventStartPositive,
			Message: fmt.Sprintf("%s at slope %.2f", posLabel, meanSlope),
			Color:   ColorPositive,
		}
	case meanSlope < -th.Threshold && (meanSlope < -hr*ref1 || meanSlope < -hr*ref2):
		return MotionEvent{
			Event:   EventStartNegative,
			Message: fmt.Sprintf("%s at slope %.2f", negLabel, meanSlope),
			Color:   ColorNegative,
		}
	}
	return MotionEvent{Event: EventNone, Color: ColorNeutral}
}

// Classifier applies Classify to one axis of a SlopeEstimate, using the
// magnitudes of the other two axes as reference slopes.
type Classifier struct {
	Thresholds
	Axis Axis
	// PositiveLabel names the movement in log messages.
	PositiveLabel string
	// NegativeLabel defaults to "End " + PositiveLabel.
	NegativeLabel string
}

// Classify classifies the configured axis of slope.
func (c Classifier) Classify(slope SlopeEstimate) MotionEvent {
	a, b := c.Axis.others()
	neg := c.NegativeLabel
	if neg == "" {
		neg = "End " + c.PositiveLabel
	}
	return classify(
		slope.Axis(c.Axis),
		math.Abs(slope.Axis(a)),
		math.Abs(slope.Axis(b)),
		c.Thresholds,
		c.PositiveLabel,
		neg,
	)
}
