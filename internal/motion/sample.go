// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package motion turns tri-axial accelerometer samples into motion events.
//
// The pipeline is filter -> slope estimate -> classifier. Batch filters are pure
// functions over a full recording; streaming filters mutate a caller-owned
// FilterState one chunk at a time. Nothing in this package logs, blocks or keeps
// package-level mutable state.
package motion

import (
	"fmt"
	"math"
	"strings"
)

// Sample is one (x, y, z) reading. Its position in a sequence encodes time;
// the sample period is configuration, not data.
type Sample struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Axis selects one component of a Sample or SlopeEstimate.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	}
	return fmt.Sprintf("axis(%d)", int(a))
}

// ParseAxis accepts "x", "y" or "z" (case-insensitive).
func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "x":
		return AxisX, nil
	case "y":
		return AxisY, nil
	case "z":
		return AxisZ, nil
	}
	return 0, fmt.Errorf("%w: unknown axis %q", ErrInvalidConfiguration, s)
}

// others returns the two axes that are not a, in x/y/z order.
func (a Axis) others() (Axis, Axis) {
	switch a {
	case AxisX:
		return AxisY, AxisZ
	case AxisY:
		return AxisX, AxisZ
	}
	return AxisX, AxisY
}

// Axis returns the component selected by a.
func (s Sample) Axis(a Axis) float64 {
	switch a {
	case AxisY:
		return s.Y
	case AxisZ:
		return s.Z
	}
	return s.X
}

func (s Sample) add(o Sample) Sample {
	return Sample{X: s.X + o.X, Y: s.Y + o.Y, Z: s.Z + o.Z}
}

func (s Sample) scale(k float64) Sample {
	return Sample{X: s.X * k, Y: s.Y * k, Z: s.Z * k}
}

// blend returns alpha*s + (1-alpha)*prev per axis.
func (s Sample) blend(prev Sample, alpha float64) Sample {
	return s.scale(alpha).add(prev.scale(1 - alpha))
}

// finite reports whether all three components are finite numbers.
func (s Sample) finite() bool {
	for _, v := range [3]float64{s.X, s.Y, s.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// missing reports whether every component is NaN, i.e. an empty recording row.
func (s Sample) missing() bool {
	return math.IsNaN(s.X) && math.IsNaN(s.Y) && math.IsNaN(s.Z)
}

// DropMissing returns samples without rows whose three components are all NaN.
// Rows with only some components missing are kept as they are.
func DropMissing(samples []Sample) []Sample {
	out := make([]Sample, 0, len(samples))
	for _, s := range samples {
		if s.missing() {
			continue
		}
		out = append(out, s)
	}
	return out
}

// SlopeEstimate is the average rate of change of each axis over a window.
type SlopeEstimate struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Axis returns the slope of the selected axis.
func (e SlopeEstimate) Axis(a Axis) float64 {
	return Sample(e).Axis(a)
}
