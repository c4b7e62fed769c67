// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package motion

import "fmt"

// EstimateSlope returns the average rate of change of each axis across window:
//
//	(last - first) / (samplePeriod * len(window))
//
// samplePeriod is in seconds. The window must hold at least two samples.
func EstimateSlope(window []Sample, samplePeriod float64) (SlopeEstimate, error) {
	if !(samplePeriod > 0) {
		return SlopeEstimate{}, fmt.Errorf("%w: sample period must be > 0, got %v", ErrInvalidConfiguration, samplePeriod)
	}
	if len(window) < 2 {
		return SlopeEstimate{}, fmt.Errorf("%w: slope needs 2 samples, got %d", ErrInsufficientData, len(window))
	}
	first, last := window[0], window[len(window)-1]
	elapsed := samplePeriod * float64(len(window))
	return SlopeEstimate{
		X: (last.X - first.X) / elapsed,
		Y: (last.Y - first.Y) / elapsed,
		Z: (last.Z - first.Z) / elapsed,
	}, nil
}
