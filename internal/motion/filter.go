// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package motion

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// BatchLowPass applies exponential smoothing to a full recording:
//
//	out[0] = in[0]
//	out[i] = alpha*in[i] + (1-alpha)*out[i-1]
//
// Each axis is filtered independently. Empty input yields empty output.
func BatchLowPass(samples []Sample, alpha float64) ([]Sample, error) {
	if err := validateAlpha(alpha); err != nil {
		return nil, err
	}
	out := make([]Sample, len(samples))
	for i, s := range samples {
		if i == 0 {
			out[0] = s
			continue
		}
		out[i] = s.blend(out[i-1], alpha)
	}
	return out, nil
}

// BatchMovingAverage smooths samples with a sliding mean.
//
// Output row windowSize+i is the mean of the windowSize-1 samples starting at
// input row i, for i in [0, len-windowSize). The first windowSize rows are zero
// so the result lines up with the raw timeline and has the input's length.
func BatchMovingAverage(samples []Sample, windowSize int) ([]Sample, error) {
	return batchWindowed(samples, windowSize, func(vs []float64) (float64, error) {
		if len(vs) == 0 {
			return 0, ErrEmptyWindow
		}
		return stat.Mean(vs, nil), nil
	})
}

// BatchMovingMedian is BatchMovingAverage with a per-axis median.
func BatchMovingMedian(samples []Sample, windowSize int) ([]Sample, error) {
	return batchWindowed(samples, windowSize, Median)
}

func batchWindowed(samples []Sample, windowSize int, reduce func([]float64) (float64, error)) ([]Sample, error) {
	if err := validateWindow(windowSize); err != nil {
		return nil, err
	}
	if len(samples) <= windowSize {
		return nil, fmt.Errorf("%w: %d samples for window size %d", ErrInsufficientData, len(samples), windowSize)
	}

	out := make([]Sample, windowSize, len(samples))
	span := windowSize - 1
	xs := make([]float64, span)
	ys := make([]float64, span)
	zs := make([]float64, span)
	for i := 0; i < len(samples)-windowSize; i++ {
		for j, s := range samples[i : i+span] {
			xs[j], ys[j], zs[j] = s.X, s.Y, s.Z
		}
		var (
			row Sample
			err error
		)
		if row.X, err = reduce(xs); err != nil {
			return nil, fmt.Errorf("window at %d: %w", i, err)
		}
		if row.Y, err = reduce(ys); err != nil {
			return nil, fmt.Errorf("window at %d: %w", i, err)
		}
		if row.Z, err = reduce(zs); err != nil {
			return nil, fmt.Errorf("window at %d: %w", i, err)
		}
		out = append(out, row)
	}
	return out, nil
}

// Median returns the middle value of values, or the mean of the two middle
// values for an even count. values is not modified.
func Median(values []float64) (float64, error) {
	n := len(values)
	if n == 0 {
		return 0, ErrEmptyWindow
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2, nil
	}
	return sorted[n/2], nil
}
