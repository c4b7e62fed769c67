// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package motion

import (
	"fmt"
	"strings"
)

// Algorithm selects the smoothing filter.
type Algorithm int

const (
	LowPass Algorithm = iota
	MovingAverage
	MovingMedian
)

// The batch and streaming low-pass filters have historically used different
// smoothing factors. They stay two separate knobs.
const (
	DefaultAlphaBatch     = 0.05
	DefaultAlphaStreaming = 0.1
	DefaultWindowSize     = 10
)

func (a Algorithm) String() string {
	switch a {
	case LowPass:
		return "lowpass"
	case MovingAverage:
		return "moving_average"
	case MovingMedian:
		return "moving_median"
	}
	return fmt.Sprintf("algorithm(%d)", int(a))
}

// ParseAlgorithm accepts "lowpass", "moving_average" or "moving_median".
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lowpass", "low_pass":
		return LowPass, nil
	case "moving_average", "sma":
		return MovingAverage, nil
	case "moving_median", "median":
		return MovingMedian, nil
	}
	return 0, fmt.Errorf("%w: unknown filter algorithm %q", ErrInvalidConfiguration, s)
}

// FilterConfig selects and parameterises a filter.
type FilterConfig struct {
	Algorithm Algorithm
	// WindowSize is used by the moving average and moving median filters.
	WindowSize int
	// AlphaBatch and AlphaStreaming are the low-pass smoothing factors, in (0, 1].
	AlphaBatch     float64
	AlphaStreaming float64
}

// DefaultFilterConfig returns a low-pass configuration with the default factors.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		Algorithm:      LowPass,
		WindowSize:     DefaultWindowSize,
		AlphaBatch:     DefaultAlphaBatch,
		AlphaStreaming: DefaultAlphaStreaming,
	}
}

// Validate checks every field regardless of the selected algorithm.
func (c FilterConfig) Validate() error {
	switch c.Algorithm {
	case LowPass, MovingAverage, MovingMedian:
	default:
		return fmt.Errorf("%w: unknown filter algorithm %d", ErrInvalidConfiguration, int(c.Algorithm))
	}
	if err := validateWindow(c.WindowSize); err != nil {
		return err
	}
	if err := validateAlpha(c.AlphaBatch); err != nil {
		return fmt.Errorf("batch: %w", err)
	}
	if err := validateAlpha(c.AlphaStreaming); err != nil {
		return fmt.Errorf("streaming: %w", err)
	}
	return nil
}

// Batch runs the configured batch filter over samples.
func (c FilterConfig) Batch(samples []Sample) ([]Sample, error) {
	switch c.Algorithm {
	case LowPass:
		return BatchLowPass(samples, c.AlphaBatch)
	case MovingAverage:
		return BatchMovingAverage(samples, c.WindowSize)
	case MovingMedian:
		return BatchMovingMedian(samples, c.WindowSize)
	}
	return nil, fmt.Errorf("%w: unknown filter algorithm %d", ErrInvalidConfiguration, int(c.Algorithm))
}

// Padding is the number of leading zero rows the batch filter emits.
func (c FilterConfig) Padding() int {
	if c.Algorithm == LowPass {
		return 0
	}
	return c.WindowSize
}

func validateWindow(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: window size must be >= 1, got %d", ErrInvalidConfiguration, n)
	}
	return nil
}

func validateAlpha(alpha float64) error {
	// written so that NaN fails too
	if !(alpha > 0 && alpha <= 1) {
		return fmt.Errorf("%w: alpha must be in (0, 1], got %v", ErrInvalidConfiguration, alpha)
	}
	return nil
}
