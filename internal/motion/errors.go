// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package motion

import "errors"

// Every failure in this package wraps one of these; match with errors.Is.
// A failed call never leaves a FilterState partially updated.
var (
	// ErrInsufficientData: the input is too short for the requested window or slope.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrInvalidConfiguration: window size, alpha, sample period or thresholds out of range.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrEmptyWindow: a mean or median was requested over zero elements.
	ErrEmptyWindow = errors.New("empty window")
	// ErrInvalidSample: a sample holds NaN or an infinity.
	ErrInvalidSample = errors.New("invalid sample")
)
