// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package motion

import (
	"fmt"
	"slices"
)

// FilterState carries the streaming filters across chunks of one stream.
//
// The streaming moving average and moving median are cumulative, unlike their
// batch counterparts: the average divides the running sum by
// min(count, WindowSize), and the median is taken over every value seen so far.
// Numbers from the two paths therefore differ once a stream is longer than the
// window.
//
// A FilterState belongs to a single stream and is not safe for concurrent use.
type FilterState struct {
	cfg FilterConfig

	// low-pass
	last   Sample
	seeded bool

	// moving average
	sum   Sample
	count int

	// moving median, one history per axis
	history [3][]float64
}

// NewFilterState returns a fresh state for cfg.
func NewFilterState(cfg FilterConfig) (*FilterState, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &FilterState{cfg: cfg}, nil
}

// Config returns the configuration the state was created with.
func (s *FilterState) Config() FilterConfig {
	return s.cfg
}

// LastFiltered returns the most recent low-pass output and whether there is one.
func (s *FilterState) LastFiltered() (Sample, bool) {
	return s.last, s.seeded
}

// Count returns how many samples the moving average has accumulated.
func (s *FilterState) Count() int {
	return s.count
}

// Reset forgets everything seen so far.
func (s *FilterState) Reset() {
	*s = FilterState{cfg: s.cfg}
}

// Update runs the configured streaming filter over the new samples.
func (s *FilterState) Update(samples []Sample) ([]Sample, error) {
	switch s.cfg.Algorithm {
	case LowPass:
		return StreamLowPass(s, samples)
	case MovingAverage:
		return StreamMovingAverage(s, samples)
	case MovingMedian:
		return StreamMovingMedian(s, samples)
	}
	return nil, fmt.Errorf("%w: unknown filter algorithm %d", ErrInvalidConfiguration, int(s.cfg.Algorithm))
}

// StreamLowPass continues the exponential recurrence from the state's last
// output, or from the first new sample on a fresh state. Feeding a stream in
// any chunking gives the same values as one BatchLowPass call with the same alpha.
func StreamLowPass(s *FilterState, samples []Sample) ([]Sample, error) {
	if err := validateAlpha(s.cfg.AlphaStreaming); err != nil {
		return nil, err
	}
	out := make([]Sample, len(samples))
	last, seeded := s.last, s.seeded
	for i, v := range samples {
		if !seeded {
			last, seeded = v, true
		} else {
			last = v.blend(last, s.cfg.AlphaStreaming)
		}
		out[i] = last
	}
	s.last, s.seeded = last, seeded
	return out, nil
}

// StreamMovingAverage adds each sample to a running sum and emits
// sum / min(count, WindowSize).
func StreamMovingAverage(s *FilterState, samples []Sample) ([]Sample, error) {
	if err := validateWindow(s.cfg.WindowSize); err != nil {
		return nil, err
	}
	out := make([]Sample, len(samples))
	sum, count := s.sum, s.count
	for i, v := range samples {
		sum = sum.add(v)
		count++
		out[i] = sum.scale(1 / float64(min(count, s.cfg.WindowSize)))
	}
	s.sum, s.count = sum, count
	return out, nil
}

// StreamMovingMedian appends each sample to the per-axis history and emits the
// median of the whole history. The history grows without bound.
func StreamMovingMedian(s *FilterState, samples []Sample) ([]Sample, error) {
	if len(samples) == 0 {
		return []Sample{}, nil
	}
	// Work on copies so a failure leaves s.history as it was.
	var hist [3][]float64
	for a := range hist {
		hist[a] = slices.Grow(slices.Clip(s.history[a]), len(samples))
	}
	out := make([]Sample, len(samples))
	for i, v := range samples {
		hist[0] = append(hist[0], v.X)
		hist[1] = append(hist[1], v.Y)
		hist[2] = append(hist[2], v.Z)

		var err error
		if out[i].X, err = Median(hist[0]); err != nil {
			return nil, err
		}
		if out[i].Y, err = Median(hist[1]); err != nil {
			return nil, err
		}
		if out[i].Z, err = Median(hist[2]); err != nil {
			return nil, err
		}
	}
	s.history = hist
	return out, nil
}
