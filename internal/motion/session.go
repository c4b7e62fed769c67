// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package motion

import (
	"fmt"
	"slices"
)

// DefaultSlopeWindow is how many recent filtered samples a slope spans.
const DefaultSlopeWindow = 10

// SessionConfig configures one processing session.
type SessionConfig struct {
	Filter     FilterConfig
	Classifier Classifier
	// SamplePeriod is the time between samples, in seconds.
	SamplePeriod float64
	// SlopeWindow is the number of most recent filtered samples the slope is
	// estimated over. Must be >= 2.
	SlopeWindow int
}

// Validate checks the filter, the classifier, the sample period and the slope window.
func (c SessionConfig) Validate() error {
	if err := c.Filter.Validate(); err != nil {
		return err
	}
	if err := c.Classifier.Validate(); err != nil {
		return err
	}
	if !(c.SamplePeriod > 0) {
		return fmt.Errorf("%w: sample period must be > 0, got %v", ErrInvalidConfiguration, c.SamplePeriod)
	}
	if c.SlopeWindow < 2 {
		return fmt.Errorf("%w: slope window must be >= 2, got %d", ErrInvalidConfiguration, c.SlopeWindow)
	}
	return nil
}

// Result is the outcome of processing one chunk.
type Result struct {
	Filtered []Sample
	Slope    SlopeEstimate
	Event    MotionEvent
	// Transition is true when Event changed the episode state.
	Transition bool
}

// Session runs filter, slope estimator and classifier over successive chunks
// of a single stream. It owns its FilterState and must be driven from one
// goroutine at a time.
type Session struct {
	cfg     SessionConfig
	state   *FilterState
	window  []Sample
	episode Episode
}

// NewSession validates cfg and returns a fresh session.
func NewSession(cfg SessionConfig) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	st, err := NewFilterState(cfg.Filter)
	if err != nil {
		return nil, err
	}
	return &Session{
		cfg:    cfg,
		state:  st,
		window: make([]Sample, 0, cfg.SlopeWindow),
	}, nil
}

// Config returns the session's current configuration.
func (s *Session) Config() SessionConfig {
	return s.cfg
}

// State returns the episode state after the last processed chunk.
func (s *Session) State() MotionState {
	return s.episode.State()
}

// SetThresholds swaps the classifier thresholds; filter state is kept.
func (s *Session) SetThresholds(th Thresholds) error {
	if err := th.Validate(); err != nil {
		return err
	}
	s.cfg.Classifier.Thresholds = th
	return nil
}

// Process filters chunk, slides the slope window and classifies the result.
//
// While fewer than two filtered samples have been seen it returns an error
// wrapping ErrInsufficientData; the filtered values are still kept. A chunk
// containing NaN or infinite values is rejected before anything is mutated.
func (s *Session) Process(chunk []Sample) (Result, error) {
	for i, v := range chunk {
		if !v.finite() {
			return Result{}, fmt.Errorf("%w: sample %d is not finite", ErrInvalidSample, i)
		}
	}
	filtered, err := s.state.Update(chunk)
	if err != nil {
		return Result{}, err
	}
	s.push(filtered)

	res := Result{Filtered: filtered}
	res.Slope, err = EstimateSlope(s.window, s.cfg.SamplePeriod)
	if err != nil {
		return res, err
	}
	res.Event = s.cfg.Classifier.Classify(res.Slope)
	res.Transition = s.episode.Observe(res.Event.Event)
	return res, nil
}

// push keeps the last SlopeWindow filtered samples.
func (s *Session) push(filtered []Sample) {
	s.window = append(s.window, filtered...)
	if extra := len(s.window) - s.cfg.SlopeWindow; extra > 0 {
		s.window = slices.Delete(s.window, 0, extra)
	}
}
