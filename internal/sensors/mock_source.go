// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"math/rand/v2"

	"github.com/relabs-tech/motion_monitor/internal/imu"
	"github.com/relabs-tech/motion_monitor/internal/motion"
)

// MockOptions shapes the generated signal. Times are in samples.
type MockOptions struct {
	Seed      uint64
	Noise     float64 // peak noise amplitude, g
	Cycle     int     // samples per quiet+burst cycle
	BurstAt   int     // offset of the burst within the cycle
	BurstLen  int     // rise and fall each take BurstLen/2 samples
	BurstPeak float64 // X acceleration at the top of the burst, g
}

// DefaultMockOptions gives a short 8g push on X every 100 samples, enough to
// clear the default slope threshold after low-pass smoothing.
func DefaultMockOptions() MockOptions {
	return MockOptions{
		Seed:      1,
		Noise:     0.01,
		Cycle:     100,
		BurstAt:   40,
		BurstLen:  20,
		BurstPeak: 8,
	}
}

type mockSource struct {
	opts MockOptions
	rng  *rand.Rand
	n    int
}

// NewMockSource creates a deterministic source: the device lies flat (1g on Z)
// and periodically moves along X with a triangular acceleration profile.
func NewMockSource(opts MockOptions) imu.SampleSource {
	if opts.Cycle <= 0 {
		opts.Cycle = DefaultMockOptions().Cycle
	}
	return &mockSource{
		opts: opts,
		rng:  rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)),
	}
}

func (m *mockSource) NextSample() (motion.Sample, error) {
	pos := m.n % m.opts.Cycle
	m.n++

	s := motion.Sample{X: m.burst(pos), Y: 0, Z: 1}
	if m.opts.Noise > 0 {
		s.X += m.noise()
		s.Y += m.noise()
		s.Z += m.noise()
	}
	return s, nil
}

func (m *mockSource) burst(pos int) float64 {
	half := m.opts.BurstLen / 2
	if half == 0 {
		return 0
	}
	d := pos - m.opts.BurstAt
	switch {
	case d < 0 || d >= 2*half:
		return 0
	case d < half:
		return m.opts.BurstPeak * float64(d) / float64(half)
	default:
		return m.opts.BurstPeak * float64(2*half-d) / float64(half)
	}
}

func (m *mockSource) noise() float64 {
	return (m.rng.Float64()*2 - 1) * m.opts.Noise
}
