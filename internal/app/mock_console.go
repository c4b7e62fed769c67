// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/relabs-tech/motion_monitor/internal/config"
	"github.com/relabs-tech/motion_monitor/internal/imu"
	"github.com/relabs-tech/motion_monitor/internal/motion"
	"github.com/relabs-tech/motion_monitor/internal/sensors"
)

// writerSink prints feedback straight to a writer.
type writerSink struct {
	w       io.Writer
	palette motion.Palette
	last    motion.Color
}

func (s *writerSink) SetIndicator(c motion.Color) {
	if c == s.last {
		return
	}
	s.last = c
	fmt.Fprintf(s.w, "LED=%s\n", s.palette.Name(c))
}

func (s *writerSink) AppendLogMessage(msg string) {
	fmt.Fprintln(s.w, msg)
}

// RunMockConsole runs the whole pipeline locally on the mock source, no broker
// needed. ticks limits the number of samples; 0 runs forever in real time.
func RunMockConsole(cfg *config.Config, w io.Writer, ticks int) error {
	det, err := NewDetector(cfg.Session(), cfg.Palette(), func(string) motion.FeedbackSink {
		return &writerSink{w: w, palette: cfg.Palette()}
	})
	if err != nil {
		return err
	}

	src := sensors.NewMockSource(sensors.DefaultMockOptions())
	chunker := NewChunker("mock", cfg.SamplePeriod, cfg.SampleChunkSize)

	var tick <-chan time.Time
	if ticks == 0 {
		ticker := time.NewTicker(time.Duration(cfg.SamplePeriod * float64(time.Second)))
		defer ticker.Stop()
		tick = ticker.C
	}

	for i := 0; ticks == 0 || i < ticks; i++ {
		now := time.Now()
		if tick != nil {
			now = <-tick
		}
		s, err := src.NextSample()
		if err != nil {
			return err
		}
		chunk, ok := chunker.Add(s, now)
		if !ok {
			continue
		}
		if err := consoleStep(det, chunk, w); err != nil {
			return err
		}
	}
	return nil
}

func consoleStep(det *Detector, chunk imu.Chunk, w io.Writer) error {
	msg, ok, err := det.HandleChunk(chunk)
	if errors.Is(err, motion.ErrInsufficientData) {
		return nil
	}
	if err != nil {
		return err
	}
	if ok {
		fmt.Fprintln(w, FormatEvent(msg))
	}
	return nil
}
