// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/motion_monitor/internal/config"
	"github.com/relabs-tech/motion_monitor/internal/motion"
)

// Column names of the recorded accelerometer CSV files.
var replayColumns = [3]string{"X_ACC", "Y_ACC", "Z_ACC"}

// ReplayEvent is one non-None classification found in a recording.
type ReplayEvent struct {
	// Index of the last filtered sample in the slope window, counted over the
	// rows left after dropping empty and partial ones.
	Index int
	Slope motion.SlopeEstimate
	Event motion.MotionEvent
}

// ReplayResult summarises a replay run.
type ReplayResult struct {
	Rows    int // data rows read
	Dropped int // rows with no value at all
	Skipped int // rows with some but not all values
	Windows int // slope windows classified
	Events  []ReplayEvent
}

// ReadRecording parses a CSV with X_ACC, Y_ACC and Z_ACC columns, in any order
// and among other columns. Empty or "nan" cells are read as NaN.
func ReadRecording(r io.Reader) ([]motion.Sample, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	var idx [3]int
	for a, name := range replayColumns {
		idx[a] = -1
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), name) {
				idx[a] = i
				break
			}
		}
		if idx[a] < 0 {
			return nil, fmt.Errorf("missing column %s", name)
		}
	}

	var samples []motion.Sample
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return samples, nil
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		var v [3]float64
		for a, i := range idx {
			cell := ""
			if i < len(rec) {
				cell = strings.TrimSpace(rec[i])
			}
			v[a], err = parseCell(cell)
			if err != nil {
				return nil, fmt.Errorf("line %d, %s: %w", line, replayColumns[a], err)
			}
		}
		samples = append(samples, motion.Sample{X: v[0], Y: v[1], Z: v[2]})
	}
}

func parseCell(cell string) (float64, error) {
	if cell == "" || strings.EqualFold(cell, "nan") {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(cell, 64)
}

// Replay runs the batch path over a whole recording: drop empty rows, batch
// filter, then classify every SlopeWindow-long window of the filtered
// timeline after the zero padding. Non-None events are delivered to sink.
func Replay(samples []motion.Sample, cfg motion.SessionConfig, sink motion.FeedbackSink) (ReplayResult, error) {
	res := ReplayResult{Rows: len(samples)}
	if err := cfg.Validate(); err != nil {
		return res, err
	}

	kept := motion.DropMissing(samples)
	res.Dropped = len(samples) - len(kept)

	clean := kept[:0:0]
	for _, s := range kept {
		if math.IsNaN(s.X) || math.IsNaN(s.Y) || math.IsNaN(s.Z) {
			res.Skipped++
			continue
		}
		clean = append(clean, s)
	}

	filtered, err := cfg.Filter.Batch(clean)
	if err != nil {
		return res, fmt.Errorf("batch filter: %w", err)
	}
	timeline := filtered[cfg.Filter.Padding():]
	if len(timeline) < cfg.SlopeWindow {
		return res, fmt.Errorf("%w: %d filtered samples, slope window is %d", motion.ErrInsufficientData, len(timeline), cfg.SlopeWindow)
	}

	for end := cfg.SlopeWindow; end <= len(timeline); end++ {
		slope, err := motion.EstimateSlope(timeline[end-cfg.SlopeWindow:end], cfg.SamplePeriod)
		if err != nil {
			return res, err
		}
		res.Windows++
		ev := cfg.Classifier.Classify(slope)
		if ev.Event == motion.EventNone {
			continue
		}
		if sink != nil {
			motion.Deliver(sink, ev)
		}
		res.Events = append(res.Events, ReplayEvent{Index: end - 1, Slope: slope, Event: ev})
	}
	return res, nil
}

// RunReplay replays a recorded CSV file and logs every event found.
func RunReplay(path string) error {
	cfg := config.Get()

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open recording: %w", err)
	}
	defer f.Close()

	samples, err := ReadRecording(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	log.Printf("replay: %d rows from %s, %s filter", len(samples), path, cfg.FilterAlgorithm)

	sink := LogSinks(cfg.Palette())(path)
	res, err := Replay(samples, cfg.Session(), sink)
	if err != nil {
		return err
	}
	for _, e := range res.Events {
		fmt.Printf("%6d  %-14s x=%7.3f y=%7.3f z=%7.3f  %s\n",
			e.Index, e.Event.Event, e.Slope.X, e.Slope.Y, e.Slope.Z, e.Event.Message)
	}
	log.Printf("replay: %d windows, %d events, %d empty rows dropped, %d partial rows skipped",
		res.Windows, len(res.Events), res.Dropped, res.Skipped)
	return nil
}
