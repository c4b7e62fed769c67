package app

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/motion_monitor/internal/imu"
	"github.com/relabs-tech/motion_monitor/internal/motion"
)

type recordingSink struct {
	mu     sync.Mutex
	colors []motion.Color
	logs   []string
}

func (r *recordingSink) SetIndicator(c motion.Color) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.colors = append(r.colors, c)
}

func (r *recordingSink) AppendLogMessage(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, msg)
}

func (r *recordingSink) Logs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.logs...)
}

// recorders hands out one recordingSink per source.
type recorders struct {
	mu    sync.Mutex
	sinks map[string]*recordingSink
}

func (r *recorders) factory() SinkFactory {
	return func(source string) motion.FeedbackSink {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.sinks == nil {
			r.sinks = make(map[string]*recordingSink)
		}
		s := &recordingSink{}
		r.sinks[source] = s
		return s
	}
}

func (r *recorders) get(source string) *recordingSink {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sinks[source]
}

func testSessionConfig() motion.SessionConfig {
	f := motion.DefaultFilterConfig()
	f.AlphaStreaming = 1
	return motion.SessionConfig{
		Filter: f,
		Classifier: motion.Classifier{
			Thresholds:    motion.Thresholds{Threshold: 2, HighRatio: 3},
			Axis:          motion.AxisX,
			PositiveLabel: "Movement",
		},
		SamplePeriod: 0.1,
		SlopeWindow:  4,
	}
}

func newTestDetector(t *testing.T) (*Detector, *recorders) {
	t.Helper()
	rec := &recorders{}
	det, err := NewDetector(testSessionConfig(), motion.DefaultPalette(), rec.factory())
	require.NoError(t, err)
	return det, rec
}

func chunk(source string, seq uint64, xs ...float64) imu.Chunk {
	c := imu.Chunk{Source: source, Seq: seq}
	for _, x := range xs {
		c.Samples = append(c.Samples, motion.Sample{X: x})
	}
	return c
}

func TestNewDetectorRejectsBadConfig(t *testing.T) {
	cfg := testSessionConfig()
	cfg.SlopeWindow = 1
	_, err := NewDetector(cfg, motion.DefaultPalette(), LogSinks(motion.DefaultPalette()))
	require.ErrorIs(t, err, motion.ErrInvalidConfiguration)
}

func TestDetectorEpisode(t *testing.T) {
	det, rec := newTestDetector(t)

	_, ok, err := det.HandleChunk(chunk("a", 1, 0, 0, 0, 0))
	require.NoError(t, err)
	assert.False(t, ok, "quiet chunk publishes nothing")

	msg, ok, err := det.HandleChunk(chunk("a", 2, 2, 4))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a", msg.Source)
	assert.Equal(t, uint64(2), msg.Seq)
	assert.Equal(t, "start_positive", msg.Event)
	assert.Equal(t, 1, msg.Trigger)
	assert.Equal(t, "Movement at slope 10.00", msg.Message)
	assert.Equal(t, "green", msg.Indicator)
	assert.Equal(t, "in_motion_positive", msg.State)
	assert.InDelta(t, 10, msg.Slope.X, 1e-9)
	assert.False(t, msg.Time.IsZero())

	msg, ok, err = det.HandleChunk(chunk("a", 3, 0, 0))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "start_negative", msg.Event)
	assert.Equal(t, -1, msg.Trigger)
	assert.Equal(t, "red", msg.Indicator)

	// Back to idle is published once as a transition.
	msg, ok, err = det.HandleChunk(chunk("a", 4, 0, 0))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "none", msg.Event)
	assert.Equal(t, "idle", msg.State)
	assert.Empty(t, msg.Message)

	_, ok, err = det.HandleChunk(chunk("a", 5, 0, 0))
	require.NoError(t, err)
	assert.False(t, ok)

	sink := rec.get("a")
	require.NotNil(t, sink)
	assert.Equal(t, []string{"Movement at slope 10.00", "End Movement at slope -5.00"}, sink.Logs())
	assert.Equal(t, []motion.Color{
		motion.ColorNeutral, motion.ColorPositive, motion.ColorNegative, motion.ColorNeutral, motion.ColorNeutral,
	}, sink.colors)
}

func TestDetectorKeepsSourcesApart(t *testing.T) {
	det, rec := newTestDetector(t)

	_, _, err := det.HandleChunk(chunk("a", 1, 0, 0, 0, 0))
	require.NoError(t, err)
	_, _, err = det.HandleChunk(chunk("b", 1, 9))
	require.ErrorIs(t, err, motion.ErrInsufficientData)

	// b's single sample must not leak into a's window.
	msg, ok, err := det.HandleChunk(chunk("a", 2, 2, 4))
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 10, msg.Slope.X, 1e-9)

	assert.Equal(t, 2, det.Sources())
	assert.Empty(t, rec.get("b").Logs())
}

func TestDetectorUsesChunkPeriod(t *testing.T) {
	det, _ := newTestDetector(t)

	c := chunk("slow", 1, 0, 0, 0, 0)
	c.Period = 0.2
	_, _, err := det.HandleChunk(c)
	require.NoError(t, err)

	msg, ok, err := det.HandleChunk(chunk("slow", 2, 2, 4))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Movement at slope 5.00", msg.Message)
}

func TestDetectorSetThresholds(t *testing.T) {
	det, _ := newTestDetector(t)
	_, _, err := det.HandleChunk(chunk("a", 1, 0, 0, 0, 0))
	require.NoError(t, err)

	require.Error(t, det.SetThresholds(motion.Thresholds{Threshold: 1, HighRatio: 0.5}))
	require.NoError(t, det.SetThresholds(motion.Thresholds{Threshold: 20, HighRatio: 3}))

	_, ok, err := det.HandleChunk(chunk("a", 2, 2, 4))
	require.NoError(t, err)
	assert.False(t, ok, "slope 10 is under the new threshold")

	// New sources pick up the new thresholds too.
	_, _, err = det.HandleChunk(chunk("b", 1, 0, 0, 0, 0))
	require.NoError(t, err)
	_, ok, err = det.HandleChunk(chunk("b", 2, 2, 4))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDetectorRejectsBadChunks(t *testing.T) {
	det, _ := newTestDetector(t)

	_, _, err := det.HandleChunk(chunk("", 1, 1, 2))
	require.Error(t, err)
	assert.Zero(t, det.Sources())

	c := chunk("a", 1, 1, 2)
	c.Samples[1].Y = math.Inf(1)
	_, _, err = det.HandleChunk(c)
	require.ErrorIs(t, err, motion.ErrInvalidSample)
}
