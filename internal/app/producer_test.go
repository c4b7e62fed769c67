package app

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/motion_monitor/internal/config"
	"github.com/relabs-tech/motion_monitor/internal/motion"
	"github.com/relabs-tech/motion_monitor/internal/sensors"
)

func TestChunker(t *testing.T) {
	c := NewChunker("rig", 0.1, 3)
	now := time.Now()

	for i := 0; i < 2; i++ {
		_, ok := c.Add(motion.Sample{X: float64(i)}, now)
		assert.False(t, ok)
	}
	chunk, ok := c.Add(motion.Sample{X: 2}, now)
	require.True(t, ok)
	assert.Equal(t, "rig", chunk.Source)
	assert.Equal(t, uint64(1), chunk.Seq)
	assert.Equal(t, 0.1, chunk.Period)
	assert.Equal(t, now, chunk.Time)
	assert.Equal(t, []motion.Sample{{X: 0}, {X: 1}, {X: 2}}, chunk.Samples)

	first := chunk
	for i := 0; i < 3; i++ {
		chunk, ok = c.Add(motion.Sample{X: 9}, now)
	}
	require.True(t, ok)
	assert.Equal(t, uint64(2), chunk.Seq)
	assert.Len(t, chunk.Samples, 3)
	// The second chunk does not reuse the first one's backing array.
	assert.Equal(t, 0.0, first.Samples[0].X)
}

func TestChunkerMinimumSize(t *testing.T) {
	c := NewChunker("rig", 0.1, 0)
	_, ok := c.Add(motion.Sample{}, time.Now())
	assert.True(t, ok)
}

func TestOpenSource(t *testing.T) {
	cfg := config.Default()

	src, closeFn, err := OpenSource("mock", cfg)
	require.NoError(t, err)
	_, err = src.NextSample()
	require.NoError(t, err)
	require.NoError(t, closeFn())

	_, _, err = OpenSource("serial", cfg)
	require.ErrorContains(t, err, "SERIAL_PORT")

	_, _, err = OpenSource("gps", cfg)
	require.ErrorContains(t, err, "unknown source")
}

func TestMockConsoleDetectsBursts(t *testing.T) {
	var out strings.Builder
	require.NoError(t, RunMockConsole(config.Default(), &out, 100))

	text := out.String()
	assert.Contains(t, text, "Movement at slope")
	assert.Contains(t, text, "End Movement at slope")
	assert.Contains(t, text, "LED=green")
	assert.Contains(t, text, "[EVENT] mock #")
}

func TestSampleLoopReadsSelfPacedSourceUntilEOF(t *testing.T) {
	src := sensors.NewLineSource(strings.NewReader("0.1,0.2,1.0\nnot a sample\n0.3,0.4,1.0\n"))

	var got []motion.Sample
	err := sampleLoop(src, 0, make(chan struct{}), func(s motion.Sample, _ time.Time) {
		got = append(got, s)
	})
	require.NoError(t, err)
	assert.Equal(t, []motion.Sample{{X: 0.1, Y: 0.2, Z: 1}, {X: 0.3, Y: 0.4, Z: 1}}, got)
}

func TestSampleLoopStopsOnEOFWhenTicking(t *testing.T) {
	src := sensors.NewLineSource(strings.NewReader("1,2,3\n"))

	n := 0
	done := make(chan error, 1)
	go func() {
		done <- sampleLoop(src, time.Millisecond, make(chan struct{}), func(motion.Sample, time.Time) { n++ })
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("loop kept ticking after EOF")
	}
	assert.Equal(t, 1, n)
}

func TestSampleLoopStop(t *testing.T) {
	stop := make(chan struct{})
	n := 0
	err := sampleLoop(sensors.NewMockSource(sensors.DefaultMockOptions()), time.Millisecond, stop, func(motion.Sample, time.Time) {
		n++
		if n == 3 {
			close(stop)
		}
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
