package app

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/motion_monitor/internal/motion"
)

func TestReadRecording(t *testing.T) {
	csv := "time,Z_ACC,X_ACC,Y_ACC\n" +
		"0.0,1.0,0.5,0.1\n" +
		"0.1,,,\n" +
		"0.2,1.0,nan,0.2\n"
	samples, err := ReadRecording(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, samples, 3)

	assert.Equal(t, motion.Sample{X: 0.5, Y: 0.1, Z: 1}, samples[0])
	assert.True(t, math.IsNaN(samples[1].X) && math.IsNaN(samples[1].Y) && math.IsNaN(samples[1].Z))
	assert.True(t, math.IsNaN(samples[2].X))
	assert.Equal(t, 0.2, samples[2].Y)
}

func TestReadRecordingErrors(t *testing.T) {
	_, err := ReadRecording(strings.NewReader("X_ACC,Y_ACC\n1,2\n"))
	require.ErrorContains(t, err, "Z_ACC")

	_, err = ReadRecording(strings.NewReader("X_ACC,Y_ACC,Z_ACC\n1,two,3\n"))
	require.ErrorContains(t, err, "line 2")

	_, err = ReadRecording(strings.NewReader(""))
	require.Error(t, err)
}

// step builds a recording that is flat, then ramps up on X and holds.
func step(n, rampAt, rampLen int, height float64) string {
	var b strings.Builder
	b.WriteString("X_ACC,Y_ACC,Z_ACC\n")
	for i := 0; i < n; i++ {
		x := 0.0
		switch {
		case i >= rampAt+rampLen:
			x = height
		case i >= rampAt:
			x = height * float64(i-rampAt+1) / float64(rampLen)
		}
		fmt.Fprintf(&b, "%g,0,1\n", x)
	}
	return b.String()
}

func TestReplayFindsMovement(t *testing.T) {
	samples, err := ReadRecording(strings.NewReader(step(60, 20, 5, 5)))
	require.NoError(t, err)

	for _, alg := range []motion.Algorithm{motion.LowPass, motion.MovingAverage, motion.MovingMedian} {
		t.Run(alg.String(), func(t *testing.T) {
			cfg := testSessionConfig()
			cfg.Filter.Algorithm = alg
			cfg.Filter.AlphaBatch = 0.5
			cfg.Filter.WindowSize = 3

			sink := &recordingSink{}
			res, err := Replay(samples, cfg, sink)
			require.NoError(t, err)
			assert.Equal(t, 60, res.Rows)
			require.NotEmpty(t, res.Events)

			first := res.Events[0]
			assert.Equal(t, motion.EventStartPositive, first.Event.Event)
			assert.Greater(t, first.Slope.X, 2.0)
			assert.GreaterOrEqual(t, first.Index, 20)
			assert.Less(t, first.Index, 32)
			for _, e := range res.Events {
				assert.NotEqual(t, motion.EventStartNegative, e.Event.Event)
			}
			assert.Len(t, sink.Logs(), len(res.Events))
		})
	}
}

func TestReplayDropsEmptyRows(t *testing.T) {
	nan := math.NaN()
	samples := []motion.Sample{
		{X: 0, Z: 1}, {X: nan, Y: nan, Z: nan}, {X: 0, Z: 1}, {X: nan, Y: 0, Z: 1},
		{X: 0, Z: 1}, {X: 0, Z: 1}, {X: 0, Z: 1},
	}
	res, err := Replay(samples, testSessionConfig(), nil)
	require.NoError(t, err)
	assert.Equal(t, 7, res.Rows)
	assert.Equal(t, 1, res.Dropped)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 2, res.Windows) // 5 clean rows, window of 4
	assert.Empty(t, res.Events)
}

func TestReplayTooShort(t *testing.T) {
	_, err := Replay([]motion.Sample{{}, {}}, testSessionConfig(), nil)
	require.ErrorIs(t, err, motion.ErrInsufficientData)
}
