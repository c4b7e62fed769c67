package motion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateSlopeTwoSamples(t *testing.T) {
	est, err := EstimateSlope([]Sample{{}, {X: 10}}, 0.1)
	require.NoError(t, err)
	assert.InDelta(t, 50, est.X, 1e-9)
	assert.Zero(t, est.Y)
	assert.Zero(t, est.Z)
}

func TestEstimateSlopeUsesEndpointsOnly(t *testing.T) {
	window := []Sample{{X: 1, Y: 4}, {X: 50, Y: -3}, {X: 3, Y: 0}, {X: 5, Y: 0}}
	est, err := EstimateSlope(window, 0.5)
	require.NoError(t, err)
	assert.InDelta(t, 2, est.X, 1e-9)  // (5-1)/(0.5*4)
	assert.InDelta(t, -2, est.Y, 1e-9) // (0-4)/(0.5*4)
	assert.InDelta(t, est.X, est.Axis(AxisX), 0)
}

func TestEstimateSlopeInsufficientData(t *testing.T) {
	_, err := EstimateSlope([]Sample{{X: 1}}, 0.1)
	assert.ErrorIs(t, err, ErrInsufficientData)
	_, err = EstimateSlope(nil, 0.1)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestEstimateSlopeInvalidPeriod(t *testing.T) {
	_, err := EstimateSlope(ramp(3), 0)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
	_, err = EstimateSlope(ramp(3), -1)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}
