package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRollingMean(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	got := rollingMean(x, 3)

	assert.True(t, math.IsNaN(got[0]))
	assert.True(t, math.IsNaN(got[1]))
	assert.InDelta(t, 2.0, got[2], 1e-12)
	assert.InDelta(t, 3.0, got[3], 1e-12)
	assert.InDelta(t, 4.0, got[4], 1e-12)
}

func TestRollingMeanPropagatesNaN(t *testing.T) {
	x := []float64{math.NaN(), 2, 3, 4}
	got := rollingMean(x, 2)

	assert.True(t, math.IsNaN(got[0]))
	assert.True(t, math.IsNaN(got[1]), "window touching the NaN stays NaN")
	assert.InDelta(t, 2.5, got[2], 1e-12)
}

func TestRollingMeanMin(t *testing.T) {
	x := []float64{math.NaN(), 10, 20, 30}
	got := rollingMeanMin(x, 3, 2)

	assert.True(t, math.IsNaN(got[0]), "one valid value is below the threshold")
	assert.True(t, math.IsNaN(got[1]))
	assert.InDelta(t, 15.0, got[2], 1e-12)
	assert.InDelta(t, 20.0, got[3], 1e-12)
}

func TestRollingStdIsSampleStd(t *testing.T) {
	x := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	got := rollingStd(x, len(x))

	// Sample std (n-1 denominator) of the full window
	assert.InDelta(t, 2.13809, got[len(x)-1], 1e-4)
}

func TestEwm(t *testing.T) {
	x := []float64{10, 20, 30}
	got := ewm(x, 3) // alpha = 0.5

	assert.InDelta(t, 10.0, got[0], 1e-12)
	assert.InDelta(t, 15.0, got[1], 1e-12)
	assert.InDelta(t, 22.5, got[2], 1e-12)
}

func TestPctChange(t *testing.T) {
	x := []float64{100, 110, 99}
	got := pctChange(x, 1)

	assert.True(t, math.IsNaN(got[0]))
	assert.InDelta(t, 0.10, got[1], 1e-12)
	assert.InDelta(t, -0.10, got[2], 1e-12)

	got2 := pctChange(x, 2)
	assert.True(t, math.IsNaN(got2[1]))
	assert.InDelta(t, -0.01, got2[2], 1e-12)
}

func TestRollingMaxMin(t *testing.T) {
	x := []float64{3, 1, 4, 1, 5}
	maxOut, minOut := rollingMaxMin(x, 3, 2)

	assert.True(t, math.IsNaN(maxOut[0]))
	require.False(t, math.IsNaN(maxOut[1]))
	assert.Equal(t, 3.0, maxOut[1])
	assert.Equal(t, 1.0, minOut[1])
	assert.Equal(t, 4.0, maxOut[2])
	assert.Equal(t, 5.0, maxOut[4])
	assert.Equal(t, 1.0, minOut[4])
}

func TestCumsumSkipNaN(t *testing.T) {
	x := []float64{math.NaN(), 1, 2, 3}
	got := cumsumSkipNaN(x)

	assert.True(t, math.IsNaN(got[0]))
	assert.Equal(t, 1.0, got[1])
	assert.Equal(t, 3.0, got[2])
	assert.Equal(t, 6.0, got[3])
}

func TestShiftAndDiff(t *testing.T) {
	x := []float64{1, 2, 4}

	s := shift(x, 1)
	assert.True(t, math.IsNaN(s[0]))
	assert.Equal(t, 1.0, s[1])
	assert.Equal(t, 2.0, s[2])

	d := diff(x)
	assert.True(t, math.IsNaN(d[0]))
	assert.Equal(t, 1.0, d[1])
	assert.Equal(t, 2.0, d[2])
}

func TestUpStreak(t *testing.T) {
	closes := []float64{10, 11, 12, 11, 12, 13, 14}
	got := upStreak(closes)

	assert.Equal(t, []float64{0, 1, 2, 0, 1, 2, 3}, got)
}
