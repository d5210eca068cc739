package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntervalEstimatorEstimate(t *testing.T) {
	ie := NewIntervalEstimator(testForecastConfig(), testLogger())
	lastDate := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	t.Run("bands nest at every step", func(t *testing.T) {
		out := &ForecastOutput{
			Values:    []float64{50, 51, 52, 53, 54},
			Residuals: []float64{1, -1, 2, -2, 0.5, -0.5},
			StepStd:   []float64{1, 1.4, 1.7, 2, 2.2},
		}
		pool := []float64{-3, -2, -1.5, -1, -0.5, -0.2, 0, 0.1, 0.4, 0.8, 1.1, 1.3, 1.6, 1.9, 2.1, 2.4, 2.7, 3.0, -2.6, 0.6, -0.9, 1.8}

		points := ie.Estimate(lastDate, out, pool)
		require.Len(t, points, 5)
		for _, p := range points {
			assert.LessOrEqual(t, p.Lower95, p.Lower80)
			assert.LessOrEqual(t, p.Lower80, p.Value)
			assert.LessOrEqual(t, p.Value, p.Upper80)
			assert.LessOrEqual(t, p.Upper80, p.Upper95)
		}
	})

	t.Run("dates start strictly after the last observation", func(t *testing.T) {
		out := &ForecastOutput{
			Values:    []float64{50, 50, 50},
			Residuals: []float64{0.5, -0.5, 0.3},
			StepStd:   []float64{1, 1, 1},
		}
		points := ie.Estimate(lastDate, out, nil)
		require.Len(t, points, 3)
		for h, p := range points {
			assert.Equal(t, lastDate.AddDate(0, 0, h+1), p.Date)
		}
	})

	t.Run("minimum band width applies to a flat forecast", func(t *testing.T) {
		out := &ForecastOutput{
			Values:    []float64{50, 50, 50},
			Residuals: []float64{0, 0, 0},
			StepStd:   []float64{0, 0, 0},
		}
		points := ie.Estimate(lastDate, out, nil)
		for _, p := range points {
			assert.GreaterOrEqual(t, p.Upper80-p.Lower80, 1.0-1e-9)
			assert.GreaterOrEqual(t, p.Upper95-p.Lower95, 1.0-1e-9)
		}
	})

	t.Run("bands widen with horizon under empirical quantiles", func(t *testing.T) {
		pool := make([]float64, 40)
		for i := range pool {
			pool[i] = float64(i%9) - 4 // symmetric spread -4..4
		}
		out := &ForecastOutput{
			Values:  flatSeries(10, 50),
			StepStd: flatSeries(10, 0),
		}
		points := ie.Estimate(lastDate, out, pool)
		first := points[0].Upper95 - points[0].Lower95
		last := points[9].Upper95 - points[9].Lower95
		assert.Greater(t, last, first)
	})

	t.Run("bands clamp to the interest scale", func(t *testing.T) {
		out := &ForecastOutput{
			Values:    []float64{99, 99.5, 100},
			Residuals: []float64{3, -3, 2, -2},
			StepStd:   []float64{3, 4, 5},
		}
		points := ie.Estimate(lastDate, out, nil)
		for _, p := range points {
			assert.GreaterOrEqual(t, p.Lower95, 0.0)
			assert.LessOrEqual(t, p.Upper95, 100.0)
			assert.LessOrEqual(t, p.Lower95, p.Lower80)
			assert.GreaterOrEqual(t, p.Upper95, p.Upper80)
		}
	})

	t.Run("model variance floors thin residual pools", func(t *testing.T) {
		// Tiny pooled residuals but a large model step variance: the model's
		// own uncertainty must win.
		pool := make([]float64, 25)
		for i := range pool {
			pool[i] = 0.01 * float64(i%3-1)
		}
		out := &ForecastOutput{
			Values:  []float64{50},
			StepStd: []float64{5},
		}
		points := ie.Estimate(lastDate, out, pool)
		require.Len(t, points, 1)
		assert.GreaterOrEqual(t, points[0].Upper95-points[0].Lower95, 2*z95*5-1e-9)
	})
}
