package services

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBacktesterRun(t *testing.T) {
	b := NewBacktester(testForecastConfig(), testLogger())
	naive := func() Forecaster { return &NaiveForecaster{} }

	t.Run("long series produces metrics", func(t *testing.T) {
		report := b.Run(trendSeries(120, 30, 0.3), naive)

		require.NotNil(t, report.Metrics)
		assert.GreaterOrEqual(t, report.UsableFolds, 3)
		assert.Zero(t, report.FailedFolds)
		assert.Greater(t, report.Metrics.MAE, 0.0)
		assert.Greater(t, report.Metrics.MAPE, 0.0)
		assert.GreaterOrEqual(t, report.Metrics.IntervalCoverage80, 0.0)
		assert.LessOrEqual(t, report.Metrics.IntervalCoverage80, 100.0)
		assert.GreaterOrEqual(t, report.Metrics.IntervalCoverage95, report.Metrics.IntervalCoverage80)
		assert.LessOrEqual(t, report.Metrics.IntervalCoverage95, 100.0)
		assert.Equal(t, report.Metrics.SampleSize, len(report.Residuals))
	})

	t.Run("short series withholds metrics", func(t *testing.T) {
		// Room for fewer folds than the minimum: metrics must be nil rather
		// than reported from a thin sample.
		report := b.Run(trendSeries(40, 30, 0.3), naive)
		assert.Nil(t, report.Metrics)
		assert.Less(t, report.UsableFolds, 3)
	})

	t.Run("failed fits are excluded not counted as zero error", func(t *testing.T) {
		failing := func() Forecaster { return &ARForecaster{MaxOrder: 5} }
		// Constant series: every AR fit fails, so there is nothing to score.
		report := b.Run(flatSeries(120, 42), failing)
		assert.Nil(t, report.Metrics)
		assert.Zero(t, report.UsableFolds)
		assert.Greater(t, report.FailedFolds, 0)
		assert.Empty(t, report.Residuals)
	})

	t.Run("fresh forecaster per fold", func(t *testing.T) {
		var builds int
		counting := func() Forecaster {
			builds++
			return &NaiveForecaster{}
		}
		report := b.Run(trendSeries(120, 30, 0.3), counting)
		assert.Equal(t, report.UsableFolds+report.FailedFolds, builds)
		assert.Greater(t, builds, 1)
	})

	t.Run("near perfect model covers most actuals", func(t *testing.T) {
		// A slow trend is easy for the naive model at short fold horizons, so
		// coverage should be high even if not exact.
		report := b.Run(trendSeries(150, 30, 0.1), naive)
		require.NotNil(t, report.Metrics)
		assert.Greater(t, report.Metrics.IntervalCoverage95, 50.0)
	})

	t.Run("bands cover about their nominal share on a random walk", func(t *testing.T) {
		// The naive model's sqrt-step variance growth is exact for a random
		// walk, so empirical coverage should sit near the nominal levels.
		rng := rand.New(rand.NewSource(7))
		values := make([]float64, 150)
		values[0] = 50
		for i := 1; i < len(values); i++ {
			values[i] = values[i-1] + rng.NormFloat64()
		}

		report := b.Run(values, naive)
		require.NotNil(t, report.Metrics)
		assert.InDelta(t, 80, report.Metrics.IntervalCoverage80, 25)
		assert.InDelta(t, 95, report.Metrics.IntervalCoverage95, 20)
		assert.GreaterOrEqual(t, report.Metrics.IntervalCoverage95, report.Metrics.IntervalCoverage80)
	})
}
