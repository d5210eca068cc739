package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trendduel/trendduel-ai-go/internal/models"
)

func TestNaiveForecaster(t *testing.T) {
	t.Run("kind", func(t *testing.T) {
		f := &NaiveForecaster{}
		assert.Equal(t, models.ModelNaive, f.Kind())
	})

	t.Run("repeats last value without a seasonal cycle", func(t *testing.T) {
		f := &NaiveForecaster{SeasonalCycle: 0}
		out, err := f.FitAndForecast([]float64{10, 12, 14, 13}, 5)
		require.NoError(t, err)
		require.Len(t, out.Values, 5)
		for _, v := range out.Values {
			assert.Equal(t, 13.0, v)
		}
		assert.Len(t, out.Residuals, 3)
		assert.Len(t, out.StepStd, 5)
	})

	t.Run("repeats last cycle when series carries two full cycles", func(t *testing.T) {
		f := &NaiveForecaster{SeasonalCycle: 3}
		values := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9}
		out, err := f.FitAndForecast(values, 6)
		require.NoError(t, err)
		assert.Equal(t, []float64{7, 8, 9, 7, 8, 9}, out.Values)
	})

	t.Run("falls back to last value when series is shorter than two cycles", func(t *testing.T) {
		f := &NaiveForecaster{SeasonalCycle: 7}
		out, err := f.FitAndForecast([]float64{5, 6, 7, 8}, 3)
		require.NoError(t, err)
		assert.Equal(t, []float64{8, 8, 8}, out.Values)
	})

	t.Run("step std widens with horizon", func(t *testing.T) {
		f := &NaiveForecaster{}
		out, err := f.FitAndForecast(trendSeries(40, 20, 0.5), 10)
		require.NoError(t, err)
		for h := 1; h < len(out.StepStd); h++ {
			assert.GreaterOrEqual(t, out.StepStd[h], out.StepStd[h-1])
		}
	})

	t.Run("empty series is an error", func(t *testing.T) {
		f := &NaiveForecaster{}
		_, err := f.FitAndForecast(nil, 3)
		assert.Error(t, err)
	})

	t.Run("zero horizon is an error", func(t *testing.T) {
		f := &NaiveForecaster{}
		_, err := f.FitAndForecast([]float64{1, 2}, 0)
		assert.Error(t, err)
	})
}
