package services

import (
	"io"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/trendduel/trendduel-ai-go/internal/config"
	"github.com/trendduel/trendduel-ai-go/internal/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testForecastConfig() *config.ForecastConfig {
	return &config.ForecastConfig{
		MinPoints:                3,
		MinSeasonalPoints:        60,
		SpikinessCVThreshold:     1.5,
		SpikeSigmaThreshold:      4.0,
		ShockSigmaThreshold:      3.0,
		ShockTrailingWindow:      7,
		VolatilityWindow:         28,
		SeasonalCycleDays:        7,
		MaxAROrder:               5,
		DampingFactor:            0.9,
		BacktestMinTrainPoints:   28,
		BacktestFoldHorizon:      7,
		BacktestMaxFolds:         8,
		BacktestMinFolds:         3,
		MinResidualsForQuantiles: 20,
		MinBandWidth:             1.0,
		FlagPenalty:              15.0,
		MaxHorizon:               90,
		DefaultHorizon:           14,
		CacheTTL:                 "15m",
	}
}

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		LogLevel:    "error",
		Forecast:    *testForecastConfig(),
		Guardrail: config.GuardrailConfig{
			MinSeriesLength:  30,
			AgreementFloor:   0.4,
			HighVolatilityCV: 1.5,
		},
		Pattern: config.PatternConfig{
			AnnualConsistency:    0.60,
			QuarterlyConsistency: 0.50,
			MonthlyConsistency:   0.60,
			WeeklyConsistency:    0.70,
			AnnualMinPeaks:       3,
			QuarterlyMinPeaks:    4,
			MonthlyMinPeaks:      4,
			WeeklyMinPeaks:       4,
			MonthlyDayTolerance:  3,
		},
		Trust: config.TrustConfig{CacheTTL: "5m"},
	}
}

// trendSeries builds a gently rising series with small deterministic
// oscillation, staying inside the 0-100 scale.
func trendSeries(n int, start, slope float64) []float64 {
	values := make([]float64, n)
	for i := 0; i < n; i++ {
		v := start + slope*float64(i) + 2*math.Sin(float64(i)/3)
		values[i] = math.Max(0, math.Min(100, v))
	}
	return values
}

// flatSeries builds a constant series.
func flatSeries(n int, value float64) []float64 {
	values := make([]float64, n)
	for i := range values {
		values[i] = value
	}
	return values
}

// pairedSeries zips two value slices into daily SeriesPoints starting at
// start.
func pairedSeries(start time.Time, valuesA, valuesB []float64) []models.SeriesPoint {
	series := make([]models.SeriesPoint, len(valuesA))
	for i := range valuesA {
		series[i] = models.SeriesPoint{
			Date:   start.AddDate(0, 0, i),
			ValueA: valuesA[i],
			ValueB: valuesB[i],
		}
	}
	return series
}
