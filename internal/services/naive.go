package services

import (
	"github.com/trendduel/trendduel-ai-go/internal/models"
	"github.com/trendduel/trendduel-ai-go/internal/utils"
)

// NaiveForecaster repeats the last observed value, or the value one full
// seasonal cycle back when the series is long enough to carry a cycle. It is
// the unconditional fallback: it must succeed on any series the preprocessor
// accepts.
type NaiveForecaster struct {
	SeasonalCycle int // days per cycle, 0 disables seasonal lookback
}

// Kind returns the model identifier.
func (f *NaiveForecaster) Kind() models.ModelKind {
	return models.ModelNaive
}

// FitAndForecast projects the horizon from the last value or the last cycle.
func (f *NaiveForecaster) FitAndForecast(values []float64, horizon int) (*ForecastOutput, error) {
	if len(values) == 0 {
		return nil, utils.NewValidationError("series", "empty series")
	}
	if horizon < 1 {
		return nil, utils.NewValidationError("horizon", "horizon must be at least 1")
	}

	cycle := f.SeasonalCycle
	seasonal := cycle > 1 && len(values) >= 2*cycle

	forecast := make([]float64, horizon)
	if seasonal {
		// Repeat the most recent full cycle across the horizon.
		lastCycle := values[len(values)-cycle:]
		for h := 0; h < horizon; h++ {
			forecast[h] = lastCycle[h%cycle]
		}
	} else {
		last := values[len(values)-1]
		for h := 0; h < horizon; h++ {
			forecast[h] = last
		}
	}

	residuals := f.residuals(values, seasonal)
	sigma := residualStd(residuals)

	return &ForecastOutput{
		Values:    forecast,
		Residuals: residuals,
		StepStd:   sqrtStepStd(sigma, horizon),
	}, nil
}

func (f *NaiveForecaster) residuals(values []float64, seasonal bool) []float64 {
	lag := 1
	if seasonal {
		lag = f.SeasonalCycle
	}
	residuals := make([]float64, 0, len(values)-lag)
	for t := lag; t < len(values); t++ {
		residuals = append(residuals, values[t]-values[t-lag])
	}
	return residuals
}
