package services

import (
	"math"

	"github.com/trendduel/trendduel-ai-go/internal/models"
)

// ForecastOutput is what every model hands back from a single fit-and-forecast
// pass. Residuals are in-sample one-step-ahead errors; StepStd is the model's
// own forecast standard deviation at each horizon step, before the interval
// estimator reconciles it with the backtest residual distribution.
type ForecastOutput struct {
	Values    []float64
	Residuals []float64
	StepStd   []float64
}

// Forecaster is the single capability shared by the closed set of models.
// Implementations are independent of each other and individually testable
// with synthetic series.
type Forecaster interface {
	Kind() models.ModelKind
	FitAndForecast(values []float64, horizon int) (*ForecastOutput, error)
}

// residualStd returns the sample standard deviation of the residuals with a
// small floor so downstream band math never degenerates to zero width.
func residualStd(residuals []float64) float64 {
	sd := calculateStdDev(residuals)
	if sd < 1e-9 {
		return 1e-9
	}
	return sd
}

// sqrtStepStd fills the conventional sqrt-of-step variance growth used by the
// naive and smoothing models.
func sqrtStepStd(sigma float64, horizon int) []float64 {
	stepStd := make([]float64, horizon)
	for h := 0; h < horizon; h++ {
		stepStd[h] = sigma * math.Sqrt(float64(h+1))
	}
	return stepStd
}
