package services

import (
	"math"

	"github.com/trendduel/trendduel-ai-go/internal/models"
	"github.com/trendduel/trendduel-ai-go/internal/utils"
)

// SmoothingForecaster fits a damped-trend exponential smoothing model
// (level + trend, Holt style). The damping keeps long-horizon extrapolation
// conservative, which is why the selector prefers it under noisy data.
type SmoothingForecaster struct {
	Damping float64 // phi in (0, 1]; 1 disables damping
}

// Kind returns the model identifier.
func (f *SmoothingForecaster) Kind() models.ModelKind {
	return models.ModelETS
}

// Candidate smoothing constants for the deterministic grid fit.
var (
	smoothingAlphaGrid = []float64{0.1, 0.3, 0.5, 0.7, 0.9}
	smoothingBetaGrid  = []float64{0.05, 0.1, 0.2, 0.3}
)

// FitAndForecast selects alpha/beta by minimizing in-sample one-step SSE,
// then extrapolates the damped trend across the horizon.
func (f *SmoothingForecaster) FitAndForecast(values []float64, horizon int) (*ForecastOutput, error) {
	if len(values) < 4 {
		return nil, utils.NewValidationErrorf("series", "need at least 4 points for trend smoothing, got %d", len(values))
	}
	if horizon < 1 {
		return nil, utils.NewValidationError("horizon", "horizon must be at least 1")
	}

	phi := f.Damping
	if phi <= 0 || phi > 1 {
		phi = 1
	}

	bestSSE := math.Inf(1)
	var bestAlpha, bestBeta float64
	for _, alpha := range smoothingAlphaGrid {
		for _, beta := range smoothingBetaGrid {
			sse := f.smoothSSE(values, alpha, beta, phi)
			if sse < bestSSE {
				bestSSE = sse
				bestAlpha = alpha
				bestBeta = beta
			}
		}
	}
	if math.IsInf(bestSSE, 1) || math.IsNaN(bestSSE) {
		return nil, utils.NewValidationError("series", "smoothing fit did not converge")
	}

	level, trend, residuals := f.smooth(values, bestAlpha, bestBeta, phi)

	forecast := make([]float64, horizon)
	dampedSum := 0.0
	for h := 0; h < horizon; h++ {
		dampedSum += math.Pow(phi, float64(h+1))
		forecast[h] = level + dampedSum*trend
	}

	sigma := residualStd(residuals)

	return &ForecastOutput{
		Values:    forecast,
		Residuals: residuals,
		StepStd:   sqrtStepStd(sigma, horizon),
	}, nil
}

// smooth runs one damped-Holt pass and returns the final state plus one-step
// residuals.
func (f *SmoothingForecaster) smooth(values []float64, alpha, beta, phi float64) (level, trend float64, residuals []float64) {
	level = values[0]
	trend = values[1] - values[0]
	residuals = make([]float64, 0, len(values)-1)

	for t := 1; t < len(values); t++ {
		pred := level + phi*trend
		residuals = append(residuals, values[t]-pred)

		prevLevel := level
		level = alpha*values[t] + (1-alpha)*(prevLevel+phi*trend)
		trend = beta*(level-prevLevel) + (1-beta)*phi*trend
	}
	return level, trend, residuals
}

func (f *SmoothingForecaster) smoothSSE(values []float64, alpha, beta, phi float64) float64 {
	_, _, residuals := f.smooth(values, alpha, beta, phi)
	sse := 0.0
	for _, r := range residuals {
		sse += r * r
	}
	if math.IsNaN(sse) {
		return math.Inf(1)
	}
	return sse
}
