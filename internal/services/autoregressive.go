package services

import (
	"errors"
	"math"

	"github.com/trendduel/trendduel-ai-go/internal/models"
	"github.com/trendduel/trendduel-ai-go/internal/utils"
)

// ARForecaster fits a low-order autoregressive model on the once-differenced
// series. The AR order is chosen by corrected AIC, coefficients come from the
// Yule-Walker equations solved with Levinson-Durbin recursion, and forecast
// variance grows with the standard ARIMA psi-weight accumulation.
type ARForecaster struct {
	MaxOrder int
}

var errARFitUnstable = errors.New("autoregressive fit unstable")

// Kind returns the model identifier.
func (f *ARForecaster) Kind() models.ModelKind {
	return models.ModelARIMA
}

// FitAndForecast fits and projects. Non-convergent or non-stationary fits
// return an error so the selector can degrade to naive.
func (f *ARForecaster) FitAndForecast(values []float64, horizon int) (*ForecastOutput, error) {
	maxOrder := f.MaxOrder
	if maxOrder < 1 {
		maxOrder = 5
	}
	if len(values) < maxOrder+10 {
		return nil, utils.NewValidationErrorf("series",
			"need at least %d points for order-%d autoregression, got %d", maxOrder+10, maxOrder, len(values))
	}
	if horizon < 1 {
		return nil, utils.NewValidationError("horizon", "horizon must be at least 1")
	}

	// Difference once to a stationary scale; search interest is dominated by
	// level shifts rather than stable means.
	diff := dayOverDayDeltas(values)

	order, coeffs, intercept, sigma2, residuals, err := f.selectOrder(diff, maxOrder)
	if err != nil {
		return nil, err
	}

	// Recursive forecast on the differenced scale.
	ext := make([]float64, len(diff)+horizon)
	copy(ext, diff)
	for h := 0; h < horizon; h++ {
		t := len(diff) + h
		pred := intercept
		for i := 0; i < order; i++ {
			pred += coeffs[i] * (ext[t-i-1] - intercept)
		}
		ext[t] = pred
	}

	// Integrate back to the original scale.
	forecast := make([]float64, horizon)
	last := values[len(values)-1]
	for h := 0; h < horizon; h++ {
		last += ext[len(diff)+h]
		forecast[h] = last
	}

	stepStd, err := f.psiStepStd(coeffs, order, sigma2, horizon)
	if err != nil {
		return nil, err
	}

	return &ForecastOutput{
		Values:    forecast,
		Residuals: residuals,
		StepStd:   stepStd,
	}, nil
}

// selectOrder fits AR(1)..AR(maxOrder) on the differenced series and keeps the
// order minimizing AICc.
func (f *ARForecaster) selectOrder(diff []float64, maxOrder int) (order int, coeffs []float64, intercept, sigma2 float64, residuals []float64, err error) {
	bestAICc := math.Inf(1)
	found := false

	for p := 1; p <= maxOrder && p < len(diff)/3; p++ {
		phi, c, s2, resid, fitErr := f.fit(diff, p)
		if fitErr != nil {
			continue
		}

		n := float64(len(resid))
		k := float64(p + 1)
		if s2 <= 0 || n-k-1 <= 0 {
			continue
		}
		aic := n*math.Log(s2) + 2*k
		aicc := aic + 2*k*(k+1)/(n-k-1)

		if aicc < bestAICc {
			bestAICc = aicc
			order, coeffs, intercept, sigma2, residuals = p, phi, c, s2, resid
			found = true
		}
	}

	if !found {
		return 0, nil, 0, 0, nil, errARFitUnstable
	}
	return order, coeffs, intercept, sigma2, residuals, nil
}

// fit estimates AR(p) via Yule-Walker / Levinson-Durbin and returns the
// coefficients, intercept, residual variance, and one-step residuals.
func (f *ARForecaster) fit(diff []float64, p int) (phi []float64, intercept, sigma2 float64, residuals []float64, err error) {
	acf := autocorrelations(diff, p)
	phi = levinsonDurbin(acf, p)
	if phi == nil {
		return nil, 0, 0, nil, errARFitUnstable
	}
	for _, c := range phi {
		if math.IsNaN(c) || math.Abs(c) >= 1 {
			return nil, 0, 0, nil, errARFitUnstable
		}
	}

	intercept = calculateMean(diff)

	residuals = make([]float64, 0, len(diff)-p)
	for t := p; t < len(diff); t++ {
		pred := intercept
		for i := 0; i < p; i++ {
			pred += phi[i] * (diff[t-i-1] - intercept)
		}
		residuals = append(residuals, diff[t]-pred)
	}

	sse := 0.0
	for _, r := range residuals {
		sse += r * r
	}
	dof := len(residuals) - p - 1
	if dof < 1 {
		return nil, 0, 0, nil, errARFitUnstable
	}
	sigma2 = sse / float64(dof)
	if sigma2 <= 0 || math.IsNaN(sigma2) {
		return nil, 0, 0, nil, errARFitUnstable
	}

	return phi, intercept, sigma2, residuals, nil
}

// psiStepStd computes forecast standard deviation per step for an ARIMA(p,1,0)
// model: the psi weights of the AR part accumulate through the integration, so
// variance at step h is sigma^2 * sum of squared cumulative psi weights.
func (f *ARForecaster) psiStepStd(coeffs []float64, order int, sigma2 float64, horizon int) ([]float64, error) {
	psi := make([]float64, horizon)
	psi[0] = 1
	for j := 1; j < horizon; j++ {
		var v float64
		for i := 1; i <= order && i <= j; i++ {
			v += coeffs[i-1] * psi[j-i]
		}
		psi[j] = v
	}

	stepStd := make([]float64, horizon)
	cumPsi := 0.0
	sumSq := 0.0
	for h := 0; h < horizon; h++ {
		cumPsi += psi[h]
		sumSq += cumPsi * cumPsi
		variance := sigma2 * sumSq
		if math.IsNaN(variance) || math.IsInf(variance, 0) {
			return nil, errARFitUnstable
		}
		stepStd[h] = math.Sqrt(variance)
	}
	return stepStd, nil
}

// levinsonDurbin solves the Yule-Walker equations for AR coefficients.
func levinsonDurbin(acf []float64, order int) []float64 {
	if order <= 0 || len(acf) <= order {
		return nil
	}

	phi := make([]float64, order)
	phi[0] = acf[1]
	if order == 1 {
		return phi
	}

	v := 1 - phi[0]*phi[0]
	for i := 1; i < order; i++ {
		if v <= 1e-12 {
			return nil
		}
		lambda := acf[i+1]
		for j := 0; j < i; j++ {
			lambda -= phi[j] * acf[i-j]
		}
		lambda /= v

		newPhi := make([]float64, i+1)
		for j := 0; j < i; j++ {
			newPhi[j] = phi[j] - lambda*phi[i-1-j]
		}
		newPhi[i] = lambda
		copy(phi, newPhi)

		v *= 1 - lambda*lambda
	}

	return phi
}
