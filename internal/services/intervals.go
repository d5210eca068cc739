package services

import (
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/trendduel/trendduel-ai-go/internal/config"
	"github.com/trendduel/trendduel-ai-go/internal/models"
)

// Normal quantiles for the two band levels.
const (
	z80 = 1.2816
	z95 = 1.9600
)

// IntervalEstimator converts a model's forecast and the backtest residual
// distribution into nested 80%/95% confidence bands. Bands widen
// multiplicatively with the square root of the horizon step and never collapse
// below a configured floor, so flat segments still show honest uncertainty.
type IntervalEstimator struct {
	cfg    *config.ForecastConfig
	logger *logrus.Logger
}

// NewIntervalEstimator creates a new interval estimator.
func NewIntervalEstimator(cfg *config.ForecastConfig, logger *logrus.Logger) *IntervalEstimator {
	return &IntervalEstimator{cfg: cfg, logger: logger}
}

// Estimate attaches bands to each forecast step. Forecast dates start strictly
// after lastDate. backtestResiduals is the step-normalized pool from the
// walk-forward backtest; when it is too small for empirical quantiles the
// estimator falls back to a normal approximation on the in-sample residuals.
func (ie *IntervalEstimator) Estimate(lastDate time.Time, out *ForecastOutput, backtestResiduals []float64) []models.ForecastPoint {
	horizon := len(out.Values)
	points := make([]models.ForecastPoint, horizon)

	empirical := len(backtestResiduals) >= ie.cfg.MinResidualsForQuantiles

	// Base one-step offsets around the point forecast.
	var lo80, hi80, lo95, hi95 float64
	if empirical {
		lo80 = math.Min(quantile(backtestResiduals, 0.10), 0)
		hi80 = math.Max(quantile(backtestResiduals, 0.90), 0)
		lo95 = math.Min(quantile(backtestResiduals, 0.025), lo80)
		hi95 = math.Max(quantile(backtestResiduals, 0.975), hi80)
	} else {
		pool := backtestResiduals
		if len(pool) < 2 {
			pool = out.Residuals
		}
		sigma := residualStd(pool)
		lo80, hi80 = -z80*sigma, z80*sigma
		lo95, hi95 = -z95*sigma, z95*sigma
	}

	for h := 0; h < horizon; h++ {
		growth := math.Sqrt(float64(h + 1))

		// The model's own variance growth sets a floor: an unstable AR fit
		// should not report tighter bands than its psi weights imply.
		modelHalf80 := z80 * out.StepStd[h]
		modelHalf95 := z95 * out.StepStd[h]

		value := out.Values[h]
		lower80 := value + math.Min(lo80*growth, -modelHalf80)
		upper80 := value + math.Max(hi80*growth, modelHalf80)
		lower95 := value + math.Min(lo95*growth, -modelHalf95)
		upper95 := value + math.Max(hi95*growth, modelHalf95)

		// Enforce the minimum band width on the inner band, symmetrically.
		if upper80-lower80 < ie.cfg.MinBandWidth {
			pad := (ie.cfg.MinBandWidth - (upper80 - lower80)) / 2
			lower80 -= pad
			upper80 += pad
		}
		if lower95 > lower80 {
			lower95 = lower80
		}
		if upper95 < upper80 {
			upper95 = upper80
		}

		points[h] = models.ForecastPoint{
			Date:    lastDate.AddDate(0, 0, h+1),
			Value:   clampToScale(value),
			Lower80: clampToScale(lower80),
			Upper80: clampToScale(upper80),
			Lower95: clampToScale(lower95),
			Upper95: clampToScale(upper95),
		}

		// Clamping to the 0-100 scale preserves ordering, but the point value
		// itself may have been clamped past a band edge; re-nest explicitly.
		p := &points[h]
		p.Lower80 = math.Min(p.Lower80, p.Value)
		p.Upper80 = math.Max(p.Upper80, p.Value)
		p.Lower95 = math.Min(p.Lower95, p.Lower80)
		p.Upper95 = math.Max(p.Upper95, p.Upper80)
	}

	return points
}
