package services

import (
	"math"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"
	"github.com/sirupsen/logrus"

	"github.com/trendduel/trendduel-ai-go/internal/config"
	"github.com/trendduel/trendduel-ai-go/internal/models"
)

// QualityAssessor computes per-term data quality flags. Every threshold is a
// named config constant rather than a derived value.
type QualityAssessor struct {
	cfg    *config.ForecastConfig
	logger *logrus.Logger
}

// NewQualityAssessor creates a new quality assessor.
func NewQualityAssessor(cfg *config.ForecastConfig, logger *logrus.Logger) *QualityAssessor {
	return &QualityAssessor{cfg: cfg, logger: logger}
}

// Assess evaluates one term's values.
func (qa *QualityAssessor) Assess(values []float64) models.QualityFlags {
	flags := models.QualityFlags{
		SeriesTooShort:   len(values) < qa.cfg.MinSeasonalPoints,
		TooSpiky:         qa.isTooSpiky(values),
		EventShockLikely: qa.isEventShockLikely(values),
	}

	qa.logger.WithFields(logrus.Fields{
		"points":             len(values),
		"series_too_short":   flags.SeriesTooShort,
		"too_spiky":          flags.TooSpiky,
		"event_shock_likely": flags.EventShockLikely,
	}).Debug("Quality assessed")

	return flags
}

// isTooSpiky flags a series whose day-over-day deltas have an excessive
// coefficient of variation, or that contains a single step beyond
// SpikeSigmaThreshold standard deviations of recent volatility.
func (qa *QualityAssessor) isTooSpiky(values []float64) bool {
	deltas := dayOverDayDeltas(values)
	if len(deltas) < 2 {
		return false
	}

	absDeltas := make([]float64, len(deltas))
	for i, d := range deltas {
		absDeltas[i] = math.Abs(d)
	}
	if coefficientOfVariation(absDeltas) > qa.cfg.SpikinessCVThreshold {
		return true
	}

	recent := deltas
	if len(recent) > qa.cfg.VolatilityWindow {
		recent = recent[len(recent)-qa.cfg.VolatilityWindow:]
	}
	sigma := calculateStdDev(recent)
	if sigma == 0 {
		return false
	}
	for _, d := range recent {
		if math.Abs(d) > qa.cfg.SpikeSigmaThreshold*sigma {
			return true
		}
	}
	return false
}

// isEventShockLikely flags a final point that deviates from its trailing
// moving average by more than a volatility-scaled multiple. A shock like that
// would bias naive trend extrapolation.
func (qa *QualityAssessor) isEventShockLikely(values []float64) bool {
	window := qa.cfg.ShockTrailingWindow
	if len(values) < window+1 {
		return false
	}

	// Trailing SMA over everything before the most recent point.
	history := values[:len(values)-1]
	smaIndicator := trend.NewSmaWithPeriod[float64](window)
	smaValues := helper.ChanToSlice(smaIndicator.Compute(helper.SliceToChan(history)))
	if len(smaValues) == 0 {
		return false
	}
	trailing := smaValues[len(smaValues)-1]

	deltas := dayOverDayDeltas(history)
	if len(deltas) > qa.cfg.VolatilityWindow {
		deltas = deltas[len(deltas)-qa.cfg.VolatilityWindow:]
	}
	sigma := calculateStdDev(deltas)
	if sigma == 0 {
		// Flat history: any visible jump on a 0-100 scale is a shock.
		return math.Abs(values[len(values)-1]-trailing) > qa.cfg.ShockSigmaThreshold
	}

	return math.Abs(values[len(values)-1]-trailing) > qa.cfg.ShockSigmaThreshold*sigma
}
