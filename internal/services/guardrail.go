package services

import (
	"github.com/trendduel/trendduel-ai-go/internal/config"
	"github.com/trendduel/trendduel-ai-go/internal/models"
)

// GuardrailInput is everything the suppression decision may consider. Nil
// pointer fields mean the signal is unknown, which the policy treats as the
// most conservative state.
type GuardrailInput struct {
	SeriesLength     int
	Volatility       *float64 // CV of day-over-day deltas
	DisagreementFlag bool     // cross-source disagreement detected upstream
	AgreementIndex   *float64 // 0-1 agreement between underlying data sources
	QualityFlags     models.QualityFlags
}

// EvaluateGuardrail is the fail-closed gate on surfacing a forecast. It is a
// pure function: no state, no clock, no I/O, and it never returns an error.
// Every unknown maps to suppression.
func EvaluateGuardrail(cfg *config.GuardrailConfig, input GuardrailInput) models.GuardrailDecision {
	var reasons []string

	if input.SeriesLength < cfg.MinSeriesLength {
		reasons = append(reasons, "series_too_short")
	}
	if input.QualityFlags.SeriesTooShort {
		reasons = append(reasons, "insufficient_history_for_seasonal_fit")
	}

	highVolatility := input.QualityFlags.TooSpiky
	if input.Volatility == nil {
		highVolatility = true
	} else if *input.Volatility > cfg.HighVolatilityCV {
		highVolatility = true
	}

	// Spikiness alone is survivable; spikiness combined with cross-source
	// disagreement is not.
	if highVolatility && input.DisagreementFlag {
		reasons = append(reasons, "volatile_and_sources_disagree")
	}

	if input.AgreementIndex == nil {
		reasons = append(reasons, "agreement_index_unknown")
	} else if *input.AgreementIndex < cfg.AgreementFloor {
		reasons = append(reasons, "agreement_below_floor")
	}

	return models.GuardrailDecision{
		ShowForecast: len(reasons) == 0,
		Reasons:      reasons,
	}
}
