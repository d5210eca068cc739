package services

import (
	"math"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/trendduel/trendduel-ai-go/internal/models"
)

// Lead-change risk classification cutoffs: combined forecast uncertainty
// relative to the expected margin.
const (
	leadChangeLowRatio  = 0.5
	leadChangeHighRatio = 1.5
)

// HeadToHeadCalculator combines both terms' forecasts into a winner
// probability using a closed-form normal approximation. Each term's
// final-horizon value is treated as normal with variance derived from its 95%
// band width; the terms are assumed independent. The closed form keeps the
// whole pipeline deterministic, with no simulation or seeding concerns.
type HeadToHeadCalculator struct {
	logger *logrus.Logger
}

// NewHeadToHeadCalculator creates a new head-to-head calculator.
func NewHeadToHeadCalculator(logger *logrus.Logger) *HeadToHeadCalculator {
	return &HeadToHeadCalculator{logger: logger}
}

// Calculate produces the winner probability, expected margin, and lead-change
// risk. Swapping the two inputs inverts the probability (100-p) and negates
// the margin exactly: normalCDF is built on the odd math.Erf.
func (h *HeadToHeadCalculator) Calculate(termA, termB *models.ForecastResult, currentA, currentB float64, horizon int) *models.HeadToHeadForecast {
	finalA := termA.FinalPoint()
	finalB := termB.FinalPoint()

	muA, sigmaA := finalStats(finalA)
	muB, sigmaB := finalStats(finalB)

	combinedVar := sigmaA*sigmaA + sigmaB*sigmaB
	combinedSigma := math.Sqrt(combinedVar)

	margin := muA - muB
	var winnerProb float64
	if combinedSigma < 1e-9 {
		switch {
		case margin > 0:
			winnerProb = 100
		case margin < 0:
			winnerProb = 0
		default:
			winnerProb = 50
		}
	} else {
		// Evaluate the CDF on |margin| and complement for the losing side, so
		// a swapped-argument call produces exactly 100-p.
		pLeader := normalCDF(math.Abs(margin)/combinedSigma) * 100
		if margin >= 0 {
			winnerProb = pLeader
		} else {
			winnerProb = 100 - pLeader
		}
	}

	currentMargin := currentA - currentB
	risk := classifyLeadChangeRisk(margin, currentMargin, combinedSigma)

	h.logger.WithFields(logrus.Fields{
		"winner_probability": winnerProb,
		"expected_margin":    margin,
		"lead_change_risk":   risk,
	}).Debug("Head-to-head computed")

	return &models.HeadToHeadForecast{
		WinnerProbability:    decimal.NewFromFloat(winnerProb).Round(2),
		ExpectedMarginPoints: decimal.NewFromFloat(margin).Round(2),
		LeadChangeRisk:       risk,
		CurrentMargin:        decimal.NewFromFloat(currentMargin).Round(2),
		ForecastHorizon:      horizon,
	}
}

// finalStats derives mean and standard deviation from a final forecast point's
// 95% band width.
func finalStats(p *models.ForecastPoint) (mu, sigma float64) {
	if p == nil {
		return 0, 0
	}
	return p.Value, (p.Upper95 - p.Lower95) / (2 * z95)
}

// classifyLeadChangeRisk grades how fragile the projected lead is. A sign flip
// between the current and expected margin is always high risk; otherwise the
// grade follows how large the combined uncertainty is relative to the margin.
func classifyLeadChangeRisk(expectedMargin, currentMargin float64, combinedSigma float64) models.LeadChangeRisk {
	if expectedMargin != 0 && currentMargin != 0 &&
		math.Signbit(expectedMargin) != math.Signbit(currentMargin) {
		return models.LeadChangeRiskHigh
	}

	absMargin := math.Abs(expectedMargin)
	if absMargin < 1e-9 {
		return models.LeadChangeRiskHigh
	}

	ratio := combinedSigma / absMargin
	switch {
	case ratio <= leadChangeLowRatio:
		return models.LeadChangeRiskLow
	case ratio <= leadChangeHighRatio:
		return models.LeadChangeRiskMedium
	default:
		return models.LeadChangeRiskHigh
	}
}
