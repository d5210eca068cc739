package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TrustStats is the rolling accuracy record produced by the periodic
// forecast-evaluation job. This service only reads it; the evaluator owns all
// writes.
type TrustStats struct {
	Period                  string          `json:"period" db:"period"`
	TotalEvaluated          int             `json:"total_evaluated" db:"total_evaluated"`
	WinnerAccuracyPercent   decimal.Decimal `json:"winner_accuracy_percent" db:"winner_accuracy_percent"`
	IntervalCoveragePercent decimal.Decimal `json:"interval_coverage_percent" db:"interval_coverage_percent"`
	Last90DaysAccuracy      decimal.Decimal `json:"last_90_days_accuracy" db:"last_90_days_accuracy"`
	SampleSize              int             `json:"sample_size" db:"sample_size"`
	UpdatedAt               time.Time       `json:"updated_at" db:"updated_at"`
}
