package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ModelKind identifies which forecasting model produced a result.
type ModelKind string

const (
	ModelNaive ModelKind = "naive"
	ModelETS   ModelKind = "ets"
	ModelARIMA ModelKind = "arima"
)

// LeadChangeRisk classifies how likely the currently leading term is to be
// overtaken within the forecast horizon.
type LeadChangeRisk string

const (
	LeadChangeRiskLow    LeadChangeRisk = "low"
	LeadChangeRiskMedium LeadChangeRisk = "medium"
	LeadChangeRiskHigh   LeadChangeRisk = "high"
)

// SeriesPoint represents one day of paired search-interest values on the
// 0-100 scale.
type SeriesPoint struct {
	Date   time.Time `json:"date"`
	ValueA float64   `json:"value_a"`
	ValueB float64   `json:"value_b"`
}

// Observation is a single-term daily value after preprocessing.
type Observation struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// QualityFlags captures per-term data quality conditions that drive model
// selection and the guardrail decision.
type QualityFlags struct {
	SeriesTooShort   bool `json:"series_too_short"`
	TooSpiky         bool `json:"too_spiky"`
	EventShockLikely bool `json:"event_shock_likely"`
}

// Any reports whether any quality flag is raised.
func (q QualityFlags) Any() bool {
	return q.SeriesTooShort || q.TooSpiky || q.EventShockLikely
}

// ForecastPoint is a single forecasted day with nested confidence bands.
// Invariant: Lower95 <= Lower80 <= Value <= Upper80 <= Upper95.
type ForecastPoint struct {
	Date    time.Time `json:"date"`
	Value   float64   `json:"value"`
	Lower80 float64   `json:"lower_80"`
	Upper80 float64   `json:"upper_80"`
	Lower95 float64   `json:"lower_95"`
	Upper95 float64   `json:"upper_95"`
}

// ForecastMetrics holds walk-forward backtest accuracy numbers for the chosen
// model. Nil metrics mean the backtest had too few usable folds to report.
type ForecastMetrics struct {
	MAE                float64 `json:"mae"`
	MAPE               float64 `json:"mape"`
	IntervalCoverage80 float64 `json:"interval_coverage_80"`
	IntervalCoverage95 float64 `json:"interval_coverage_95"`
	SampleSize         int     `json:"sample_size"`
}

// ForecastResult is the per-term forecast output.
type ForecastResult struct {
	Points          []ForecastPoint  `json:"points"`
	Model           ModelKind        `json:"model"`
	Metrics         *ForecastMetrics `json:"metrics,omitempty"`
	ConfidenceScore decimal.Decimal  `json:"confidence_score"` // 0-100
	QualityFlags    QualityFlags     `json:"quality_flags"`
}

// FinalPoint returns the forecast point at the end of the horizon.
func (r *ForecastResult) FinalPoint() *ForecastPoint {
	if r == nil || len(r.Points) == 0 {
		return nil
	}
	return &r.Points[len(r.Points)-1]
}

// HeadToHeadForecast combines both terms' forecasts into a single
// winner-probability view.
type HeadToHeadForecast struct {
	WinnerProbability    decimal.Decimal `json:"winner_probability"` // 0-100, P(termA > termB)
	ExpectedMarginPoints decimal.Decimal `json:"expected_margin_points"`
	LeadChangeRisk       LeadChangeRisk  `json:"lead_change_risk"`
	CurrentMargin        decimal.Decimal `json:"current_margin"`
	ForecastHorizon      int             `json:"forecast_horizon"`
}

// GuardrailDecision is the fail-closed gate on whether the forecast should be
// surfaced to users at all.
type GuardrailDecision struct {
	ShowForecast bool     `json:"show_forecast"`
	Reasons      []string `json:"reasons,omitempty"`
}

// ForecastPack is the complete response for one comparison request. It is
// immutable once returned and safely cacheable by the content hash of its
// inputs.
type ForecastPack struct {
	TermA       string              `json:"term_a"`
	TermB       string              `json:"term_b"`
	TermAResult *ForecastResult     `json:"term_a_result"`
	TermBResult *ForecastResult     `json:"term_b_result"`
	HeadToHead  *HeadToHeadForecast `json:"head_to_head"`
	Guardrail   GuardrailDecision   `json:"guardrail"`
	Category    string              `json:"category,omitempty"` // pass-through narration hint
	Horizon     int                 `json:"horizon"`
	ComputedAt  time.Time           `json:"computed_at"`
	InputHash   string              `json:"input_hash"`
}

// ForecastRequest is the input contract for a comparison.
type ForecastRequest struct {
	TermA    string        `json:"term_a"`
	TermB    string        `json:"term_b"`
	Series   []SeriesPoint `json:"series"`
	Horizon  int           `json:"horizon"`
	Category string        `json:"category,omitempty"`

	// Cross-source agreement context for the guardrail. Nil means unknown,
	// which the guardrail treats as the most conservative state.
	AgreementIndex   *float64 `json:"agreement_index,omitempty"`
	DisagreementFlag bool     `json:"disagreement_flag,omitempty"`
}
