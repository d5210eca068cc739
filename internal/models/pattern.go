package models

import "time"

// PatternType identifies the recurrence cycle detected in a keyword's peak
// history.
type PatternType string

const (
	PatternAnnual      PatternType = "annual"
	PatternQuarterly   PatternType = "quarterly"
	PatternMonthly     PatternType = "monthly"
	PatternWeekly      PatternType = "weekly"
	PatternEventDriven PatternType = "event-driven"
	PatternNone        PatternType = "none"
)

// HistoricalPeak is one recorded interest peak for a keyword. Peak history is
// append-only input to the pattern analyzer.
type HistoricalPeak struct {
	Keyword   string    `json:"keyword" db:"keyword"`
	Date      time.Time `json:"date" db:"peak_date"`
	Magnitude float64   `json:"magnitude" db:"magnitude"` // height relative to series baseline
	Value     float64   `json:"value" db:"value"`         // raw 0-100 interest value
}

// PredictedPeak is the next expected occurrence of a detected pattern.
type PredictedPeak struct {
	Date       time.Time `json:"date"`
	RangeStart time.Time `json:"range_start"`
	RangeEnd   time.Time `json:"range_end"`
	Confidence float64   `json:"confidence"` // 0-100
}

// PatternAnalysis is the result of cyclical pattern detection for one keyword.
// An event-driven classification carries no NextPredicted date: the absence of
// a prediction is itself the signal.
type PatternAnalysis struct {
	Keyword               string         `json:"keyword"`
	PatternType           PatternType    `json:"pattern_type"`
	Confidence            float64        `json:"confidence"` // 0-100
	Frequency             string         `json:"frequency"`  // human label, e.g. "every September"
	HistoricalOccurrences []time.Time    `json:"historical_occurrences"`
	NextPredicted         *PredictedPeak `json:"next_predicted,omitempty"`
	PatternStrength       float64        `json:"pattern_strength"` // bucket consistency, 0-1
	Description           string         `json:"description"`
}
