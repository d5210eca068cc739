package services

import (
	"math"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/trendduel/trendduel-ai-go/internal/config"
	"github.com/trendduel/trendduel-ai-go/internal/models"
	"github.com/trendduel/trendduel-ai-go/internal/utils"
)

// SeriesPreprocessor validates and normalizes the paired input series before
// any model sees it. Malformed input is rejected here with a typed validation
// error; nothing downstream ever silently coerces bad data.
type SeriesPreprocessor struct {
	cfg    *config.ForecastConfig
	logger *logrus.Logger
}

// PreparedSeries is the validated, per-term view of the paired input.
type PreparedSeries struct {
	TermA    []models.Observation
	TermB    []models.Observation
	LastDate time.Time
}

// NewSeriesPreprocessor creates a new preprocessor.
func NewSeriesPreprocessor(cfg *config.ForecastConfig, logger *logrus.Logger) *SeriesPreprocessor {
	return &SeriesPreprocessor{cfg: cfg, logger: logger}
}

// Prepare sorts the series by date and validates it. Out-of-order input is
// repaired by sorting; duplicate dates, NaN values, out-of-scale values, and
// series below the hard minimum length are rejected.
func (sp *SeriesPreprocessor) Prepare(series []models.SeriesPoint) (*PreparedSeries, error) {
	if len(series) < sp.cfg.MinPoints {
		return nil, utils.NewValidationErrorf("series",
			"need at least %d points, got %d", sp.cfg.MinPoints, len(series))
	}

	sorted := make([]models.SeriesPoint, len(series))
	copy(sorted, series)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	for i, p := range sorted {
		if i > 0 && !sorted[i-1].Date.Before(p.Date) {
			return nil, utils.NewValidationErrorf("series",
				"duplicate date %s", p.Date.Format("2006-01-02"))
		}
		if math.IsNaN(p.ValueA) || math.IsInf(p.ValueA, 0) {
			return nil, utils.NewValidationErrorf("value_a",
				"non-finite value at %s", p.Date.Format("2006-01-02"))
		}
		if math.IsNaN(p.ValueB) || math.IsInf(p.ValueB, 0) {
			return nil, utils.NewValidationErrorf("value_b",
				"non-finite value at %s", p.Date.Format("2006-01-02"))
		}
		if p.ValueA < 0 || p.ValueA > 100 {
			return nil, utils.NewValidationErrorf("value_a",
				"value %.2f outside 0-100 scale at %s", p.ValueA, p.Date.Format("2006-01-02"))
		}
		if p.ValueB < 0 || p.ValueB > 100 {
			return nil, utils.NewValidationErrorf("value_b",
				"value %.2f outside 0-100 scale at %s", p.ValueB, p.Date.Format("2006-01-02"))
		}
	}

	prepared := &PreparedSeries{
		TermA:    make([]models.Observation, len(sorted)),
		TermB:    make([]models.Observation, len(sorted)),
		LastDate: sorted[len(sorted)-1].Date,
	}
	for i, p := range sorted {
		prepared.TermA[i] = models.Observation{Date: p.Date, Value: p.ValueA}
		prepared.TermB[i] = models.Observation{Date: p.Date, Value: p.ValueB}
	}

	sp.logger.WithFields(logrus.Fields{
		"points":    len(sorted),
		"last_date": prepared.LastDate.Format("2006-01-02"),
	}).Debug("Series prepared")

	return prepared, nil
}

// Values extracts the raw value slice from a term's observations.
func Values(obs []models.Observation) []float64 {
	values := make([]float64, len(obs))
	for i, o := range obs {
		values[i] = o.Value
	}
	return values
}
