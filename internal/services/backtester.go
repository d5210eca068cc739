package services

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/trendduel/trendduel-ai-go/internal/config"
	"github.com/trendduel/trendduel-ai-go/internal/models"
)

// mapeEpsilon guards MAPE against near-zero denominators; actuals below this
// are excluded from the percentage-error sample.
const mapeEpsilon = 1e-6

// Backtester runs walk-forward validation: repeatedly hold out the trailing
// window, fit on the remainder, forecast across the window, and compare to
// actuals. It is both the accuracy report and the arbiter the model selector
// uses to pick between candidates.
type Backtester struct {
	cfg    *config.ForecastConfig
	logger *logrus.Logger
}

// BacktestReport aggregates fold results. Metrics is nil when fewer than the
// minimum number of folds produced a usable fit; pooled residuals are
// step-normalized forecast errors feeding the interval estimator.
type BacktestReport struct {
	Metrics     *models.ForecastMetrics
	Residuals   []float64
	UsableFolds int
	FailedFolds int
}

// NewBacktester creates a new backtester.
func NewBacktester(cfg *config.ForecastConfig, logger *logrus.Logger) *Backtester {
	return &Backtester{cfg: cfg, logger: logger}
}

// Run walks folds backward from the end of the series. build must return a
// fresh forecaster per fold so no fitted state leaks between folds. Folds that
// fail to fit are excluded from the sample, never counted as zero error.
func (b *Backtester) Run(values []float64, build func() Forecaster) *BacktestReport {
	report := &BacktestReport{}

	foldHorizon := b.cfg.BacktestFoldHorizon
	if foldHorizon < 1 {
		foldHorizon = 1
	}

	var (
		sumAbsErr float64
		sumAPE    float64
		nPoints   int
		nAPE      int
		inside80  int
		inside95  int
	)

	for fold := 0; fold < b.cfg.BacktestMaxFolds; fold++ {
		testEnd := len(values) - fold*foldHorizon
		testStart := testEnd - foldHorizon
		if testStart < b.cfg.BacktestMinTrainPoints {
			break
		}

		train := values[:testStart]
		actuals := values[testStart:testEnd]

		out, err := build().FitAndForecast(train, foldHorizon)
		if err != nil {
			report.FailedFolds++
			continue
		}
		report.UsableFolds++

		foldSigma := residualStd(out.Residuals)
		for h, actual := range actuals {
			predicted := out.Values[h]
			errAbs := math.Abs(actual - predicted)
			sumAbsErr += errAbs
			nPoints++

			if math.Abs(actual) > mapeEpsilon {
				sumAPE += errAbs / math.Abs(actual)
				nAPE++
			}

			sigma := out.StepStd[h]
			if sigma < foldSigma {
				sigma = foldSigma
			}
			if errAbs <= z80*sigma {
				inside80++
			}
			if errAbs <= z95*sigma {
				inside95++
			}

			// Normalize the error back to a one-step-equivalent scale so the
			// pooled distribution can be re-widened per horizon step later.
			report.Residuals = append(report.Residuals, (actual-predicted)/math.Sqrt(float64(h+1)))
		}
	}

	if report.UsableFolds < b.cfg.BacktestMinFolds || nPoints == 0 {
		b.logger.WithFields(logrus.Fields{
			"usable_folds": report.UsableFolds,
			"failed_folds": report.FailedFolds,
			"min_folds":    b.cfg.BacktestMinFolds,
		}).Debug("Backtest below minimum fold count, withholding metrics")
		return report
	}

	metrics := &models.ForecastMetrics{
		MAE:                sumAbsErr / float64(nPoints),
		IntervalCoverage80: float64(inside80) / float64(nPoints) * 100,
		IntervalCoverage95: float64(inside95) / float64(nPoints) * 100,
		SampleSize:         nPoints,
	}
	if nAPE > 0 {
		metrics.MAPE = sumAPE / float64(nAPE) * 100
	}
	report.Metrics = metrics

	return report
}
