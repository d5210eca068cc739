package services

import (
	"github.com/sirupsen/logrus"

	"github.com/trendduel/trendduel-ai-go/internal/config"
	"github.com/trendduel/trendduel-ai-go/internal/models"
)

// ModelSelector picks and runs a forecasting model for one term. The policy:
// a too-short series always gets naive; a spiky or shocked series gets the
// damped smoothing model; otherwise the smoothing and autoregressive
// candidates are backtested and the lower-MAPE one wins. Any fit failure
// degrades to naive; the pipeline must always produce some forecast.
type ModelSelector struct {
	cfg        *config.ForecastConfig
	logger     *logrus.Logger
	backtester *Backtester
}

// SelectionResult is a fitted forecast plus the backtest report that justified
// (and will decorate) it.
type SelectionResult struct {
	Model  models.ModelKind
	Output *ForecastOutput
	Report *BacktestReport
}

// NewModelSelector creates a new model selector.
func NewModelSelector(cfg *config.ForecastConfig, logger *logrus.Logger, backtester *Backtester) *ModelSelector {
	return &ModelSelector{cfg: cfg, logger: logger, backtester: backtester}
}

func (ms *ModelSelector) naive() Forecaster {
	return &NaiveForecaster{SeasonalCycle: ms.cfg.SeasonalCycleDays}
}

func (ms *ModelSelector) smoothing() Forecaster {
	return &SmoothingForecaster{Damping: ms.cfg.DampingFactor}
}

func (ms *ModelSelector) autoregressive() Forecaster {
	return &ARForecaster{MaxOrder: ms.cfg.MaxAROrder}
}

// SelectAndForecast applies the selection policy and returns a forecast that
// is guaranteed to exist.
func (ms *ModelSelector) SelectAndForecast(values []float64, horizon int, flags models.QualityFlags) *SelectionResult {
	switch {
	case flags.SeriesTooShort:
		return ms.run(values, horizon, ms.naive)

	case flags.TooSpiky || flags.EventShockLikely:
		// Conservative under noise: damped smoothing over autoregression.
		if result := ms.tryRun(values, horizon, ms.smoothing); result != nil {
			return result
		}
		return ms.run(values, horizon, ms.naive)

	default:
		return ms.pickByBacktest(values, horizon)
	}
}

// pickByBacktest backtests both full candidates and keeps the lower MAPE.
func (ms *ModelSelector) pickByBacktest(values []float64, horizon int) *SelectionResult {
	etsReport := ms.backtester.Run(values, ms.smoothing)
	arReport := ms.backtester.Run(values, ms.autoregressive)

	var builders []func() Forecaster
	switch {
	case etsReport.Metrics != nil && arReport.Metrics != nil:
		if arReport.Metrics.MAPE < etsReport.Metrics.MAPE {
			builders = []func() Forecaster{ms.autoregressive, ms.smoothing}
		} else {
			builders = []func() Forecaster{ms.smoothing, ms.autoregressive}
		}
	case arReport.Metrics != nil:
		builders = []func() Forecaster{ms.autoregressive, ms.smoothing}
	default:
		builders = []func() Forecaster{ms.smoothing, ms.autoregressive}
	}

	for _, build := range builders {
		if result := ms.tryRunWithReports(values, horizon, build, etsReport, arReport); result != nil {
			ms.logger.WithFields(logrus.Fields{
				"model":   result.Model,
				"horizon": horizon,
			}).Debug("Model selected by backtest")
			return result
		}
	}

	return ms.run(values, horizon, ms.naive)
}

// run fits the given model and, on failure, falls back to naive. The naive
// model accepts anything the preprocessor accepted, so this cannot fail.
func (ms *ModelSelector) run(values []float64, horizon int, build func() Forecaster) *SelectionResult {
	if result := ms.tryRun(values, horizon, build); result != nil {
		return result
	}

	out, err := ms.naive().FitAndForecast(values, horizon)
	if err != nil {
		// Unreachable after preprocessing; return an empty-but-valid result
		// rather than propagate.
		ms.logger.WithError(err).Error("Naive fallback failed")
		out = &ForecastOutput{Values: make([]float64, horizon), StepStd: make([]float64, horizon)}
	}
	return &SelectionResult{
		Model:  models.ModelNaive,
		Output: out,
		Report: ms.backtester.Run(values, ms.naive),
	}
}

func (ms *ModelSelector) tryRun(values []float64, horizon int, build func() Forecaster) *SelectionResult {
	f := build()
	out, err := f.FitAndForecast(values, horizon)
	if err != nil {
		ms.logger.WithFields(logrus.Fields{
			"model": f.Kind(),
		}).WithError(err).Debug("Model fit failed, degrading")
		return nil
	}
	return &SelectionResult{
		Model:  f.Kind(),
		Output: out,
		Report: ms.backtester.Run(values, build),
	}
}

// tryRunWithReports reuses already-computed candidate reports instead of
// re-running the backtest for the chosen model.
func (ms *ModelSelector) tryRunWithReports(values []float64, horizon int, build func() Forecaster, etsReport, arReport *BacktestReport) *SelectionResult {
	f := build()
	out, err := f.FitAndForecast(values, horizon)
	if err != nil {
		ms.logger.WithFields(logrus.Fields{
			"model": f.Kind(),
		}).WithError(err).Debug("Model fit failed, degrading")
		return nil
	}

	report := etsReport
	if f.Kind() == models.ModelARIMA {
		report = arReport
	}
	return &SelectionResult{Model: f.Kind(), Output: out, Report: report}
}
