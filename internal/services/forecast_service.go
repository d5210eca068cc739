package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/trendduel/trendduel-ai-go/internal/config"
	"github.com/trendduel/trendduel-ai-go/internal/models"
	"github.com/trendduel/trendduel-ai-go/internal/utils"
)

// ForecastService runs the full comparison pipeline: preprocess, per-term
// quality assessment + model selection + backtest + interval estimation (the
// two terms concurrently), head-to-head combination, guardrail decision. The
// whole pipeline is deterministic for identical inputs; only ComputedAt comes
// from the injected clock.
type ForecastService struct {
	cfg          *config.Config
	logger       *logrus.Logger
	preprocessor *SeriesPreprocessor
	quality      *QualityAssessor
	selector     *ModelSelector
	intervals    *IntervalEstimator
	headToHead   *HeadToHeadCalculator

	now func() time.Time
}

// NewForecastService wires the pipeline components.
func NewForecastService(cfg *config.Config, logger *logrus.Logger) *ForecastService {
	backtester := NewBacktester(&cfg.Forecast, logger)
	return &ForecastService{
		cfg:          cfg,
		logger:       logger,
		preprocessor: NewSeriesPreprocessor(&cfg.Forecast, logger),
		quality:      NewQualityAssessor(&cfg.Forecast, logger),
		selector:     NewModelSelector(&cfg.Forecast, logger, backtester),
		intervals:    NewIntervalEstimator(&cfg.Forecast, logger),
		headToHead:   NewHeadToHeadCalculator(logger),
		now:          time.Now,
	}
}

// Compare produces a ForecastPack for two aligned series. Malformed input is
// rejected with a typed validation error; everything past preprocessing
// degrades instead of failing.
func (fs *ForecastService) Compare(ctx context.Context, req *models.ForecastRequest) (*models.ForecastPack, error) {
	horizon := req.Horizon
	if horizon <= 0 {
		horizon = fs.cfg.Forecast.DefaultHorizon
	}
	if horizon > fs.cfg.Forecast.MaxHorizon {
		return nil, utils.NewValidationErrorf("horizon",
			"horizon %d exceeds maximum %d", horizon, fs.cfg.Forecast.MaxHorizon)
	}

	prepared, err := fs.preprocessor.Prepare(req.Series)
	if err != nil {
		return nil, err
	}

	fs.logger.WithFields(logrus.Fields{
		"term_a":  req.TermA,
		"term_b":  req.TermB,
		"points":  len(req.Series),
		"horizon": horizon,
	}).Info("Running forecast comparison")

	var resultA, resultB *models.ForecastResult
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		resultA = fs.forecastTerm(prepared.TermA, prepared.LastDate, horizon)
		return nil
	})
	g.Go(func() error {
		resultB = fs.forecastTerm(prepared.TermB, prepared.LastDate, horizon)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("forecast pipeline: %w", err)
	}

	valuesA := Values(prepared.TermA)
	valuesB := Values(prepared.TermB)
	currentA := valuesA[len(valuesA)-1]
	currentB := valuesB[len(valuesB)-1]

	headToHead := fs.headToHead.Calculate(resultA, resultB, currentA, currentB, horizon)

	volatility := math.Max(
		coefficientOfVariation(absDeltas(valuesA)),
		coefficientOfVariation(absDeltas(valuesB)),
	)
	guardrail := EvaluateGuardrail(&fs.cfg.Guardrail, GuardrailInput{
		SeriesLength:     len(req.Series),
		Volatility:       &volatility,
		DisagreementFlag: req.DisagreementFlag,
		AgreementIndex:   req.AgreementIndex,
		QualityFlags: models.QualityFlags{
			SeriesTooShort:   resultA.QualityFlags.SeriesTooShort || resultB.QualityFlags.SeriesTooShort,
			TooSpiky:         resultA.QualityFlags.TooSpiky || resultB.QualityFlags.TooSpiky,
			EventShockLikely: resultA.QualityFlags.EventShockLikely || resultB.QualityFlags.EventShockLikely,
		},
	})

	return &models.ForecastPack{
		TermA:       req.TermA,
		TermB:       req.TermB,
		TermAResult: resultA,
		TermBResult: resultB,
		HeadToHead:  headToHead,
		Guardrail:   guardrail,
		Category:    req.Category,
		Horizon:     horizon,
		ComputedAt:  fs.now(),
		InputHash:   HashForecastInput(req),
	}, nil
}

// forecastTerm runs the single-term pipeline: quality flags, model selection
// with backtest arbitration, interval attachment, confidence scoring.
func (fs *ForecastService) forecastTerm(obs []models.Observation, lastDate time.Time, horizon int) *models.ForecastResult {
	values := Values(obs)
	flags := fs.quality.Assess(values)
	selection := fs.selector.SelectAndForecast(values, horizon, flags)
	points := fs.intervals.Estimate(lastDate, selection.Output, selection.Report.Residuals)

	return &models.ForecastResult{
		Points:          points,
		Model:           selection.Model,
		Metrics:         selection.Report.Metrics,
		ConfidenceScore: fs.confidenceScore(selection.Report.Metrics, flags),
		QualityFlags:    flags,
	}
}

// confidenceScore grades the forecast 0-100 from backtest accuracy, then
// deducts a fixed penalty per raised quality flag. Deduction-only flag
// handling keeps the score non-increasing as flag severity increases.
func (fs *ForecastService) confidenceScore(metrics *models.ForecastMetrics, flags models.QualityFlags) decimal.Decimal {
	score := 40.0 // withheld metrics earn a below-midline base
	if metrics != nil {
		coverage := 100 - math.Abs(metrics.IntervalCoverage95-95) - math.Abs(metrics.IntervalCoverage80-80)
		accuracy := 100 - metrics.MAPE
		score = 0.5*math.Max(0, coverage) + 0.5*math.Max(0, accuracy)
	}

	penalty := fs.cfg.Forecast.FlagPenalty
	if flags.SeriesTooShort {
		score -= penalty
	}
	if flags.TooSpiky {
		score -= penalty
	}
	if flags.EventShockLikely {
		score -= penalty
	}

	return decimal.NewFromFloat(math.Max(0, math.Min(100, score))).Round(1)
}

func absDeltas(values []float64) []float64 {
	deltas := dayOverDayDeltas(values)
	for i, d := range deltas {
		deltas[i] = math.Abs(d)
	}
	return deltas
}

// HashForecastInput produces the content hash that keys cached packs. It
// covers every request field that can alter the returned pack, including the
// guardrail context; two requests that hash alike are interchangeable.
func HashForecastInput(req *models.ForecastRequest) string {
	var b strings.Builder
	b.WriteString(req.TermA)
	b.WriteByte('|')
	b.WriteString(req.TermB)
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(req.Horizon))
	b.WriteByte('|')
	b.WriteString(req.Category)
	b.WriteByte('|')
	b.WriteString(strconv.FormatBool(req.DisagreementFlag))
	b.WriteByte('|')
	if req.AgreementIndex != nil {
		b.WriteString(strconv.FormatFloat(*req.AgreementIndex, 'g', -1, 64))
	} else {
		b.WriteString("unknown")
	}
	for _, p := range req.Series {
		b.WriteByte('|')
		b.WriteString(p.Date.UTC().Format("2006-01-02"))
		b.WriteByte(':')
		b.WriteString(strconv.FormatFloat(p.ValueA, 'g', -1, 64))
		b.WriteByte(':')
		b.WriteString(strconv.FormatFloat(p.ValueB, 'g', -1, 64))
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
