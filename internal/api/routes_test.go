package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trendduel/trendduel-ai-go/internal/config"
	"github.com/trendduel/trendduel-ai-go/internal/models"
)

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg := &config.Config{
		Environment: "test",
		Server: config.ServerConfig{
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Forecast: config.ForecastConfig{
			MinPoints:                3,
			MinSeasonalPoints:        60,
			SpikinessCVThreshold:     1.5,
			SpikeSigmaThreshold:      4.0,
			ShockSigmaThreshold:      3.0,
			ShockTrailingWindow:      7,
			VolatilityWindow:         28,
			SeasonalCycleDays:        7,
			MaxAROrder:               5,
			DampingFactor:            0.9,
			BacktestMinTrainPoints:   28,
			BacktestFoldHorizon:      7,
			BacktestMaxFolds:         8,
			BacktestMinFolds:         3,
			MinResidualsForQuantiles: 20,
			MinBandWidth:             1.0,
			FlagPenalty:              15.0,
			MaxHorizon:               90,
			DefaultHorizon:           14,
			CacheTTL:                 "15m",
		},
		Guardrail: config.GuardrailConfig{
			MinSeriesLength:  30,
			AgreementFloor:   0.4,
			HighVolatilityCV: 1.5,
		},
		Pattern: config.PatternConfig{
			AnnualConsistency:    0.60,
			QuarterlyConsistency: 0.50,
			MonthlyConsistency:   0.60,
			WeeklyConsistency:    0.70,
			AnnualMinPeaks:       3,
			QuarterlyMinPeaks:    4,
			MonthlyMinPeaks:      4,
			WeeklyMinPeaks:       4,
			MonthlyDayTolerance:  3,
		},
		Trust: config.TrustConfig{CacheTTL: "5m"},
	}

	router := gin.New()
	SetupRoutes(router, cfg, logger, nil, nil)
	return router
}

func compareBody(t *testing.T, n int) []byte {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	agreement := 0.9
	req := models.ForecastRequest{
		TermA:          "coffee",
		TermB:          "tea",
		Horizon:        14,
		AgreementIndex: &agreement,
	}
	for i := 0; i < n; i++ {
		req.Series = append(req.Series, models.SeriesPoint{
			Date:   start.AddDate(0, 0, i),
			ValueA: 40 + 0.3*float64(i),
			ValueB: 35 + 0.1*float64(i),
		})
	}
	body, err := json.Marshal(req)
	require.NoError(t, err)
	return body
}

func TestHealthEndpoint(t *testing.T) {
	router := testRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "ok", response.Status)
	assert.Equal(t, "disabled", response.Services.Database)
	assert.Equal(t, "disabled", response.Services.Redis)
}

func TestForecastCompareEndpoint(t *testing.T) {
	router := testRouter(t)

	t.Run("valid request returns a pack", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/forecast/compare", bytes.NewReader(compareBody(t, 120)))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var pack models.ForecastPack
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pack))
		assert.Equal(t, "coffee", pack.TermA)
		assert.Len(t, pack.TermAResult.Points, 14)
		assert.NotNil(t, pack.HeadToHead)
		assert.NotEmpty(t, pack.InputHash)
	})

	t.Run("request id header is attached", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/forecast/compare", bytes.NewReader(compareBody(t, 120)))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})

	t.Run("missing terms are rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/forecast/compare", bytes.NewReader([]byte(`{"series":[]}`)))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("series below the hard floor is a validation failure", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/forecast/compare", bytes.NewReader(compareBody(t, 2)))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("short series yields a suppressed naive pack", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/forecast/compare", bytes.NewReader(compareBody(t, 10)))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var pack models.ForecastPack
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pack))
		assert.Equal(t, models.ModelNaive, pack.TermAResult.Model)
		assert.False(t, pack.Guardrail.ShowForecast)
	})

	t.Run("malformed json is rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/forecast/compare", bytes.NewReader([]byte(`{`)))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestPatternAnalyzeEndpoint(t *testing.T) {
	router := testRouter(t)

	t.Run("inline peaks are analyzed", func(t *testing.T) {
		var peaks []map[string]interface{}
		for year := 2021; year <= 2025; year++ {
			peaks = append(peaks, map[string]interface{}{
				"keyword":   "backpacks",
				"date":      fmt.Sprintf("%d-09-05T00:00:00Z", year),
				"magnitude": 2.0,
				"value":     90,
			})
		}
		body := map[string]interface{}{
			"keyword": "backpacks",
			"as_of":   "2026-03-15T00:00:00Z",
			"peaks":   peaks,
		}
		raw, err := json.Marshal(body)
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/patterns/analyze", bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var analysis models.PatternAnalysis
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &analysis))
		assert.Equal(t, models.PatternAnnual, analysis.PatternType)
		assert.NotNil(t, analysis.NextPredicted)
	})

	t.Run("missing keyword is rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/patterns/analyze", bytes.NewReader([]byte(`{}`)))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestPeakIngestionDisabledWithoutDatabase(t *testing.T) {
	router := testRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/patterns/peaks", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTrustEndpointDisabledWithoutDatabase(t *testing.T) {
	router := testRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/trust/30d", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
