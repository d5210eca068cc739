package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/trendduel/trendduel-ai-go/internal/models"
	"github.com/trendduel/trendduel-ai-go/internal/services"
)

// PeakLister is the read side of the peak history store.
type PeakLister interface {
	ListPeaks(ctx context.Context, keyword string) ([]models.HistoricalPeak, error)
}

// PeakStore is the full peak history store surface: reads for analysis,
// writes for ingestion.
type PeakStore interface {
	PeakLister
	RecordPeak(ctx context.Context, peak models.HistoricalPeak) error
}

// PatternHandler serves the cyclical pattern analysis and peak ingestion
// endpoints.
type PatternHandler struct {
	analyzer *services.PatternAnalyzer
	peaks    PeakStore
	logger   *logrus.Logger

	now func() time.Time
}

// NewPatternHandler creates a new pattern handler. peaks may be nil when no
// store is configured; analysis then works on inline peaks only.
func NewPatternHandler(analyzer *services.PatternAnalyzer, peaks PeakStore, logger *logrus.Logger) *PatternHandler {
	return &PatternHandler{
		analyzer: analyzer,
		peaks:    peaks,
		logger:   logger,
		now:      time.Now,
	}
}

// PatternAnalyzeRequest is the input contract for pattern analysis. Peaks may
// be supplied inline; when omitted the stored history for the keyword is used.
type PatternAnalyzeRequest struct {
	Keyword string                  `json:"keyword"`
	Peaks   []models.HistoricalPeak `json:"peaks,omitempty"`
	AsOf    *time.Time              `json:"as_of,omitempty"`
}

// Analyze handles POST /api/v1/patterns/analyze.
func (h *PatternHandler) Analyze(c *gin.Context) {
	var req PatternAnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	req.Keyword = strings.TrimSpace(req.Keyword)
	if req.Keyword == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "keyword is required"})
		return
	}

	peaks := req.Peaks
	if len(peaks) == 0 && h.peaks != nil {
		stored, err := h.peaks.ListPeaks(c.Request.Context(), req.Keyword)
		if err != nil {
			h.logger.WithError(err).WithField("keyword", req.Keyword).Error("Failed to load peak history")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load peak history"})
			return
		}
		peaks = stored
	}

	asOf := h.now()
	if req.AsOf != nil {
		asOf = *req.AsOf
	}

	analysis := h.analyzer.Analyze(req.Keyword, peaks, asOf)
	c.JSON(http.StatusOK, analysis)
}

// RecordPeakRequest is the ingestion contract for one observed peak.
type RecordPeakRequest struct {
	Keyword   string    `json:"keyword"`
	Date      time.Time `json:"date"`
	Magnitude float64   `json:"magnitude"`
	Value     float64   `json:"value"`
}

// RecordPeak handles POST /api/v1/patterns/peaks.
func (h *PatternHandler) RecordPeak(c *gin.Context) {
	if h.peaks == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "peak store is not configured"})
		return
	}

	var req RecordPeakRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	req.Keyword = strings.TrimSpace(req.Keyword)
	if req.Keyword == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "keyword is required"})
		return
	}
	if req.Date.IsZero() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date is required"})
		return
	}
	if req.Value < 0 || req.Value > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "value must be on the 0-100 scale"})
		return
	}

	peak := models.HistoricalPeak{
		Keyword:   req.Keyword,
		Date:      req.Date,
		Magnitude: req.Magnitude,
		Value:     req.Value,
	}
	if err := h.peaks.RecordPeak(c.Request.Context(), peak); err != nil {
		h.logger.WithError(err).WithField("keyword", req.Keyword).Error("Failed to record peak")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record peak"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "recorded"})
}
