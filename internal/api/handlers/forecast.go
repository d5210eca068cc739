package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/trendduel/trendduel-ai-go/internal/cache"
	"github.com/trendduel/trendduel-ai-go/internal/models"
	"github.com/trendduel/trendduel-ai-go/internal/services"
	"github.com/trendduel/trendduel-ai-go/internal/utils"
)

// ForecastHandler serves the head-to-head comparison endpoint.
type ForecastHandler struct {
	forecastService *services.ForecastService
	packCache       *cache.RedisPackCache
	logger          *logrus.Logger
}

// NewForecastHandler creates a new forecast handler. packCache may be nil
// when caching is disabled.
func NewForecastHandler(forecastService *services.ForecastService, packCache *cache.RedisPackCache, logger *logrus.Logger) *ForecastHandler {
	return &ForecastHandler{
		forecastService: forecastService,
		packCache:       packCache,
		logger:          logger,
	}
}

// Compare handles POST /api/v1/forecast/compare.
func (h *ForecastHandler) Compare(c *gin.Context) {
	var req models.ForecastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	req.TermA = strings.TrimSpace(req.TermA)
	req.TermB = strings.TrimSpace(req.TermB)
	if req.TermA == "" || req.TermB == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "term_a and term_b are required"})
		return
	}

	inputHash := services.HashForecastInput(&req)
	if h.packCache != nil {
		if pack, ok := h.packCache.Get(c.Request.Context(), inputHash); ok {
			c.JSON(http.StatusOK, pack)
			return
		}
	}

	pack, err := h.forecastService.Compare(c.Request.Context(), &req)
	if err != nil {
		var validationErr *utils.ValidationError
		if errors.As(err, &validationErr) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": validationErr.Message,
				"field": validationErr.Field,
			})
			return
		}
		h.logger.WithError(err).Error("Forecast comparison failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute forecast"})
		return
	}

	if h.packCache != nil {
		h.packCache.Set(c.Request.Context(), pack)
	}

	c.JSON(http.StatusOK, pack)
}
