package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/trendduel/trendduel-ai-go/internal/database"
	"github.com/trendduel/trendduel-ai-go/internal/services"
)

var validTrustPeriods = map[string]bool{
	"7d":  true,
	"30d": true,
	"90d": true,
	"all": true,
}

// TrustHandler serves the public forecast accuracy record.
type TrustHandler struct {
	trustService *services.TrustStatsService
	logger       *logrus.Logger
}

// NewTrustHandler creates a new trust handler.
func NewTrustHandler(trustService *services.TrustStatsService, logger *logrus.Logger) *TrustHandler {
	return &TrustHandler{trustService: trustService, logger: logger}
}

// GetStats handles GET /api/v1/trust/:period.
func (h *TrustHandler) GetStats(c *gin.Context) {
	period := c.Param("period")
	if !validTrustPeriods[period] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "period must be one of 7d, 30d, 90d, all"})
		return
	}

	stats, err := h.trustService.GetStats(c.Request.Context(), period)
	if err != nil {
		if errors.Is(err, database.ErrTrustStatsNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no evaluation record for period"})
			return
		}
		h.logger.WithError(err).WithField("period", period).Error("Failed to get trust stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get trust stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}
