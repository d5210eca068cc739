package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/trendduel/trendduel-ai-go/internal/api/handlers"
	"github.com/trendduel/trendduel-ai-go/internal/cache"
	"github.com/trendduel/trendduel-ai-go/internal/config"
	"github.com/trendduel/trendduel-ai-go/internal/database"
	"github.com/trendduel/trendduel-ai-go/internal/middleware"
	"github.com/trendduel/trendduel-ai-go/internal/services"
)

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Services  Services  `json:"services"`
}

type Services struct {
	Database string `json:"database"`
	Redis    string `json:"redis"`
}

// SetupRoutes wires the full API surface. db and redis may be nil in tests;
// the forecast and pattern endpoints that do not need them keep working.
func SetupRoutes(router *gin.Engine, cfg *config.Config, logger *logrus.Logger, db *database.PostgresDB, redis *database.RedisClient) {
	router.Use(middleware.RequestID())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	var packCache *cache.RedisPackCache
	var redisClient *goredis.Client
	if redis != nil {
		packCache = cache.NewRedisPackCache(redis.Client, logger, cfg.Forecast.ForecastCacheTTL())
		redisClient = redis.Client
	}

	forecastService := services.NewForecastService(cfg, logger)
	forecastHandler := handlers.NewForecastHandler(forecastService, packCache, logger)

	analyzer := services.NewPatternAnalyzer(&cfg.Pattern, logger)
	var peakRepo handlers.PeakStore
	var trustHandler *handlers.TrustHandler
	if db != nil {
		peakRepo = database.NewPeakRepository(db.Pool)
		trustRepo := database.NewTrustStatsRepository(db.Pool)
		trustService := services.NewTrustStatsService(trustRepo, redisClient, logger, cfg.Trust.TrustCacheTTL())
		trustHandler = handlers.NewTrustHandler(trustService, logger)
	}
	patternHandler := handlers.NewPatternHandler(analyzer, peakRepo, logger)

	// Health check endpoint
	router.GET("/health", healthCheck(db, redis))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		forecast := v1.Group("/forecast")
		{
			forecast.POST("/compare", forecastHandler.Compare)
		}

		patterns := v1.Group("/patterns")
		{
			patterns.POST("/analyze", patternHandler.Analyze)
			if peakRepo != nil {
				patterns.POST("/peaks", patternHandler.RecordPeak)
			}
		}

		if trustHandler != nil {
			trust := v1.Group("/trust")
			{
				trust.GET("/:period", trustHandler.GetStats)
			}
		}
	}
}

func healthCheck(db *database.PostgresDB, redis *database.RedisClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		response := HealthResponse{
			Status:    "ok",
			Timestamp: time.Now(),
			Version:   "1.0.0",
			Services: Services{
				Database: "ok",
				Redis:    "ok",
			},
		}

		// Check database health
		if db == nil {
			response.Services.Database = "disabled"
		} else if err := db.HealthCheck(c.Request.Context()); err != nil {
			response.Services.Database = "error"
			response.Status = "degraded"
		}

		// Check Redis health
		if redis == nil {
			response.Services.Redis = "disabled"
		} else if err := redis.HealthCheck(c.Request.Context()); err != nil {
			response.Services.Redis = "error"
			response.Status = "degraded"
		}

		statusCode := http.StatusOK
		if response.Status == "degraded" {
			statusCode = http.StatusServiceUnavailable
		}

		c.JSON(statusCode, response)
	}
}
