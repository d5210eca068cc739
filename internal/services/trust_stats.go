package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/trendduel/trendduel-ai-go/internal/models"
)

// TrustStatsReader is the read side of the trust stats store.
type TrustStatsReader interface {
	GetByPeriod(ctx context.Context, period string) (*models.TrustStats, error)
}

// TrustStatsService serves the public accuracy record behind a short-TTL
// cache. Stats change only when the nightly evaluation job runs, so a few
// minutes of staleness is acceptable and keeps the hot path off postgres.
type TrustStatsService struct {
	repo   TrustStatsReader
	redis  *redis.Client
	logger *logrus.Logger
	ttl    time.Duration
}

// NewTrustStatsService creates a new trust stats service. redisClient may be
// nil, in which case every read goes to the repository.
func NewTrustStatsService(repo TrustStatsReader, redisClient *redis.Client, logger *logrus.Logger, ttl time.Duration) *TrustStatsService {
	return &TrustStatsService{
		repo:   repo,
		redis:  redisClient,
		logger: logger,
		ttl:    ttl,
	}
}

// GetStats returns the accuracy record for one evaluation period.
func (s *TrustStatsService) GetStats(ctx context.Context, period string) (*models.TrustStats, error) {
	cacheKey := "trust_stats:" + period

	if s.redis != nil {
		data, err := s.redis.Get(ctx, cacheKey).Result()
		if err == nil {
			var stats models.TrustStats
			if err := json.Unmarshal([]byte(data), &stats); err == nil {
				return &stats, nil
			}
			s.logger.WithError(err).Warn("Error deserializing cached trust stats")
		} else if err != redis.Nil {
			s.logger.WithError(err).Warn("Redis error getting trust stats")
		}
	}

	stats, err := s.repo.GetByPeriod(ctx, period)
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		if data, err := json.Marshal(stats); err == nil {
			if err := s.redis.Set(ctx, cacheKey, data, s.ttl).Err(); err != nil {
				s.logger.WithError(err).Warn("Redis error setting trust stats")
			}
		}
	}

	return stats, nil
}
