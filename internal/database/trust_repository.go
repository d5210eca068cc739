package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/trendduel/trendduel-ai-go/internal/models"
)

// ErrTrustStatsNotFound indicates no evaluation record exists for the
// requested period yet.
var ErrTrustStatsNotFound = errors.New("trust stats not found")

// TrustStatsRepository reads the rolling accuracy records written by the
// forecast evaluation job.
type TrustStatsRepository struct {
	pool DatabasePool
}

// NewTrustStatsRepository creates a new trust stats repository.
func NewTrustStatsRepository(pool DatabasePool) *TrustStatsRepository {
	return &TrustStatsRepository{pool: pool}
}

// GetByPeriod returns the accuracy record for one evaluation period, e.g.
// "30d" or "90d".
func (r *TrustStatsRepository) GetByPeriod(ctx context.Context, period string) (*models.TrustStats, error) {
	query := `
		SELECT period, total_evaluated, winner_accuracy_percent,
		       interval_coverage_percent, last_90_days_accuracy,
		       sample_size, updated_at
		FROM forecast_trust_stats
		WHERE period = $1
	`

	var stats models.TrustStats
	err := r.pool.QueryRow(ctx, query, period).Scan(
		&stats.Period,
		&stats.TotalEvaluated,
		&stats.WinnerAccuracyPercent,
		&stats.IntervalCoveragePercent,
		&stats.Last90DaysAccuracy,
		&stats.SampleSize,
		&stats.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTrustStatsNotFound
		}
		return nil, fmt.Errorf("failed to get trust stats for period %s: %w", period, err)
	}

	return &stats, nil
}
