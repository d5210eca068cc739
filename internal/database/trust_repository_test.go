package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrustStatsRepositoryGetByPeriod(t *testing.T) {
	t.Run("returns the record for a period", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		updatedAt := time.Date(2026, 6, 1, 3, 0, 0, 0, time.UTC)
		rows := pgxmock.NewRows([]string{
			"period", "total_evaluated", "winner_accuracy_percent",
			"interval_coverage_percent", "last_90_days_accuracy",
			"sample_size", "updated_at",
		}).AddRow("30d", 412, "71.40", "93.20", "69.80", 412, updatedAt)

		mock.ExpectQuery("SELECT period, total_evaluated, winner_accuracy_percent").
			WithArgs("30d").
			WillReturnRows(rows)

		repo := NewTrustStatsRepository(mock)
		stats, err := repo.GetByPeriod(context.Background(), "30d")
		require.NoError(t, err)
		assert.Equal(t, "30d", stats.Period)
		assert.Equal(t, 412, stats.TotalEvaluated)
		assert.Equal(t, "71.4", stats.WinnerAccuracyPercent.String())
		assert.Equal(t, updatedAt, stats.UpdatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing period maps to not found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery("SELECT period, total_evaluated, winner_accuracy_percent").
			WithArgs("7d").
			WillReturnError(pgx.ErrNoRows)

		repo := NewTrustStatsRepository(mock)
		_, err = repo.GetByPeriod(context.Background(), "7d")
		assert.ErrorIs(t, err, ErrTrustStatsNotFound)
	})

	t.Run("other errors are wrapped", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery("SELECT period, total_evaluated, winner_accuracy_percent").
			WithArgs("90d").
			WillReturnError(errors.New("timeout"))

		repo := NewTrustStatsRepository(mock)
		_, err = repo.GetByPeriod(context.Background(), "90d")
		assert.ErrorContains(t, err, "failed to get trust stats")
	})
}
