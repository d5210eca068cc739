package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/trendduel/trendduel-ai-go/internal/models"
)

// DatabasePool defines the interface for database pool operations.
// This interface allows for both real pool and mock pool implementations.
type DatabasePool interface {
	// QueryRow executes a query that is expected to return at most one row.
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	// Exec executes a query without returning any rows.
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	// Query executes a query that returns rows.
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

// PeakRepository handles database operations for recorded interest peaks.
type PeakRepository struct {
	pool DatabasePool
}

// NewPeakRepository creates a new peak repository.
func NewPeakRepository(pool DatabasePool) *PeakRepository {
	return &PeakRepository{pool: pool}
}

// ListPeaks returns the full recorded peak history for a keyword, oldest
// first.
func (r *PeakRepository) ListPeaks(ctx context.Context, keyword string) ([]models.HistoricalPeak, error) {
	query := `
		SELECT keyword, peak_date, magnitude, value
		FROM keyword_peaks
		WHERE keyword = $1
		ORDER BY peak_date ASC
	`

	rows, err := r.pool.Query(ctx, query, keyword)
	if err != nil {
		return nil, fmt.Errorf("failed to list peaks for %s: %w", keyword, err)
	}
	defer rows.Close()

	var peaks []models.HistoricalPeak
	for rows.Next() {
		var peak models.HistoricalPeak
		if err := rows.Scan(&peak.Keyword, &peak.Date, &peak.Magnitude, &peak.Value); err != nil {
			return nil, fmt.Errorf("failed to scan peak row: %w", err)
		}
		peaks = append(peaks, peak)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read peak rows: %w", err)
	}

	return peaks, nil
}

// RecordPeak appends one peak observation. Duplicate (keyword, date) entries
// are ignored so re-ingestion is safe.
func (r *PeakRepository) RecordPeak(ctx context.Context, peak models.HistoricalPeak) error {
	query := `
		INSERT INTO keyword_peaks (keyword, peak_date, magnitude, value)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (keyword, peak_date) DO NOTHING
	`

	if _, err := r.pool.Exec(ctx, query, peak.Keyword, peak.Date, peak.Magnitude, peak.Value); err != nil {
		return fmt.Errorf("failed to record peak for %s: %w", peak.Keyword, err)
	}
	return nil
}
