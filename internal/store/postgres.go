package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"upscaler/internal/domain"
)

const artworkSchemaSQL = `
CREATE TABLE IF NOT EXISTS artwork_requests (
	request_id TEXT PRIMARY KEY,
	shopify_order_id TEXT NOT NULL DEFAULT '',
	product_title TEXT NOT NULL DEFAULT '',
	variant_title TEXT NOT NULL DEFAULT '',
	artwork_url TEXT NOT NULL DEFAULT '',
	artwork_production_url TEXT,
	production_cloudinary_id TEXT,
	upscaling_strategy JSONB,
	production_quality_metrics JSONB,
	status TEXT NOT NULL DEFAULT 'pending',
	error_message TEXT,
	processing_completed_at TIMESTAMPTZ
);
`

// PostgresStore implements ArtworkStore against a self-hosted Postgres mirror
// of the artwork_requests table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	s := &PostgresStore{pool: pool}
	if _, err := pool.Exec(ctx, artworkSchemaSQL); err != nil {
		return nil, fmt.Errorf("ensure artwork_requests schema: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, requestID string, status domain.Status, errorMessage string) error {
	var completedAt *time.Time
	if status == domain.StatusFailed {
		now := time.Now().UTC()
		completedAt = &now
	}
	_, err := s.pool.Exec(ctx, `
UPDATE artwork_requests
SET status = $1,
    error_message = NULLIF($2, ''),
    processing_completed_at = COALESCE($3, processing_completed_at)
WHERE request_id = $4;
`, string(status), errorMessage, completedAt, requestID)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	return nil
}

func (s *PostgresStore) RecordProduction(ctx context.Context, requestID string, result domain.TransformationResult, strategy domain.UpscalingStrategy, validation domain.ValidationResult, status domain.Status) error {
	strategyJSON, err := json.Marshal(strategy)
	if err != nil {
		return fmt.Errorf("marshal strategy: %w", err)
	}
	validationJSON, err := json.Marshal(validation)
	if err != nil {
		return fmt.Errorf("marshal validation: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
UPDATE artwork_requests
SET artwork_production_url = $1,
    production_cloudinary_id = $2,
    upscaling_strategy = $3,
    production_quality_metrics = $4,
    status = $5,
    error_message = NULL,
    processing_completed_at = $6
WHERE request_id = $7;
`, result.SecureURL, result.AssetID, strategyJSON, validationJSON, string(status), time.Now().UTC(), requestID)
	if err != nil {
		return fmt.Errorf("record production data: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetStatus(ctx context.Context, requestID string) (domain.StatusRecord, error) {
	row := s.pool.QueryRow(ctx, `
SELECT request_id, status, artwork_url, artwork_production_url, production_quality_metrics, error_message, processing_completed_at
FROM artwork_requests
WHERE request_id = $1;
`, requestID)

	var (
		record         domain.StatusRecord
		productionURL  *string
		metricsJSON    []byte
		errorMessage   *string
		completedAt    *time.Time
		statusAsString string
	)
	if err := row.Scan(&record.RequestID, &statusAsString, &record.ArtworkURL, &productionURL, &metricsJSON, &errorMessage, &completedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.StatusRecord{}, domain.ErrNotFound
		}
		return domain.StatusRecord{}, fmt.Errorf("query artwork request: %w", err)
	}

	record.Status = domain.Status(statusAsString)
	if productionURL != nil {
		record.ProductionURL = *productionURL
	}
	if errorMessage != nil {
		record.ErrorMessage = *errorMessage
	}
	record.CompletedAt = completedAt
	if len(metricsJSON) > 0 {
		var metrics domain.ValidationResult
		if err := json.Unmarshal(metricsJSON, &metrics); err != nil {
			return domain.StatusRecord{}, fmt.Errorf("unmarshal quality metrics: %w", err)
		}
		record.QualityMetrics = &metrics
	}
	return record, nil
}
