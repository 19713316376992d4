package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/supabase-community/supabase-go"

	"upscaler/internal/domain"
)

const artworkTable = "artwork_requests"

// SupabaseStore implements ArtworkStore against the hosted artwork_requests
// table via the Supabase REST API.
type SupabaseStore struct {
	client *supabase.Client
}

func NewSupabaseStore(url, key string) (*SupabaseStore, error) {
	client, err := supabase.NewClient(url, key, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("create supabase client: %w", err)
	}
	return &SupabaseStore{client: client}, nil
}

func (s *SupabaseStore) UpdateStatus(_ context.Context, requestID string, status domain.Status, errorMessage string) error {
	updateData := map[string]interface{}{
		"status": string(status),
	}
	if errorMessage != "" {
		updateData["error_message"] = errorMessage
	}
	if status == domain.StatusFailed {
		updateData["processing_completed_at"] = time.Now().UTC().Format(time.RFC3339)
	}

	_, _, err := s.client.From(artworkTable).
		Update(updateData, "", "").
		Eq("request_id", requestID).
		Execute()
	if err != nil {
		return fmt.Errorf("update status for %s: %w", requestID, err)
	}
	return nil
}

func (s *SupabaseStore) RecordProduction(_ context.Context, requestID string, result domain.TransformationResult, strategy domain.UpscalingStrategy, validation domain.ValidationResult, status domain.Status) error {
	strategyJSON, err := json.Marshal(strategy)
	if err != nil {
		return fmt.Errorf("marshal strategy: %w", err)
	}
	validationJSON, err := json.Marshal(validation)
	if err != nil {
		return fmt.Errorf("marshal validation: %w", err)
	}

	updateData := map[string]interface{}{
		"artwork_production_url":     result.SecureURL,
		"production_cloudinary_id":   result.AssetID,
		"upscaling_strategy":         json.RawMessage(strategyJSON),
		"production_quality_metrics": json.RawMessage(validationJSON),
		"status":                     string(status),
		"error_message":              nil,
		"processing_completed_at":    time.Now().UTC().Format(time.RFC3339),
	}

	_, _, err = s.client.From(artworkTable).
		Update(updateData, "", "").
		Eq("request_id", requestID).
		Execute()
	if err != nil {
		return fmt.Errorf("record production data for %s: %w", requestID, err)
	}
	return nil
}

type artworkRow struct {
	RequestID            string          `json:"request_id"`
	Status               string          `json:"status"`
	ArtworkURL           string          `json:"artwork_url"`
	ArtworkProductionURL *string         `json:"artwork_production_url"`
	QualityMetrics       json.RawMessage `json:"production_quality_metrics"`
	ErrorMessage         *string         `json:"error_message"`
	CompletedAt          *time.Time      `json:"processing_completed_at"`
}

func (s *SupabaseStore) GetStatus(_ context.Context, requestID string) (domain.StatusRecord, error) {
	data, _, err := s.client.From(artworkTable).
		Select("*", "exact", false).
		Eq("request_id", requestID).
		Execute()
	if err != nil {
		return domain.StatusRecord{}, fmt.Errorf("query artwork request %s: %w", requestID, err)
	}

	var rows []artworkRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return domain.StatusRecord{}, fmt.Errorf("parse artwork request response: %w", err)
	}
	if len(rows) == 0 {
		return domain.StatusRecord{}, domain.ErrNotFound
	}

	row := rows[0]
	record := domain.StatusRecord{
		RequestID:   row.RequestID,
		Status:      domain.Status(row.Status),
		ArtworkURL:  row.ArtworkURL,
		CompletedAt: row.CompletedAt,
	}
	if row.ArtworkProductionURL != nil {
		record.ProductionURL = *row.ArtworkProductionURL
	}
	if row.ErrorMessage != nil {
		record.ErrorMessage = *row.ErrorMessage
	}
	if len(row.QualityMetrics) > 0 && string(row.QualityMetrics) != "null" {
		var metrics domain.ValidationResult
		if err := json.Unmarshal(row.QualityMetrics, &metrics); err != nil {
			return domain.StatusRecord{}, fmt.Errorf("parse quality metrics: %w", err)
		}
		record.QualityMetrics = &metrics
	}
	return record, nil
}
