package store

import (
	"context"
	"sync"
	"time"

	"upscaler/internal/domain"
)

// MemoryStore keeps request state in process. Used in tests and when the
// service runs without a hosted table; there is no upstream ingestion in that
// mode, so writes upsert instead of requiring an existing row.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]domain.StatusRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]domain.StatusRecord)}
}

func (s *MemoryStore) UpdateStatus(_ context.Context, requestID string, status domain.Status, errorMessage string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := s.records[requestID]
	record.RequestID = requestID
	record.Status = status
	record.ErrorMessage = errorMessage
	if status == domain.StatusFailed {
		now := time.Now().UTC()
		record.CompletedAt = &now
	}
	s.records[requestID] = record
	return nil
}

func (s *MemoryStore) RecordProduction(_ context.Context, requestID string, result domain.TransformationResult, _ domain.UpscalingStrategy, validation domain.ValidationResult, status domain.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := s.records[requestID]
	record.RequestID = requestID
	record.Status = status
	record.ProductionURL = result.SecureURL
	record.QualityMetrics = &validation
	record.ErrorMessage = ""
	now := time.Now().UTC()
	record.CompletedAt = &now
	s.records[requestID] = record
	return nil
}

func (s *MemoryStore) GetStatus(_ context.Context, requestID string) (domain.StatusRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[requestID]
	if !ok {
		return domain.StatusRecord{}, domain.ErrNotFound
	}
	return record, nil
}
