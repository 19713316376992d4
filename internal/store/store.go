package store

import (
	"context"

	"upscaler/internal/domain"
)

// ArtworkStore persists request status and production metrics in the hosted
// artwork_requests table. Rows are created by order ingestion upstream; this
// service only updates and reads them.
type ArtworkStore interface {
	// UpdateStatus writes the lifecycle status and, when non-empty, an error
	// message for the request.
	UpdateStatus(ctx context.Context, requestID string, status domain.Status, errorMessage string) error

	// RecordProduction stores the full production outcome of one attempt.
	// Repeated attempts for the same request overwrite the previous outcome.
	RecordProduction(ctx context.Context, requestID string, result domain.TransformationResult, strategy domain.UpscalingStrategy, validation domain.ValidationResult, status domain.Status) error

	// GetStatus returns the last known state of a request, or
	// domain.ErrNotFound when the request id is unknown.
	GetStatus(ctx context.Context, requestID string) (domain.StatusRecord, error)
}
